package format

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/temporal"
)

// DateTimeFormatter 日期时间格式化器
// 严格模式下各字段做范围检查，宽松模式下越界字段按 time.Date 规则进位
type DateTimeFormatter struct {
	typ      reflect.Type
	opts     Options
	pattern  string
	tokens   []dateToken
	location *time.Location
}

var _ TextFormatter = (*DateTimeFormatter)(nil)

// NewDateTimeFormatter 创建日期时间格式化器
func NewDateTimeFormatter(typ reflect.Type, opts Options) (*DateTimeFormatter, error) {
	if !IsTemporalType(typ) {
		return nil, fmt.Errorf("%w: %v is not a date/time type", core.ErrUnsupportedType, typ)
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern(typ)
	}
	tokens, err := compileDatePattern(pattern)
	if err != nil {
		return nil, err
	}

	location := opts.Location
	if location == nil {
		location = time.Local
	}

	return &DateTimeFormatter{
		typ:      Indirect(typ),
		opts:     opts,
		pattern:  pattern,
		tokens:   tokens,
		location: location,
	}, nil
}

// Pattern 格式模式
func (f *DateTimeFormatter) Pattern() string {
	return f.pattern
}

// MessageKey 解析失败消息键
func (f *DateTimeFormatter) MessageKey() string {
	return f.opts.messageKey()
}

// MessageVariables 消息变量
func (f *DateTimeFormatter) MessageVariables() map[string]any {
	return map[string]any{VarPattern: f.pattern}
}

// dateFields 解析出的字段
type dateFields struct {
	year, month, day     int
	hour, minute, second int
	nanos                int
	hourKind             fieldKind
	hasAmPm, pm          bool
	location             *time.Location
	weekday              int
	hasWeekday           bool
}

// Parse 解析文本
func (f *DateTimeFormatter) Parse(text string) (any, error) {
	fields := dateFields{year: 1970, month: 1, day: 1, hourKind: fieldHour, weekday: -1}
	lenient := f.opts.Lenient
	s := text
	pos := 0

	for i, tok := range f.tokens {
		rest := s[pos:]

		if tok.kind == fieldLiteral {
			if !strings.HasPrefix(rest, tok.literal) {
				return nil, parseError(text, fmt.Sprintf("expected '%s' at %d", tok.literal, pos))
			}
			pos += len(tok.literal)
			continue
		}

		if tok.numeric() {
			adjacent := i+1 < len(f.tokens) && f.tokens[i+1].numeric()
			minWidth, maxWidth := tok.widths(adjacent, lenient)
			n := 0
			for n < len(rest) && n < maxWidth && rest[n] >= '0' && rest[n] <= '9' {
				n++
			}
			if n < minWidth || n == 0 {
				return nil, parseError(text, fmt.Sprintf("expected digits at %d", pos))
			}
			value, _ := strconv.Atoi(rest[:n])
			pos += n
			f.assign(&fields, tok, value, n)
			continue
		}

		switch tok.kind {
		case fieldMonth:
			idx, n := matchName(rest, monthNames)
			if idx < 0 {
				return nil, parseError(text, "unknown month name")
			}
			fields.month = idx + 1
			pos += n
		case fieldWeekday:
			idx, n := matchName(rest, weekdayNames)
			if idx < 0 {
				return nil, parseError(text, "unknown weekday name")
			}
			fields.weekday = idx
			fields.hasWeekday = true
			pos += n
		case fieldAmPm:
			if len(rest) < 2 {
				return nil, parseError(text, "expected AM/PM")
			}
			switch strings.ToUpper(rest[:2]) {
			case "AM":
				fields.pm = false
			case "PM":
				fields.pm = true
			default:
				return nil, parseError(text, "expected AM/PM")
			}
			fields.hasAmPm = true
			pos += 2
		case fieldZoneName, fieldZoneRFC, fieldZoneISO:
			loc, n, ok := f.parseZone(rest, tok)
			if !ok {
				return nil, parseError(text, "invalid time zone")
			}
			fields.location = loc
			pos += n
		}
	}

	if pos != len(s) {
		return nil, parseError(text, fmt.Sprintf("unparsed text at %d", pos))
	}

	t, err := f.resolve(text, &fields, lenient)
	if err != nil {
		return nil, err
	}
	return f.toValue(t), nil
}

func (f *DateTimeFormatter) assign(fields *dateFields, tok dateToken, value, digits int) {
	switch tok.kind {
	case fieldYear:
		if tok.count == 2 && digits == 2 {
			value += 2000
		}
		fields.year = value
	case fieldMonth:
		fields.month = value
	case fieldDay:
		fields.day = value
	case fieldHour, fieldHour24, fieldHour11, fieldHour12:
		fields.hour = value
		fields.hourKind = tok.kind
	case fieldMinute:
		fields.minute = value
	case fieldSecond:
		fields.second = value
	case fieldFraction:
		for i := digits; i < 9; i++ {
			value *= 10
		}
		for i := digits; i > 9; i-- {
			value /= 10
		}
		fields.nanos = value
	}
}

func (f *DateTimeFormatter) parseZone(s string, tok dateToken) (*time.Location, int, bool) {
	if tok.kind == fieldZoneName {
		n := 0
		for n < len(s) && ((s[n] >= 'A' && s[n] <= 'Z') || (s[n] >= 'a' && s[n] <= 'z')) {
			n++
		}
		name := s[:n]
		switch {
		case n == 0:
			return nil, 0, false
		case name == "UTC" || name == "GMT" || name == "Z":
			return time.UTC, n, true
		}
		for _, month := range []time.Month{time.January, time.July} {
			abbr, _ := time.Date(2000, month, 1, 0, 0, 0, 0, f.location).Zone()
			if abbr == name {
				return f.location, n, true
			}
		}
		return nil, 0, false
	}

	if strings.HasPrefix(s, "Z") && tok.kind == fieldZoneISO {
		return time.UTC, 1, true
	}
	if len(s) < 3 || (s[0] != '+' && s[0] != '-') {
		return nil, 0, false
	}

	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	hours, err := strconv.Atoi(s[1:3])
	if err != nil {
		return nil, 0, false
	}
	n := 3
	minutes := 0
	rest := s[3:]
	if strings.HasPrefix(rest, ":") && len(rest) >= 3 {
		rest = rest[1:]
		n++
	}
	if len(rest) >= 2 && rest[0] >= '0' && rest[0] <= '9' {
		if m, err := strconv.Atoi(rest[:2]); err == nil {
			minutes = m
			n += 2
		}
	}
	offset := sign * (hours*3600 + minutes*60)
	return time.FixedZone("", offset), n, true
}

func (f *DateTimeFormatter) resolve(text string, fields *dateFields, lenient bool) (time.Time, error) {
	hour := fields.hour
	switch fields.hourKind {
	case fieldHour24:
		if !lenient && (hour < 1 || hour > 24) {
			return time.Time{}, parseError(text, "hour out of range")
		}
		if hour == 24 {
			hour = 0
		}
	case fieldHour11:
		if !lenient && hour > 11 {
			return time.Time{}, parseError(text, "hour out of range")
		}
	case fieldHour12:
		if !lenient && (hour < 1 || hour > 12) {
			return time.Time{}, parseError(text, "hour out of range")
		}
		hour %= 12
	default:
		if !lenient && hour > 23 {
			return time.Time{}, parseError(text, "hour out of range")
		}
	}
	if fields.hasAmPm && fields.pm && hour < 12 {
		hour += 12
	}

	if !lenient {
		if fields.month < 1 || fields.month > 12 {
			return time.Time{}, parseError(text, "month out of range")
		}
		if fields.day < 1 || fields.day > daysIn(fields.year, time.Month(fields.month)) {
			return time.Time{}, parseError(text, "day out of range")
		}
		if fields.minute > 59 || fields.second > 59 {
			return time.Time{}, parseError(text, "time out of range")
		}
	}

	loc := fields.location
	if loc == nil {
		loc = f.location
	}
	t := time.Date(fields.year, time.Month(fields.month), fields.day,
		hour, fields.minute, fields.second, fields.nanos, loc)

	if !lenient && fields.hasWeekday && int(t.Weekday()) != fields.weekday {
		return time.Time{}, parseError(text, "weekday does not match date")
	}
	return t, nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (f *DateTimeFormatter) toValue(t time.Time) any {
	switch f.typ {
	case dateType:
		return temporal.DateOf(t.Year(), t.Month(), t.Day())
	case clockType:
		return temporal.Time{Time: time.Date(1970, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
	case timestampType:
		return temporal.Timestamp{Time: t}
	case yearMonthType:
		return temporal.YearMonth{Year: t.Year(), Month: t.Month()}
	}
	return t
}

// Print 输出文本
func (f *DateTimeFormatter) Print(value any) (string, error) {
	value = deref(value)
	if value == nil {
		return "", nil
	}

	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v.In(f.location)
	case temporal.Timestamp:
		t = v.In(f.location)
	case temporal.Date:
		t = v.Time
	case temporal.Time:
		t = v.Time
	case temporal.YearMonth:
		t = v.AtDay(1, time.UTC)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}

	var sb strings.Builder
	for _, tok := range f.tokens {
		f.printToken(&sb, tok, t)
	}
	return sb.String(), nil
}

func (f *DateTimeFormatter) printToken(sb *strings.Builder, tok dateToken, t time.Time) {
	pad := func(value, width int) {
		s := strconv.Itoa(value)
		for i := len(s); i < width; i++ {
			sb.WriteByte('0')
		}
		sb.WriteString(s)
	}

	switch tok.kind {
	case fieldLiteral:
		sb.WriteString(tok.literal)
	case fieldYear:
		if tok.count == 2 {
			pad(t.Year()%100, 2)
		} else {
			pad(t.Year(), tok.count)
		}
	case fieldMonth:
		switch {
		case tok.count >= 4:
			sb.WriteString(monthNames[t.Month()-1])
		case tok.count == 3:
			sb.WriteString(monthNames[t.Month()-1][:3])
		default:
			pad(int(t.Month()), tok.count)
		}
	case fieldDay:
		pad(t.Day(), tok.count)
	case fieldHour:
		pad(t.Hour(), tok.count)
	case fieldHour24:
		h := t.Hour()
		if h == 0 {
			h = 24
		}
		pad(h, tok.count)
	case fieldHour11:
		pad(t.Hour()%12, tok.count)
	case fieldHour12:
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		pad(h, tok.count)
	case fieldMinute:
		pad(t.Minute(), tok.count)
	case fieldSecond:
		pad(t.Second(), tok.count)
	case fieldFraction:
		nanos := t.Nanosecond()
		for i := tok.count; i < 9; i++ {
			nanos /= 10
		}
		pad(nanos, tok.count)
	case fieldAmPm:
		if t.Hour() < 12 {
			sb.WriteString("AM")
		} else {
			sb.WriteString("PM")
		}
	case fieldWeekday:
		name := weekdayNames[t.Weekday()]
		if tok.count <= 3 {
			name = name[:3]
		}
		sb.WriteString(name)
	case fieldZoneName:
		sb.WriteString(t.Format("MST"))
	case fieldZoneRFC:
		sb.WriteString(t.Format("-0700"))
	case fieldZoneISO:
		if _, offset := t.Zone(); offset == 0 {
			sb.WriteByte('Z')
			return
		}
		switch tok.count {
		case 1:
			sb.WriteString(t.Format("-07"))
		case 2:
			sb.WriteString(t.Format("-0700"))
		default:
			sb.WriteString(t.Format("-07:00"))
		}
	}
}
