package format

import (
	"fmt"
	"strings"

	"katydid-common-csv/pkg/csvbind/core"
)

type fieldKind int8

const (
	fieldLiteral  fieldKind = iota
	fieldYear               // y u
	fieldMonth              // M L
	fieldDay                // d
	fieldHour               // H 0-23
	fieldHour24             // k 1-24
	fieldHour11             // K 0-11
	fieldHour12             // h 1-12
	fieldMinute             // m
	fieldSecond             // s
	fieldFraction           // S
	fieldAmPm               // a
	fieldWeekday            // E
	fieldZoneName           // z
	fieldZoneRFC            // Z
	fieldZoneISO            // X
)

var letterFields = map[rune]fieldKind{
	'y': fieldYear,
	'u': fieldYear,
	'M': fieldMonth,
	'L': fieldMonth,
	'd': fieldDay,
	'H': fieldHour,
	'k': fieldHour24,
	'K': fieldHour11,
	'h': fieldHour12,
	'm': fieldMinute,
	's': fieldSecond,
	'S': fieldFraction,
	'a': fieldAmPm,
	'E': fieldWeekday,
	'z': fieldZoneName,
	'Z': fieldZoneRFC,
	'X': fieldZoneISO,
}

// dateToken 日期模式的一个片段
type dateToken struct {
	kind    fieldKind
	count   int
	literal string
}

func (t dateToken) numeric() bool {
	switch t.kind {
	case fieldYear, fieldDay, fieldHour, fieldHour24, fieldHour11, fieldHour12,
		fieldMinute, fieldSecond, fieldFraction:
		return true
	case fieldMonth:
		return t.count <= 2
	}
	return false
}

// compileDatePattern 将日期模式编译为片段
func compileDatePattern(pattern string) ([]dateToken, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty date pattern", core.ErrInvalidPattern)
	}

	runes := []rune(pattern)
	tokens := make([]dateToken, 0, 8)
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, dateToken{kind: fieldLiteral, literal: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end >= len(runes) {
				return nil, fmt.Errorf("%w: unterminated quote in '%s'", core.ErrInvalidPattern, pattern)
			}
			if end == i+1 {
				literal.WriteRune('\'')
			} else {
				literal.WriteString(string(runes[i+1 : end]))
			}
			i = end + 1
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			kind, ok := letterFields[r]
			if !ok {
				return nil, fmt.Errorf("%w: unsupported letter '%c' in '%s'", core.ErrInvalidPattern, r, pattern)
			}
			count := 1
			for i+count < len(runes) && runes[i+count] == r {
				count++
			}
			flush()
			tokens = append(tokens, dateToken{kind: kind, count: count})
			i += count
		default:
			literal.WriteRune(r)
			i++
		}
	}
	flush()
	return tokens, nil
}

// widths 数值片段可读取的最少与最多位数
func (t dateToken) widths(adjacent, lenient bool) (int, int) {
	if t.kind == fieldYear && t.count == 2 {
		return 2, 2
	}

	maxWidth := 2
	switch t.kind {
	case fieldYear:
		maxWidth = 9
	case fieldFraction:
		maxWidth = 9
	}
	if t.count > maxWidth {
		maxWidth = t.count
	}
	if adjacent {
		maxWidth = t.count
		if t.kind == fieldYear && t.count < 4 {
			maxWidth = 4
		}
	}

	minWidth := t.count
	if lenient {
		minWidth = 1
	}
	if minWidth > maxWidth {
		minWidth = maxWidth
	}
	return minWidth, maxWidth
}

var (
	monthNames = []string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"}
	weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
)

// matchName 按名称前缀匹配，返回下标与消耗的长度
func matchName(s string, names []string) (int, int) {
	for i, name := range names {
		if len(s) >= len(name) && strings.EqualFold(s[:len(name)], name) {
			return i, len(name)
		}
	}
	for i, name := range names {
		short := name[:3]
		if len(s) >= 3 && strings.EqualFold(s[:3], short) {
			return i, 3
		}
	}
	return -1, 0
}
