// Package temporal 提供 time.Time 之外的日期时间值类型
package temporal

import (
	"fmt"
	"time"
)

// Date 仅包含日期部分，不表示时刻，解析结果固定为 UTC 零点
type Date struct {
	time.Time
}

// Time 仅包含时刻部分，日期固定为 1970-01-01 UTC
type Time struct {
	time.Time
}

// Timestamp 精确到纳秒的时间戳
type Timestamp struct {
	time.Time
}

// YearMonth 年月
type YearMonth struct {
	Year  int
	Month time.Month
}

// DateOf 创建日期
func DateOf(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// TimeOf 创建时刻
func TimeOf(hour, min, sec int) Time {
	return Time{Time: time.Date(1970, time.January, 1, hour, min, sec, 0, time.UTC)}
}

// YearMonthOf 创建年月
func YearMonthOf(year int, month time.Month) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// String 实现 fmt.Stringer
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// AtDay 转换为该月指定日期的零点
func (ym YearMonth) AtDay(day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, loc)
}

// Compare 比较年月，返回 -1、0 或 1
func (ym YearMonth) Compare(other YearMonth) int {
	switch {
	case ym.Year < other.Year:
		return -1
	case ym.Year > other.Year:
		return 1
	case ym.Month < other.Month:
		return -1
	case ym.Month > other.Month:
		return 1
	}
	return 0
}

// String 实现 fmt.Stringer
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// String 实现 fmt.Stringer
func (t Time) String() string {
	return t.Format("15:04:05")
}

// ToTime 将受支持的日期时间值转换为 time.Time
func ToTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case Date:
		return v.Time, true
	case Time:
		return v.Time, true
	case Timestamp:
		return v.Time, true
	case YearMonth:
		return v.AtDay(1, time.UTC), true
	}
	return time.Time{}, false
}

// Compare 比较两个同类日期时间值，返回 -1、0 或 1
// Date 按年月日比较，Time 按时分秒比较，与所在时区无关；其余按时刻比较
func Compare(a, b any) (int, error) {
	switch va := a.(type) {
	case YearMonth:
		vb, ok := b.(YearMonth)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return va.Compare(vb), nil
	case Date:
		if vb, ok := b.(Date); ok {
			return compareWall(dateKey(va.Time), dateKey(vb.Time)), nil
		}
	case Time:
		if vb, ok := b.(Time); ok {
			return compareWall(clockKey(va.Time), clockKey(vb.Time)), nil
		}
	}

	ta, ok := ToTime(a)
	if !ok {
		return 0, fmt.Errorf("unsupported temporal value %T", a)
	}
	tb, ok := ToTime(b)
	if !ok {
		return 0, fmt.Errorf("unsupported temporal value %T", b)
	}

	switch {
	case ta.Before(tb):
		return -1, nil
	case ta.After(tb):
		return 1, nil
	}
	return 0, nil
}

// dateKey 以所在时区的年月日构造 UTC 零点
func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// clockKey 以所在时区的时分秒构造 1970-01-01 UTC 时刻
func clockKey(t time.Time) time.Time {
	return time.Date(1970, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func compareWall(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
