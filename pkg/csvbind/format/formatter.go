// Package format 提供单元格文本与类型值之间的双向转换
package format

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"golang.org/x/text/language"

	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/temporal"
)

// DefaultMessageKey 没有格式注解时解析失败使用的消息键
const DefaultMessageKey = "processor.ParseProcessor.violated"

// VarPattern 模式消息变量名
const VarPattern = "pattern"

var (
	// ErrParse 文本无法按格式解析
	ErrParse = errors.New("cannot parse text")

	// ErrOverflow 数值超出目标类型范围
	ErrOverflow = errors.New("value out of range")

	// ErrUnsupportedValue 待格式化的值类型不受支持
	ErrUnsupportedValue = errors.New("unsupported value")
)

// TextFormatter 文本格式化器
// 职责：Parse 将文本解析为类型值，Print 将类型值输出为文本
// 实现必须是不可变的，可并发使用
type TextFormatter interface {
	Parse(text string) (any, error)
	Print(value any) (string, error)
	Pattern() string
	MessageKey() string
	MessageVariables() map[string]any
}

// Options 格式化器通用选项
type Options struct {
	Pattern    string         // 格式模式，为空时使用类型默认值
	Lenient    bool           // 宽松解析
	Locale     language.Tag   // 区域，影响数值分隔符
	Location   *time.Location // 时区，nil 时使用 time.Local
	MessageKey string         // 解析失败时的消息键，为空时使用 DefaultMessageKey
}

func (o Options) messageKey() string {
	if o.MessageKey == "" {
		return DefaultMessageKey
	}
	return o.MessageKey
}

// parseError 构造带原因的解析错误
func parseError(text string, reason string) error {
	return fmt.Errorf("%w '%s': %s", ErrParse, text, reason)
}

// ============================================================================
// 类型判别
// ============================================================================

var (
	timeType      = reflect.TypeOf(time.Time{})
	dateType      = reflect.TypeOf(temporal.Date{})
	clockType     = reflect.TypeOf(temporal.Time{})
	timestampType = reflect.TypeOf(temporal.Timestamp{})
	yearMonthType = reflect.TypeOf(temporal.YearMonth{})
)

// Indirect 去掉指针层
func Indirect(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}

// IsNumberType 是否为数值类型
func IsNumberType(typ reflect.Type) bool {
	typ = Indirect(typ)
	if typ == nil {
		return false
	}
	switch typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// IsTemporalType 是否为日期时间类型
func IsTemporalType(typ reflect.Type) bool {
	switch Indirect(typ) {
	case timeType, dateType, clockType, timestampType, yearMonthType:
		return true
	}
	return false
}

// IsBoolType 是否为布尔类型
func IsBoolType(typ reflect.Type) bool {
	typ = Indirect(typ)
	return typ != nil && typ.Kind() == reflect.Bool
}

// IsStringType 是否为字符串类型
func IsStringType(typ reflect.Type) bool {
	typ = Indirect(typ)
	return typ != nil && typ.Kind() == reflect.String
}

// DefaultPattern 日期时间类型的默认模式
func DefaultPattern(typ reflect.Type) string {
	switch Indirect(typ) {
	case timeType:
		return "yyyy-MM-dd HH:mm:ss"
	case dateType:
		return "yyyy-MM-dd"
	case clockType:
		return "HH:mm"
	case timestampType:
		return "yyyy-MM-dd HH:mm:ss.SSS"
	case yearMonthType:
		return "uuuu-MM"
	}
	return ""
}

// ForType 按类型创建默认格式化器
func ForType(typ reflect.Type, opts Options) (TextFormatter, error) {
	switch {
	case typ == nil:
		return nil, fmt.Errorf("%w: nil type", core.ErrUnsupportedType)
	case IsTemporalType(typ):
		return NewDateTimeFormatter(typ, opts)
	case IsNumberType(typ):
		return NewNumberFormatter(typ, opts)
	case IsBoolType(typ):
		return NewBooleanFormatter(typ, BooleanOptions{MessageKey: opts.MessageKey})
	case IsStringType(typ):
		return NewStringFormatter(typ), nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedType, typ)
}

// ZeroValue 非指针类型的零值，指针类型返回 nil
func ZeroValue(typ reflect.Type) any {
	if typ == nil || typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Interface {
		return nil
	}
	return reflect.Zero(typ).Interface()
}

// deref 解引用指针值，nil 指针返回 nil
func deref(value any) any {
	rv := reflect.ValueOf(value)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}
