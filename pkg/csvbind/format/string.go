package format

import (
	"fmt"
	"reflect"
)

// StringFormatter 字符串格式化器，原样输入输出
type StringFormatter struct {
	typ reflect.Type
}

var _ TextFormatter = (*StringFormatter)(nil)

// NewStringFormatter 创建字符串格式化器
func NewStringFormatter(typ reflect.Type) *StringFormatter {
	typ = Indirect(typ)
	if typ == nil || typ.Kind() != reflect.String {
		typ = reflect.TypeOf("")
	}
	return &StringFormatter{typ: typ}
}

func (f *StringFormatter) Pattern() string                  { return "" }
func (f *StringFormatter) MessageKey() string               { return DefaultMessageKey }
func (f *StringFormatter) MessageVariables() map[string]any { return map[string]any{} }

// Parse 转换为目标字符串类型
func (f *StringFormatter) Parse(text string) (any, error) {
	return reflect.ValueOf(text).Convert(f.typ).Interface(), nil
}

// Print 输出文本
func (f *StringFormatter) Print(value any) (string, error) {
	value = deref(value)
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return fmt.Sprint(value), nil
}
