package format

import (
	"fmt"
	"reflect"
	"strings"

	"katydid-common-csv/pkg/csvbind/core"
)

// 默认的真假值读取列表
var (
	DefaultReadForTrue  = []string{"true", "1", "yes", "on", "y", "t"}
	DefaultReadForFalse = []string{"false", "0", "no", "off", "n", "f"}
)

// BooleanOptions 布尔格式化选项
type BooleanOptions struct {
	ReadForTrue  []string
	ReadForFalse []string
	WriteAsTrue  string
	WriteAsFalse string
	IgnoreCase   bool
	FailToFalse  bool // 无法识别时视为 false 而不是失败
	MessageKey   string
}

// BooleanFormatter 布尔格式化器
type BooleanFormatter struct {
	typ  reflect.Type
	opts BooleanOptions
}

var _ TextFormatter = (*BooleanFormatter)(nil)

// NewBooleanFormatter 创建布尔格式化器
func NewBooleanFormatter(typ reflect.Type, opts BooleanOptions) (*BooleanFormatter, error) {
	if !IsBoolType(typ) {
		return nil, fmt.Errorf("%w: %v is not a bool type", core.ErrUnsupportedType, typ)
	}

	if len(opts.ReadForTrue) == 0 {
		opts.ReadForTrue = DefaultReadForTrue
	}
	if len(opts.ReadForFalse) == 0 {
		opts.ReadForFalse = DefaultReadForFalse
	}
	if opts.WriteAsTrue == "" {
		opts.WriteAsTrue = "true"
	}
	if opts.WriteAsFalse == "" {
		opts.WriteAsFalse = "false"
	}

	for _, t := range opts.ReadForTrue {
		if contains(opts.ReadForFalse, t, opts.IgnoreCase) {
			return nil, fmt.Errorf("%w: '%s' is both true and false", core.ErrInvalidAnnotation, t)
		}
	}

	return &BooleanFormatter{typ: Indirect(typ), opts: opts}, nil
}

func contains(values []string, target string, ignoreCase bool) bool {
	for _, v := range values {
		if v == target || (ignoreCase && strings.EqualFold(v, target)) {
			return true
		}
	}
	return false
}

// Pattern 布尔没有模式
func (f *BooleanFormatter) Pattern() string {
	return ""
}

// MessageKey 解析失败消息键
func (f *BooleanFormatter) MessageKey() string {
	if f.opts.MessageKey == "" {
		return DefaultMessageKey
	}
	return f.opts.MessageKey
}

// MessageVariables 消息变量
func (f *BooleanFormatter) MessageVariables() map[string]any {
	return map[string]any{
		"trueValues":  strings.Join(f.opts.ReadForTrue, ", "),
		"falseValues": strings.Join(f.opts.ReadForFalse, ", "),
		"ignoreCase":  f.opts.IgnoreCase,
		"failToFalse": f.opts.FailToFalse,
	}
}

// Parse 解析文本
func (f *BooleanFormatter) Parse(text string) (any, error) {
	var result bool
	switch {
	case contains(f.opts.ReadForTrue, text, f.opts.IgnoreCase):
		result = true
	case contains(f.opts.ReadForFalse, text, f.opts.IgnoreCase):
		result = false
	case f.opts.FailToFalse:
		result = false
	default:
		return nil, parseError(text, "not a boolean")
	}

	rv := reflect.New(f.typ).Elem()
	rv.SetBool(result)
	return rv.Interface(), nil
}

// Print 输出文本
func (f *BooleanFormatter) Print(value any) (string, error) {
	value = deref(value)
	if value == nil {
		return "", nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Bool {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
	if rv.Bool() {
		return f.opts.WriteAsTrue, nil
	}
	return f.opts.WriteAsFalse, nil
}
