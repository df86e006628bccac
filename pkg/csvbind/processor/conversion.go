package processor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"

	"katydid-common-csv/pkg/csvbind/core"
)

// ============================================================================
// 值转换，只作用于字符串，其他值原样通过
// ============================================================================

// stringConversion 字符串转换处理器
type stringConversion struct {
	base
	convert func(string) string
}

// Execute 执行转换
func (p *stringConversion) Execute(value any, ctx *core.CellContext) (any, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return value, nil
	}
	return p.convert(s), nil
}

// NewTrim 去除首尾空白
func NewTrim() core.Processor {
	return &stringConversion{base: base{name: "Trim"}, convert: strings.TrimSpace}
}

// NewTruncate 超过 maxSize 个字符时截断并追加后缀
func NewTruncate(maxSize int, suffix string) (core.Processor, error) {
	if maxSize < 1 {
		return nil, fmt.Errorf("%w: truncate maxSize must be >= 1, got %d", core.ErrInvalidAnnotation, maxSize)
	}
	return &stringConversion{
		base: base{name: "Truncate"},
		convert: func(s string) string {
			if utf8.RuneCountInString(s) <= maxSize {
				return s
			}
			return string([]rune(s)[:maxSize]) + suffix
		},
	}, nil
}

// NewUpper 转换为大写
func NewUpper(tag language.Tag) core.Processor {
	return &stringConversion{
		base: base{name: "Upper"},
		// Caser 有状态，每次调用单独创建
		convert: func(s string) string { return cases.Upper(tag).String(s) },
	}
}

// NewLower 转换为小写
func NewLower(tag language.Tag) core.Processor {
	return &stringConversion{
		base:    base{name: "Lower"},
		convert: func(s string) string { return cases.Lower(tag).String(s) },
	}
}

// NewRegexReplace 正则替换
func NewRegexReplace(pattern, replacement string) (core.Processor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidPattern, err)
	}
	return &stringConversion{
		base:    base{name: "RegexReplace"},
		convert: func(s string) string { return re.ReplaceAllString(s, replacement) },
	}, nil
}

// NewLeftPad 左侧补齐到 size 个字符
func NewLeftPad(size int, pad rune) (core.Processor, error) {
	return newPad("LeftPad", size, pad, true)
}

// NewRightPad 右侧补齐到 size 个字符
func NewRightPad(size int, pad rune) (core.Processor, error) {
	return newPad("RightPad", size, pad, false)
}

func newPad(name string, size int, pad rune, left bool) (core.Processor, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: pad size must be >= 1, got %d", core.ErrInvalidAnnotation, size)
	}
	if pad == 0 {
		pad = ' '
	}
	return &stringConversion{
		base: base{name: name},
		convert: func(s string) string {
			n := utf8.RuneCountInString(s)
			if n >= size {
				return s
			}
			padding := strings.Repeat(string(pad), size-n)
			if left {
				return padding + s
			}
			return s + padding
		},
	}, nil
}

// NewFullChar 半角转全角
func NewFullChar() core.Processor {
	return &stringConversion{base: base{name: "FullChar"}, convert: width.Widen.String}
}

// NewHalfChar 全角转半角
func NewHalfChar() core.Processor {
	return &stringConversion{base: base{name: "HalfChar"}, convert: width.Narrow.String}
}

// ============================================================================
// 空值相关转换
// ============================================================================

// DefaultValue 空值替换为默认值
type DefaultValue struct {
	base
	value any
}

// NewDefaultValue 创建默认值处理器，读取时为文本，写入时为类型值
func NewDefaultValue(value any) *DefaultValue {
	return &DefaultValue{base: base{name: "DefaultValue"}, value: value}
}

// Execute 执行替换
func (p *DefaultValue) Execute(value any, ctx *core.CellContext) (any, error) {
	if core.IsEmpty(value) {
		return p.value, nil
	}
	return value, nil
}

// NullConvert 指定的文本视为空值
type NullConvert struct {
	base
	values     []string
	ignoreCase bool
}

// NewNullConvert 创建空值转换处理器
func NewNullConvert(values []string, ignoreCase bool) (*NullConvert, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: null convert requires at least one value", core.ErrInvalidAnnotation)
	}
	copied := make([]string, len(values))
	copy(copied, values)
	return &NullConvert{base: base{name: "NullConvert"}, values: copied, ignoreCase: ignoreCase}, nil
}

// Execute 执行转换
func (p *NullConvert) Execute(value any, ctx *core.CellContext) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	for _, v := range p.values {
		if v == s || (p.ignoreCase && strings.EqualFold(v, s)) {
			return nil, nil
		}
	}
	return value, nil
}
