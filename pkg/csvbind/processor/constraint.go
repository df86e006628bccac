package processor

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/format"
	"katydid-common-csv/pkg/csvbind/temporal"
)

// ============================================================================
// 约束校验，除 Require 外空值一律通过
// ============================================================================

// Require 必须有值
type Require struct {
	base
	considerBlank bool
}

// NewRequire 创建必须校验，considerBlank 为 true 时仅含空白的字符串也视为空
func NewRequire(considerBlank bool) *Require {
	return &Require{base: base{name: "Require", key: KeyRequire}, considerBlank: considerBlank}
}

// Execute 执行校验
func (p *Require) Execute(value any, ctx *core.CellContext) (any, error) {
	if core.IsEmpty(value) {
		return nil, p.violation(value).WithVariable("considerBlank", p.considerBlank)
	}
	if s, ok := value.(string); ok && p.considerBlank && strings.TrimSpace(s) == "" {
		return nil, p.violation(value).WithVariable("considerBlank", p.considerBlank)
	}
	return value, nil
}

// Equals 值必须等于候选值之一
type Equals struct {
	base
	values    []any
	formatter format.TextFormatter
}

// NewEquals 创建等值校验，values 为已解析的类型值
func NewEquals(values []any, formatter format.TextFormatter) (*Equals, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: equals requires at least one value", core.ErrInvalidAnnotation)
	}
	copied := make([]any, len(values))
	copy(copied, values)
	return &Equals{base: base{name: "Equals", key: KeyEquals}, values: copied, formatter: formatter}, nil
}

// Execute 执行校验
func (p *Equals) Execute(value any, ctx *core.CellContext) (any, error) {
	if core.IsEmpty(value) {
		return value, nil
	}
	for _, candidate := range p.values {
		if equalValues(value, candidate) {
			return value, nil
		}
	}
	return nil, p.violation(value).WithVariable("values", printValues(p.formatter, p.values))
}

func equalValues(a, b any) bool {
	if cmp, err := format.CompareNumbers(a, b); err == nil {
		return cmp == 0
	}
	if cmp, err := temporal.Compare(a, b); err == nil {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// Pattern 字符串必须匹配正则
type Pattern struct {
	base
	regex       *regexp.Regexp
	description string
}

// NewPattern 创建正则校验
func NewPattern(expr, description string) (*Pattern, error) {
	if expr == "" {
		return nil, fmt.Errorf("%w: empty regex", core.ErrInvalidPattern)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidPattern, err)
	}
	return &Pattern{base: base{name: "Pattern", key: KeyPattern}, regex: re, description: description}, nil
}

// Execute 执行校验
func (p *Pattern) Execute(value any, ctx *core.CellContext) (any, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return value, nil
	}
	if p.regex.MatchString(s) {
		return value, nil
	}
	return nil, p.violation(value).
		WithVariable("regex", p.regex.String()).
		WithVariable("description", p.description)
}

// Length 字符数校验，按 rune 计数
type Length struct {
	base
	min, max int // -1 表示不限制
}

// NewLengthMin 最少字符数
func NewLengthMin(min int) (*Length, error) {
	if min < 0 {
		return nil, fmt.Errorf("%w: length min must be >= 0", core.ErrInvalidAnnotation)
	}
	return &Length{base: base{name: "LengthMin", key: KeyLengthMin}, min: min, max: -1}, nil
}

// NewLengthMax 最多字符数
func NewLengthMax(max int) (*Length, error) {
	if max < 1 {
		return nil, fmt.Errorf("%w: length max must be >= 1", core.ErrInvalidAnnotation)
	}
	return &Length{base: base{name: "LengthMax", key: KeyLengthMax}, min: -1, max: max}, nil
}

// NewLengthBetween 字符数区间
func NewLengthBetween(min, max int) (*Length, error) {
	if min < 0 || max < min {
		return nil, fmt.Errorf("%w: length between [%d, %d]", core.ErrInvalidAnnotation, min, max)
	}
	return &Length{base: base{name: "LengthBetween", key: KeyLengthBetween}, min: min, max: max}, nil
}

// NewLengthExact 精确字符数
func NewLengthExact(length int) (*Length, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: length exact must be >= 0", core.ErrInvalidAnnotation)
	}
	return &Length{base: base{name: "LengthExact", key: KeyLengthExact}, min: length, max: length}, nil
}

// Execute 执行校验
func (p *Length) Execute(value any, ctx *core.CellContext) (any, error) {
	s, ok := value.(string)
	if !ok || s == "" {
		return value, nil
	}

	n := utf8.RuneCountInString(s)
	if (p.min < 0 || n >= p.min) && (p.max < 0 || n <= p.max) {
		return value, nil
	}

	v := p.violation(value).WithVariable("length", n)
	switch p.name {
	case "LengthExact":
		v.WithVariable("requiredLength", p.min)
	default:
		if p.min >= 0 {
			v.WithVariable("min", p.min)
		}
		if p.max >= 0 {
			v.WithVariable("max", p.max)
		}
	}
	return nil, v
}

// ============================================================================
// 数值与日期时间范围
// ============================================================================

// bounds 范围校验公共部分，min 或 max 为 nil 表示不限制
type bounds struct {
	base
	min, max  any
	inclusive bool
	formatter format.TextFormatter
	compare   func(a, b any) (int, error)
}

func (p *bounds) Execute(value any, ctx *core.CellContext) (any, error) {
	if core.IsEmpty(value) {
		return value, nil
	}

	if p.min != nil {
		cmp, err := p.compare(value, p.min)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		if cmp < 0 || (cmp == 0 && !p.inclusive) {
			return nil, p.rejected(value)
		}
	}
	if p.max != nil {
		cmp, err := p.compare(value, p.max)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		if cmp > 0 || (cmp == 0 && !p.inclusive) {
			return nil, p.rejected(value)
		}
	}
	return value, nil
}

func (p *bounds) rejected(value any) *core.Violation {
	v := p.violation(value).
		WithVariable("inclusive", p.inclusive).
		WithVariable(core.VarValidatedValue, printValue(p.formatter, value))
	if p.min != nil {
		v.WithVariable("min", printValue(p.formatter, p.min))
	}
	if p.max != nil {
		v.WithVariable("max", printValue(p.formatter, p.max))
	}
	return v
}

func newBounds(kind string, keys [3]string, min, max any, inclusive bool, formatter format.TextFormatter,
	compare func(a, b any) (int, error)) (*bounds, error) {

	p := &bounds{min: min, max: max, inclusive: inclusive, formatter: formatter, compare: compare}
	switch {
	case min != nil && max != nil:
		cmp, err := compare(min, max)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidBound, err)
		}
		if cmp > 0 {
			return nil, fmt.Errorf("%w: min %s is greater than max %s", core.ErrInvalidBound,
				printValue(formatter, min), printValue(formatter, max))
		}
		p.base = base{name: kind + "Range", key: keys[0]}
	case min != nil:
		p.base = base{name: kind + "Min", key: keys[1]}
	case max != nil:
		p.base = base{name: kind + "Max", key: keys[2]}
	default:
		return nil, fmt.Errorf("%w: neither min nor max is specified", core.ErrInvalidBound)
	}
	return p, nil
}

// NumberRange 数值范围校验
type NumberRange struct {
	*bounds
}

// NewNumberRange 创建数值范围校验
// 同时有 min、max 时名为 NumberRange，只有 min 时为 NumberMin，只有 max 时为 NumberMax
func NewNumberRange(min, max any, inclusive bool, formatter format.TextFormatter) (*NumberRange, error) {
	b, err := newBounds("Number", [3]string{KeyNumberRange, KeyNumberMin, KeyNumberMax},
		min, max, inclusive, formatter, format.CompareNumbers)
	if err != nil {
		return nil, err
	}
	return &NumberRange{bounds: b}, nil
}

// DateTimeRange 日期时间范围校验
type DateTimeRange struct {
	*bounds
}

// NewDateTimeRange 创建日期时间范围校验，命名规则同 NewNumberRange
func NewDateTimeRange(min, max any, inclusive bool, formatter format.TextFormatter) (*DateTimeRange, error) {
	b, err := newBounds("DateTime", [3]string{KeyDateTimeRange, KeyDateTimeMin, KeyDateTimeMax},
		min, max, inclusive, formatter, temporal.Compare)
	if err != nil {
		return nil, err
	}
	return &DateTimeRange{bounds: b}, nil
}
