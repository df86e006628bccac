// Package processor 提供内置的单元格处理器
// 包括解析与格式化、值转换以及约束校验三类
package processor

import (
	"fmt"
	"reflect"
	"strings"

	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/format"
)

// 内置消息键
const (
	KeyParseViolated = format.DefaultMessageKey

	KeyNumberFormat   = "annotation.CsvNumberFormat.message"
	KeyDateTimeFormat = "annotation.CsvDateTimeFormat.message"
	KeyBooleanFormat  = "annotation.CsvBooleanFormat.message"

	KeyRequire       = "annotation.CsvRequire.message"
	KeyEquals        = "annotation.CsvEquals.message"
	KeyPattern       = "annotation.CsvPattern.message"
	KeyLengthMin     = "annotation.CsvLengthMin.message"
	KeyLengthMax     = "annotation.CsvLengthMax.message"
	KeyLengthBetween = "annotation.CsvLengthBetween.message"
	KeyLengthExact   = "annotation.CsvLengthExact.message"
	KeyNumberRange   = "annotation.CsvNumberRange.message"
	KeyNumberMin     = "annotation.CsvNumberMin.message"
	KeyNumberMax     = "annotation.CsvNumberMax.message"
	KeyDateTimeRange = "annotation.CsvDateTimeRange.message"
	KeyDateTimeMin   = "annotation.CsvDateTimeMin.message"
	KeyDateTimeMax   = "annotation.CsvDateTimeMax.message"
)

// base 处理器公共部分
type base struct {
	name     string
	key      string
	template string
}

// Name 处理器名称
func (b *base) Name() string {
	return b.name
}

// violation 创建带自定义模板的校验失败
func (b *base) violation(rejected any) *core.Violation {
	return core.NewViolation(b.name, b.key, rejected).WithTemplate(b.template)
}

// WithMessage 设置自定义消息模板
func (b *base) WithMessage(template string) {
	b.template = template
}

// ============================================================================
// 解析与格式化
// ============================================================================

// Parse 将文本解析为类型值，空值原样通过
type Parse struct {
	base
	formatter format.TextFormatter
}

// NewParse 创建解析处理器，消息键取自格式化器
func NewParse(formatter format.TextFormatter) *Parse {
	return &Parse{
		base:      base{name: "Parse", key: formatter.MessageKey()},
		formatter: formatter,
	}
}

// Formatter 获取格式化器
func (p *Parse) Formatter() format.TextFormatter {
	return p.formatter
}

// Execute 执行解析
func (p *Parse) Execute(value any, ctx *core.CellContext) (any, error) {
	if core.IsEmpty(value) {
		return nil, nil
	}

	text, ok := value.(string)
	if !ok {
		return value, nil
	}

	parsed, err := p.formatter.Parse(text)
	if err != nil {
		return nil, p.violation(text).WithVariables(p.formatter.MessageVariables()).AsParse()
	}
	return parsed, nil
}

// Format 将类型值输出为文本，nil 输出为 nil
type Format struct {
	base
	formatter format.TextFormatter
}

// NewFormat 创建格式化处理器
func NewFormat(formatter format.TextFormatter) *Format {
	return &Format{
		base:      base{name: "Format", key: formatter.MessageKey()},
		formatter: formatter,
	}
}

// Execute 执行格式化
func (p *Format) Execute(value any, ctx *core.CellContext) (any, error) {
	if core.IsEmpty(value) {
		return nil, nil
	}

	text, err := p.formatter.Print(value)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", ctx, err)
	}
	return text, nil
}

// ZeroFill 非指针字段的空结果替换为零值
type ZeroFill struct {
	base
	zero any
}

// NewZeroFill 创建零值填充处理器
func NewZeroFill(typ reflect.Type) *ZeroFill {
	return &ZeroFill{
		base: base{name: "ZeroFill"},
		zero: format.ZeroValue(typ),
	}
}

// Execute 执行填充
func (p *ZeroFill) Execute(value any, ctx *core.CellContext) (any, error) {
	if core.IsEmpty(value) {
		return p.zero, nil
	}
	return value, nil
}

// printValues 以格式化器输出值列表
func printValues(formatter format.TextFormatter, values []any) string {
	texts := make([]string, len(values))
	for i, v := range values {
		texts[i] = printValue(formatter, v)
	}
	return strings.Join(texts, ", ")
}

func printValue(formatter format.TextFormatter, value any) string {
	if formatter != nil {
		if text, err := formatter.Print(value); err == nil {
			return text
		}
	}
	return fmt.Sprint(value)
}
