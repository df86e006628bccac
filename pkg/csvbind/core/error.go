package core

import (
	"errors"
	"fmt"
	"strings"
)

// 构建期错误哨兵，通过 errors.Is 判别
var (
	ErrInvalidAnnotation = errors.New("invalid annotation")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrInvalidBound      = errors.New("invalid bound")
	ErrUnsupportedType   = errors.New("unsupported type")
	ErrDuplicateColumn   = errors.New("duplicate column number")
	ErrColumnMismatch    = errors.New("column count mismatch")
)

// 注入到校验错误中的消息变量名
const (
	VarLineNumber     = "lineNumber"
	VarRowNumber      = "rowNumber"
	VarColumnNumber   = "columnNumber"
	VarLabel          = "label"
	VarValidatedValue = "validatedValue"
	VarRejectedValue  = "rejectedValue" // 与 validatedValue 相同，两个名称都可在模板中使用
)

// ============================================================================
// Violation 处理器级别的校验失败
// ============================================================================

// Violation 处理器返回的校验失败，尚未带有单元格坐标
// 由处理链驱动包装为 ValidationError
type Violation struct {
	Processor     string         // 产生失败的处理器名称
	MessageKey    string         // 消息键，不能为空
	Template      string         // 自定义消息模板，优先于 MessageKey
	RejectedValue any            // 被拒绝的值
	Variables     map[string]any // 消息变量
	Parse         bool           // 是否为解析失败
}

// NewViolation 创建校验失败
func NewViolation(processor, messageKey string, rejected any) *Violation {
	return &Violation{
		Processor:     processor,
		MessageKey:    messageKey,
		RejectedValue: rejected,
		Variables:     make(map[string]any, 4),
	}
}

// WithVariable 设置单个消息变量
func (v *Violation) WithVariable(name string, value any) *Violation {
	if v.Variables == nil {
		v.Variables = make(map[string]any, 4)
	}
	v.Variables[name] = value
	return v
}

// WithVariables 合并消息变量
func (v *Violation) WithVariables(vars map[string]any) *Violation {
	for name, value := range vars {
		v.WithVariable(name, value)
	}
	return v
}

// WithTemplate 设置自定义消息模板，空字符串不生效
func (v *Violation) WithTemplate(template string) *Violation {
	v.Template = template
	return v
}

// AsParse 标记为解析失败
func (v *Violation) AsParse() *Violation {
	v.Parse = true
	return v
}

// Error 实现 error 接口
func (v *Violation) Error() string {
	return fmt.Sprintf("%s: rejected value '%v' (%s)", v.Processor, v.RejectedValue, v.MessageKey)
}

// ============================================================================
// ValidationError 带坐标的单元格校验错误
// ============================================================================

// ValidationError 单元格校验错误，创建后不再修改
type ValidationError struct {
	Processor     string
	MessageKey    string
	Template      string
	RejectedValue any
	Variables     map[string]any
	Parse         bool

	LineNumber   int
	RowNumber    int
	ColumnNumber int
	Label        string
	FieldName    string
}

// NewValidationError 以单元格上下文补全校验失败
func NewValidationError(v *Violation, ctx *CellContext) *ValidationError {
	if ctx == nil {
		ctx = &CellContext{}
	}

	vars := make(map[string]any, len(v.Variables)+6)
	for name, value := range v.Variables {
		vars[name] = value
	}
	vars[VarLineNumber] = ctx.LineNumber
	vars[VarRowNumber] = ctx.RowNumber
	vars[VarColumnNumber] = ctx.ColumnNumber
	vars[VarLabel] = ctx.Label
	if _, ok := vars[VarValidatedValue]; !ok {
		vars[VarValidatedValue] = v.RejectedValue
	}
	if _, ok := vars[VarRejectedValue]; !ok {
		vars[VarRejectedValue] = vars[VarValidatedValue]
	}

	return &ValidationError{
		Processor:     v.Processor,
		MessageKey:    v.MessageKey,
		Template:      v.Template,
		RejectedValue: v.RejectedValue,
		Variables:     vars,
		Parse:         v.Parse,
		LineNumber:    ctx.LineNumber,
		RowNumber:     ctx.RowNumber,
		ColumnNumber:  ctx.ColumnNumber,
		Label:         ctx.Label,
		FieldName:     ctx.FieldName,
	}
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[row %d, column %d] %s: rejected value '%v' (%s)",
		e.RowNumber, e.ColumnNumber, e.Label, e.RejectedValue, e.MessageKey)
}

// Variable 获取消息变量
func (e *ValidationError) Variable(name string) (any, bool) {
	value, ok := e.Variables[name]
	return value, ok
}

// ============================================================================
// ValidationErrors 按发现顺序聚合的校验错误
// ============================================================================

// ValidationErrors 一行或一个文件的校验错误集合
type ValidationErrors struct {
	errors []*ValidationError
}

// NewValidationErrors 创建错误集合
func NewValidationErrors(errs ...*ValidationError) *ValidationErrors {
	copied := make([]*ValidationError, len(errs))
	copy(copied, errs)
	return &ValidationErrors{errors: copied}
}

// Errors 获取全部错误
func (e *ValidationErrors) Errors() []*ValidationError {
	return e.errors
}

// Count 错误数量
func (e *ValidationErrors) Count() int {
	return len(e.errors)
}

// HasErrors 是否有错误
func (e *ValidationErrors) HasErrors() bool {
	return len(e.errors) > 0
}

// First 获取第一个错误
func (e *ValidationErrors) First() *ValidationError {
	if len(e.errors) == 0 {
		return nil
	}
	return e.errors[0]
}

// Error 实现 error 接口
func (e *ValidationErrors) Error() string {
	switch len(e.errors) {
	case 0:
		return "validation failed"
	case 1:
		return e.errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "validation failed with %d errors: ", len(e.errors))
	for i, err := range e.errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap 支持 errors.Is / errors.As 遍历
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e.errors))
	for i, err := range e.errors {
		errs[i] = err
	}
	return errs
}

// CollectValidationErrors 从任意错误中提取校验错误
// 支持单个 ValidationError、ValidationErrors 以及包装了它们的错误
func CollectValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}

	var batch *ValidationErrors
	if errors.As(err, &batch) {
		return batch.Errors()
	}

	var single *ValidationError
	if errors.As(err, &single) {
		return []*ValidationError{single}
	}
	return nil
}

// ============================================================================
// ConfigError 构建期致命错误
// ============================================================================

// ConfigError 注解配置错误，在构建处理链时产生
type ConfigError struct {
	Field      string // 字段名
	Annotation string // 注解种类，可为空
	Err        error
}

// NewConfigError 创建配置错误
func NewConfigError(field, annotation string, err error) *ConfigError {
	return &ConfigError{Field: field, Annotation: annotation, Err: err}
}

// Error 实现 error 接口
func (e *ConfigError) Error() string {
	if e.Annotation == "" {
		return fmt.Sprintf("invalid configuration for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid configuration for field '%s' (%s): %v", e.Field, e.Annotation, e.Err)
}

// Unwrap 返回底层错误
func (e *ConfigError) Unwrap() error {
	return e.Err
}
