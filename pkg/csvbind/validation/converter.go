// Package validation 将单元格校验错误转换为可读消息
package validation

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"katydid-common-csv/pkg/csvbind/builder"
	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/format"
	"katydid-common-csv/pkg/csvbind/message"
)

// TypeMismatchCode 解析失败时优先查找的消息键前缀
const TypeMismatchCode = "typeMismatch"

// ExceptionConverter 校验错误转换器
// 职责：选择消息模板，注入变量并通过资源包展开
type ExceptionConverter struct {
	mu       sync.RWMutex
	resolver message.Resolver
	locale   language.Tag
	logger   *zap.Logger
}

// Option 转换器选项
type Option func(*ExceptionConverter)

// WithResolver 设置消息解析器
func WithResolver(r message.Resolver) Option {
	return func(c *ExceptionConverter) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithLocale 设置消息区域
func WithLocale(tag language.Tag) Option {
	return func(c *ExceptionConverter) {
		c.locale = tag
	}
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(c *ExceptionConverter) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewExceptionConverter 创建转换器，默认使用内置资源包与根区域
func NewExceptionConverter(opts ...Option) *ExceptionConverter {
	c := &ExceptionConverter{
		resolver: message.NewBundleResolver(),
		locale:   language.Und,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetMessageResolver 替换消息解析器
func (c *ExceptionConverter) SetMessageResolver(r message.Resolver) {
	if r == nil {
		return
	}
	c.mu.Lock()
	c.resolver = r
	c.mu.Unlock()
}

// MessageResolver 当前的消息解析器
func (c *ExceptionConverter) MessageResolver() message.Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolver
}

// ConvertAndFormat 将错误中包含的所有校验错误按发现顺序转换为消息
// mapping 可以为 nil，此时不查找与记录类型相关的消息键
func (c *ExceptionConverter) ConvertAndFormat(err error, mapping *builder.BeanMapping) []string {
	errs := core.CollectValidationErrors(err)
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, c.ConvertMessage(e, mapping))
	}
	return messages
}

// ConvertMessage 转换单个校验错误
func (c *ExceptionConverter) ConvertMessage(e *core.ValidationError, mapping *builder.BeanMapping) string {
	if e == nil {
		return ""
	}
	resolver := c.MessageResolver()

	template, ok := c.template(resolver, e, mapping)
	if !ok {
		return template
	}
	return message.Interpolate(template, e.Variables, resolver, c.locale)
}

// template 选择消息模板：自定义模板 → typeMismatch 消息键 → 错误的消息键
// 消息键不存在时返回消息键本身与 false
func (c *ExceptionConverter) template(resolver message.Resolver, e *core.ValidationError, mapping *builder.BeanMapping) (string, bool) {
	if e.Template != "" {
		return e.Template, true
	}

	if e.Parse && e.MessageKey == format.DefaultMessageKey {
		for _, code := range typeMismatchCodes(e, mapping) {
			if msg, err := resolver.Resolve(code, c.locale); err == nil {
				return msg, true
			}
		}
	}

	msg, err := resolver.Resolve(e.MessageKey, c.locale)
	if err != nil {
		c.logger.Warn("message key not found",
			zap.String("key", e.MessageKey),
			zap.String("field", e.FieldName),
			zap.Error(err),
		)
		return e.MessageKey, false
	}
	return msg, true
}

// typeMismatchCodes 由具体到一般的 typeMismatch 消息键
func typeMismatchCodes(e *core.ValidationError, mapping *builder.BeanMapping) []string {
	codes := make([]string, 0, 4)
	if mapping != nil && mapping.Name() != "" && e.FieldName != "" {
		codes = append(codes, TypeMismatchCode+"."+mapping.Name()+"."+e.FieldName)
	}
	if e.FieldName != "" {
		codes = append(codes, TypeMismatchCode+"."+e.FieldName)
	}
	if mapping != nil {
		if column, ok := mapping.Column(e.FieldName); ok && column.Field.Type != nil {
			codes = append(codes, TypeMismatchCode+"."+format.Indirect(column.Field.Type).String())
		}
	}
	return append(codes, TypeMismatchCode)
}
