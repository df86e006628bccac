// Package builder 根据字段注解构建读写处理链
package builder

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"katydid-common-csv/pkg/csvbind/annotation"
	"katydid-common-csv/pkg/csvbind/config"
	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/format"
	"katydid-common-csv/pkg/csvbind/processor"
	"katydid-common-csv/pkg/csvbind/registry"
)

// FieldDescriptor 字段元数据
type FieldDescriptor = annotation.FieldDescriptor

// ProcessorBuilder 处理链构建器
// 职责：过滤、排序注解，解析格式化器，按方向组装处理链
// 构建后的处理链不可变，构建器本身可并发使用
type ProcessorBuilder struct {
	// registry 注解工厂注册表
	registry *registry.FactoryRegistry
	// config 构建配置
	config *config.Configuration
	// logger 日志
	logger *zap.Logger
	// validate 注解属性校验器
	validate *validator.Validate
}

// Option 构建器选项
type Option func(*ProcessorBuilder)

// WithRegistry 设置工厂注册表
func WithRegistry(r *registry.FactoryRegistry) Option {
	return func(b *ProcessorBuilder) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithConfiguration 设置构建配置
// 说明：保存配置的副本并补全默认值，之后修改 c 不影响构建器
func WithConfiguration(c *config.Configuration) Option {
	return func(b *ProcessorBuilder) {
		if c != nil {
			b.config = c.Clone()
			b.config.SetDefaults()
		}
	}
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(b *ProcessorBuilder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewProcessorBuilder 创建构建器
// 默认值：
//   - registry：registry.Default() 全局注册表
//   - config：config.Default()，时区为 time.Local，区域为根区域
//   - logger：zap.NewNop()
func NewProcessorBuilder(opts ...Option) *ProcessorBuilder {
	b := &ProcessorBuilder{
		registry: registry.Default(),
		config:   config.Default(),
		logger:   zap.NewNop(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Configuration 获取构建配置
func (b *ProcessorBuilder) Configuration() *config.Configuration {
	return b.config
}

// Build 为字段构建指定方向的处理链
// 读取：DefaultValue → 转换 → Parse → 约束 → ZeroFill
// 写入：DefaultValue → 约束 → Format → 转换
// 任何构建问题都返回 *core.ConfigError，不返回部分处理链
// 说明：同一方向内按 Order 升序排列，Order 相同时按注解种类名排序，结果与注解声明顺序无关；
// groups 为 0 时视为 core.GroupDefault
func (b *ProcessorBuilder) Build(field *FieldDescriptor, buildCase core.BuildCase, groups core.Group) (*core.Chain, error) {
	if field == nil {
		return nil, core.NewConfigError("", "", fmt.Errorf("%w: nil field", core.ErrInvalidAnnotation))
	}
	if field.Type == nil {
		return nil, core.NewConfigError(field.Name, "", fmt.Errorf("%w: field has no type", core.ErrUnsupportedType))
	}
	if !buildCase.IsValid() {
		return nil, core.NewConfigError(field.Name, "", fmt.Errorf("%w: build case %s", core.ErrInvalidAnnotation, buildCase))
	}

	if err := b.validateAnnotations(field); err != nil {
		return nil, err
	}

	selected := annotation.Select(field.Annotations, buildCase, groups)

	formatter, formatAnno, err := b.resolveFormatter(field, selected)
	if err != nil {
		return nil, err
	}

	defaultValue, err := b.defaultValue(field, buildCase, selected, formatter)
	if err != nil {
		return nil, err
	}

	ctx := &registry.BuildContext{
		Field:     field,
		Case:      buildCase,
		Formatter: formatter,
		Config:    b.config,
	}
	conversions, constraints, err := b.createProcessors(ctx, selected)
	if err != nil {
		return nil, err
	}

	processors := make([]core.Processor, 0, len(conversions)+len(constraints)+3)
	if defaultValue != nil {
		processors = append(processors, defaultValue)
	}

	switch buildCase {
	case core.CaseRead:
		parse := processor.NewParse(formatter)
		if formatAnno != nil && formatAnno.Attributes().Message != "" {
			parse.WithMessage(formatAnno.Attributes().Message)
		}
		processors = append(processors, conversions...)
		processors = append(processors, parse)
		processors = append(processors, constraints...)
		if field.Type.Kind() != reflect.Pointer {
			processors = append(processors, processor.NewZeroFill(field.Type))
		}
	case core.CaseWrite:
		if !b.config.SkipValidationOnWrite {
			processors = append(processors, constraints...)
		}
		processors = append(processors, processor.NewFormat(formatter))
		processors = append(processors, conversions...)
	}

	chain := core.NewChain(processors...)
	b.logger.Debug("processor chain built",
		zap.String("field", field.Name),
		zap.Int("column", field.Number),
		zap.Stringer("case", buildCase),
		zap.Stringer("chain", chain),
	)
	return chain, nil
}

// validateAnnotations 校验所有注解的属性，不论是否适用于当前方向
func (b *ProcessorBuilder) validateAnnotations(field *FieldDescriptor) error {
	for _, anno := range field.Annotations {
		if anno == nil {
			return core.NewConfigError(field.Name, "", fmt.Errorf("%w: nil annotation", core.ErrInvalidAnnotation))
		}
		if format.Indirect(reflect.TypeOf(anno)).Kind() != reflect.Struct {
			continue
		}
		if err := b.validate.Struct(anno); err != nil {
			return core.NewConfigError(field.Name, string(anno.Kind()), fmt.Errorf("%w: %v", core.ErrInvalidAnnotation, err))
		}
	}
	return nil
}

// resolveFormatter 由格式注解或字段类型解析格式化器
// 格式注解未定制格式化器时使用默认的解析失败消息键
func (b *ProcessorBuilder) resolveFormatter(field *FieldDescriptor, selected []annotation.Annotation) (format.TextFormatter, annotation.Annotation, error) {
	for _, anno := range selected {
		var (
			formatter format.TextFormatter
			err       error
		)
		switch a := anno.(type) {
		case annotation.CsvNumberFormat:
			formatter, err = b.numberFormatter(field, a)
		case annotation.CsvDateTimeFormat:
			formatter, err = b.dateTimeFormatter(field, a)
		case annotation.CsvBooleanFormat:
			formatter, err = b.booleanFormatter(field, a)
		default:
			continue
		}
		if err != nil {
			return nil, nil, core.NewConfigError(field.Name, string(anno.Kind()), err)
		}
		return formatter, anno, nil
	}

	formatter, err := format.ForType(field.Type, format.Options{
		Locale:   b.config.Locale(),
		Location: b.location(),
	})
	if err != nil {
		return nil, nil, core.NewConfigError(field.Name, "", err)
	}
	return formatter, nil, nil
}

func (b *ProcessorBuilder) numberFormatter(field *FieldDescriptor, a annotation.CsvNumberFormat) (format.TextFormatter, error) {
	if !format.IsNumberType(field.Type) {
		return nil, fmt.Errorf("%w: %s requires a number field, got %v", core.ErrUnsupportedType, a.Kind(), field.Type)
	}
	locale, err := b.locale(a.Locale)
	if err != nil {
		return nil, err
	}

	opts := format.Options{
		Pattern: a.Pattern,
		Lenient: a.Lenient,
		Locale:  locale,
	}
	if a.Pattern != "" || a.Lenient || a.Locale != "" {
		opts.MessageKey = processor.KeyNumberFormat
	}
	return format.NewNumberFormatter(field.Type, opts)
}

func (b *ProcessorBuilder) dateTimeFormatter(field *FieldDescriptor, a annotation.CsvDateTimeFormat) (format.TextFormatter, error) {
	if !format.IsTemporalType(field.Type) {
		return nil, fmt.Errorf("%w: %s requires a date/time field, got %v", core.ErrUnsupportedType, a.Kind(), field.Type)
	}
	locale, err := b.locale(a.Locale)
	if err != nil {
		return nil, err
	}

	var location *time.Location
	if a.TimeZone != "" {
		location, err = time.LoadLocation(a.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("%w: time zone '%s': %v", core.ErrInvalidAnnotation, a.TimeZone, err)
		}
	} else {
		location = b.location()
	}

	opts := format.Options{
		Pattern:  a.Pattern,
		Lenient:  a.Lenient,
		Locale:   locale,
		Location: location,
	}
	if a.Pattern != "" || a.Lenient || a.Locale != "" || a.TimeZone != "" {
		opts.MessageKey = processor.KeyDateTimeFormat
	}
	return format.NewDateTimeFormatter(field.Type, opts)
}

func (b *ProcessorBuilder) booleanFormatter(field *FieldDescriptor, a annotation.CsvBooleanFormat) (format.TextFormatter, error) {
	opts := format.BooleanOptions{
		ReadForTrue:  a.ReadForTrue,
		ReadForFalse: a.ReadForFalse,
		WriteAsTrue:  a.WriteAsTrue,
		WriteAsFalse: a.WriteAsFalse,
		IgnoreCase:   a.IgnoreCase,
		FailToFalse:  a.FailToFalse,
	}
	if len(a.ReadForTrue) > 0 || len(a.ReadForFalse) > 0 || a.IgnoreCase {
		opts.MessageKey = processor.KeyBooleanFormat
	}
	return format.NewBooleanFormatter(field.Type, opts)
}

// locale 注解区域优先，否则使用配置的默认区域
func (b *ProcessorBuilder) locale(text string) (language.Tag, error) {
	if text == "" {
		return b.config.Locale(), nil
	}
	tag, err := language.Parse(text)
	if err != nil {
		return language.Und, fmt.Errorf("%w: locale '%s': %v", core.ErrInvalidAnnotation, text, err)
	}
	return tag, nil
}

// location 配置了默认时区时返回该时区，否则为 nil，格式化器使用 time.Local
func (b *ProcessorBuilder) location() *time.Location {
	if b.config.DefaultTimeZone == "" {
		return nil
	}
	return b.config.Location()
}

// defaultValue 读取时以文本替换空值，写入时以构建期解析的类型值替换
func (b *ProcessorBuilder) defaultValue(field *FieldDescriptor, buildCase core.BuildCase,
	selected []annotation.Annotation, formatter format.TextFormatter) (core.Processor, error) {
	for _, anno := range selected {
		a, ok := anno.(annotation.CsvDefaultValue)
		if !ok {
			continue
		}
		if buildCase == core.CaseRead {
			return processor.NewDefaultValue(a.Value), nil
		}

		value, err := formatter.Parse(a.Value)
		if err != nil {
			return nil, core.NewConfigError(field.Name, string(a.Kind()),
				fmt.Errorf("%w: default value '%s': %v", core.ErrInvalidAnnotation, a.Value, err))
		}
		return processor.NewDefaultValue(value), nil
	}
	return nil, nil
}

// isBuiltinKind 由构建器直接处理的种类
func isBuiltinKind(kind annotation.Kind) bool {
	switch kind {
	case annotation.KindNumberFormat, annotation.KindDateTimeFormat,
		annotation.KindBooleanFormat, annotation.KindDefaultValue:
		return true
	}
	return false
}

// createProcessors 通过注册表创建转换与约束处理器，保持注解顺序
func (b *ProcessorBuilder) createProcessors(ctx *registry.BuildContext, selected []annotation.Annotation) (conversions, constraints []core.Processor, err error) {
	for _, anno := range selected {
		kind := anno.Kind()
		if isBuiltinKind(kind) {
			continue
		}

		factory, err := b.registry.Get(kind)
		if err != nil {
			return nil, nil, core.NewConfigError(ctx.Field.Name, string(kind), err)
		}
		p, err := factory.Create(anno, ctx)
		if err != nil {
			return nil, nil, core.NewConfigError(ctx.Field.Name, string(kind), err)
		}
		if p == nil {
			return nil, nil, core.NewConfigError(ctx.Field.Name, string(kind),
				fmt.Errorf("%w: factory returned no processor", registry.ErrInvalidFactory))
		}

		switch factory.Category() {
		case registry.CategoryConversion:
			conversions = append(conversions, p)
		case registry.CategoryConstraint:
			constraints = append(constraints, p)
		}
	}
	return conversions, constraints, nil
}
