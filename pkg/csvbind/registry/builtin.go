package registry

import (
	"fmt"

	"katydid-common-csv/pkg/csvbind/annotation"
	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/format"
	"katydid-common-csv/pkg/csvbind/processor"
)

// messageSetter 支持自定义消息模板的处理器
type messageSetter interface {
	WithMessage(template string)
}

// registerBuiltins 注册内置的转换与约束工厂
func registerBuiltins(r *FactoryRegistry) {
	conversions := map[annotation.Kind]FactoryFunc{
		annotation.KindTrim:         createTrim,
		annotation.KindTruncate:     createTruncate,
		annotation.KindNullConvert:  createNullConvert,
		annotation.KindUpper:        createUpper,
		annotation.KindLower:        createLower,
		annotation.KindRegexReplace: createRegexReplace,
		annotation.KindLeftPad:      createLeftPad,
		annotation.KindRightPad:     createRightPad,
		annotation.KindFullChar:     createFullChar,
		annotation.KindHalfChar:     createHalfChar,
	}
	for kind, fn := range conversions {
		_ = r.Register(kind, NewFactory(CategoryConversion, fn))
	}

	constraints := map[annotation.Kind]FactoryFunc{
		annotation.KindRequire:       createRequire,
		annotation.KindEquals:        createEquals,
		annotation.KindPattern:       createPattern,
		annotation.KindLengthMin:     createLengthMin,
		annotation.KindLengthMax:     createLengthMax,
		annotation.KindLengthBetween: createLengthBetween,
		annotation.KindLengthExact:   createLengthExact,
		annotation.KindNumberRange:   createNumberRange,
		annotation.KindDateTimeRange: createDateTimeRange,
	}
	for kind, fn := range constraints {
		_ = r.Register(kind, NewFactory(CategoryConstraint, withMessage(fn)))
	}
}

// withMessage 将注解的 Message 设置到处理器
func withMessage(fn FactoryFunc) FactoryFunc {
	return func(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
		p, err := fn(anno, ctx)
		if err != nil {
			return nil, err
		}
		if msg := anno.Attributes().Message; msg != "" {
			if setter, ok := p.(messageSetter); ok {
				setter.WithMessage(msg)
			}
		}
		return p, nil
	}
}

// cast 注解类型断言
func cast[T annotation.Annotation](anno annotation.Annotation) (T, error) {
	v, ok := anno.(T)
	if !ok {
		return v, fmt.Errorf("%w: expected %T, got %T", core.ErrInvalidAnnotation, v, anno)
	}
	return v, nil
}

func requireString(ctx *BuildContext, kind annotation.Kind) error {
	if !format.IsStringType(ctx.Field.Type) {
		return fmt.Errorf("%w: %s requires a string field, got %v", core.ErrUnsupportedType, kind, ctx.Field.Type)
	}
	return nil
}

// ============================================================================
// 转换
// ============================================================================

func createTrim(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	return processor.NewTrim(), nil
}

func createTruncate(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvTruncate](anno)
	if err != nil {
		return nil, err
	}
	return processor.NewTruncate(a.MaxSize, a.Suffix)
}

func createNullConvert(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvNullConvert](anno)
	if err != nil {
		return nil, err
	}
	return processor.NewNullConvert(a.Values, a.IgnoreCase)
}

func createUpper(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	return processor.NewUpper(ctx.Config.Locale()), nil
}

func createLower(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	return processor.NewLower(ctx.Config.Locale()), nil
}

func createRegexReplace(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvRegexReplace](anno)
	if err != nil {
		return nil, err
	}
	return processor.NewRegexReplace(a.Regex, a.Replacement)
}

func createLeftPad(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvLeftPad](anno)
	if err != nil {
		return nil, err
	}
	return processor.NewLeftPad(a.Size, a.PadChar)
}

func createRightPad(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvRightPad](anno)
	if err != nil {
		return nil, err
	}
	return processor.NewRightPad(a.Size, a.PadChar)
}

func createFullChar(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	return processor.NewFullChar(), nil
}

func createHalfChar(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	return processor.NewHalfChar(), nil
}

// ============================================================================
// 约束
// ============================================================================

func createRequire(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvRequire](anno)
	if err != nil {
		return nil, err
	}
	return processor.NewRequire(a.ConsiderBlank), nil
}

func createEquals(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvEquals](anno)
	if err != nil {
		return nil, err
	}

	values := make([]any, 0, len(a.Values))
	for _, text := range a.Values {
		v, err := ctx.Formatter.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%w: equals value '%s': %v", core.ErrInvalidAnnotation, text, err)
		}
		values = append(values, v)
	}
	return processor.NewEquals(values, ctx.Formatter)
}

func createPattern(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvPattern](anno)
	if err != nil {
		return nil, err
	}
	if err := requireString(ctx, anno.Kind()); err != nil {
		return nil, err
	}
	return processor.NewPattern(a.Regex, a.Description)
}

func createLengthMin(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvLengthMin](anno)
	if err != nil {
		return nil, err
	}
	if err := requireString(ctx, anno.Kind()); err != nil {
		return nil, err
	}
	return processor.NewLengthMin(a.Value)
}

func createLengthMax(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvLengthMax](anno)
	if err != nil {
		return nil, err
	}
	if err := requireString(ctx, anno.Kind()); err != nil {
		return nil, err
	}
	return processor.NewLengthMax(a.Value)
}

func createLengthBetween(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvLengthBetween](anno)
	if err != nil {
		return nil, err
	}
	if err := requireString(ctx, anno.Kind()); err != nil {
		return nil, err
	}
	return processor.NewLengthBetween(a.Min, a.Max)
}

func createLengthExact(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvLengthExact](anno)
	if err != nil {
		return nil, err
	}
	if err := requireString(ctx, anno.Kind()); err != nil {
		return nil, err
	}
	return processor.NewLengthExact(a.Value)
}

// parseBounds 以字段格式化器解析边界，空文本表示不限制
func parseBounds(ctx *BuildContext, min, max string) (any, any, error) {
	var minValue, maxValue any
	if min != "" {
		v, err := ctx.Formatter.Parse(min)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: min '%s': %v", core.ErrInvalidBound, min, err)
		}
		minValue = v
	}
	if max != "" {
		v, err := ctx.Formatter.Parse(max)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: max '%s': %v", core.ErrInvalidBound, max, err)
		}
		maxValue = v
	}
	return minValue, maxValue, nil
}

func createNumberRange(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvNumberRange](anno)
	if err != nil {
		return nil, err
	}
	if !format.IsNumberType(ctx.Field.Type) {
		return nil, fmt.Errorf("%w: %s requires a number field, got %v", core.ErrUnsupportedType, anno.Kind(), ctx.Field.Type)
	}

	min, max, err := parseBounds(ctx, a.Min, a.Max)
	if err != nil {
		return nil, err
	}
	return processor.NewNumberRange(min, max, !a.Exclusive, ctx.Formatter)
}

func createDateTimeRange(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	a, err := cast[annotation.CsvDateTimeRange](anno)
	if err != nil {
		return nil, err
	}
	if !format.IsTemporalType(ctx.Field.Type) {
		return nil, fmt.Errorf("%w: %s requires a date/time field, got %v", core.ErrUnsupportedType, anno.Kind(), ctx.Field.Type)
	}

	min, max, err := parseBounds(ctx, a.Min, a.Max)
	if err != nil {
		return nil, err
	}
	return processor.NewDateTimeRange(min, max, !a.Exclusive, ctx.Formatter)
}
