// Package annotation 定义字段注解
// 注解是封闭的结构体集合，每种注解对应一个 Kind，由构建器转换为处理器
package annotation

import (
	"reflect"
	"sort"

	"katydid-common-csv/pkg/csvbind/core"
)

// Kind 注解种类
type Kind string

// 内置注解种类
const (
	KindNumberFormat   Kind = "CsvNumberFormat"
	KindDateTimeFormat Kind = "CsvDateTimeFormat"
	KindBooleanFormat  Kind = "CsvBooleanFormat"
	KindDefaultValue   Kind = "CsvDefaultValue"

	KindTrim         Kind = "CsvTrim"
	KindTruncate     Kind = "CsvTruncate"
	KindNullConvert  Kind = "CsvNullConvert"
	KindUpper        Kind = "CsvUpper"
	KindLower        Kind = "CsvLower"
	KindRegexReplace Kind = "CsvRegexReplace"
	KindLeftPad      Kind = "CsvLeftPad"
	KindRightPad     Kind = "CsvRightPad"
	KindFullChar     Kind = "CsvFullChar"
	KindHalfChar     Kind = "CsvHalfChar"

	KindRequire       Kind = "CsvRequire"
	KindEquals        Kind = "CsvEquals"
	KindPattern       Kind = "CsvPattern"
	KindLengthMin     Kind = "CsvLengthMin"
	KindLengthMax     Kind = "CsvLengthMax"
	KindLengthBetween Kind = "CsvLengthBetween"
	KindLengthExact   Kind = "CsvLengthExact"
	KindNumberRange   Kind = "CsvNumberRange"
	KindDateTimeRange Kind = "CsvDateTimeRange"
)

// Annotation 字段注解
// 自定义注解通过嵌入 Meta 实现 Attributes
type Annotation interface {
	Kind() Kind
	Attributes() Meta
}

// Meta 所有注解共有的属性
type Meta struct {
	Order   int              // 执行顺序，升序
	Groups  core.Group       // 所属分组，0 表示默认分组
	Cases   []core.BuildCase `validate:"dive,oneof=1 2"` // 适用方向，空表示读写都适用
	Message string           // 自定义消息模板，为空时使用默认消息键
}

// Attributes 获取公共属性
func (m Meta) Attributes() Meta {
	return m
}

// ============================================================================
// 字段描述
// ============================================================================

// FieldDescriptor 字段元数据，构建后不再修改
type FieldDescriptor struct {
	Name        string
	Label       string // 为空时使用 Name
	Number      int    // 列号，从 1 开始
	Type        reflect.Type
	Annotations []Annotation
}

// DisplayLabel 标签
func (f *FieldDescriptor) DisplayLabel() string {
	if f.Label == "" {
		return f.Name
	}
	return f.Label
}

// Find 查找第一个指定种类且适用的注解
func (f *FieldDescriptor) Find(kind Kind, buildCase core.BuildCase, groups core.Group) (Annotation, bool) {
	for _, anno := range f.Annotations {
		if anno.Kind() == kind && Applies(anno, buildCase, groups) {
			return anno, true
		}
	}
	return nil, false
}

// Applies 注解是否适用于指定方向与分组
func Applies(anno Annotation, buildCase core.BuildCase, groups core.Group) bool {
	meta := anno.Attributes()
	return core.MatchCases(meta.Cases, buildCase) && meta.Groups.Match(groups)
}

// Select 过滤出适用的注解并排序
func Select(annos []Annotation, buildCase core.BuildCase, groups core.Group) []Annotation {
	selected := make([]Annotation, 0, len(annos))
	for _, anno := range annos {
		if Applies(anno, buildCase, groups) {
			selected = append(selected, anno)
		}
	}
	Sort(selected)
	return selected
}

// Sort 按 Order 升序排序，相同时按种类名称升序，排序稳定
func Sort(annos []Annotation) {
	sort.SliceStable(annos, func(i, j int) bool {
		oi, oj := annos[i].Attributes().Order, annos[j].Attributes().Order
		if oi != oj {
			return oi < oj
		}
		return annos[i].Kind() < annos[j].Kind()
	})
}
