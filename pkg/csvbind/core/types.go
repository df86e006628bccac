package core

import (
	"fmt"
	"reflect"
)

// ============================================================================
// 构建方向
// ============================================================================

// BuildCase 处理链的构建方向
type BuildCase int8

const (
	CaseRead  BuildCase = iota + 1 // 读取：CSV 文本 -> 类型值
	CaseWrite                      // 写入：类型值 -> CSV 文本
)

// String 实现 fmt.Stringer
func (c BuildCase) String() string {
	switch c {
	case CaseRead:
		return "read"
	case CaseWrite:
		return "write"
	default:
		return fmt.Sprintf("BuildCase(%d)", int8(c))
	}
}

// IsValid 是否为已知方向
func (c BuildCase) IsValid() bool {
	return c == CaseRead || c == CaseWrite
}

// MatchCases 判断方向是否命中，cases 为空表示读写都适用
func MatchCases(cases []BuildCase, target BuildCase) bool {
	if len(cases) == 0 {
		return true
	}
	for _, c := range cases {
		if c == target {
			return true
		}
	}
	return false
}

// ============================================================================
// 分组，使用位运算支持分组组合
// ============================================================================

// Group 校验分组
type Group int64

// 预定义分组，自定义分组从 1<<1 开始
const (
	GroupNone    Group = 0      // 未指定，等价于默认分组
	GroupDefault Group = 1 << 0 // 默认分组
	GroupAll     Group = -1     // 所有分组
)

// Normalize 未指定分组时视为默认分组
func (g Group) Normalize() Group {
	if g == GroupNone {
		return GroupDefault
	}
	return g
}

// Has 检查是否包含指定分组
func (g Group) Has(group Group) bool {
	return g&group != 0
}

// Add 添加分组
func (g Group) Add(group Group) Group {
	return g | group
}

// Remove 移除分组
func (g Group) Remove(group Group) Group {
	return g &^ group
}

// Match 注解分组与当前激活分组是否有交集
func (g Group) Match(active Group) bool {
	return g.Normalize().Has(active.Normalize())
}

// ============================================================================
// 单元格上下文
// ============================================================================

// CellContext 当前正在处理的单元格位置
// LineNumber 为物理行号，RowNumber 为 CSV 记录序号（含表头），ColumnNumber 从 1 开始
type CellContext struct {
	LineNumber   int
	RowNumber    int
	ColumnNumber int
	Label        string
	FieldName    string
}

// NewCellContext 创建单元格上下文
func NewCellContext(line, row, column int) *CellContext {
	return &CellContext{
		LineNumber:   line,
		RowNumber:    row,
		ColumnNumber: column,
	}
}

// WithField 设置字段名与标签，标签为空时使用字段名
func (c *CellContext) WithField(name, label string) *CellContext {
	c.FieldName = name
	if label == "" {
		label = name
	}
	c.Label = label
	return c
}

// String 实现 fmt.Stringer
func (c *CellContext) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("line=%d, row=%d, column=%d, label=%s", c.LineNumber, c.RowNumber, c.ColumnNumber, c.Label)
}

// IsEmpty nil、空指针与空字符串视为空值
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
