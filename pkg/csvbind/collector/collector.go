// Package collector 单元格校验错误收集器
package collector

import (
	"sort"
	"sync"

	"katydid-common-csv/pkg/csvbind/core"
)

// DefaultMaxErrors 默认最大错误数
const DefaultMaxErrors = 100

// ============================================================================
// 列表错误收集器 - 保持发现顺序
// ============================================================================

// ListCollector 基于列表的错误收集器，非并发安全
type ListCollector struct {
	errors    []*core.ValidationError
	maxErrors int
}

// NewListCollector 创建列表错误收集器，maxErrors <= 0 时使用默认值
func NewListCollector(maxErrors int) *ListCollector {
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &ListCollector{
		errors:    make([]*core.ValidationError, 0, 8),
		maxErrors: maxErrors,
	}
}

// Collect 收集错误，达到上限时返回 false
func (c *ListCollector) Collect(err *core.ValidationError) bool {
	if err == nil {
		return true
	}
	if len(c.errors) >= c.maxErrors {
		return false
	}
	c.errors = append(c.errors, err)
	return true
}

// CollectError 收集 error 中包含的所有校验错误
// 不包含校验错误时返回 false，调用方应按非校验错误处理
func (c *ListCollector) CollectError(err error) bool {
	errs := core.CollectValidationErrors(err)
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		if !c.Collect(e) {
			break
		}
	}
	return true
}

// Errors 获取所有错误，返回副本
func (c *ListCollector) Errors() []*core.ValidationError {
	errs := make([]*core.ValidationError, len(c.errors))
	copy(errs, c.errors)
	return errs
}

// HasErrors 是否有错误
func (c *ListCollector) HasErrors() bool {
	return len(c.errors) > 0
}

// Count 错误数量
func (c *ListCollector) Count() int {
	return len(c.errors)
}

// MaxErrors 最大错误数
func (c *ListCollector) MaxErrors() int {
	return c.maxErrors
}

// Full 是否已达到上限
func (c *ListCollector) Full() bool {
	return len(c.errors) >= c.maxErrors
}

// Clear 清空错误
func (c *ListCollector) Clear() {
	for i := range c.errors {
		c.errors[i] = nil
	}
	c.errors = c.errors[:0]
}

// SortByPosition 按行号、列号升序排序，排序稳定
func (c *ListCollector) SortByPosition() {
	sort.SliceStable(c.errors, func(i, j int) bool {
		a, b := c.errors[i], c.errors[j]
		if a.RowNumber != b.RowNumber {
			return a.RowNumber < b.RowNumber
		}
		return a.ColumnNumber < b.ColumnNumber
	})
}

// ToError 无错误时返回 nil，否则返回 *core.ValidationErrors
func (c *ListCollector) ToError() error {
	if len(c.errors) == 0 {
		return nil
	}
	return core.NewValidationErrors(c.Errors()...)
}

// ============================================================================
// 对象池
// ============================================================================

var collectorPool = sync.Pool{
	New: func() any {
		return NewListCollector(DefaultMaxErrors)
	},
}

// Acquire 从对象池获取收集器
func Acquire(maxErrors int) *ListCollector {
	c := collectorPool.Get().(*ListCollector)
	c.Clear()
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	c.maxErrors = maxErrors
	return c
}

// Release 归还收集器，归还后不得再使用
func Release(c *ListCollector) {
	if c == nil {
		return
	}
	c.Clear()
	collectorPool.Put(c)
}
