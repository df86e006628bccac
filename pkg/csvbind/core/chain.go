package core

import (
	"errors"
	"strings"
)

// Processor 单元格处理器
// 职责：转换或校验一个单元格的值
// 返回转换后的值继续执行，返回 Halt(v) 终止处理链，返回 *Violation 表示校验失败
type Processor interface {
	Name() string
	Execute(value any, ctx *CellContext) (any, error)
}

// halted 终止标记
type halted struct {
	value any
}

// Halt 终止处理链并以 value 作为结果
func Halt(value any) any {
	return halted{value: value}
}

// ============================================================================
// Chain 有序处理链
// ============================================================================

// Chain 处理器的有序列表，由单一驱动循环执行
// 构建后不可变，可并发执行
type Chain struct {
	processors []Processor
}

// NewChain 创建处理链
func NewChain(processors ...Processor) *Chain {
	copied := make([]Processor, 0, len(processors))
	for _, p := range processors {
		if p != nil {
			copied = append(copied, p)
		}
	}
	return &Chain{processors: copied}
}

// Execute 依次执行处理器
// 校验失败时返回 *ValidationError，其他错误原样返回
func (c *Chain) Execute(value any, ctx *CellContext) (any, error) {
	if ctx == nil {
		ctx = &CellContext{}
	}

	current := value
	for _, p := range c.processors {
		out, err := p.Execute(current, ctx)
		if err != nil {
			var violation *Violation
			if errors.As(err, &violation) {
				return nil, NewValidationError(violation, ctx)
			}
			return nil, err
		}
		if h, ok := out.(halted); ok {
			return h.value, nil
		}
		current = out
	}
	return current, nil
}

// Len 处理器数量
func (c *Chain) Len() int {
	return len(c.processors)
}

// Processors 获取处理器副本
func (c *Chain) Processors() []Processor {
	result := make([]Processor, len(c.processors))
	copy(result, c.processors)
	return result
}

// Names 按执行顺序返回处理器名称
func (c *Chain) Names() []string {
	names := make([]string, len(c.processors))
	for i, p := range c.processors {
		names[i] = p.Name()
	}
	return names
}

// String 实现 fmt.Stringer，例如 "Trim > Parse > NumberRange"
func (c *Chain) String() string {
	return strings.Join(c.Names(), " > ")
}

// ProcessorFunc 函数适配器
type ProcessorFunc struct {
	name string
	fn   func(value any, ctx *CellContext) (any, error)
}

// NewProcessorFunc 以函数创建处理器
func NewProcessorFunc(name string, fn func(value any, ctx *CellContext) (any, error)) *ProcessorFunc {
	return &ProcessorFunc{name: name, fn: fn}
}

// Name 处理器名称
func (p *ProcessorFunc) Name() string {
	return p.name
}

// Execute 执行函数
func (p *ProcessorFunc) Execute(value any, ctx *CellContext) (any, error) {
	return p.fn(value, ctx)
}
