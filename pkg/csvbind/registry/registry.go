// Package registry 注解种类到处理器工厂的注册表
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"katydid-common-csv/pkg/csvbind/annotation"
	"katydid-common-csv/pkg/csvbind/config"
	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/format"
)

var (
	// ErrFactoryNotFound 注解种类没有对应工厂
	// 说明：构建处理链时包装在 *core.ConfigError 中返回
	ErrFactoryNotFound = errors.New("processor factory not found")

	// ErrInvalidFactory 工厂注册参数非法
	ErrInvalidFactory = errors.New("invalid processor factory")
)

// Category 处理器类别，决定在处理链中的位置
type Category int8

const (
	CategoryConversion Category = iota + 1 // 转换，读取时在解析前，写入时在格式化后
	CategoryConstraint                     // 约束，读取时在解析后，写入时在格式化前
)

// String 实现 fmt.Stringer
func (c Category) String() string {
	switch c {
	case CategoryConversion:
		return "conversion"
	case CategoryConstraint:
		return "constraint"
	}
	return fmt.Sprintf("Category(%d)", int8(c))
}

// BuildContext 创建处理器时的上下文
// 说明：由 builder 为每个字段、每个方向创建一次，工厂不能保留对它的引用
type BuildContext struct {
	Field     *annotation.FieldDescriptor // 当前字段
	Case      core.BuildCase              // 读取或写入
	Formatter format.TextFormatter        // 字段格式化器，用于解析注解中的边界值
	Config    *config.Configuration       // 只读配置
}

// ProcessorFactory 处理器工厂
// 说明：Create 收到的注解一定是注册时对应种类的注解；
// 注解参数非法时返回包装 core.ErrInvalidAnnotation 或 core.ErrInvalidBound 的错误，
// 字段类型不适用时返回包装 core.ErrUnsupportedType 的错误
type ProcessorFactory interface {
	Category() Category
	Create(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error)
}

// FactoryFunc 函数形式的工厂
type FactoryFunc func(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error)

type funcFactory struct {
	category Category
	fn       FactoryFunc
}

func (f *funcFactory) Category() Category {
	return f.category
}

func (f *funcFactory) Create(anno annotation.Annotation, ctx *BuildContext) (core.Processor, error) {
	return f.fn(anno, ctx)
}

// NewFactory 以函数创建工厂
func NewFactory(category Category, fn FactoryFunc) ProcessorFactory {
	return &funcFactory{category: category, fn: fn}
}

// ============================================================================
// FactoryRegistry
// ============================================================================

// FactoryRegistry 工厂注册表，可并发使用
type FactoryRegistry struct {
	factories map[annotation.Kind]ProcessorFactory // 注解种类 -> 工厂
	mu        sync.RWMutex                         // 保护 factories
}

var (
	// globalRegistry 全局注册表实例（单例）
	globalRegistry *FactoryRegistry

	// globalRegistryOnce 确保全局注册表只初始化一次
	globalRegistryOnce sync.Once
)

// Default 获取全局注册表，首次调用时注册内置工厂
// 说明：在全局注册表上注册的自定义工厂对之后构建的所有处理链生效，已构建的处理链不受影响
func Default() *FactoryRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = NewWithBuiltins()
	})
	return globalRegistry
}

// New 创建空注册表
func New() *FactoryRegistry {
	return &FactoryRegistry{factories: make(map[annotation.Kind]ProcessorFactory)}
}

// NewWithBuiltins 创建包含内置工厂的注册表
func NewWithBuiltins() *FactoryRegistry {
	r := New()
	registerBuiltins(r)
	return r
}

// Register 注册工厂，允许覆盖已有工厂
// 说明：种类不能为空，工厂类别只能是 CategoryConversion 或 CategoryConstraint
func (r *FactoryRegistry) Register(kind annotation.Kind, factory ProcessorFactory) error {
	if kind == "" {
		return fmt.Errorf("%w: empty kind", ErrInvalidFactory)
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %s", ErrInvalidFactory, kind)
	}
	switch factory.Category() {
	case CategoryConversion, CategoryConstraint:
	default:
		return fmt.Errorf("%w: unknown category %s for %s", ErrInvalidFactory, factory.Category(), kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
	return nil
}

// Get 获取工厂
func (r *FactoryRegistry) Get(kind annotation.Kind) (ProcessorFactory, error) {
	r.mu.RLock()
	factory, exists := r.factories[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFactoryNotFound, kind)
	}
	return factory, nil
}

// Has 检查工厂是否存在
func (r *FactoryRegistry) Has(kind annotation.Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[kind]
	return exists
}

// Unregister 注销工厂
func (r *FactoryRegistry) Unregister(kind annotation.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, kind)
}

// List 按名称排序列出所有已注册的种类
func (r *FactoryRegistry) List() []annotation.Kind {
	r.mu.RLock()
	kinds := make([]annotation.Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	r.mu.RUnlock()

	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
