package builder

import (
	"fmt"
	"reflect"
	"sort"

	"katydid-common-csv/pkg/csvbind/collector"
	"katydid-common-csv/pkg/csvbind/core"
)

// ColumnMapping 单列的读写处理链
type ColumnMapping struct {
	Field      *FieldDescriptor
	Number     int // 列号，从 1 开始
	Label      string
	ReadChain  *core.Chain
	WriteChain *core.Chain
}

// BeanMapping 一种记录类型的全部列映射，构建后不可变
type BeanMapping struct {
	name      string
	columns   []*ColumnMapping
	byName    map[string]*ColumnMapping
	width     int // 记录的列数，等于最大列号
	maxErrors int
}

// BeanMappingFactory 映射工厂
type BeanMappingFactory struct {
	builder *ProcessorBuilder
}

// NewBeanMappingFactory 创建映射工厂
func NewBeanMappingFactory(opts ...Option) *BeanMappingFactory {
	return &BeanMappingFactory{builder: NewProcessorBuilder(opts...)}
}

// Builder 获取处理链构建器
func (f *BeanMappingFactory) Builder() *ProcessorBuilder {
	return f.builder
}

// Create 为每个字段构建读写处理链
// 列号为 0 的字段按声明顺序编号，列号重复时返回 core.ErrDuplicateColumn
func (f *BeanMappingFactory) Create(name string, fields []FieldDescriptor, groups ...core.Group) (*BeanMapping, error) {
	var active core.Group
	for _, g := range groups {
		active = active.Add(g)
	}

	m := &BeanMapping{
		name:      name,
		columns:   make([]*ColumnMapping, 0, len(fields)),
		byName:    make(map[string]*ColumnMapping, len(fields)),
		maxErrors: f.builder.config.MaxErrors,
	}
	numbers := make(map[int]string, len(fields))

	for i := range fields {
		field := fields[i]
		if field.Number == 0 {
			field.Number = i + 1
		}
		if field.Number < 0 {
			return nil, core.NewConfigError(field.Name, "", fmt.Errorf("%w: column number %d", core.ErrInvalidAnnotation, field.Number))
		}
		if other, exists := numbers[field.Number]; exists {
			return nil, core.NewConfigError(field.Name, "",
				fmt.Errorf("%w: column %d already mapped to '%s'", core.ErrDuplicateColumn, field.Number, other))
		}
		if _, exists := m.byName[field.Name]; exists {
			return nil, core.NewConfigError(field.Name, "", fmt.Errorf("%w: duplicate field name", core.ErrInvalidAnnotation))
		}
		numbers[field.Number] = field.Name

		readChain, err := f.builder.Build(&field, core.CaseRead, active)
		if err != nil {
			return nil, err
		}
		writeChain, err := f.builder.Build(&field, core.CaseWrite, active)
		if err != nil {
			return nil, err
		}

		column := &ColumnMapping{
			Field:      &field,
			Number:     field.Number,
			Label:      field.DisplayLabel(),
			ReadChain:  readChain,
			WriteChain: writeChain,
		}
		m.columns = append(m.columns, column)
		m.byName[field.Name] = column
		if field.Number > m.width {
			m.width = field.Number
		}
	}

	sort.Slice(m.columns, func(i, j int) bool { return m.columns[i].Number < m.columns[j].Number })
	return m, nil
}

// Name 记录类型名称
func (m *BeanMapping) Name() string {
	return m.name
}

// Columns 按列号升序的列映射
func (m *BeanMapping) Columns() []*ColumnMapping {
	columns := make([]*ColumnMapping, len(m.columns))
	copy(columns, m.columns)
	return columns
}

// Column 按字段名查找列映射
func (m *BeanMapping) Column(name string) (*ColumnMapping, bool) {
	c, ok := m.byName[name]
	return c, ok
}

// ColumnByNumber 按列号查找列映射
func (m *BeanMapping) ColumnByNumber(number int) (*ColumnMapping, bool) {
	i := sort.Search(len(m.columns), func(i int) bool { return m.columns[i].Number >= number })
	if i < len(m.columns) && m.columns[i].Number == number {
		return m.columns[i], true
	}
	return nil, false
}

// Width 记录的列数
func (m *BeanMapping) Width() int {
	return m.width
}

// Header 表头，未映射的列为空字符串
func (m *BeanMapping) Header() []string {
	header := make([]string, m.width)
	for _, c := range m.columns {
		header[c.Number-1] = c.Label
	}
	return header
}

// ============================================================================
// 读写
// ============================================================================

// ReadRow 依次执行每列的读取处理链
// 所有校验错误按列号升序收集为 *core.ValidationErrors，其他错误立即返回
func (m *BeanMapping) ReadRow(record []string, line, row int) ([]any, error) {
	if len(record) < m.width {
		return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", core.ErrColumnMismatch, row, len(record), m.width)
	}

	errs := collector.Acquire(m.maxErrors)
	defer collector.Release(errs)

	values := make([]any, len(m.columns))
	for i, c := range m.columns {
		ctx := core.NewCellContext(line, row, c.Number).WithField(c.Field.Name, c.Label)
		value, err := c.ReadChain.Execute(record[c.Number-1], ctx)
		if err != nil {
			if !errs.CollectError(err) {
				return nil, fmt.Errorf("read %s: %w", ctx, err)
			}
			if errs.Full() {
				break
			}
			continue
		}
		values[i] = value
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return values, nil
}

// WriteRow 依次执行每列的写入处理链，values 按列号升序排列
func (m *BeanMapping) WriteRow(values []any, line, row int) ([]string, error) {
	if len(values) != len(m.columns) {
		return nil, fmt.Errorf("%w: row %d has %d values, expected %d", core.ErrColumnMismatch, row, len(values), len(m.columns))
	}

	errs := collector.Acquire(m.maxErrors)
	defer collector.Release(errs)

	record := make([]string, m.width)
	for i, c := range m.columns {
		ctx := core.NewCellContext(line, row, c.Number).WithField(c.Field.Name, c.Label)
		out, err := c.WriteChain.Execute(values[i], ctx)
		if err != nil {
			if !errs.CollectError(err) {
				return nil, fmt.Errorf("write %s: %w", ctx, err)
			}
			if errs.Full() {
				break
			}
			continue
		}
		switch v := out.(type) {
		case nil:
		case string:
			record[c.Number-1] = v
		default:
			record[c.Number-1] = fmt.Sprint(v)
		}
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return record, nil
}

// ============================================================================
// 结构体绑定
// ============================================================================

// Decode 将读取结果赋值给 dst 中同名的导出字段，dst 必须是结构体指针
// 不存在的字段被忽略，nil 值赋零值
func (m *BeanMapping) Decode(values []any, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: decode target must be a non-nil struct pointer, got %T", core.ErrUnsupportedType, dst)
	}
	if len(values) != len(m.columns) {
		return fmt.Errorf("%w: %d values, expected %d", core.ErrColumnMismatch, len(values), len(m.columns))
	}

	target := rv.Elem()
	for i, c := range m.columns {
		field := target.FieldByName(c.Field.Name)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		if err := assign(field, values[i]); err != nil {
			return fmt.Errorf("decode field '%s': %w", c.Field.Name, err)
		}
	}
	return nil
}

// Encode 按列号顺序读取 src 中同名字段的值，src 可以是结构体或结构体指针
func (m *BeanMapping) Encode(src any) ([]any, error) {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil encode source", core.ErrUnsupportedType)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: encode source must be a struct, got %T", core.ErrUnsupportedType, src)
	}

	values := make([]any, len(m.columns))
	for i, c := range m.columns {
		field := rv.FieldByName(c.Field.Name)
		if !field.IsValid() || !field.CanInterface() {
			continue
		}
		if field.Kind() == reflect.Pointer {
			if field.IsNil() {
				continue
			}
			field = field.Elem()
		}
		values[i] = field.Interface()
	}
	return values, nil
}

// assign 赋值，支持指针字段与可转换的命名类型
func assign(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	v := reflect.ValueOf(value)
	typ := field.Type()
	if typ.Kind() == reflect.Pointer && !v.Type().AssignableTo(typ) {
		ptr := reflect.New(typ.Elem())
		if err := assign(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	switch {
	case v.Type().AssignableTo(typ):
		field.Set(v)
	case v.Type().ConvertibleTo(typ) && v.Kind() == typ.Kind():
		field.Set(v.Convert(typ))
	default:
		return fmt.Errorf("%w: cannot assign %T to %s", core.ErrUnsupportedType, value, typ)
	}
	return nil
}
