// Package csvio 以映射读写 CSV 文件
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"katydid-common-csv/pkg/csvbind/builder"
	"katydid-common-csv/pkg/csvbind/core"
)

// options 读写共用选项
type options struct {
	header     bool
	comma      rune
	lazyQuotes bool
	useCRLF    bool
}

func defaultOptions() options {
	return options{header: true, comma: ','}
}

// Option 读写选项
type Option func(*options)

// WithHeader 是否有表头，默认有
// 有表头时表头为第 1 条记录，第一条数据记录为第 2 条
func WithHeader(header bool) Option {
	return func(o *options) {
		o.header = header
	}
}

// WithComma 设置分隔符
func WithComma(comma rune) Option {
	return func(o *options) {
		o.comma = comma
	}
}

// WithLazyQuotes 读取时允许不规范的引号
func WithLazyQuotes(lazy bool) Option {
	return func(o *options) {
		o.lazyQuotes = lazy
	}
}

// WithCRLF 写入时使用 \r\n 换行
func WithCRLF(useCRLF bool) Option {
	return func(o *options) {
		o.useCRLF = useCRLF
	}
}

// ============================================================================
// Reader
// ============================================================================

// Record 一条读取结果
type Record struct {
	Values     []any // 按列号升序，校验失败时为 nil
	LineNumber int   // 记录起始的物理行号
	RowNumber  int   // 记录序号，包含表头
	Err        error // 该行的校验错误或列数不足错误
}

// Reader CSV 读取器，非并发安全
type Reader struct {
	csv        *csv.Reader
	mapping    *builder.BeanMapping
	opts       options
	headerRead bool
	header     []string
	row        int
}

// NewReader 创建读取器
func NewReader(r io.Reader, mapping *builder.BeanMapping, opts ...Option) *Reader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.Comma = o.comma
	cr.LazyQuotes = o.lazyQuotes
	cr.FieldsPerRecord = -1

	return &Reader{csv: cr, mapping: mapping, opts: o}
}

// ReadHeader 读取表头，没有表头时返回 nil
func (r *Reader) ReadHeader() ([]string, error) {
	if !r.opts.header || r.headerRead {
		return r.header, nil
	}

	record, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.headerRead = true
	r.row++
	r.header = append([]string(nil), record...)
	return r.header, nil
}

// readRaw 读取下一条原始记录
func (r *Reader) readRaw() ([]string, int, int, error) {
	if _, err := r.ReadHeader(); err != nil {
		return nil, 0, 0, err
	}

	record, err := r.csv.Read()
	if err != nil {
		return nil, 0, 0, err
	}
	line, _ := r.csv.FieldPos(0)
	r.row++
	return record, line, r.row, nil
}

// Read 读取并处理下一条记录，结束时返回 io.EOF
// 校验失败时返回的 Record 不含值，错误为 *core.ValidationErrors，可以继续读取
func (r *Reader) Read() (*Record, error) {
	record, line, row, err := r.readRaw()
	if err != nil {
		return nil, err
	}

	result := &Record{LineNumber: line, RowNumber: row}
	values, err := r.mapping.ReadRow(record, line, row)
	if err != nil {
		result.Err = err
		return result, err
	}
	result.Values = values
	return result, nil
}

// ReadInto 读取下一条记录并赋值给 dst
func (r *Reader) ReadInto(dst any) error {
	record, err := r.Read()
	if err != nil {
		return err
	}
	return r.mapping.Decode(record.Values, dst)
}

// ReadAll 读取所有记录，以最多 workers 个协程并行执行处理链
// 说明：校验错误与列数不足只记录在对应行的 Record.Err 中，不中断读取；
// 返回的错误合并所有行的校验错误（按行序的 *core.ValidationErrors）与列数不足错误，
// 可以用 core.CollectValidationErrors 与 errors.Is(err, core.ErrColumnMismatch) 分别判别。
// 其他错误立即终止
func (r *Reader) ReadAll(ctx context.Context, workers int) ([]*Record, error) {
	type raw struct {
		fields []string
		line   int
		row    int
	}

	var raws []raw
	for {
		fields, line, row, err := r.readRaw()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw{fields: fields, line: line, row: row})
	}

	results := make([]*Record, len(raws))
	rowErrs := make([][]*core.ValidationError, len(raws))
	mismatches := make([]error, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range raws {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := raws[i]
			results[i] = &Record{LineNumber: item.line, RowNumber: item.row}

			values, err := r.mapping.ReadRow(item.fields, item.line, item.row)
			if err != nil {
				errs := core.CollectValidationErrors(err)
				switch {
				case len(errs) > 0:
					rowErrs[i] = errs
				case errors.Is(err, core.ErrColumnMismatch):
					mismatches[i] = err
				default:
					return fmt.Errorf("row %d: %w", item.row, err)
				}
				results[i].Err = err
				return nil
			}
			results[i].Values = values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*core.ValidationError
	for _, errs := range rowErrs {
		all = append(all, errs...)
	}

	var joined []error
	if len(all) > 0 {
		joined = append(joined, core.NewValidationErrors(all...))
	}
	for _, err := range mismatches {
		if err != nil {
			joined = append(joined, err)
		}
	}
	switch len(joined) {
	case 0:
		return results, nil
	case 1:
		return results, joined[0]
	}
	return results, errors.Join(joined...)
}

// ============================================================================
// Writer
// ============================================================================

// Writer CSV 写入器，非并发安全
type Writer struct {
	csv           *csv.Writer
	mapping       *builder.BeanMapping
	opts          options
	headerWritten bool
	row           int
}

// NewWriter 创建写入器
func NewWriter(w io.Writer, mapping *builder.BeanMapping, opts ...Option) *Writer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cw := csv.NewWriter(w)
	cw.Comma = o.comma
	cw.UseCRLF = o.useCRLF

	return &Writer{csv: cw, mapping: mapping, opts: o}
}

// WriteHeader 写入表头，只写一次，没有表头时不写入
func (w *Writer) WriteHeader() error {
	if !w.opts.header || w.headerWritten {
		return nil
	}
	if err := w.csv.Write(w.mapping.Header()); err != nil {
		return err
	}
	w.headerWritten = true
	w.row++
	return nil
}

// Write 执行写入处理链并写入一条记录，values 按列号升序排列
// 校验失败时不写入，记录序号不递增
func (w *Writer) Write(values []any) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}

	row := w.row + 1
	record, err := w.mapping.WriteRow(values, row, row)
	if err != nil {
		return err
	}
	if err := w.csv.Write(record); err != nil {
		return err
	}
	w.row = row
	return nil
}

// WriteStruct 写入结构体
func (w *Writer) WriteStruct(src any) error {
	values, err := w.mapping.Encode(src)
	if err != nil {
		return err
	}
	return w.Write(values)
}

// Flush 刷新缓冲
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
