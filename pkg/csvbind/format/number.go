package format

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"katydid-common-csv/pkg/csvbind/core"
)

// NumberFormatter 数值格式化器
// 无模式时使用 strconv，有模式时按十进制格式模式解析与输出
type NumberFormatter struct {
	typ     reflect.Type
	opts    Options
	pattern *decimalPattern
	symbols Symbols
}

var _ TextFormatter = (*NumberFormatter)(nil)

// NewNumberFormatter 创建数值格式化器
func NewNumberFormatter(typ reflect.Type, opts Options) (*NumberFormatter, error) {
	if !IsNumberType(typ) {
		return nil, fmt.Errorf("%w: %v is not a number type", core.ErrUnsupportedType, typ)
	}

	f := &NumberFormatter{
		typ:     Indirect(typ),
		opts:    opts,
		symbols: SymbolsOf(opts.Locale),
	}

	if opts.Pattern != "" {
		compiled, err := compileDecimalPattern(opts.Pattern)
		if err != nil {
			return nil, err
		}
		f.pattern = compiled
	}
	return f, nil
}

// Pattern 格式模式
func (f *NumberFormatter) Pattern() string {
	return f.opts.Pattern
}

// MessageKey 解析失败消息键
func (f *NumberFormatter) MessageKey() string {
	return f.opts.messageKey()
}

// MessageVariables 无模式时为空
func (f *NumberFormatter) MessageVariables() map[string]any {
	if f.pattern == nil {
		return map[string]any{}
	}
	return map[string]any{VarPattern: f.opts.Pattern}
}

// Parse 解析文本
func (f *NumberFormatter) Parse(text string) (any, error) {
	s := text
	if f.opts.Lenient {
		s = strings.TrimSpace(s)
	}
	if f.pattern == nil {
		return f.parsePlain(text, s)
	}

	r, err := f.parsePattern(text, s)
	if err != nil {
		return nil, err
	}
	return f.fromRat(text, r)
}

func (f *NumberFormatter) parsePlain(text, s string) (any, error) {
	rv := reflect.New(f.typ).Elem()
	switch f.typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, f.typ.Bits())
		if err != nil {
			return nil, numError(text, err)
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, f.typ.Bits())
		if err != nil {
			return nil, numError(text, err)
		}
		rv.SetUint(n)
	default:
		n, err := strconv.ParseFloat(s, f.typ.Bits())
		if err != nil {
			return nil, numError(text, err)
		}
		rv.SetFloat(n)
	}
	return rv.Interface(), nil
}

func numError(text string, err error) error {
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return fmt.Errorf("%w: %w '%s'", ErrParse, ErrOverflow, text)
	}
	return parseError(text, "not a number")
}

func (f *NumberFormatter) parsePattern(text, s string) (*big.Rat, error) {
	p := f.pattern

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	if !strings.HasPrefix(s, p.prefix) {
		return nil, parseError(text, fmt.Sprintf("missing prefix '%s'", p.prefix))
	}
	s = s[len(p.prefix):]
	if !strings.HasSuffix(s, p.suffix) {
		return nil, parseError(text, fmt.Sprintf("missing suffix '%s'", p.suffix))
	}
	s = s[:len(s)-len(p.suffix)]

	intDigits, fracDigits, ok := p.extractDigits(s, f.symbols, f.opts.Lenient)
	if !ok {
		return nil, parseError(text, fmt.Sprintf("does not match pattern '%s'", p.source))
	}
	if intDigits == "" {
		intDigits = "0"
	}

	literal := intDigits
	if fracDigits != "" {
		literal += "." + fracDigits
	}
	if negative {
		literal = "-" + literal
	}

	r, ok := new(big.Rat).SetString(literal)
	if !ok {
		return nil, parseError(text, "not a number")
	}
	if p.percent {
		r.Quo(r, big.NewRat(100, 1))
	}
	return r, nil
}

// fromRat 将有理数转换为目标类型，检查溢出
func (f *NumberFormatter) fromRat(text string, r *big.Rat) (any, error) {
	rv := reflect.New(f.typ).Elem()

	switch f.typ.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !r.IsInt() {
			return nil, parseError(text, "not an integer")
		}
		n := r.Num()
		if !n.IsInt64() || rv.OverflowInt(n.Int64()) {
			return nil, fmt.Errorf("%w: %w '%s'", ErrParse, ErrOverflow, text)
		}
		rv.SetInt(n.Int64())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if !r.IsInt() {
			return nil, parseError(text, "not an integer")
		}
		n := r.Num()
		if !n.IsUint64() || rv.OverflowUint(n.Uint64()) {
			return nil, fmt.Errorf("%w: %w '%s'", ErrParse, ErrOverflow, text)
		}
		rv.SetUint(n.Uint64())
	default:
		v, _ := r.Float64()
		if math.IsInf(v, 0) || rv.OverflowFloat(v) {
			return nil, fmt.Errorf("%w: %w '%s'", ErrParse, ErrOverflow, text)
		}
		rv.SetFloat(v)
	}
	return rv.Interface(), nil
}

// Print 输出文本
func (f *NumberFormatter) Print(value any) (string, error) {
	value = deref(value)
	if value == nil {
		return "", nil
	}

	rv := reflect.ValueOf(value)
	if f.pattern == nil {
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(rv.Int(), 10), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return strconv.FormatUint(rv.Uint(), 10), nil
		case reflect.Float32, reflect.Float64:
			return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), nil
		}
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}

	r, ok := toRat(rv)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
	return f.printPattern(r), nil
}

func (f *NumberFormatter) printPattern(r *big.Rat) string {
	p := f.pattern
	if p.percent {
		r = new(big.Rat).Mul(r, big.NewRat(100, 1))
	}

	negative := r.Sign() < 0
	abs := new(big.Rat).Abs(r)
	digits := abs.FloatString(p.maxFraction)

	intDigits, fracDigits := digits, ""
	if idx := strings.IndexByte(digits, '.'); idx >= 0 {
		intDigits, fracDigits = digits[:idx], digits[idx+1:]
	}

	for len(fracDigits) > p.minFraction && strings.HasSuffix(fracDigits, "0") {
		fracDigits = fracDigits[:len(fracDigits)-1]
	}

	intDigits = strings.TrimLeft(intDigits, "0")
	for len(intDigits) < p.minInt {
		intDigits = "0" + intDigits
	}
	if intDigits == "" {
		intDigits = "0"
	}

	var sb strings.Builder
	if negative && (strings.Trim(intDigits, "0") != "" || strings.Trim(fracDigits, "0") != "") {
		sb.WriteByte('-')
	}
	sb.WriteString(p.prefix)
	sb.WriteString(p.group(intDigits, f.symbols.Grouping))
	if fracDigits != "" {
		sb.WriteRune(f.symbols.Decimal)
		sb.WriteString(fracDigits)
	}
	sb.WriteString(p.suffix)
	return sb.String()
}

func toRat(rv reflect.Value) (*big.Rat, bool) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return new(big.Rat).SetInt64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Rat).SetInt(new(big.Int).SetUint64(rv.Uint())), true
	case reflect.Float32, reflect.Float64:
		v := rv.Float()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		// float32 先转十进制文本，避免输出二进制误差
		r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'g', -1, rv.Type().Bits()))
		return r, ok
	}
	return nil, false
}

// CompareNumbers 比较两个数值，返回 -1、0 或 1
func CompareNumbers(a, b any) (int, error) {
	ra, ok := toRat(reflect.ValueOf(deref(a)))
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedValue, a)
	}
	rb, ok := toRat(reflect.ValueOf(deref(b)))
	if !ok {
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedValue, b)
	}
	return ra.Cmp(rb), nil
}
