package format

import (
	"sync"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Symbols 数值分隔符
type Symbols struct {
	Grouping rune
	Decimal  rune
}

// DefaultSymbols 未指定区域时的分隔符
var DefaultSymbols = Symbols{Grouping: ',', Decimal: '.'}

// symbolCache key: language tag string, value: Symbols
var symbolCache sync.Map

// SymbolsOf 获取区域的数值分隔符
// 通过格式化样本数值推导分组符与小数点，结果缓存
func SymbolsOf(tag language.Tag) Symbols {
	if tag == language.Und {
		return DefaultSymbols
	}

	key := tag.String()
	if cached, ok := symbolCache.Load(key); ok {
		return cached.(Symbols)
	}

	p := message.NewPrinter(tag)
	sample := p.Sprintf("%v", number.Decimal(1234567.5, number.MinFractionDigits(1), number.MaxFractionDigits(1)))

	var separators []rune
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			separators = append(separators, r)
		}
	}

	symbols := DefaultSymbols
	switch len(separators) {
	case 0:
	case 1:
		symbols.Decimal = separators[0]
		if symbols.Decimal == ',' {
			symbols.Grouping = '.'
		}
	default:
		symbols.Grouping = separators[0]
		symbols.Decimal = separators[len(separators)-1]
	}

	symbolCache.Store(key, symbols)
	return symbols
}
