package format

import (
	"fmt"
	"strings"

	"katydid-common-csv/pkg/csvbind/core"
)

// decimalPattern 编译后的十进制数值模式
// 支持 '#'、'0'、','、'.'、前后缀字面量、'%' 以及单引号转义
type decimalPattern struct {
	source      string
	prefix      string
	suffix      string
	groupSize   int // 0 表示不分组
	minInt      int
	minFraction int
	maxFraction int
	percent     bool
}

// compileDecimalPattern 编译数值模式，只使用正数子模式
func compileDecimalPattern(pattern string) (*decimalPattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty number pattern", core.ErrInvalidPattern)
	}

	positive := pattern
	if idx := indexUnquoted(pattern, ';'); idx >= 0 {
		positive = pattern[:idx]
	}

	p := &decimalPattern{source: pattern}
	runes := []rune(positive)

	// 前缀
	i := 0
	prefix, i, err := readAffix(runes, i, p)
	if err != nil {
		return nil, err
	}
	p.prefix = prefix

	// 数值部分
	start := i
	for i < len(runes) && strings.ContainsRune("#0,.", runes[i]) {
		i++
	}
	body := string(runes[start:i])
	if body == "" {
		return nil, fmt.Errorf("%w: no digits in number pattern '%s'", core.ErrInvalidPattern, pattern)
	}

	// 后缀
	suffix, i, err := readAffix(runes, i, p)
	if err != nil {
		return nil, err
	}
	if i != len(runes) {
		return nil, fmt.Errorf("%w: malformed number pattern '%s'", core.ErrInvalidPattern, pattern)
	}
	p.suffix = suffix

	intPart, fracPart := body, ""
	if idx := strings.IndexByte(body, '.'); idx >= 0 {
		intPart, fracPart = body[:idx], body[idx+1:]
		if strings.ContainsAny(fracPart, ".,") {
			return nil, fmt.Errorf("%w: malformed fraction in '%s'", core.ErrInvalidPattern, pattern)
		}
	}

	if idx := strings.LastIndexByte(intPart, ','); idx >= 0 {
		p.groupSize = len(intPart) - idx - 1
		if p.groupSize == 0 {
			return nil, fmt.Errorf("%w: grouping separator at end of integer part in '%s'", core.ErrInvalidPattern, pattern)
		}
	}

	seenZero := false
	for _, r := range intPart {
		switch r {
		case '0':
			seenZero = true
			p.minInt++
		case '#':
			if seenZero {
				return nil, fmt.Errorf("%w: '#' after '0' in '%s'", core.ErrInvalidPattern, pattern)
			}
		}
	}

	seenHash := false
	for _, r := range fracPart {
		switch r {
		case '0':
			if seenHash {
				return nil, fmt.Errorf("%w: '0' after '#' in fraction of '%s'", core.ErrInvalidPattern, pattern)
			}
			p.minFraction++
		case '#':
			seenHash = true
		}
		p.maxFraction++
	}

	return p, nil
}

// readAffix 读取前缀或后缀，遇到数值字符停止
func readAffix(runes []rune, i int, p *decimalPattern) (string, int, error) {
	var sb strings.Builder
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '\'':
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			if end >= len(runes) {
				return "", i, fmt.Errorf("%w: unterminated quote", core.ErrInvalidPattern)
			}
			if end == i+1 {
				sb.WriteRune('\'')
			} else {
				sb.WriteString(string(runes[i+1 : end]))
			}
			i = end + 1
		case strings.ContainsRune("#0,.", r):
			return sb.String(), i, nil
		case r == '%':
			p.percent = true
			sb.WriteRune(r)
			i++
		default:
			sb.WriteRune(r)
			i++
		}
	}
	return sb.String(), i, nil
}

func indexUnquoted(s string, target rune) int {
	quoted := false
	for i, r := range s {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == target && !quoted:
			return i
		}
	}
	return -1
}

// extractDigits 从文本中取出整数与小数数字
// 返回的整数、小数部分只包含 ASCII 数字
func (p *decimalPattern) extractDigits(body string, symbols Symbols, lenient bool) (string, string, bool) {
	var intDigits, fracDigits strings.Builder
	var groups []int
	current := 0
	inFraction := false
	sawGrouping := false

	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			if inFraction {
				fracDigits.WriteRune(r)
			} else {
				intDigits.WriteRune(r)
				current++
			}
		case r == symbols.Grouping && !inFraction:
			if current == 0 && !lenient {
				return "", "", false
			}
			sawGrouping = true
			groups = append(groups, current)
			current = 0
		case r == symbols.Decimal && !inFraction:
			inFraction = true
		default:
			return "", "", false
		}
	}
	groups = append(groups, current)

	if intDigits.Len() == 0 && fracDigits.Len() == 0 {
		return "", "", false
	}

	if sawGrouping && !lenient {
		if p.groupSize == 0 {
			return "", "", false
		}
		if groups[0] > p.groupSize {
			return "", "", false
		}
		for _, n := range groups[1:] {
			if n != p.groupSize {
				return "", "", false
			}
		}
	}

	if !lenient && inFraction && fracDigits.Len() == 0 {
		return "", "", false
	}
	return intDigits.String(), fracDigits.String(), true
}

// group 按分组大小插入分组符
func (p *decimalPattern) group(digits string, separator rune) string {
	if p.groupSize <= 0 || len(digits) <= p.groupSize {
		return digits
	}

	var sb strings.Builder
	head := len(digits) % p.groupSize
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += p.groupSize {
		if sb.Len() > 0 {
			sb.WriteRune(separator)
		}
		sb.WriteString(digits[i : i+p.groupSize])
	}
	return sb.String()
}
