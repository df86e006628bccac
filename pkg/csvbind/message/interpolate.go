package message

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"katydid-common-csv/pkg/csvbind/pool"
)

// MaxDepth 通过解析器展开消息键的最大嵌套深度
const MaxDepth = 5

// Interpolate 以变量替换模板中的 {name}
// 变量不存在时尝试通过 resolver 展开同名消息键，仍不存在则保留原文
// \{ 与 \} 输出字面量花括号
func Interpolate(template string, vars map[string]any, resolver Resolver, locale language.Tag) string {
	return interpolate(template, vars, resolver, locale, 0)
}

func interpolate(template string, vars map[string]any, resolver Resolver, locale language.Tag, depth int) string {
	if !strings.ContainsAny(template, "{\\") {
		return template
	}

	sb := pool.AcquireStringBuilder()
	defer pool.ReleaseStringBuilder(sb)

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '\\' && i+1 < len(template) && (template[i+1] == '{' || template[i+1] == '}' || template[i+1] == '\\'):
			sb.WriteByte(template[i+1])
			i++

		case c == '{':
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				sb.WriteString(template[i:])
				return sb.String()
			}
			name := template[i+1 : i+1+end]
			sb.WriteString(expand(name, vars, resolver, locale, depth))
			i += end + 1

		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// expand 展开单个占位符
func expand(name string, vars map[string]any, resolver Resolver, locale language.Tag, depth int) string {
	if value, ok := vars[name]; ok {
		return formatValue(value)
	}
	if resolver != nil && name != "" && depth < MaxDepth {
		if msg, err := resolver.Resolve(name, locale); err == nil {
			return interpolate(msg, vars, resolver, locale, depth+1)
		}
	}
	return "{" + name + "}"
}

// formatValue 变量值的文本形式，nil 输出为空字符串
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}
