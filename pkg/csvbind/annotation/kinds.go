package annotation

// ============================================================================
// 格式注解
// ============================================================================

// CsvNumberFormat 数值格式
type CsvNumberFormat struct {
	Meta
	Pattern string // 例如 "#,##0.00"
	Lenient bool
	Locale  string `validate:"omitempty,bcp47_language_tag"`
}

// CsvDateTimeFormat 日期时间格式
type CsvDateTimeFormat struct {
	Meta
	Pattern  string // 例如 "uuuu-MM-dd"
	Lenient  bool
	Locale   string `validate:"omitempty,bcp47_language_tag"`
	TimeZone string `validate:"omitempty,timezone"`
}

// CsvBooleanFormat 布尔格式
type CsvBooleanFormat struct {
	Meta
	ReadForTrue  []string
	ReadForFalse []string
	WriteAsTrue  string
	WriteAsFalse string
	IgnoreCase   bool
	FailToFalse  bool
}

// CsvDefaultValue 空值时使用的默认值
type CsvDefaultValue struct {
	Meta
	Value string `validate:"required"`
}

func (CsvNumberFormat) Kind() Kind   { return KindNumberFormat }
func (CsvDateTimeFormat) Kind() Kind { return KindDateTimeFormat }
func (CsvBooleanFormat) Kind() Kind  { return KindBooleanFormat }
func (CsvDefaultValue) Kind() Kind   { return KindDefaultValue }

// ============================================================================
// 转换注解
// ============================================================================

// CsvTrim 去除首尾空白
type CsvTrim struct {
	Meta
}

// CsvTruncate 超长截断
type CsvTruncate struct {
	Meta
	MaxSize int `validate:"gte=1"`
	Suffix  string
}

// CsvNullConvert 指定文本视为空值
type CsvNullConvert struct {
	Meta
	Values     []string `validate:"min=1"`
	IgnoreCase bool
}

// CsvUpper 转大写
type CsvUpper struct {
	Meta
}

// CsvLower 转小写
type CsvLower struct {
	Meta
}

// CsvRegexReplace 正则替换
type CsvRegexReplace struct {
	Meta
	Regex       string `validate:"required"`
	Replacement string
}

// CsvLeftPad 左侧补齐
type CsvLeftPad struct {
	Meta
	Size    int `validate:"gte=1"`
	PadChar rune
}

// CsvRightPad 右侧补齐
type CsvRightPad struct {
	Meta
	Size    int `validate:"gte=1"`
	PadChar rune
}

// CsvFullChar 半角转全角
type CsvFullChar struct {
	Meta
}

// CsvHalfChar 全角转半角
type CsvHalfChar struct {
	Meta
}

func (CsvTrim) Kind() Kind         { return KindTrim }
func (CsvTruncate) Kind() Kind     { return KindTruncate }
func (CsvNullConvert) Kind() Kind  { return KindNullConvert }
func (CsvUpper) Kind() Kind        { return KindUpper }
func (CsvLower) Kind() Kind        { return KindLower }
func (CsvRegexReplace) Kind() Kind { return KindRegexReplace }
func (CsvLeftPad) Kind() Kind      { return KindLeftPad }
func (CsvRightPad) Kind() Kind     { return KindRightPad }
func (CsvFullChar) Kind() Kind     { return KindFullChar }
func (CsvHalfChar) Kind() Kind     { return KindHalfChar }

// ============================================================================
// 约束注解
// ============================================================================

// CsvRequire 必须有值
type CsvRequire struct {
	Meta
	ConsiderBlank bool
}

// CsvEquals 等于候选值之一，候选值按字段格式解析
type CsvEquals struct {
	Meta
	Values []string `validate:"min=1"`
}

// CsvPattern 匹配正则
type CsvPattern struct {
	Meta
	Regex       string `validate:"required"`
	Description string
}

// CsvLengthMin 最少字符数
type CsvLengthMin struct {
	Meta
	Value int `validate:"gte=0"`
}

// CsvLengthMax 最多字符数
type CsvLengthMax struct {
	Meta
	Value int `validate:"gte=1"`
}

// CsvLengthBetween 字符数区间
type CsvLengthBetween struct {
	Meta
	Min int `validate:"gte=0"`
	Max int `validate:"gtefield=Min"`
}

// CsvLengthExact 精确字符数
type CsvLengthExact struct {
	Meta
	Value int `validate:"gte=0"`
}

// CsvNumberRange 数值范围，Min、Max 按字段格式解析
// 只指定 Min 或 Max 时分别校验下限或上限
type CsvNumberRange struct {
	Meta
	Min       string
	Max       string
	Exclusive bool // 默认包含边界
}

// CsvDateTimeRange 日期时间范围，规则同 CsvNumberRange
type CsvDateTimeRange struct {
	Meta
	Min       string
	Max       string
	Exclusive bool
}

func (CsvRequire) Kind() Kind       { return KindRequire }
func (CsvEquals) Kind() Kind        { return KindEquals }
func (CsvPattern) Kind() Kind       { return KindPattern }
func (CsvLengthMin) Kind() Kind     { return KindLengthMin }
func (CsvLengthMax) Kind() Kind     { return KindLengthMax }
func (CsvLengthBetween) Kind() Kind { return KindLengthBetween }
func (CsvLengthExact) Kind() Kind   { return KindLengthExact }
func (CsvNumberRange) Kind() Kind   { return KindNumberRange }
func (CsvDateTimeRange) Kind() Kind { return KindDateTimeRange }
