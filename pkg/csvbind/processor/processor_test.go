package processor

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/format"
	"katydid-common-csv/pkg/csvbind/temporal"
)

var anonymous = &core.CellContext{}

func mustNumber(t *testing.T, typ reflect.Type, pattern string) format.TextFormatter {
	t.Helper()
	f, err := format.NewNumberFormatter(typ, format.Options{Pattern: pattern})
	require.NoError(t, err)
	return f
}

func violationOf(t *testing.T, err error) *core.Violation {
	t.Helper()
	var v *core.Violation
	require.True(t, errors.As(err, &v), "expected violation, got %v", err)
	return v
}

func TestParse(t *testing.T) {
	p := NewParse(mustNumber(t, reflect.TypeOf(int8(0)), ""))

	t.Run("空值通过", func(t *testing.T) {
		for _, input := range []any{nil, ""} {
			got, err := p.Execute(input, anonymous)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
	})

	t.Run("解析成功", func(t *testing.T) {
		got, err := p.Execute("12", anonymous)
		require.NoError(t, err)
		assert.Equal(t, int8(12), got)
	})

	t.Run("默认消息键与空变量", func(t *testing.T) {
		_, err := p.Execute("abc", anonymous)
		v := violationOf(t, err)
		assert.True(t, v.Parse)
		assert.Equal(t, "abc", v.RejectedValue)
		assert.Equal(t, KeyParseViolated, v.MessageKey)
		assert.Empty(t, v.Variables)
	})

	t.Run("格式注解消息键与模式变量", func(t *testing.T) {
		f, err := format.NewNumberFormatter(reflect.TypeOf(int8(0)), format.Options{Pattern: "#,###", MessageKey: KeyNumberFormat})
		require.NoError(t, err)

		_, err = NewParse(f).Execute("abc", anonymous)
		v := violationOf(t, err)
		assert.Equal(t, KeyNumberFormat, v.MessageKey)
		assert.Equal(t, "#,###", v.Variables["pattern"])
	})

	t.Run("自定义消息", func(t *testing.T) {
		custom := NewParse(mustNumber(t, reflect.TypeOf(int8(0)), ""))
		custom.WithMessage("テストメッセージ")

		_, err := custom.Execute("abc", anonymous)
		assert.Equal(t, "テストメッセージ", violationOf(t, err).Template)
	})
}

func TestFormatAndZeroFill(t *testing.T) {
	f := NewFormat(mustNumber(t, reflect.TypeOf(0), "#,###"))

	got, err := f.Execute(1234, anonymous)
	require.NoError(t, err)
	assert.Equal(t, "1,234", got)

	got, err = f.Execute(nil, anonymous)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = f.Execute("abc", anonymous)
	assert.ErrorIs(t, err, format.ErrUnsupportedValue)

	t.Run("基本类型填充零值", func(t *testing.T) {
		got, err := NewZeroFill(reflect.TypeOf(int8(0))).Execute(nil, anonymous)
		require.NoError(t, err)
		assert.Equal(t, int8(0), got)
	})

	t.Run("指针类型保持nil", func(t *testing.T) {
		got, err := NewZeroFill(reflect.TypeOf((*int8)(nil))).Execute(nil, anonymous)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestConversions(t *testing.T) {
	truncate, err := NewTruncate(5, "...")
	require.NoError(t, err)
	leftPad, err := NewLeftPad(5, '0')
	require.NoError(t, err)
	rightPad, err := NewRightPad(4, 0)
	require.NoError(t, err)
	replace, err := NewRegexReplace(`-+`, "-")
	require.NoError(t, err)
	nullConvert, err := NewNullConvert([]string{"N/A", "null"}, true)
	require.NoError(t, err)

	tests := []struct {
		name      string
		processor core.Processor
		input     any
		want      any
	}{
		{"去除空白", NewTrim(), "  abc　", "abc"},
		{"截断超长", truncate, "あいうえおか", "あいうえお..."},
		{"截断边界", truncate, "abcde", "abcde"},
		{"左侧补零", leftPad, "12", "00012"},
		{"右侧补空格", rightPad, "ab", "ab  "},
		{"正则替换", replace, "a--b---c", "a-b-c"},
		{"大写", NewUpper(language.Und), "abc", "ABC"},
		{"小写", NewLower(language.Und), "ABC", "abc"},
		{"全角", NewFullChar(), "ABC123", "ＡＢＣ１２３"},
		{"半角", NewHalfChar(), "ＡＢＣ１２３", "ABC123"},
		{"空值转换忽略大小写", nullConvert, "NULL", nil},
		{"空值转换不匹配", nullConvert, "abc", "abc"},
		{"非字符串通过", NewTrim(), 12, 12},
		{"nil通过", truncate, nil, nil},
		{"默认值", NewDefaultValue("10"), "", "10"},
		{"默认值不覆盖", NewDefaultValue("10"), "5", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.processor.Execute(tt.input, anonymous)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("截断长度非法", func(t *testing.T) {
		_, err := NewTruncate(0, "")
		assert.ErrorIs(t, err, core.ErrInvalidAnnotation)
	})

	t.Run("正则非法", func(t *testing.T) {
		_, err := NewRegexReplace(`(`, "")
		assert.ErrorIs(t, err, core.ErrInvalidPattern)
	})
}

func TestTruncate_Bounds(t *testing.T) {
	for _, maxSize := range []int{1, 3, 10} {
		p, err := NewTruncate(maxSize, "")
		require.NoError(t, err)

		for _, input := range []string{"", "a", "abc", "あいうえおかきくけこさしすせそ"} {
			got, err := p.Execute(input, anonymous)
			require.NoError(t, err)
			assert.LessOrEqual(t, len([]rune(got.(string))), maxSize)
		}
	}
}

func TestRequire(t *testing.T) {
	t.Run("空值失败", func(t *testing.T) {
		for _, input := range []any{nil, ""} {
			_, err := NewRequire(false).Execute(input, anonymous)
			assert.Equal(t, KeyRequire, violationOf(t, err).MessageKey)
		}
	})

	t.Run("空白字符串", func(t *testing.T) {
		got, err := NewRequire(false).Execute("  ", anonymous)
		require.NoError(t, err)
		assert.Equal(t, "  ", got)

		_, err = NewRequire(true).Execute("  ", anonymous)
		violationOf(t, err)
	})

	t.Run("零值通过", func(t *testing.T) {
		_, err := NewRequire(false).Execute(0, anonymous)
		assert.NoError(t, err)
	})
}

func TestEqualsAndPattern(t *testing.T) {
	equals, err := NewEquals([]any{1, 2, 3}, mustNumber(t, reflect.TypeOf(0), ""))
	require.NoError(t, err)

	_, err = equals.Execute(2, anonymous)
	assert.NoError(t, err)

	_, err = equals.Execute(5, anonymous)
	v := violationOf(t, err)
	assert.Equal(t, "1, 2, 3", v.Variables["values"])

	pattern, err := NewPattern(`^[a-z]+$`, "英小文字")
	require.NoError(t, err)

	_, err = pattern.Execute("abc", anonymous)
	assert.NoError(t, err)

	_, err = pattern.Execute("ABC", anonymous)
	v = violationOf(t, err)
	assert.Equal(t, `^[a-z]+$`, v.Variables["regex"])
	assert.Equal(t, "英小文字", v.Variables["description"])

	_, err = NewPattern(`[`, "")
	assert.ErrorIs(t, err, core.ErrInvalidPattern)
}

func TestLength(t *testing.T) {
	between, err := NewLengthBetween(2, 4)
	require.NoError(t, err)
	exact, err := NewLengthExact(3)
	require.NoError(t, err)
	lengthMax, err := NewLengthMax(2)
	require.NoError(t, err)

	_, err = between.Execute("あいう", anonymous)
	assert.NoError(t, err)

	_, err = between.Execute("あいうえお", anonymous)
	v := violationOf(t, err)
	assert.Equal(t, 5, v.Variables["length"])
	assert.Equal(t, 2, v.Variables["min"])
	assert.Equal(t, 4, v.Variables["max"])

	_, err = exact.Execute("ab", anonymous)
	assert.Equal(t, 3, violationOf(t, err).Variables["requiredLength"])

	_, err = lengthMax.Execute("abc", anonymous)
	assert.Equal(t, KeyLengthMax, violationOf(t, err).MessageKey)

	_, err = NewLengthBetween(5, 1)
	assert.ErrorIs(t, err, core.ErrInvalidAnnotation)
}

func TestNumberRange(t *testing.T) {
	f := mustNumber(t, reflect.TypeOf(0), "#,###")

	t.Run("命名规则", func(t *testing.T) {
		both, err := NewNumberRange(1, 1000, true, f)
		require.NoError(t, err)
		assert.Equal(t, "NumberRange", both.Name())

		onlyMin, err := NewNumberRange(1, nil, true, f)
		require.NoError(t, err)
		assert.Equal(t, "NumberMin", onlyMin.Name())

		onlyMax, err := NewNumberRange(nil, 1000, true, f)
		require.NoError(t, err)
		assert.Equal(t, "NumberMax", onlyMax.Name())

		_, err = NewNumberRange(nil, nil, true, f)
		assert.ErrorIs(t, err, core.ErrInvalidBound)

		_, err = NewNumberRange(10, 1, true, f)
		assert.ErrorIs(t, err, core.ErrInvalidBound)
	})

	t.Run("包含边界", func(t *testing.T) {
		p, err := NewNumberRange(1, 1000, true, f)
		require.NoError(t, err)

		for _, input := range []any{1, 500, 1000, nil} {
			_, err := p.Execute(input, anonymous)
			assert.NoError(t, err)
		}

		_, err = p.Execute(1001, anonymous)
		v := violationOf(t, err)
		assert.Equal(t, KeyNumberRange, v.MessageKey)
		assert.Equal(t, "1", v.Variables["min"])
		assert.Equal(t, "1,000", v.Variables["max"])
		assert.Equal(t, "1,001", v.Variables[core.VarValidatedValue])
	})

	t.Run("不包含边界", func(t *testing.T) {
		p, err := NewNumberRange(1, 10, false, f)
		require.NoError(t, err)

		_, err = p.Execute(1, anonymous)
		violationOf(t, err)
		_, err = p.Execute(10, anonymous)
		violationOf(t, err)
		_, err = p.Execute(5, anonymous)
		assert.NoError(t, err)
	})
}

func TestDateTimeRange(t *testing.T) {
	f, err := format.NewDateTimeFormatter(reflect.TypeOf(temporal.Date{}), format.Options{Location: time.UTC})
	require.NoError(t, err)

	p, err := NewDateTimeRange(nil, temporal.DateOf(2016, 12, 31), true, f)
	require.NoError(t, err)
	assert.Equal(t, "DateTimeMax", p.Name())

	_, err = p.Execute(temporal.DateOf(2016, 12, 31), anonymous)
	assert.NoError(t, err)

	_, err = p.Execute(temporal.DateOf(2017, 1, 1), anonymous)
	v := violationOf(t, err)
	assert.Equal(t, KeyDateTimeMax, v.MessageKey)
	assert.Equal(t, "2016-12-31", v.Variables["max"])
}
