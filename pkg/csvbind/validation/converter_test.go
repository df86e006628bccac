package validation

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/magiconair/properties"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/language"

	"katydid-common-csv/pkg/csvbind/annotation"
	"katydid-common-csv/pkg/csvbind/builder"
	"katydid-common-csv/pkg/csvbind/core"
	"katydid-common-csv/pkg/csvbind/message"
)

const testPattern = "#,###"

var byteType = reflect.TypeOf(int8(0))

func newMapping(t *testing.T) *builder.BeanMapping {
	t.Helper()
	m, err := builder.NewBeanMappingFactory().Create("TestCsv", []builder.FieldDescriptor{
		{Name: "col_default", Number: 1, Type: byteType},
		{Name: "col_format", Number: 2, Type: byteType,
			Annotations: []annotation.Annotation{annotation.CsvNumberFormat{Pattern: testPattern}}},
		{Name: "col_message", Number: 10, Type: byteType,
			Annotations: []annotation.Annotation{annotation.CsvNumberFormat{Meta: annotation.Meta{Message: "テストメッセージ"}}}},
		{Name: "col_message_empty", Number: 11, Type: byteType,
			Annotations: []annotation.Annotation{annotation.CsvNumberFormat{}}},
		{Name: "col_message_variables", Number: 12, Type: byteType,
			Annotations: []annotation.Annotation{annotation.CsvNumberFormat{
				Pattern: testPattern,
				Meta: annotation.Meta{Message: "lineNumber={lineNumber}, rowNumber={rowNumber}, columnNumber={columnNumber}, " +
					"label={label}, validatedValue={validatedValue}, pattern={pattern}"},
			}}},
	})
	require.NoError(t, err)
	return m
}

// readError 以第 1 行、第 2 条记录读取单元格并返回校验错误
func readError(t *testing.T, m *builder.BeanMapping, name, input string) error {
	t.Helper()
	column, ok := m.Column(name)
	require.True(t, ok)

	ctx := core.NewCellContext(1, 2, column.Number).WithField(column.Field.Name, column.Label)
	_, err := column.ReadChain.Execute(input, ctx)
	require.Error(t, err)
	return err
}

func TestExceptionConverter_ConvertAndFormat(t *testing.T) {
	m := newMapping(t)
	c := NewExceptionConverter()

	tests := []struct {
		name   string
		column string
		want   string
	}{
		{"默认格式", "col_default", "[2行, 1列] : 項目「col_default」の値（abc）の書式は不正です。"},
		{"指定模式", "col_format", "[2行, 2列] : 項目「col_format」の値（abc）は、数値の書式「#,###」として不正です。"},
		{"自定义消息", "col_message", "テストメッセージ"},
		{"消息为空时使用默认消息", "col_message_empty", "[2行, 11列] : 項目「col_message_empty」の値（abc）の書式は不正です。"},
		{"消息变量", "col_message_variables",
			"lineNumber=1, rowNumber=2, columnNumber=12, label=col_message_variables, validatedValue=abc, pattern=#,###"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := c.ConvertAndFormat(readError(t, m, tt.column, "abc"), m)
			assert.Equal(t, []string{tt.want}, messages)
		})
	}

	t.Run("rejectedValue 变量", func(t *testing.T) {
		p := properties.NewProperties()
		_, _, err := p.Set("processor.ParseProcessor.violated",
			"[{rowNumber}行, {columnNumber}列] : 項目「{label}」の値（{rejectedValue}）の書式は不正です。")
		require.NoError(t, err)
		c := NewExceptionConverter(WithResolver(message.NewBundleResolver(message.WithProperties(p))))

		messages := c.ConvertAndFormat(readError(t, m, "col_default", "abc"), m)
		assert.Equal(t, []string{"[2行, 1列] : 項目「col_default」の値（abc）の書式は不正です。"}, messages)
	})

	t.Run("整行错误按列号顺序", func(t *testing.T) {
		record := make([]string, m.Width())
		for i := range record {
			record[i] = "abc"
		}
		_, err := m.ReadRow(record, 1, 2)
		require.Error(t, err)

		messages := c.ConvertAndFormat(fmt.Errorf("read: %w", err), m)
		require.Len(t, messages, 5)
		assert.Equal(t, tests[0].want, messages[0])
		assert.Equal(t, tests[4].want, messages[4])
	})

	t.Run("非校验错误", func(t *testing.T) {
		assert.Empty(t, c.ConvertAndFormat(errors.New("io"), m))
		assert.Empty(t, c.ConvertAndFormat(nil, m))
	})
}

func TestExceptionConverter_TypeMismatch(t *testing.T) {
	m := newMapping(t)

	p := properties.NewProperties()
	_, _, err := p.Set("typeMismatch.int8", "{csvContext} : 項目「{label}」の値（{validatedValue}）は、整数の書式として不正です。")
	require.NoError(t, err)
	_, _, err = p.Set("typeMismatch.TestCsv.col_message_empty", "{label}は数値で入力してください。")
	require.NoError(t, err)

	c := NewExceptionConverter(WithResolver(message.NewBundleResolver(message.WithProperties(p))))

	t.Run("按类型", func(t *testing.T) {
		messages := c.ConvertAndFormat(readError(t, m, "col_default", "abc"), m)
		assert.Equal(t, []string{"[2行, 1列] : 項目「col_default」の値（abc）は、整数の書式として不正です。"}, messages)
	})

	t.Run("按记录类型与字段优先", func(t *testing.T) {
		messages := c.ConvertAndFormat(readError(t, m, "col_message_empty", "abc"), m)
		assert.Equal(t, []string{"col_message_emptyは数値で入力してください。"}, messages)
	})

	t.Run("指定模式时不使用", func(t *testing.T) {
		messages := c.ConvertAndFormat(readError(t, m, "col_format", "abc"), m)
		assert.Equal(t, []string{"[2行, 2列] : 項目「col_format」の値（abc）は、数値の書式「#,###」として不正です。"}, messages)
	})

	t.Run("自定义消息优先", func(t *testing.T) {
		messages := c.ConvertAndFormat(readError(t, m, "col_message", "abc"), m)
		assert.Equal(t, []string{"テストメッセージ"}, messages)
	})
}

func TestExceptionConverter_Locale(t *testing.T) {
	m := newMapping(t)
	c := NewExceptionConverter(WithLocale(language.English))

	messages := c.ConvertAndFormat(readError(t, m, "col_format", "abc"), m)
	assert.Equal(t, []string{"[row 2, column 2] : 'col_format' value (abc) does not match the number format '#,###'."}, messages)
}

func TestExceptionConverter_UnknownKey(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	c := NewExceptionConverter(WithLogger(zap.New(obs)))

	v := core.NewViolation("Custom", "custom.unknown.message", "x")
	e := core.NewValidationError(v, core.NewCellContext(1, 2, 3).WithField("col", ""))

	assert.Equal(t, "custom.unknown.message", c.ConvertMessage(e, nil))
	assert.Equal(t, 1, logs.FilterMessage("message key not found").Len())
	assert.Equal(t, "", c.ConvertMessage(nil, nil))
}

func TestExceptionConverter_SetMessageResolver(t *testing.T) {
	c := NewExceptionConverter()
	prev := c.MessageResolver()

	c.SetMessageResolver(nil)
	assert.Same(t, prev, c.MessageResolver())

	p := properties.NewProperties()
	_, _, err := p.Set("annotation.CsvRequire.message", "{label}は必須")
	require.NoError(t, err)
	c.SetMessageResolver(message.NewBundleResolver(message.WithProperties(p)))

	v := core.NewViolation("Require", "annotation.CsvRequire.message", nil)
	e := core.NewValidationError(v, core.NewCellContext(1, 2, 1).WithField("名前", ""))
	assert.Equal(t, "名前は必須", c.ConvertMessage(e, nil))
}
