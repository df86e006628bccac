package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"katydid-common-csv/pkg/csvbind/core"
)

func kinds(annos []Annotation) []Kind {
	result := make([]Kind, len(annos))
	for i, a := range annos {
		result[i] = a.Kind()
	}
	return result
}

func TestSort(t *testing.T) {
	t.Run("按顺序号排序", func(t *testing.T) {
		annos := []Annotation{
			CsvTruncate{Meta: Meta{Order: 2}, MaxSize: 3},
			CsvTrim{Meta: Meta{Order: 1}},
		}
		Sort(annos)
		assert.Equal(t, []Kind{KindTrim, KindTruncate}, kinds(annos))
	})

	t.Run("顺序号相同时按名称排序", func(t *testing.T) {
		first := []Annotation{CsvUpper{}, CsvTrim{}, CsvLengthMax{Value: 3}}
		second := []Annotation{CsvLengthMax{Value: 3}, CsvUpper{}, CsvTrim{}}
		Sort(first)
		Sort(second)

		want := []Kind{KindLengthMax, KindTrim, KindUpper}
		assert.Equal(t, want, kinds(first))
		assert.Equal(t, want, kinds(second))
	})
}

func TestSelect(t *testing.T) {
	const groupInsert core.Group = 1 << 1

	annos := []Annotation{
		CsvTrim{},
		CsvUpper{Meta: Meta{Cases: []core.BuildCase{core.CaseWrite}}},
		CsvRequire{Meta: Meta{Groups: groupInsert}},
		CsvLengthMax{Meta: Meta{Groups: groupInsert | core.GroupDefault}, Value: 3},
	}

	t.Run("默认分组读取", func(t *testing.T) {
		got := Select(annos, core.CaseRead, core.GroupNone)
		assert.Equal(t, []Kind{KindLengthMax, KindTrim}, kinds(got))
	})

	t.Run("自定义分组写入", func(t *testing.T) {
		got := Select(annos, core.CaseWrite, groupInsert)
		assert.Equal(t, []Kind{KindLengthMax, KindRequire}, kinds(got))
	})
}

func TestFieldDescriptor(t *testing.T) {
	field := &FieldDescriptor{
		Name: "price",
		Annotations: []Annotation{
			CsvNumberFormat{Meta: Meta{Cases: []core.BuildCase{core.CaseWrite}}, Pattern: "#,###"},
			CsvNumberFormat{Pattern: "0"},
		},
	}

	assert.Equal(t, "price", field.DisplayLabel())

	got, ok := field.Find(KindNumberFormat, core.CaseRead, core.GroupNone)
	assert.True(t, ok)
	assert.Equal(t, "0", got.(CsvNumberFormat).Pattern)

	_, ok = field.Find(KindTrim, core.CaseRead, core.GroupNone)
	assert.False(t, ok)
}
