package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper() Processor {
	return NewProcessorFunc("Upper", func(value any, ctx *CellContext) (any, error) {
		if s, ok := value.(string); ok {
			return strings.ToUpper(s), nil
		}
		return value, nil
	})
}

func rejectAll(key string) Processor {
	return NewProcessorFunc("Reject", func(value any, ctx *CellContext) (any, error) {
		return nil, NewViolation("Reject", key, value).WithVariable("max", 3)
	})
}

func TestGroup_Match(t *testing.T) {
	const groupInsert Group = 1 << 1
	const groupUpdate Group = 1 << 2

	tests := []struct {
		name       string
		annotation Group
		active     Group
		want       bool
	}{
		{"未指定分组匹配默认分组", GroupNone, GroupNone, true},
		{"默认分组匹配默认分组", GroupDefault, GroupNone, true},
		{"自定义分组不匹配默认分组", groupInsert, GroupNone, false},
		{"分组有交集", groupInsert.Add(groupUpdate), groupUpdate, true},
		{"分组无交集", groupInsert, groupUpdate, false},
		{"未指定分组不匹配自定义分组", GroupNone, groupInsert, false},
		{"所有分组", GroupAll, groupInsert, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.annotation.Match(tt.active))
		})
	}
}

func TestMatchCases(t *testing.T) {
	t.Run("空列表适用读写", func(t *testing.T) {
		assert.True(t, MatchCases(nil, CaseRead))
		assert.True(t, MatchCases(nil, CaseWrite))
	})

	t.Run("仅读取", func(t *testing.T) {
		assert.True(t, MatchCases([]BuildCase{CaseRead}, CaseRead))
		assert.False(t, MatchCases([]BuildCase{CaseRead}, CaseWrite))
	})
}

func TestIsEmpty(t *testing.T) {
	var nilPtr *int
	zero := 0

	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty(nilPtr))
	assert.False(t, IsEmpty(" "))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty(&zero))
}

func TestChain_Execute(t *testing.T) {
	t.Run("按顺序执行", func(t *testing.T) {
		chain := NewChain(upper(), NewProcessorFunc("Suffix", func(value any, ctx *CellContext) (any, error) {
			return value.(string) + "!", nil
		}))

		got, err := chain.Execute("abc", nil)
		require.NoError(t, err)
		assert.Equal(t, "ABC!", got)
		assert.Equal(t, []string{"Upper", "Suffix"}, chain.Names())
		assert.Equal(t, "Upper > Suffix", chain.String())
	})

	t.Run("Halt终止处理链", func(t *testing.T) {
		chain := NewChain(
			NewProcessorFunc("Stop", func(value any, ctx *CellContext) (any, error) {
				return Halt("stopped"), nil
			}),
			rejectAll("never"),
		)

		got, err := chain.Execute("abc", nil)
		require.NoError(t, err)
		assert.Equal(t, "stopped", got)
	})

	t.Run("校验失败补全坐标", func(t *testing.T) {
		chain := NewChain(upper(), rejectAll("test.violated"))
		ctx := NewCellContext(1, 2, 12).WithField("col_message_variables", "")

		_, err := chain.Execute("abc", ctx)
		require.Error(t, err)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "test.violated", ve.MessageKey)
		assert.Equal(t, "ABC", ve.RejectedValue)
		assert.Equal(t, 2, ve.RowNumber)
		assert.Equal(t, 12, ve.ColumnNumber)
		assert.Equal(t, "col_message_variables", ve.Label)

		for _, name := range []string{VarLineNumber, VarRowNumber, VarColumnNumber, VarLabel, VarValidatedValue, VarRejectedValue, "max"} {
			_, ok := ve.Variable(name)
			assert.True(t, ok, name)
		}
		rejected, _ := ve.Variable(VarRejectedValue)
		assert.Equal(t, "ABC", rejected)
	})

	t.Run("其他错误原样返回", func(t *testing.T) {
		ioErr := errors.New("boom")
		chain := NewChain(NewProcessorFunc("Fail", func(value any, ctx *CellContext) (any, error) {
			return nil, fmt.Errorf("wrapped: %w", ioErr)
		}))

		_, err := chain.Execute("abc", nil)
		assert.ErrorIs(t, err, ioErr)

		var ve *ValidationError
		assert.False(t, errors.As(err, &ve))
	})

	t.Run("空处理链返回原值", func(t *testing.T) {
		chain := NewChain()
		got, err := chain.Execute("abc", nil)
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
		assert.Equal(t, 0, chain.Len())
	})
}

func TestValidationErrors(t *testing.T) {
	first := NewValidationError(NewViolation("A", "a.key", "x"), NewCellContext(2, 2, 1))
	second := NewValidationError(NewViolation("B", "b.key", "y"), NewCellContext(2, 2, 3))

	batch := NewValidationErrors(first, second)
	assert.Equal(t, 2, batch.Count())
	assert.Same(t, first, batch.First())
	assert.Contains(t, batch.Error(), "validation failed with 2 errors")

	t.Run("从包装错误中提取", func(t *testing.T) {
		wrapped := fmt.Errorf("row failed: %w", batch)
		got := CollectValidationErrors(wrapped)
		require.Len(t, got, 2)
		assert.Same(t, first, got[0])
		assert.Same(t, second, got[1])
	})

	t.Run("单个错误", func(t *testing.T) {
		got := CollectValidationErrors(first)
		require.Len(t, got, 1)
		assert.Same(t, first, got[0])
	})

	t.Run("非校验错误", func(t *testing.T) {
		assert.Empty(t, CollectValidationErrors(errors.New("other")))
		assert.Empty(t, CollectValidationErrors(nil))
	})
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("price", "CsvNumberRange", fmt.Errorf("%w: min 'abc'", ErrInvalidBound))

	assert.ErrorIs(t, err, ErrInvalidBound)
	assert.Contains(t, err.Error(), "price")
	assert.Contains(t, err.Error(), "CsvNumberRange")
}

func BenchmarkChain_Execute(b *testing.B) {
	chain := NewChain(upper(), upper(), upper())
	ctx := NewCellContext(1, 1, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = chain.Execute("abc", ctx)
	}
}
