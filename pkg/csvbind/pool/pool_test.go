package pool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringBuilder(t *testing.T) {
	t.Run("获取的构建器为空", func(t *testing.T) {
		sb := AcquireStringBuilder()
		sb.WriteString("abc")
		ReleaseStringBuilder(sb)

		sb = AcquireStringBuilder()
		assert.Equal(t, 0, sb.Len())
		ReleaseStringBuilder(sb)
	})

	t.Run("nil与超大构建器", func(t *testing.T) {
		assert.NotPanics(t, func() { ReleaseStringBuilder(nil) })

		sb := AcquireStringBuilder()
		sb.Grow(maxBuilderCap * 2)
		assert.NotPanics(t, func() { ReleaseStringBuilder(sb) })
	})

	t.Run("BuildString", func(t *testing.T) {
		got := BuildString(func(sb *strings.Builder) {
			sb.WriteString("行")
			sb.WriteByte('1')
		})
		assert.Equal(t, "行1", got)
	})
}

func BenchmarkBuildString(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = BuildString(func(sb *strings.Builder) {
			sb.WriteString("[2行, 12列]")
		})
	}
}
