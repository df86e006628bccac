// Package pool 对象池
package pool

import (
	"strings"
	"sync"
)

// maxBuilderCap 超过该容量的构建器不再归还
const maxBuilderCap = 10 * 1024

var builderPool = sync.Pool{
	New: func() any {
		return &strings.Builder{}
	},
}

// AcquireStringBuilder 从对象池获取字符串构建器
func AcquireStringBuilder() *strings.Builder {
	sb := builderPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

// ReleaseStringBuilder 归还字符串构建器
func ReleaseStringBuilder(sb *strings.Builder) {
	if sb == nil || sb.Cap() > maxBuilderCap {
		return
	}
	sb.Reset()
	builderPool.Put(sb)
}

// BuildString 使用池中的构建器生成字符串
func BuildString(fn func(sb *strings.Builder)) string {
	sb := AcquireStringBuilder()
	defer ReleaseStringBuilder(sb)
	fn(sb)
	return sb.String()
}
