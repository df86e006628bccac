package dbmessage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"katydid-common-csv/pkg/csvbind/message"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存数据库每个连接独立
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := New(db)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	r := newResolver(t)

	require.NoError(t, r.Save(ctx, "annotation.CsvRequire.message", language.Und, "{label}は必須"))
	require.NoError(t, r.Save(ctx, "annotation.CsvRequire.message", language.English, "{label} is required"))

	t.Run("区域回退", func(t *testing.T) {
		msg, err := r.Resolve("annotation.CsvRequire.message", language.MustParse("en-US"))
		require.NoError(t, err)
		assert.Equal(t, "{label} is required", msg)

		msg, err = r.Resolve("annotation.CsvRequire.message", language.Japanese)
		require.NoError(t, err)
		assert.Equal(t, "{label}は必須", msg)
	})

	t.Run("覆盖已有消息", func(t *testing.T) {
		require.NoError(t, r.Save(ctx, "annotation.CsvRequire.message", language.Und, "{label}を入力してください"))
		msg, err := r.Resolve("annotation.CsvRequire.message", language.Und)
		require.NoError(t, err)
		assert.Equal(t, "{label}を入力してください", msg)
	})

	t.Run("不存在", func(t *testing.T) {
		_, err := r.Resolve("unknown", language.Und)
		assert.ErrorIs(t, err, message.ErrMessageNotFound)
	})

	t.Run("删除", func(t *testing.T) {
		require.NoError(t, r.Delete(ctx, "annotation.CsvRequire.message", language.English))
		msg, err := r.Resolve("annotation.CsvRequire.message", language.English)
		require.NoError(t, err)
		assert.Equal(t, "{label}を入力してください", msg)
	})

	t.Run("消息键为空", func(t *testing.T) {
		assert.Error(t, r.Save(ctx, "", language.Und, "x"))
	})
}

func TestResolver_Chain(t *testing.T) {
	r := newResolver(t)
	require.NoError(t, r.Save(context.Background(), "csvContext", language.Und, "(row {rowNumber})"))

	chain := message.NewChainResolver(r, nil, message.NewBundleResolver())

	msg, err := chain.Resolve("csvContext", language.Und)
	require.NoError(t, err)
	assert.Equal(t, "(row {rowNumber})", msg)

	msg, err = chain.Resolve("processor.ParseProcessor.violated", language.Und)
	require.NoError(t, err)
	assert.Contains(t, msg, "{csvContext}")

	assert.Equal(t, "(row 2) : x",
		message.Interpolate("{csvContext} : x", map[string]any{"rowNumber": 2}, chain, language.Und))

	_, err = chain.Resolve("unknown", language.Und)
	assert.ErrorIs(t, err, message.ErrMessageNotFound)
}
