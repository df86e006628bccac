// Package dbmessage 基于数据库的消息解析器
// 消息按 (消息键, 区域后缀) 存储，区域后缀与资源包文件名一致，空字符串为根区域
package dbmessage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"katydid-common-csv/pkg/csvbind/message"
)

// Message 消息记录
type Message struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"column:message_key;size:255;not null;uniqueIndex:idx_csvbind_message_key_locale"`
	Locale    string `gorm:"column:locale;size:32;not null;default:'';uniqueIndex:idx_csvbind_message_key_locale"`
	Text      string `gorm:"column:text;type:text;not null"`
	UpdatedAt time.Time
}

// TableName 表名
func (Message) TableName() string {
	return "csvbind_messages"
}

// Resolver 数据库消息解析器，可并发使用
type Resolver struct {
	db *gorm.DB
}

var _ message.Resolver = (*Resolver)(nil)

// New 创建解析器
func New(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Migrate 创建或更新消息表
func (r *Resolver) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Message{})
}

// Save 保存消息，已存在时覆盖
func (r *Resolver) Save(ctx context.Context, key string, locale language.Tag, text string) error {
	if key == "" {
		return errors.New("message key is empty")
	}
	m := &Message{Key: key, Locale: message.LocaleSuffixes(locale)[0], Text: text}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_key"}, {Name: "locale"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(m).Error
}

// Delete 删除消息
func (r *Resolver) Delete(ctx context.Context, key string, locale language.Tag) error {
	return r.db.WithContext(ctx).
		Where("message_key = ? AND locale = ?", key, message.LocaleSuffixes(locale)[0]).
		Delete(&Message{}).Error
}

// Resolve 按区域回退顺序查找消息
func (r *Resolver) Resolve(key string, locale language.Tag) (string, error) {
	return r.ResolveContext(context.Background(), key, locale)
}

// ResolveContext 同 Resolve，可以取消
func (r *Resolver) ResolveContext(ctx context.Context, key string, locale language.Tag) (string, error) {
	suffixes := message.LocaleSuffixes(locale)

	var rows []Message
	err := r.db.WithContext(ctx).
		Where("message_key = ? AND locale IN ?", key, suffixes).
		Find(&rows).Error
	if err != nil {
		return "", fmt.Errorf("query message %s: %w", key, err)
	}

	for _, suffix := range suffixes {
		for _, row := range rows {
			if row.Locale == suffix {
				return row.Text, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", message.ErrMessageNotFound, key)
}
