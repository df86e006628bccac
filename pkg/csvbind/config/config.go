// Package config 处理链构建配置
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
)

// ============================================================================
// 配置定义
// ============================================================================

var (
	// ErrInvalidConfig 配置校验失败
	ErrInvalidConfig = errors.New("invalid csvbind configuration")
)

// 默认值
const (
	DefaultBundleName  = "messages"
	DefaultLogLevel    = "info"
	DefaultLogEncoding = "console"
	DefaultMaxErrors   = 100
)

// Configuration 构建与运行配置
type Configuration struct {
	// DefaultLocale 默认区域，例如 "ja-JP"
	// 影响数值分隔符、大小写转换以及消息资源包的选择，为空时使用根资源包
	DefaultLocale string `mapstructure:"default_locale"`

	// DefaultTimeZone 默认时区，例如 "Asia/Tokyo"
	// 为空时使用 time.Local
	DefaultTimeZone string `mapstructure:"default_time_zone" validate:"omitempty,timezone"`

	// SkipValidationOnWrite 写入时跳过约束校验
	SkipValidationOnWrite bool `mapstructure:"skip_validation_on_write"`

	// MaxErrors 单行最多收集的错误数，0 表示使用默认值
	MaxErrors int `mapstructure:"max_errors" validate:"gte=0"`

	// Messages 用户消息资源包
	Messages MessagesConfig `mapstructure:"messages"`

	// Log 日志
	Log LogConfig `mapstructure:"log"`
}

// MessagesConfig 消息资源包配置
type MessagesConfig struct {
	// Dir 资源包目录，为空时只使用内置资源包
	Dir string `mapstructure:"dir"`

	// Name 资源包基础名，文件名为 <Name>[_<locale>].properties
	Name string `mapstructure:"name" validate:"omitempty,excludesall=/\\"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Encoding string `mapstructure:"encoding" validate:"omitempty,oneof=json console"`

	// File 日志文件路径，为空时输出到 stderr
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// validate 配置校验器，validator.Validate 可并发使用
var validate = validator.New()

// Default 默认配置
func Default() *Configuration {
	c := &Configuration{}
	c.SetDefaults()
	return c
}

// SetDefaults 设置默认值
func (c *Configuration) SetDefaults() {
	if c.MaxErrors == 0 {
		c.MaxErrors = DefaultMaxErrors
	}
	if c.Messages.Name == "" {
		c.Messages.Name = DefaultBundleName
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = DefaultLogEncoding
	}
}

// Validate 验证配置的有效性
func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.DefaultLocale != "" {
		if _, err := language.Parse(c.DefaultLocale); err != nil {
			return fmt.Errorf("%w: default locale '%s': %v", ErrInvalidConfig, c.DefaultLocale, err)
		}
	}
	if c.DefaultTimeZone != "" {
		if _, err := time.LoadLocation(c.DefaultTimeZone); err != nil {
			return fmt.Errorf("%w: default time zone '%s': %v", ErrInvalidConfig, c.DefaultTimeZone, err)
		}
	}
	return nil
}

// Clone 克隆配置对象
func (c *Configuration) Clone() *Configuration {
	clone := *c
	return &clone
}

// Locale 解析后的默认区域，未设置或无法解析时为 language.Und
func (c *Configuration) Locale() language.Tag {
	if c == nil || c.DefaultLocale == "" {
		return language.Und
	}
	tag, err := language.Parse(c.DefaultLocale)
	if err != nil {
		return language.Und
	}
	return tag
}

// Location 解析后的默认时区，未设置或无法解析时为 time.Local
func (c *Configuration) Location() *time.Location {
	if c == nil || c.DefaultTimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.DefaultTimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
