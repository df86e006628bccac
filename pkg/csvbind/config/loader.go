package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvPrefix 环境变量前缀，例如 CSVBIND_DEFAULT_LOCALE、CSVBIND_LOG_LEVEL
const EnvPrefix = "CSVBIND"

// Load 从文件加载配置，path 为空时只读取环境变量与默认值
// 支持 viper 能识别的所有格式（yaml、toml、json、properties 等）
func Load(path string) (*Configuration, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 设置默认值后 AutomaticEnv 才能覆盖 Unmarshal 的结果
	defaults := Default()
	v.SetDefault("default_locale", defaults.DefaultLocale)
	v.SetDefault("default_time_zone", defaults.DefaultTimeZone)
	v.SetDefault("skip_validation_on_write", defaults.SkipValidationOnWrite)
	v.SetDefault("max_errors", defaults.MaxErrors)
	v.SetDefault("messages.dir", defaults.Messages.Dir)
	v.SetDefault("messages.name", defaults.Messages.Name)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.encoding", defaults.Log.Encoding)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age_days", defaults.Log.MaxAgeDays)
	v.SetDefault("log.compress", defaults.Log.Compress)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger 按日志配置创建 zap 日志器
// 配置了 File 时写入按大小滚动的日志文件
func NewLogger(c LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		if err := level.UnmarshalText([]byte(c.Level)); err != nil {
			return nil, fmt.Errorf("%w: log level '%s'", ErrInvalidConfig, c.Level)
		}
	}

	zc := zap.NewProductionConfig()
	if c.Encoding == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if c.Encoding != "" {
		zc.Encoding = c.Encoding
	}
	if c.File == "" {
		return zc.Build()
	}

	var encoder zapcore.Encoder
	if zc.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(zc.EncoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(zc.EncoderConfig)
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
		Compress:   c.Compress,
	})
	return zap.New(zapcore.NewCore(encoder, sink, zc.Level), zap.AddCaller()), nil
}
