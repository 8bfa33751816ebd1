package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger 创建一个新的日志记录器
func NewLogger(debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	logger, err := build(level)
	if err != nil {
		panic("初始化日志系统失败: " + err.Error())
	}
	return logger
}

// NewLoggerWithLevel 按文本级别（debug/info/warn/error）创建日志记录器
func NewLoggerWithLevel(level string) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = "info"
	}

	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return build(l)
}

func build(level zapcore.Level) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.DisableStacktrace = true

	return config.Build()
}
