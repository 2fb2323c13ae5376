// Package logger 构建 zap 日志器
package logger

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 日志配置
type Config struct {
	Level      string // debug/info/warn/error，参见 zapcore.ParseLevel
	File       string // 为空时输出到 stderr
	Production bool   // JSON 输出
}

// NewLogger 根据配置创建日志器
func NewLogger(c Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		l, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "parse log level %q", c.Level)
		}
		level = l
	}

	var (
		encoderConfig zapcore.EncoderConfig
		encoder       zapcore.Encoder
	)
	if c.Production {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writer := zapcore.Lock(os.Stderr)
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
			return nil, errors.Wrap(err, "create log dir")
		}
		f, err := os.OpenFile(c.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file")
		}
		writer = zapcore.Lock(f)
	}

	core := zapcore.NewCore(encoder, writer, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
