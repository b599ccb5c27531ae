// Package logger holds the process-wide zap logger of the adapter service.
package logger

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "payu-adapter"

var global atomic.Pointer[zap.Logger]

// Init replaces the global logger with one configured for env. Anything
// other than "production" gets the coloured console encoder.
func Init(env string) {
	l, err := newConfig(env).Build(zap.AddCaller())
	if err != nil {
		panic(err)
	}
	global.Store(l.With(zap.String("service", serviceName)))
}

func newConfig(env string) zap.Config {
	if env != "production" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}
	// every gateway call and notification is kept
	cfg.Sampling = nil
	return cfg
}

// L returns the global logger, building it from APP_ENV on first use.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	Init(os.Getenv("APP_ENV"))
	return global.Load()
}

// Replace installs l as the global logger and returns a func that puts the
// previous one back.
func Replace(l *zap.Logger) (restore func()) {
	prev := global.Swap(l)
	return func() { global.Store(prev) }
}

func Sync() {
	if l := global.Load(); l != nil {
		_ = l.Sync()
	}
}
