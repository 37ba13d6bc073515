package icm

import (
	"fmt"
	"os"

	"github.com/sjc5/kit/pkg/colorlog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is satisfied by *zap.SugaredLogger.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

func NopLogger() Logger {
	return zap.NewNop().Sugar()
}

// colorLogger writes through the kit console logger. It has no debug
// level of its own, so debug lines go out as info when enabled.
type colorLogger struct {
	log   colorlog.Logger
	debug bool
}

// NewColorLogger returns the default console logger for level, one of
// "none", "normal" or "debug".
func NewColorLogger(level string) (Logger, error) {
	switch level {
	case "none":
		return NopLogger(), nil
	case "", "normal":
		return &colorLogger{log: &colorlog.Log{}}, nil
	case "debug":
		return &colorLogger{log: &colorlog.Log{}, debug: true}, nil
	}
	return nil, fmt.Errorf("unknown log level %q", level)
}

func (l *colorLogger) Debugf(template string, args ...interface{}) {
	if l.debug {
		l.log.Infof(template, args...)
	}
}

func (l *colorLogger) Infof(template string, args ...interface{}) {
	l.log.Infof(template, args...)
}

func (l *colorLogger) Warnf(template string, args ...interface{}) {
	l.log.Warning(fmt.Sprintf(template, args...))
}

func (l *colorLogger) Errorf(template string, args ...interface{}) {
	l.log.Errorf(template, args...)
}

// NewLogger returns a zap console logger. Info and below go to stdout, errors
// to stderr. Level is one of "none", "normal" or "debug".
func NewLogger(level string) (*zap.Logger, error) {
	var lowest zapcore.Level
	switch level {
	case "none":
		return zap.NewNop(), nil
	case "", "normal":
		lowest = zapcore.InfoLevel
	case "debug":
		lowest = zapcore.DebugLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	ec.TimeKey = zapcore.OmitKey
	encoder := zapcore.NewConsoleEncoder(ec)

	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lowest <= lvl && lvl < zapcore.ErrorLevel
	})
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lowPriority),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), highPriority),
	)
	return zap.New(core).Named("cssmodules"), nil
}
