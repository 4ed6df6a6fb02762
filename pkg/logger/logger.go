package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugEnabled reports whether the last Init enabled the debug level, either
// through --debug or log_level.
var DebugEnabled bool

var base = zap.NewNop().Sugar()

// Init builds the process logger. Output goes to stderr so that stdout only
// ever carries the rendered report.
func Init(level string, debug bool) error {
	lvl := zapcore.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil {
			return fmt.Errorf("unknown log level: %s", level)
		}
		lvl = parsed
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	DebugEnabled = lvl == zapcore.DebugLevel

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.CallerKey = ""

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(lvl),
		Encoding:          "console",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Use(l)
	return nil
}

// Use swaps the underlying zap logger. Tests install an observer core here.
func Use(l *zap.Logger) {
	base = l.Named("sdsec").Sugar()
}

// Debugf logs when the installed logger has the debug level enabled.
func Debugf(format string, args ...interface{}) {
	if base.Desugar().Core().Enabled(zapcore.DebugLevel) {
		base.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	base.Infof(format, args...)
}

// Warnw logs a warning with structured key/value context.
func Warnw(msg string, keysAndValues ...interface{}) {
	base.Warnw(msg, keysAndValues...)
}

func Sync() {
	_ = base.Sync()
}
