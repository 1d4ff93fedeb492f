package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap logger
type Logger struct {
	*zap.Logger
}

// Options select the level, encoding and destination of a Logger. Production
// writes sampled JSON; development writes unsampled console lines with
// colored levels.
type Options struct {
	Level       string
	Environment string
	Output      io.Writer // defaults to stdout
}

// identical messages beyond the first sampleFirst per second are thinned to
// one in sampleThereafter, so a flood of rejected views cannot drown the logs
const (
	sampleTick       = time.Second
	sampleFirst      = 100
	sampleThereafter = 50
)

// New builds the service logger
func New(opts Options) (*Logger, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	level := parseLogLevel(opts.Level)
	development := isDevelopment(opts.Environment)

	var core zapcore.Core
	if development {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		core = zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(out), level)
	} else {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "timestamp"
		cfg.MessageKey = "message"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeDuration = zapcore.MillisDurationEncoder
		core = zapcore.NewSamplerWithOptions(
			zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(out), level),
			sampleTick, sampleFirst, sampleThereafter,
		)
	}

	zl := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if !development && opts.Environment != "" {
		zl = zl.With(zap.String("env", opts.Environment))
	}
	return &Logger{Logger: zl}, nil
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func isDevelopment(environment string) bool {
	switch strings.ToLower(environment) {
	case "development", "dev", "local":
		return true
	}
	return false
}

// parseLogLevel accepts zap's level names plus "warning"; anything else is info
func parseLogLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zapcore.WarnLevel
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil || level == "" {
		return zapcore.InfoLevel
	}
	return l
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(zap.Any(key, value))}
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		zapFields = append(zapFields, zap.Any(key, value))
	}
	return &Logger{Logger: l.Logger.With(zapFields...)}
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(zap.Error(err))}
}
