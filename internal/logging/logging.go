// Package logging wraps zap behind the small structured-field API used
// throughout the service.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls the minimum severity that gets emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Field is one structured log attribute. A Field produced by WithFields
// expands into one attribute per map entry.
type Field struct {
	key   string
	value interface{}
	multi map[string]interface{}
}

// WithField attaches a single key/value pair.
func WithField(key string, value interface{}) Field {
	return Field{key: key, value: value}
}

// WithFields attaches every entry of the map.
func WithFields(fields map[string]interface{}) Field {
	return Field{multi: fields}
}

// Logger is the service-wide structured logger.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a logger writing JSON to stderr at the given level.
func New(level Level) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	cfg.DisableStacktrace = true

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Config above is static; Build only fails on bad output paths.
		z = zap.NewNop()
	}
	return &Logger{z: z.Sugar()}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debugw(msg, flatten(fields)...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.z.Infow(msg, flatten(fields)...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.z.Warnw(msg, flatten(fields)...) }
func (l *Logger) Error(msg string, fields ...Field) { l.z.Errorw(msg, flatten(fields)...) }

// Sync flushes buffered log entries.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}

func flatten(fields []Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		if f.multi != nil {
			for k, v := range f.multi {
				kv = append(kv, k, v)
			}
			continue
		}
		kv = append(kv, f.key, f.value)
	}
	return kv
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
