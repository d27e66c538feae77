// Package log is the structured logger used throughout eventnexus.
//
// Every line carries a timestamp, the call site and the emitting module.
// Decoder components add event coordinates (height, index, kind) with With.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is a leveled, module-scoped wrapper around a go-kit logger.
type Logger struct {
	logger      kitlog.Logger
	level       Level
	module      string
	callerDepth int
}

// kitlog.DefaultCaller plus the emit and Debug/Info/... frames of this wrapper.
const defaultCallerDepth = 5

// NewDefaultLogger returns a JSON logger on stdout at INFO.
// Commands should use RootLogger() from package `cmd/common` instead.
func NewDefaultLogger(module string) *Logger {
	logger, err := NewLogger(module, os.Stdout, FmtJSON, LevelInfo)
	if err != nil {
		panic(err)
	}
	return logger
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *Logger {
	return &Logger{
		logger:      kitlog.NewNopLogger(),
		level:       LevelError + 1,
		module:      "discard",
		callerDepth: defaultCallerDepth,
	}
}

// NewLogger builds a logger writing to w in the given format.
func NewLogger(module string, w io.Writer, format Format, lvl Level) (*Logger, error) {
	var base kitlog.Logger
	sw := kitlog.NewSyncWriter(w)
	switch format {
	case FmtLogfmt:
		base = kitlog.NewLogfmtLogger(sw)
	case FmtJSON:
		base = kitlog.NewJSONLogger(sw)
	default:
		return nil, fmt.Errorf("log: unsupported log format: %v", format)
	}
	return &Logger{logger: base, level: lvl, module: module, callerDepth: defaultCallerDepth}, nil
}

func (l *Logger) emit(lvl Level, msg string, keyvals []interface{}) {
	if lvl < l.level {
		return
	}
	leveled := kitlog.WithPrefix(l.logger,
		"ts", kitlog.DefaultTimestampUTC,
		"caller", kitlog.Caller(l.callerDepth),
	)
	switch lvl {
	case LevelDebug:
		leveled = level.Debug(leveled)
	case LevelInfo:
		leveled = level.Info(leveled)
	case LevelWarn:
		leveled = level.Warn(leveled)
	default:
		leveled = level.Error(leveled)
	}
	_ = leveled.Log(append([]interface{}{"module", l.module, "msg", msg}, keyvals...)...)
}

// Debug logs msg and keyvals at DEBUG.
func (l *Logger) Debug(msg string, keyvals ...interface{}) {
	l.emit(LevelDebug, msg, keyvals)
}

// Info logs msg and keyvals at INFO.
func (l *Logger) Info(msg string, keyvals ...interface{}) {
	l.emit(LevelInfo, msg, keyvals)
}

// Warn logs msg and keyvals at WARN.
func (l *Logger) Warn(msg string, keyvals ...interface{}) {
	l.emit(LevelWarn, msg, keyvals)
}

// Error logs msg and keyvals at ERROR.
func (l *Logger) Error(msg string, keyvals ...interface{}) {
	l.emit(LevelError, msg, keyvals)
}

// With returns a child logger that prepends keyvals to every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	child := *l
	child.logger = kitlog.With(l.logger, keyvals...)
	return &child
}

// WithModule returns a child logger reporting under a different module name.
func (l *Logger) WithModule(module string) *Logger {
	child := *l
	child.module = module
	return &child
}

// Level is the minimum level this logger emits.
func (l *Logger) Level() Level {
	return l.level
}

// WithCallerUnwind returns a child logger that reports the call site n
// frames above the logging call, for loggers wrapped by other libraries.
func (l *Logger) WithCallerUnwind(n int) *Logger {
	child := *l
	child.callerDepth = n
	return &child
}

type writerLogger struct {
	logger *Logger
}

// WriterIntoLogger adapts l to an io.Writer; each write becomes one INFO line.
// Used to route libraries that log through the standard log package.
func WriterIntoLogger(l *Logger) io.Writer {
	return writerLogger{logger: l}
}

func (w writerLogger) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
