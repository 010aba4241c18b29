// Package logger provides zap backed implementations of the
// enrollmart.Logger interface.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap SugaredLogger. Printf logs at info level and Debugf at
// debug level.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// NewStandardLogger returns a Logger which writes info and above to w.
func NewStandardLogger(w io.Writer) *Logger {
	return newLogger(w, zapcore.InfoLevel)
}

// NewVerboseLogger returns a Logger which writes everything, debug included,
// to w.
func NewVerboseLogger(w io.Writer) *Logger {
	return newLogger(w, zapcore.DebugLevel)
}

// New returns a verbose or standard logger writing to w. A nil w means
// stderr.
func New(verbose bool, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if verbose {
		return NewVerboseLogger(w)
	}
	return NewStandardLogger(w)
}

func newLogger(w io.Writer, level zapcore.Level) *Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}

// Printf logs at info level.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.SugaredLogger.Infof(format, v...)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.SugaredLogger.Debugf(format, v...)
}

// With returns a Logger which adds the given key/value pairs to every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues...)}
}

// Sync flushes any buffered entries.
func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}
