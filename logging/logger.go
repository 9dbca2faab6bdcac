// Package logging provides the Logger interface every engine component
// accepts, and a go-kit-backed implementation for cmd/lightclientd and
// cmd/lcctl.
package logging

import (
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// Logger is what any component in this module should take.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})

	With(keyvals ...interface{}) Logger
}

// NopLogger discards everything; it is the default when no Logger is
// supplied.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (n NopLogger) With(...interface{}) Logger { return n }

// kitLogger is a Logger backed by go-kit/kit/log, levelled by prefixing
// each line with "level" and filtered by a minimum level set at
// construction.
type kitLogger struct {
	logger   kitlog.Logger
	minLevel level
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

func parseLevel(s string) level {
	switch s {
	case "debug":
		return levelDebug
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// NewLogger builds a Logger that writes newline-delimited key=value pairs
// to stderr, filtered to minLevel ("debug", "info", or "error").
func NewLogger(minLevel string) Logger {
	base := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	base = kitlog.With(base, "ts", kitlog.DefaultTimestampUTC)
	return &kitLogger{logger: base, minLevel: parseLevel(minLevel)}
}

func (l *kitLogger) log(lvl level, levelName, msg string, keyvals ...interface{}) {
	if lvl < l.minLevel {
		return
	}
	args := append([]interface{}{"level", levelName, "msg", msg}, keyvals...)
	l.logger.Log(args...)
}

func (l *kitLogger) Debug(msg string, keyvals ...interface{}) { l.log(levelDebug, "debug", msg, keyvals...) }
func (l *kitLogger) Info(msg string, keyvals ...interface{})  { l.log(levelInfo, "info", msg, keyvals...) }
func (l *kitLogger) Error(msg string, keyvals ...interface{}) { l.log(levelError, "error", msg, keyvals...) }

func (l *kitLogger) With(keyvals ...interface{}) Logger {
	return &kitLogger{logger: kitlog.With(l.logger, keyvals...), minLevel: l.minLevel}
}
