// Package logging provides the leveled logger shared by the driver and CLI.
package logging

import (
	"io"
	"log"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel is case-insensitive and falls back to info.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is injected into packages that report progress.
type Logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// StdLogger writes through a standard library logger, dropping messages
// below its level.
type StdLogger struct {
	level Level
	out   *log.Logger
}

func New(w io.Writer, level string) *StdLogger {
	return &StdLogger{
		level: ParseLevel(level),
		out:   log.New(w, "", log.LstdFlags),
	}
}

func (l *StdLogger) Level() Level { return l.level }

func (l *StdLogger) logf(level Level, prefix, format string, v ...any) {
	if level < l.level {
		return
	}
	l.out.Printf(prefix+format, v...)
}

func (l *StdLogger) Debugf(format string, v ...any) { l.logf(LevelDebug, "[DEBUG] ", format, v...) }
func (l *StdLogger) Infof(format string, v ...any)  { l.logf(LevelInfo, "[INFO] ", format, v...) }
func (l *StdLogger) Warnf(format string, v ...any)  { l.logf(LevelWarn, "[WARN] ", format, v...) }
func (l *StdLogger) Errorf(format string, v ...any) { l.logf(LevelError, "[ERROR] ", format, v...) }

// NoOp discards everything.
type NoOp struct{}

func (NoOp) Debugf(format string, v ...any) {}
func (NoOp) Infof(format string, v ...any)  {}
func (NoOp) Warnf(format string, v ...any)  {}
func (NoOp) Errorf(format string, v ...any) {}
