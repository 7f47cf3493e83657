// Package wlog is a thin leveled wrapper over the standard library's log
// package, generalizing the teacher's bare log.Printf/log.Fatalf call sites
// with a verbosity gate instead of pulling in a structured logging library
// the rest of the corpus never reaches for.
package wlog

import (
	"log"
	"os"
)

// Level selects which calls actually reach the underlying logger.
type Level int

const (
	LevelError Level = iota
	LevelInfo
	LevelDebug
)

// Logger is a leveled wrapper around *log.Logger, safe for concurrent use
// since log.Logger already serializes its own writes.
type Logger struct {
	level Level
	std   *log.Logger
}

// New returns a Logger writing to os.Stderr with the teacher's usual
// flags (timestamp, no file/line).
func New(level Level) *Logger {
	return &Logger{level: level, std: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.level >= LevelError {
		l.std.Printf("error: "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level >= LevelInfo {
		l.std.Printf(format, args...)
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level >= LevelDebug {
		l.std.Printf("debug: "+format, args...)
	}
}

// Fatalf logs at error level and exits, matching log.Fatalf's call sites in
// the teacher's command-line entry points.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.std.Fatalf(format, args...)
}
