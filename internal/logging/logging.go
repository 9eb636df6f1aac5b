// Package logging provides the leveled message sink the solvers report
// progress through. A nil *Logger is valid and discards everything.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
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
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel maps a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unsupported log level: %s", s)
	}
}

type Logger struct {
	mu    sync.Mutex
	min   Level
	out   io.Writer
	quiet bool
}

// New builds a logger writing messages at or above min to out. A nil out
// defaults to stderr.
func New(min Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{min: min, out: out}
}

// SetQuiet suppresses console echo without changing the minimum level.
func (l *Logger) SetQuiet(quiet bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quiet = quiet
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.quiet || level < l.min {
		return
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	fmt.Fprintf(l.out, "%s %s %s\n", ts, level, fmt.Sprintf(format, args...))
}
