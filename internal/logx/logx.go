// Package logx is a small level-filtered wrapper around the standard
// library's log package. No repo in the retrieval pack imports a
// structured logging library; every one logs via fmt.Printf/log.Printf,
// so this follows suit rather than reaching outside the pack's idiom.
package logx

import (
	"log"
	"os"
	"strings"
)

// Level is one of the five LOG_LEVEL values the spec names.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// ParseLevel maps LOG_LEVEL's string values to a Level, defaulting to
// LevelInfo for anything unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "none":
		return LevelNone
	default:
		return LevelInfo
	}
}

// Logger filters log.Logger output by a minimum level.
type Logger struct {
	level Level
	out   *log.Logger
}

// New builds a Logger that writes to stderr, dropping anything below level.
func New(level Level) *Logger {
	return &Logger{level: level, out: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *Logger) logf(level Level, tag, format string, args ...any) {
	if level < l.level {
		return
	}
	l.out.Printf("["+tag+"] "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, "debug", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, "info", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, "warn", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, "error", format, args...) }
