// Package logging provides leveled logging utilities for the application.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Log Levels
// --------------------------------------------------------------------------

type LogLevel int32

const (
	CRITICAL LogLevel = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

// ParseLevel converts a string level to a LogLevel.
func ParseLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warning", "warn":
		return WARNING, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger
// --------------------------------------------------------------------------

// ILogger is the leveled logging interface used throughout the application.
type ILogger interface {
	SetLevel(level LogLevel)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Logger implements ILogger with custom formatting. The concrete type also
// provides Fatalf so it satisfies the logger interfaces of the pebble and
// badger backends structurally.
type Logger struct {
	name   string
	level  atomic.Int32
	logger *log.Logger
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if LogLevel(l.level.Load()) >= DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if LogLevel(l.level.Load()) >= INFO {
		l.log("INFO", format, args...)
	}
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	if LogLevel(l.level.Load()) >= WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if LogLevel(l.level.Load()) >= ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log("FATAL", format, args...)
	panic(fmt.Sprintf(format, args...))
}

// log formats and writes a log message. this internal helper is used by the public methods
func (l *Logger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-15s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Registry
// --------------------------------------------------------------------------

var (
	loggers      = xsync.NewMapOf[string, *Logger]()
	defaultLevel atomic.Int32
)

func init() {
	defaultLevel.Store(int32(INFO))
}

// GetLogger returns the named logger, creating it with the default level on
// first use.
func GetLogger(name string) *Logger {
	l, _ := loggers.LoadOrCompute(name, func() *Logger {
		nl := &Logger{
			name:   name,
			logger: log.New(os.Stdout, "", log.Ldate|log.Ltime),
		}
		nl.level.Store(defaultLevel.Load())
		return nl
	})
	return l
}

// SetDefaultLevel sets the level for all existing loggers and for loggers
// created afterwards.
func SetDefaultLevel(level LogLevel) {
	defaultLevel.Store(int32(level))
	loggers.Range(func(_ string, l *Logger) bool {
		l.SetLevel(level)
		return true
	})
}
