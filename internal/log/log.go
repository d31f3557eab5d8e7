// Package log is the leveled logging sink shared by every tgcore package.
//
// It plays the role nano's (unexported, not present in this pack)
// internal/log package plays for nano: every component logs through here
// rather than the stdlib log package directly, so the host can swap the
// destination and severity filter in one place.
package log

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/hashicorp/logutils"
)

// Level is one of the severities tgcore logs at.
type Level string

const (
	Debug Level = "DEBUG"
	Info  Level = "INFO"
	Notice Level = "NOTICE"
	Warn  Level = "WARN"
	Error Level = "ERROR"
)

// Sink receives every filtered log line, mirroring
// tgl_update_callback::log_output(verbosity, str) from the original
// implementation so a host can surface tgcore's log stream in its own UI.
type Sink func(level Level, line string)

var (
	mu        sync.Mutex
	minLevel  = Info
	sink      Sink
	filter    = &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{logutils.LogLevel(Debug), logutils.LogLevel(Info), logutils.LogLevel(Notice), logutils.LogLevel(Warn), logutils.LogLevel(Error)},
		MinLevel: logutils.LogLevel(Info),
		Writer:   os.Stderr,
	}
	std = log.New(filter, "", log.LstdFlags)
)

// SetLevel changes the minimum severity written to the underlying writer.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
	filter.SetMinLevel(logutils.LogLevel(l))
}

// SetSink installs (or clears, with nil) the host callback that observes
// every log line regardless of the level filter.
func SetSink(s Sink) {
	mu.Lock()
	defer mu.Unlock()
	sink = s
}

func emit(level Level, line string) {
	std.Output(3, "["+string(level)+"] "+line)
	mu.Lock()
	s := sink
	mu.Unlock()
	if s != nil {
		s(level, line)
	}
}

func Debugf(format string, args ...interface{})  { emit(Debug, fmt.Sprintf(format, args...)) }
func Noticef(format string, args ...interface{}) { emit(Notice, fmt.Sprintf(format, args...)) }
func Warnf(format string, args ...interface{})   { emit(Warn, fmt.Sprintf(format, args...)) }
func Errorf(format string, args ...interface{})  { emit(Error, fmt.Sprintf(format, args...)) }
func Printf(format string, args ...interface{})  { emit(Info, fmt.Sprintf(format, args...)) }
func Print(args ...interface{})                  { emit(Info, fmt.Sprint(args...)) }
