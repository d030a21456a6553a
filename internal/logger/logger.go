// Package logger provides verbose logging for sercha-chat.
//
// Nothing is printed unless verbose mode is on (the --verbose flag). Output
// goes to stderr so it never mixes with a streamed answer on stdout. With
// elapsed mode on, each line is prefixed by the time since the logger was
// reset, which makes time-to-first-token visible while answering.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

// Levels in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

var levelTags = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
}

// String returns the tag printed for the level.
func (l Level) String() string {
	if l < LevelDebug || l > LevelWarn {
		return "LEVEL(" + fmt.Sprint(int(l)) + ")"
	}
	return levelTags[l]
}

var (
	mu       sync.RWMutex
	verbose  bool
	minLevel Level
	output   io.Writer = os.Stderr
	elapsed  bool
	start    = time.Now()
	now      = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel drops lines below l. The default prints everything.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetElapsed turns the elapsed-time prefix on or off and restarts the clock.
func SetElapsed(on bool) {
	mu.Lock()
	defer mu.Unlock()
	elapsed = on
	start = now()
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func logf(level Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose || level < minLevel {
		return
	}
	if elapsed {
		fmt.Fprintf(output, "%8s ", now().Sub(start).Round(time.Millisecond))
	}
	fmt.Fprintf(output, "["+level.String()+"] "+format+"\n", args...)
}
