// Package logger writes diagnostic output for ragdesk to stderr.
//
// Output is off unless --verbose is given, which lowers the threshold to
// LevelDebug. Anything derived from a credential must pass through
// RedactToken before it reaches a log line.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level orders log lines by importance.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	// LevelOff suppresses all output.
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "OFF"
	}
}

var (
	mu        sync.Mutex
	threshold Level     = LevelOff
	out       io.Writer = os.Stderr
)

// SetLevel sets the lowest level that is written.
func SetLevel(l Level) {
	mu.Lock()
	threshold = l
	mu.Unlock()
}

// SetVerbose switches between full debug output and silence.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelOff)
}

// Enabled reports whether lines at l are written.
func Enabled(l Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return l < LevelOff && l >= threshold
}

// SetOutput redirects log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < threshold || threshold == LevelOff {
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", l, fmt.Sprintf(format, args...))
}

func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Section marks the start of a group of debug lines.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if threshold == LevelDebug {
		fmt.Fprintf(out, "-- %s --\n", name)
	}
}

// RedactToken masks a credential, keeping a four character prefix so two
// tokens can still be told apart.
func RedactToken(token string) string {
	token = strings.TrimSpace(token)
	switch {
	case token == "":
		return "<none>"
	case len(token) <= 8:
		return "****"
	default:
		return token[:4] + "****"
	}
}
