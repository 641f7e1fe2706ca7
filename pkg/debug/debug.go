// Package debug provides conditional debug logging for canopy.
//
// Debug logging is enabled by setting the CANOPY_DEBUG environment variable:
//
//	CANOPY_DEBUG=1 canopy
//
// Messages go to stderr with a timestamp. While the TUI owns the terminal,
// point the output at a file with SetOutput or CANOPY_DEBUG_FILE. When
// disabled (default) every function is a no-op.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

const prefix = "[CANOPY_DEBUG] "

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("CANOPY_DEBUG") == "" {
		return
	}
	enabled = true
	var out io.Writer = os.Stderr
	if path := os.Getenv("CANOPY_DEBUG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			out = f
		}
	}
	logger = log.New(out, prefix, log.Ltime|log.Lmicroseconds)
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled turns debug logging on or off programmatically.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. It does not change Enabled.
func SetOutput(w io.Writer) {
	logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

// Log writes a printf-style debug message.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogEnterExit logs function entry, and exit with timing when the returned
// function runs:
//
//	defer debug.LogEnterExit("Toggle")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type.
func Dump(name string, v any) {
	if !enabled {
		return
	}
	logger.Print(fmt.Sprintf("%s: %T = %+v", name, v, v))
}
