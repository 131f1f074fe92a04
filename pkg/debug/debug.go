// Package debug provides conditional debug logging.
//
// Debug logging is enabled by setting the TULIPAVIZ_DEBUG environment
// variable:
//
//	TULIPAVIZ_DEBUG=1 tulipaviz --list
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops.
package debug

import (
	"log"
	"os"
	"time"
)

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TULIPAVIZ_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[TULIPAVIZ_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[TULIPAVIZ_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}
