// Package logging builds the hclog loggers used across gifweave.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// EnvLogLevel selects the level when no flag sets one.
	EnvLogLevel = "GIFWEAVE_LOG_LEVEL"
	// EnvJSONLog switches every logger to JSON lines when set to "1".
	EnvJSONLog = "GIFWEAVE_JSON_LOG"

	// DefaultLevel keeps production runs quiet.
	DefaultLevel = "warn"

	linePrefix = "🎞️ "
)

// NewLogger creates an hclog logger writing UTC timestamps to output, or to
// stderr when output is nil.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv(EnvJSONLog) == "1"
	if !jsonFormat {
		output = NewPrefixWriter(linePrefix, output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// GetLogLevel returns the level from the environment, or DefaultLevel.
func GetLogLevel() string {
	return ResolveLevel("")
}

// ResolveLevel picks the effective level: an explicit flag value wins over
// the environment, which wins over DefaultLevel. Unknown names fall through
// to the next source.
func ResolveLevel(flag string) string {
	for _, candidate := range []string{flag, os.Getenv(EnvLogLevel)} {
		candidate = strings.TrimSpace(strings.ToLower(candidate))
		if candidate == "" {
			continue
		}
		if hclog.LevelFromString(candidate) != hclog.NoLevel {
			return candidate
		}
	}
	return DefaultLevel
}
