package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jmylchreest/slog-logfilter"
)

// Setup builds the application logger with the given level and format.
// Formats: "text" (default, logfmt style) and "json".
// The logger is returned for explicit injection; the process-wide default is left alone.
func Setup(logLevel string, format string) *slog.Logger {
	return New(os.Stdout, logLevel, format)
}

// New builds a logger writing to w
func New(w io.Writer, logLevel string, format string) *slog.Logger {
	opts := []logfilter.Option{
		logfilter.WithLevel(ParseLevel(logLevel)),
		logfilter.WithOutput(w),
	}

	if strings.ToLower(format) == "json" {
		opts = append(opts, logfilter.WithFormat("json"))
	} else {
		opts = append(opts, logfilter.WithFormat("text"))
	}

	return logfilter.New(opts...)
}

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
