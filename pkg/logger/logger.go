package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/devraulu/alisopan/pkg/config"
)

// InitLogger installs the process-wide logger described by cfg.
func InitLogger(cfg *config.Config) {
	slog.SetDefault(New(cfg.Logging, os.Stdout))
}

// New builds a logger writing to w. JSON output uses bunyan numeric levels
// so it can be piped through the bunyan CLI.
func New(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	json := cfg.Format != "text"
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if json && a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				return slog.Int(a.Key, bunyanLevel(level))
			}
			return a
		},
	}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		"name", "alisopan",
		"pid", os.Getpid(),
		"hostname", hostname,
	)
}

func parseLevel(s string) slog.Level {
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

func bunyanLevel(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return 50
	case level >= slog.LevelWarn:
		return 40
	case level >= slog.LevelInfo:
		return 30
	case level >= slog.LevelDebug:
		return 20
	default:
		return 10
	}
}
