package main

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/sagarc03/gallery/config"
)

// newLogger writes JSON lines with a UTC "ts" field in production and
// colored text with source positions everywhere else.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Log.Level)

	if !cfg.IsProduction() {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  true,
			TimeFormat: time.TimeOnly,
		}))
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	}))
}

// setupLogging installs the logger as the slog default and routes the
// standard log package through it. Output goes to stderr so command
// output on stdout stays clean.
func setupLogging(cfg *config.Config) {
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer())
}

// parseLevel accepts the slog level names in any case plus "warning".
// Anything else is info.
func parseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
