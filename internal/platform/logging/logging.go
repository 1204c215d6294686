// Package logging builds the structured loggers used by the binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelCritical sits above Error and marks failures that leave the game in a
// state the player should know about, such as a reset that did not verify
const LevelCritical = slog.Level(12)

// ParseLevel maps a config value to a level; empty means info
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "critical":
		return LevelCritical, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Format selects the handler encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// New returns a logger writing to w at level
func New(w io.Writer, format Format, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
					a.Value = slog.StringValue("CRITICAL")
				}
			}
			return a
		},
	}
	if format == FormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
