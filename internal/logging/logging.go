// Package logging builds the zerolog logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nconklindev/workerimport/internal/config"
)

// New returns a timestamped logger writing to out. Development environments
// get the human readable console format.
func New(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out, NoColor: out != os.Stdout && out != os.Stderr}
	}
	return zerolog.New(out).Level(ParseLevel(cfg.LogLevel)).With().Timestamp().Logger()
}

// ForTUI returns a logger that stays off the terminal while the alt screen is
// active: it appends to LOG_FILE when set and discards everything otherwise.
// The returned close func is never nil.
func ForTUI(cfg *config.Config) (zerolog.Logger, func() error, error) {
	if cfg.LogFile == "" {
		return zerolog.Nop(), func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), func() error { return nil }, fmt.Errorf("open log file: %w", err)
	}
	logger := zerolog.New(f).Level(ParseLevel(cfg.LogLevel)).With().Timestamp().Logger()
	return logger, f.Close, nil
}

// ParseLevel maps LOG_LEVEL onto a zerolog level, falling back to info.
func ParseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
