package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	File   string // empty means Output
	Output io.Writer
}

// New creates a zerolog logger from cfg. The returned closer releases the log file, if any.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	output := cfg.Output
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		output = f
		closer = f
	}
	if output == nil {
		output = os.Stderr
	}

	if cfg.Format == "text" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			NoColor:    cfg.File != "",
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return logger, closer, nil
}

// ParseLevel falls back to info for unknown names
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

// SetGlobal installs logger as the package-level zerolog logger
func SetGlobal(logger zerolog.Logger) {
	log.Logger = logger
}

// SetLevel changes the process-wide minimum level. It applies to every logger,
// including those derived before the call, but never lowers a logger's own level.
func SetLevel(name string) {
	zerolog.SetGlobalLevel(ParseLevel(name))
}

// DefaultFile returns the log path under the user's state directory
func DefaultFile() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "freemusic", "freemusic.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "freemusic.log")
	}
	return filepath.Join(home, ".local", "state", "freemusic", "freemusic.log")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
