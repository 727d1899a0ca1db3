package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"restobar/internal/config"

	"github.com/rs/zerolog"
)

// Loggers hands out child loggers per component. A component logs at the
// base level unless logging.components names a level for it.
type Loggers struct {
	base   zerolog.Logger
	levels map[string]zerolog.Level
	closer io.Closer
}

// New builds the process loggers from config. Empty fields mean JSON, info
// level and stdout. Unknown levels are rejected.
func New(cfg config.LoggingConfig, app config.AppConfig) (*Loggers, error) {
	level, err := parseLevel(cfg.Level, zerolog.InfoLevel)
	if err != nil {
		return nil, fmt.Errorf("logging.level: %w", err)
	}

	levels := make(map[string]zerolog.Level, len(cfg.Components))
	for name, raw := range cfg.Components {
		lvl, err := parseLevel(raw, level)
		if err != nil {
			return nil, fmt.Errorf("logging.components.%s: %w", name, err)
		}
		levels[name] = lvl
	}

	output, closer, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("app", app.Name).
		Str("env", app.Environment).
		Str("version", app.Version).
		Logger()

	return &Loggers{base: base, levels: levels, closer: closer}, nil
}

// Nop discards everything. Handy for tests and library callers.
func Nop() *Loggers {
	return &Loggers{base: zerolog.Nop(), levels: map[string]zerolog.Level{}}
}

func (l *Loggers) Base() *zerolog.Logger {
	base := l.base
	return &base
}

// Component returns a logger tagged with name, at its configured level.
func (l *Loggers) Component(name string) *zerolog.Logger {
	child := l.base.With().Str("component", name).Logger()
	if lvl, ok := l.levels[name]; ok {
		child = child.Level(lvl)
	}
	return &child
}

// Close releases the log file, if any.
func (l *Loggers) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func parseLevel(raw string, fallback zerolog.Level) (zerolog.Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return fallback, nil
	}
	lvl, err := zerolog.ParseLevel(raw)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.NoLevel, fmt.Errorf("unknown level %q", raw)
	}
	return lvl, nil
}

func openOutput(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "discard":
		return io.Discard, nil, nil
	case "file":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.output=file requires logging.file_path")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return file, file, nil
	default:
		return nil, nil, fmt.Errorf("unknown logging.output %q", cfg.Output)
	}
}
