// Package logging builds the zap loggers used by the run driver and CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the log level and encoding.
type Config struct {
	Level       string   `yaml:"level"`                  // debug, info, warn, error
	Format      string   `yaml:"format"`                 // json, console
	Development bool     `yaml:"development"`            // stack traces from warn up
	OutputPaths []string `yaml:"output_paths,omitempty"` // defaults to stderr
}

// Default returns info-level JSON logging to stderr.
func Default() Config {
	return Config{Level: "info", Format: "json"}
}

// ParseLevel parses a level name; the empty string means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return 0, fmt.Errorf("logging: invalid level %q: %w", s, err)
	}

	return lvl, nil
}

// Validate checks the level and format.
func (c Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}

	switch c.Format {
	case "", "json", "console":
		return nil
	default:
		return fmt.Errorf("logging: invalid format %q (valid: json, console)", c.Format)
	}
}

// New builds a logger from cfg. verbose forces debug level.
func New(cfg Config, verbose bool) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	lvl, _ := ParseLevel(cfg.Level)
	if verbose {
		lvl = zapcore.DebugLevel
	}

	zc.Level = zap.NewAtomicLevelAt(lvl)

	if cfg.Format != "" {
		zc.Encoding = cfg.Format
	}

	if len(cfg.OutputPaths) > 0 {
		zc.OutputPaths = cfg.OutputPaths
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}

	return logger, nil
}
