package lazy

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config tunes a Registry. It can be loaded from YAML:
//
//	max_free_list: 256
//	log_level: debug
//	disable_sharing: false
type Config struct {
	// MaxFreeList bounds every free list; zero means unbounded.
	MaxFreeList int `yaml:"max_free_list" validate:"gte=0"`
	// LogLevel is used by NewLogger.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// DisableSharing turns off the result-equality tables of ShareBy slots.
	DisableSharing bool `yaml:"disable_sharing"`
}

var configValidate = validator.New()

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxFreeList: 0,
		LogLevel:    "info",
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger builds a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.Level()}))
}

// LoadConfig decodes YAML on top of DefaultConfig and validates the result.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return LoadConfig(bytes.NewReader(data))
}
