// Package config loads tracegraph settings from tracegraph.yaml and
// TRACEGRAPH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tracegraph/internal/ir"
	"github.com/roach88/tracegraph/internal/logging"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "tracegraph.yaml"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRACEGRAPH_"

// Config holds all tracegraph settings.
type Config struct {
	// Directory holding the declaration sources.
	Sources string `yaml:"sources" env:"SOURCES"`

	// Default self-test scope; empty checks every document.
	Document string `yaml:"document" env:"DOCUMENT"`

	// Relations registered before those declared in the sources.
	Relations []ir.RelationDecl `yaml:"relations"`

	Export ExportConfig `yaml:"export" envPrefix:"EXPORT_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
}

// ExportConfig holds export destinations. Empty means not exported.
type ExportConfig struct {
	JSON string `yaml:"json" env:"JSON"`
	DB   string `yaml:"db" env:"DB"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Sources: ".",
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// Load reads the YAML file at path on top of Default and then applies
// environment overrides. A missing file is not an error; malformed YAML is.
// An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that can be wrong independently of the
// sources.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q (want text or json)", c.Log.Format))
	}
	for i, rel := range c.Relations {
		if rel.Forward == "" {
			errs = append(errs, fmt.Errorf("relations[%d]: forward is required", i))
		}
	}
	return errors.Join(errs...)
}
