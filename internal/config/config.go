// Package config loads the tester.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "tester.yaml"

// Formats lists the accepted output formats.
var Formats = []string{"text", "json"}

// Config is the project configuration. Relative paths are resolved against
// the directory holding the file.
type Config struct {
	// Suites lists suite files or directories to run when none are given on
	// the command line.
	Suites []string `yaml:"suites"`

	// Dotenv lists dotenv files loaded into the environment overrides.
	Dotenv []string `yaml:"dotenv"`

	// DB is the run history database. Empty disables recording.
	DB string `yaml:"db"`

	// Run and Skip hold test ID patterns.
	Run  []string `yaml:"run"`
	Skip []string `yaml:"skip"`

	Verbose bool   `yaml:"verbose"`
	Format  string `yaml:"format"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{Format: "text"}
}

// Load reads the config file at path. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.Path = path
	base := filepath.Dir(path)
	for i := range cfg.Suites {
		cfg.Suites[i] = resolve(base, cfg.Suites[i])
	}
	for i := range cfg.Dotenv {
		cfg.Dotenv[i] = resolve(base, cfg.Dotenv[i])
	}
	if cfg.DB != "" {
		cfg.DB = resolve(base, cfg.DB)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or DefaultFile when path is empty. A missing
// DefaultFile yields Default(); a missing explicit path is an error.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := Load(DefaultFile)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks field values.
func (c *Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("format %q must be one of %v", c.Format, Formats)
	}
	return nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
