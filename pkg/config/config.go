// Package config loads Cookbook CLI settings from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/naoina/toml"
	"gopkg.in/yaml.v3"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings shared by the CLI commands and the REPL.
type Config struct {
	Prompt             string `yaml:"prompt" toml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt" toml:"continuation_prompt"`
	HistoryFile        string `yaml:"history_file" toml:"history_file"`
	Color              string `yaml:"color" toml:"color"`
	LogLevel           string `yaml:"log_level" toml:"log_level"`
	TraceFile          string `yaml:"trace_file" toml:"trace_file"`

	// Source is the file the settings came from, empty for defaults.
	Source string `yaml:"-" toml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".cookbook", "history")
	}
	return &Config{
		Prompt:             "cook> ",
		ContinuationPrompt: "...   ",
		HistoryFile:        history,
		Color:              ColorAuto,
		LogLevel:           "warn",
	}
}

// projectFiles are looked up in the working directory, in order.
var projectFiles = []string{".cookbook.yaml", ".cookbook.yml", ".cookbook.toml"}

// Load resolves the configuration.
// Precedence: explicit path → project (.cookbook.yaml / .cookbook.toml in dir)
// → user (~/.cookbook/config.yaml) → defaults.
// An explicit path that cannot be read is an error; missing project and user
// files are skipped.
func Load(explicitPath, dir string) (*Config, error) {
	if explicitPath != "" {
		return LoadFile(explicitPath)
	}

	for _, name := range projectFiles {
		cfg, err := loadIfExists(filepath.Join(dir, name))
		if err != nil || cfg != nil {
			return cfg, err
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range []string{"config.yaml", "config.toml"} {
			cfg, err := loadIfExists(filepath.Join(home, ".cookbook", name))
			if err != nil || cfg != nil {
				return cfg, err
			}
		}
	}

	return Default(), nil
}

func loadIfExists(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return LoadFile(path)
}

// LoadFile reads one config file; the format follows the extension (.toml
// is TOML, anything else YAML). Unset fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = decodeTOML(data, cfg)
	} else {
		err = decodeYAML(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.HistoryFile = expandHome(cfg.HistoryFile)
	cfg.TraceFile = expandHome(cfg.TraceFile)
	cfg.Source = path
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// tomlSettings rejects keys that match no Config field.
var tomlSettings = toml.Config{
	NormFieldName: toml.DefaultConfig.NormFieldName,
	FieldToKey:    toml.DefaultConfig.FieldToKey,
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func decodeTOML(data []byte, cfg *Config) error {
	return tomlSettings.NewDecoder(bytes.NewReader(data)).Decode(cfg)
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be %q, %q or %q, got %q", ColorAuto, ColorAlways, ColorNever, c.Color)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
