package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by the output key.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type Config struct {
	// AnalyzerPath is the systemd-analyze binary, looked up in PATH.
	AnalyzerPath string `koanf:"analyzer_path" yaml:"analyzer_path"`
	// AnalyzerArgs are passed verbatim to the analyzer.
	AnalyzerArgs []string `koanf:"analyzer_args" yaml:"analyzer_args"`

	LogLevel string `koanf:"log_level" yaml:"log_level"`

	// DefaultTopN applies when --top-n is not given. Nil means no limit.
	DefaultTopN *int `koanf:"default_top_n" yaml:"default_top_n,omitempty"`
	// DefaultPredicate applies when no predicate flag is given.
	DefaultPredicate string `koanf:"default_predicate" yaml:"default_predicate,omitempty"`

	Output      string `koanf:"output" yaml:"output"`
	MetricsFile string `koanf:"metrics_file" yaml:"metrics_file,omitempty"`
	Color       bool   `koanf:"color" yaml:"color"`
}

// Keys lists the settable configuration keys.
var Keys = []string{
	"analyzer_path",
	"analyzer_args",
	"log_level",
	"default_top_n",
	"default_predicate",
	"output",
	"metrics_file",
	"color",
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		AnalyzerPath: "systemd-analyze",
		AnalyzerArgs: []string{"security", "--json=short", "--no-pager"},
		LogLevel:     "info",
		Output:       OutputText,
		Color:        true,
	}
}

func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sdsec"), nil
}

// GetConfigPath resolves the config file: SDSEC_CONFIG wins over ~/.sdsec/config.yaml.
func GetConfigPath() (string, error) {
	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		return path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// SaveConfig writes cfg to path, creating the directory if needed.
func SaveConfig(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("%w: unknown output format %q", ErrInvalidConfig, c.Output)
	}
	if c.DefaultTopN != nil && *c.DefaultTopN < 0 {
		return fmt.Errorf("%w: default_top_n must not be negative", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.AnalyzerPath) == "" {
		return fmt.Errorf("%w: analyzer_path must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Set assigns one key from its string form, as given on the command line.
// An empty value clears optional keys.
func (c *Config) Set(key, value string) error {
	switch key {
	case "analyzer_path":
		c.AnalyzerPath = value
	case "analyzer_args":
		c.AnalyzerArgs = strings.Fields(value)
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "default_top_n":
		if value == "" {
			c.DefaultTopN = nil
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: default_top_n: %v", ErrInvalidConfig, err)
		}
		c.DefaultTopN = &n
	case "default_predicate":
		c.DefaultPredicate = value
	case "output":
		c.Output = strings.ToLower(value)
	case "metrics_file":
		c.MetricsFile = value
	case "color":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: color: %v", ErrInvalidConfig, err)
		}
		c.Color = b
	default:
		return fmt.Errorf("%w: unknown key %q (known: %s)", ErrInvalidConfig, key, strings.Join(Keys, ", "))
	}
	return c.Validate()
}
