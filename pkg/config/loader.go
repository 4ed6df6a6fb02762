package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides, e.g. SDSEC_OUTPUT=json.
const EnvPrefix = "SDSEC_"

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New())
//  2. the YAML file at path, or GetConfigPath() when path is empty
//  3. env (prefix SDSEC_)
//
// A missing default file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	return load(path, true, true)
}

// LoadFile is Load without environment overrides or validation. It is what
// `config set` edits, so env values never leak into the saved file and an
// invalid value can still be overwritten.
func LoadFile(path string) (*Config, error) {
	return load(path, false, false)
}

func load(path string, withEnv, validate bool) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) || explicit {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if withEnv {
		// SDSEC_DEFAULT_TOP_N -> default_top_n. Underscores are kept to
		// match the koanf tags; SDSEC_CONFIG only selects the file.
		envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
			key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
			if key == "config" {
				return "", nil
			}
			if key == "analyzer_args" {
				return key, strings.Fields(value)
			}
			return key, value
		})
		if err := k.Load(envProvider, nil); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	cfg := *New()
	defaultArgs := cfg.AnalyzerArgs
	cfg.AnalyzerArgs = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if len(cfg.AnalyzerArgs) == 0 {
		cfg.AnalyzerArgs = defaultArgs
	}
	cfg.Output = strings.ToLower(cfg.Output)

	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
