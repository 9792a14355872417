package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "BOOKABILITY_"
	envFileKey = envPrefix + "CONFIG"
)

// Load builds a Config by layering, from lowest precedence to highest:
//  1. defaults (New)
//  2. the YAML file named by BOOKABILITY_CONFIG, if set
//  3. BOOKABILITY_* environment variables
func Load(ctx context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(envFileKey); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// BOOKABILITY_QUEUE_SIZE -> queue_size; keys are flat so "." never appears.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLoadConfig, err)
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}
