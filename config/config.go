package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Environment-specific YAML (config.<env>.yaml)
// 3. config.yaml
// 4. Default values (lowest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Base YAML file is optional
	if err := loadYAML(k, "config.yaml"); err != nil {
		return nil, err
	}

	// Environment-specific overlay (config.staging.yaml, ...)
	if env := k.String("client.env"); env != "" {
		if err := loadYAML(k, fmt.Sprintf("config.%s.yaml", env)); err != nil {
			return nil, err
		}
	}

	// Environment variables win: CLIENT_RETRY_MAX=5 -> client.retry.max
	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		TransformFunc: func(key, value string) (string, any) {
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadYAML(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		// Config files are optional overlays
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.env":              EnvDevelopment,
		"client.timeout.connect":  "10s",
		"client.timeout.receive":  "30s",
		"client.retry.max":        3,
		"client.retry.basedelay":  "500ms",
		"client.retry.jittermax":  "250ms",
		"client.rate.limit":       0.0,
		"client.rate.burst":       0,
		"client.auth.refreshpath": "",

		"log.level":           "info",
		"log.pretty":          false,
		"log.payloads":        false,
		"log.maxpayloadbytes": 2048,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
