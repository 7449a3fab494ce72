package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix is stripped from environment variables before mapping them to
// config keys.
const envPrefix = "MARKD_"

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (MARKD_SERVER_PORT, MARKD_SOURCE_API_KEY, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// If configPath is empty the default ~/.config/markd/config.yaml is used.
// A missing file is not an error; defaults plus environment apply.
//
// Environment variables map to keys by stripping the MARKD_ prefix,
// lowercasing, and splitting on the first underscore:
//
//	MARKD_SERVER_PORT         -> server.port
//	MARKD_EMBEDDINGS_API_KEY  -> embeddings.api_key
//	MARKD_VECTORSTORE_PROVIDER -> vectorstore.provider
//
// Nested provider settings (e.g. vectorstore.sqlite.path) are YAML-only.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "markd", "config.yaml")
	}

	if content, err := os.ReadFile(configPath); err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// MARKD_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
		// Split on the first underscore only: section, then field name.
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
