// Package config provides configuration loading for markd.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables with the MARKD_ prefix. Every section has sensible
// defaults; a bare `markd serve` works with no config file at all (given a
// Gemini API key).
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete markd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Source      SourceConfig      `koanf:"source"`
	Sync        SyncConfig        `koanf:"sync"`
	Search      SearchConfig      `koanf:"search"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	// Provider is "gemini", "ollama" or "tei".
	Provider string `koanf:"provider"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// BaseURL overrides the provider's default endpoint.
	BaseURL string `koanf:"base_url"`
	// APIKey authenticates to the provider (Gemini).
	APIKey string `koanf:"api_key"`
}

// VectorStoreConfig holds vector store configuration.
type VectorStoreConfig struct {
	// Provider is "sqlite", "chromem", "qdrant" or "memory".
	Provider string        `koanf:"provider"`
	SQLite   SQLiteConfig  `koanf:"sqlite"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// SQLiteConfig holds SQLite provider settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// ChromemConfig holds chromem provider settings.
type ChromemConfig struct {
	Path       string `koanf:"path"`
	Compress   bool   `koanf:"compress"`
	Collection string `koanf:"collection"`
}

// QdrantConfig holds Qdrant provider settings.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	Collection string `koanf:"collection"`
	VectorSize int    `koanf:"vector_size"`
	UseTLS     bool   `koanf:"use_tls"`
}

// SourceConfig holds bookmark source (X API) configuration.
type SourceConfig struct {
	// BaseURL is the API root. Overridable for tests and proxies.
	BaseURL string `koanf:"base_url"`
	// UserID is the account whose bookmarks are synced.
	UserID string `koanf:"user_id"`
	// APIKey and APISecret are the long-lived credentials exchanged for a
	// bearer token.
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
}

// SyncConfig holds sync engine configuration.
type SyncConfig struct {
	// Concurrency bounds parallel ingestion of new items.
	Concurrency int `koanf:"concurrency"`
	// Interval between automatic sync runs in serve mode. Zero disables
	// the ticker; syncs then only run via POST /sync.
	Interval time.Duration `koanf:"interval"`
}

// SearchConfig holds search engine defaults.
type SearchConfig struct {
	// Threshold is the minimum similarity for a result.
	Threshold float64 `koanf:"threshold"`
	// Limit is the maximum number of results.
	Limit int `koanf:"limit"`
}

// applyDefaults fills in defaults for unset values.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "gemini"
	}
	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "sqlite"
	}
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = "https://api.twitter.com"
	}
	if cfg.Sync.Concurrency == 0 {
		cfg.Sync.Concurrency = 4
	}
	if cfg.Search.Threshold == 0 {
		cfg.Search.Threshold = 0.3
	}
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = 10
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q (must be json or console)", c.Logging.Format)
	}
	if c.Sync.Concurrency < 1 {
		return errors.New("sync concurrency must be at least 1")
	}
	if c.Sync.Interval < 0 {
		return errors.New("sync interval must not be negative")
	}
	if c.Search.Threshold < -1 || c.Search.Threshold > 1 {
		return fmt.Errorf("search threshold %v out of range [-1, 1]", c.Search.Threshold)
	}
	if c.Search.Limit < 1 {
		return errors.New("search limit must be at least 1")
	}
	return nil
}
