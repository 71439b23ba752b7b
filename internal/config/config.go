// Package config loads engine configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type StorageConfig struct {
	Backend string      `yaml:"backend"` // sqlite | memory | neo4j
	Path    string      `yaml:"path"`    // sqlite database file
	Neo4j   Neo4jConfig `yaml:"neo4j"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // hash | openai
	Dimension int    `yaml:"dimension"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

type SearchConfig struct {
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"`
}

type VerifyConfig struct {
	Threshold float64 `yaml:"threshold"`
}

type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Verify    VerifyConfig    `yaml:"verify"`
}

// Default returns the configuration used when no file is present: a SQLite
// store next to the working directory and the offline hash embedder.
func Default() *Config {
	return &Config{
		Storage:   StorageConfig{Backend: "sqlite", Path: ".mnemograph.db"},
		Embedding: EmbeddingConfig{Provider: "hash", Dimension: 256, APIKeyEnv: "OPENAI_API_KEY"},
		Search:    SearchConfig{TopK: 10},
		Verify:    VerifyConfig{Threshold: 0.6},
	}
}

// Load reads and validates a YAML config file. Missing fields fall back to
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func validate(c *Config) error {
	switch c.Storage.Backend {
	case "sqlite", "memory", "neo4j":
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	if c.Storage.Backend == "sqlite" && c.Storage.Path == "" {
		return fmt.Errorf("sqlite backend requires storage.path")
	}
	if c.Storage.Backend == "neo4j" && c.Storage.Neo4j.URI == "" {
		return fmt.Errorf("neo4j backend requires storage.neo4j.uri")
	}

	switch c.Embedding.Provider {
	case "hash", "openai":
	default:
		return fmt.Errorf("unknown embedding provider: %s", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "hash" && c.Embedding.Dimension <= 0 {
		return fmt.Errorf("hash embedder requires a positive dimension")
	}

	if c.Search.TopK < 0 {
		return fmt.Errorf("search.top_k must not be negative")
	}
	if c.Verify.Threshold < 0 || c.Verify.Threshold > 1 {
		return fmt.Errorf("verify.threshold must be in [0,1]")
	}
	return nil
}
