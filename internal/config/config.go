// Package config loads application configuration from defaults, environment
// variables, and an optional JSON config file, in that order of precedence
// reversed: the file overrides the environment, which overrides defaults.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Environment variables consulted when loading configuration.
const (
	EnvCatalogPath  = "TSQLRAG_CATALOG_PATH"
	EnvDataDir      = "TSQLRAG_DATA_DIR"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Defaults used when neither environment nor config file provides a value.
const (
	DefaultCatalogPath = "data/catalog.db"
	DefaultDataDir     = "data"
)

// Config holds application settings.
type Config struct {
	// CatalogPath is the SQLite database holding procedure definitions.
	CatalogPath string `json:"catalog_path"`

	// DataDir is where index snapshots are written.
	DataDir string `json:"data_dir"`

	// OpenAIAPIKey enables the OpenAI embedding provider and the code
	// generator. Empty means offline mode.
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`
}

// Load builds configuration from defaults, then the environment, then the
// optional JSON file at path. A missing file is not an error; a malformed
// one is logged and skipped, matching load-what-you-can semantics.
func Load(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &Config{
		CatalogPath: DefaultCatalogPath,
		DataDir:     DefaultDataDir,
	}

	if v := os.Getenv(EnvCatalogPath); v != "" {
		cfg.CatalogPath = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		cfg.OpenAIAPIKey = v
	}

	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg
	}
	if err != nil {
		logger.Warn("failed to read config file, using environment and defaults",
			"path", path, "error", err)
		return cfg
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		logger.Warn("failed to parse config file, using environment and defaults",
			"path", path, "error", err)
		return cfg
	}

	if fileCfg.CatalogPath != "" {
		cfg.CatalogPath = fileCfg.CatalogPath
	}
	if fileCfg.DataDir != "" {
		cfg.DataDir = fileCfg.DataDir
	}
	if fileCfg.OpenAIAPIKey != "" {
		cfg.OpenAIAPIKey = fileCfg.OpenAIAPIKey
	}

	return cfg
}

// Save writes the configuration as indented JSON, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// IndexDir returns the directory index snapshots are stored in.
func (c *Config) IndexDir() string {
	return filepath.Join(c.DataDir, "index")
}
