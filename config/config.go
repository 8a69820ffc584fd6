// Package config provides configuration management for SalesMesh. Settings
// load from environment variables with the SALESMESH_ prefix, optionally
// overlaid by a YAML file named in SALESMESH_CONFIG. Environment variables
// win over file values so deployments can override a checked-in config.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/salescrew/salesmesh/core"
)

// Config holds all configuration settings for the engine.
type Config struct {
	// APIKey authenticates calls to the embedding provider.
	// Env var: SALESMESH_API_KEY (required)
	APIKey string `yaml:"api_key"`

	// OrgID is the optional provider organization.
	// Env var: SALESMESH_ORG_ID
	OrgID string `yaml:"org_id"`

	// ProjectID labels this deployment. Auto-generated when absent.
	// Env var: SALESMESH_PROJECT_ID
	ProjectID string `yaml:"project_id"`

	Storage   StorageConfig   `yaml:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig selects the memory store backend.
type StorageConfig struct {
	// Engine is one of: memory, sqlite, postgres (default: memory).
	// Env var: SALESMESH_STORAGE_ENGINE
	Engine string `yaml:"engine"`

	// DSN is the connection string for sqlite and postgres engines.
	// Env var: SALESMESH_STORAGE_DSN
	DSN string `yaml:"dsn"`
}

// RetrievalConfig tunes the search planner.
type RetrievalConfig struct {
	// PerNamespaceTopK is the base top-K per namespace search (default: 6).
	// Env var: SALESMESH_TOPK
	PerNamespaceTopK int `yaml:"per_namespace_top_k"`

	// ResultBudget caps the merged result list (default: 24).
	// Env var: SALESMESH_RESULT_BUDGET
	ResultBudget int `yaml:"result_budget"`

	// SearchTimeout bounds each namespace search (default: 5s).
	// Env var: SALESMESH_SEARCH_TIMEOUT
	SearchTimeout time.Duration `yaml:"search_timeout"`

	// CacheTTL bounds the retrieval cache; zero disables it (default: 1m).
	// Env var: SALESMESH_CACHE_TTL
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error (default: info).
	// Env var: SALESMESH_LOG_LEVEL
	Level string `yaml:"level"`

	// Format is json or text (default: json).
	// Env var: SALESMESH_LOG_FORMAT
	Format string `yaml:"format"`
}

// Load builds the configuration. Order of precedence, lowest first:
// defaults, the YAML file named in SALESMESH_CONFIG, then environment
// variables. SALESMESH_API_KEY must end up non-empty.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("SALESMESH_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.APIKey == "" {
		return nil, errors.New("config: SALESMESH_API_KEY is required")
	}
	if cfg.ProjectID == "" {
		cfg.ProjectID = "proj_" + core.NewID()
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Storage: StorageConfig{Engine: "memory"},
		Retrieval: RetrievalConfig{
			PerNamespaceTopK: 6,
			ResultBudget:     24,
			SearchTimeout:    5 * time.Second,
			CacheTTL:         time.Minute,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func applyEnv(cfg *Config) {
	cfg.APIKey = getEnv("SALESMESH_API_KEY", cfg.APIKey)
	cfg.OrgID = getEnv("SALESMESH_ORG_ID", cfg.OrgID)
	cfg.ProjectID = getEnv("SALESMESH_PROJECT_ID", cfg.ProjectID)

	cfg.Storage.Engine = getEnv("SALESMESH_STORAGE_ENGINE", cfg.Storage.Engine)
	cfg.Storage.DSN = getEnv("SALESMESH_STORAGE_DSN", cfg.Storage.DSN)

	cfg.Retrieval.PerNamespaceTopK = getEnvInt("SALESMESH_TOPK", cfg.Retrieval.PerNamespaceTopK)
	cfg.Retrieval.ResultBudget = getEnvInt("SALESMESH_RESULT_BUDGET", cfg.Retrieval.ResultBudget)
	cfg.Retrieval.SearchTimeout = getEnvDuration("SALESMESH_SEARCH_TIMEOUT", cfg.Retrieval.SearchTimeout)
	cfg.Retrieval.CacheTTL = getEnvDuration("SALESMESH_CACHE_TTL", cfg.Retrieval.CacheTTL)

	cfg.Logging.Level = getEnv("SALESMESH_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("SALESMESH_LOG_FORMAT", cfg.Logging.Format)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "500ms", "2m") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
