package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("SALESMESH_API_KEY", "")
	t.Setenv("SALESMESH_CONFIG", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SALESMESH_API_KEY", "sk-test")
	t.Setenv("SALESMESH_CONFIG", "")
	t.Setenv("SALESMESH_PROJECT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "memory", cfg.Storage.Engine)
	assert.Equal(t, 6, cfg.Retrieval.PerNamespaceTopK)
	assert.Equal(t, 24, cfg.Retrieval.ResultBudget)
	assert.Equal(t, 5*time.Second, cfg.Retrieval.SearchTimeout)
	assert.Equal(t, time.Minute, cfg.Retrieval.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)

	// ProjectID is auto-generated when absent.
	assert.NotEmpty(t, cfg.ProjectID)
	assert.Contains(t, cfg.ProjectID, "proj_")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SALESMESH_API_KEY", "sk-test")
	t.Setenv("SALESMESH_CONFIG", "")
	t.Setenv("SALESMESH_ORG_ID", "org_9")
	t.Setenv("SALESMESH_PROJECT_ID", "proj_custom")
	t.Setenv("SALESMESH_STORAGE_ENGINE", "sqlite")
	t.Setenv("SALESMESH_STORAGE_DSN", "./data/mem.db")
	t.Setenv("SALESMESH_TOPK", "8")
	t.Setenv("SALESMESH_SEARCH_TIMEOUT", "500ms")
	t.Setenv("SALESMESH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "org_9", cfg.OrgID)
	assert.Equal(t, "proj_custom", cfg.ProjectID)
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.Equal(t, "./data/mem.db", cfg.Storage.DSN)
	assert.Equal(t, 8, cfg.Retrieval.PerNamespaceTopK)
	assert.Equal(t, 500*time.Millisecond, cfg.Retrieval.SearchTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_BadNumericEnvKeepsDefault(t *testing.T) {
	t.Setenv("SALESMESH_API_KEY", "sk-test")
	t.Setenv("SALESMESH_CONFIG", "")
	t.Setenv("SALESMESH_TOPK", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Retrieval.PerNamespaceTopK)
}

func TestLoad_YAMLFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salesmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_key: sk-from-file
storage:
  engine: postgres
  dsn: postgres://localhost/salesmesh
retrieval:
  per_namespace_top_k: 10
logging:
  level: warn
`), 0o600))

	t.Setenv("SALESMESH_CONFIG", path)
	t.Setenv("SALESMESH_API_KEY", "")
	t.Setenv("SALESMESH_STORAGE_ENGINE", "")
	t.Setenv("SALESMESH_TOPK", "")
	t.Setenv("SALESMESH_LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.APIKey)
	assert.Equal(t, "postgres", cfg.Storage.Engine)
	assert.Equal(t, 10, cfg.Retrieval.PerNamespaceTopK)
	// Environment wins over the file.
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("SALESMESH_API_KEY", "sk-test")
	t.Setenv("SALESMESH_CONFIG", "/nonexistent/salesmesh.yaml")

	_, err := Load()
	assert.Error(t, err)
}
