package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  allowed_origins:
    - "https://app.contaflow.mx"
storage:
  database_path: "reconcile-test.db"
matcher:
  auto_accept_threshold: 0.9
  proposal_floor: 0.6
observability:
  logging:
    level: "debug"
    format: "json"
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.contaflow.mx"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "reconcile-test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 0.9, cfg.Matcher.AutoAcceptThreshold)
	assert.Equal(t, 0.6, cfg.Matcher.ProposalFloor)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_DefaultsFillZeroValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("server:\n  port: 3000\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "reconcile.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 0.85, cfg.Matcher.AutoAcceptThreshold)
	assert.Equal(t, 0.5, cfg.Matcher.ProposalFloor)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("RECONCILE_DB_PATH", "env.db")
	os.Setenv("PORT", "4000")
	os.Setenv("LOG_LEVEL", "warn")
	defer func() {
		os.Unsetenv("RECONCILE_DB_PATH")
		os.Unsetenv("PORT")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "env.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("RECONCILE_DB_PATH")
	os.Unsetenv("PORT")
	os.Unsetenv("LOG_LEVEL")

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "reconcile.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.85, cfg.Matcher.AutoAcceptThreshold)
	assert.Equal(t, 0.5, cfg.Matcher.ProposalFloor)
}

func TestLoadFromEnv_AllowedOrigins(t *testing.T) {
	os.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	defer os.Unsetenv("ALLOWED_ORIGINS")

	cfg := LoadFromEnv()
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	os.Setenv("RECONCILE_DB_PATH", "fallback.db")
	defer os.Unsetenv("RECONCILE_DB_PATH")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  database_path: "${TEST_DB_PATH}"
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	os.Setenv("TEST_DB_PATH", "expanded.db")
	defer os.Unsetenv("TEST_DB_PATH")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}
