package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, 3000, cfg.Server.HTTPPort)
	assert.Equal(t, 50, cfg.Pagination.DefaultLimit)
	assert.Equal(t, 9, cfg.Pagination.GridLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.Expiration)
	assert.True(t, cfg.Auth.Required)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  environment: production
storage:
  backend: bolt
  bolt:
    path: /tmp/x.db
server:
  http_port: 8080
`), 0o600))

	t.Setenv("THREATDASH_SERVER_HTTP_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Storage.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Bolt.Path)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.True(t, cfg.IsProduction())
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Storage:    StorageConfig{Backend: "file"},
		JWT:        JWTConfig{Secret: "s"},
		Auth:       AuthConfig{Required: true},
		Pagination: PaginationConfig{DefaultLimit: 50, GridLimit: 9},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Storage.Backend = "mongo"
	assert.ErrorContains(t, bad.Validate(), "unknown storage backend")

	bad = base
	bad.JWT.Secret = ""
	assert.Error(t, bad.Validate())

	bad = base
	bad.Auth.Required = false
	bad.JWT.Secret = ""
	assert.NoError(t, bad.Validate())

	bad = base
	bad.Pagination.GridLimit = 0
	assert.Error(t, bad.Validate())
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, DBName: "d", SSLMode: "disable", Schema: "public"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable&search_path=public", c.DSN())
}
