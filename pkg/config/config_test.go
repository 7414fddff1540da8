package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlbridge.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
driver = "postgres"
dsn = "postgres://u:p@localhost/app"
max_open_conns = 20
conn_max_lifetime = "1h"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Driver)
	assert.Equal(t, "postgres://u:p@localhost/app", cfg.DSN)
	assert.Equal(t, 20, cfg.MaxOpenConns)
	assert.Equal(t, time.Hour, cfg.ConnMaxLifetime)
	// untouched fields keep their defaults
	assert.Equal(t, 5, cfg.MaxIdleConns)
}

// TestLoadDSNFromEnv: an empty dsn falls back to DATABASE_URL.
func TestLoadDSNFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@localhost/fromenv")
	path := writeConfig(t, `driver = "postgres"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env@localhost/fromenv", cfg.DSN)
}

func TestLoadUnknownDriver(t *testing.T) {
	path := writeConfig(t, `
driver = "oracle"
dsn = "oracle://x"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, `unsupported driver "oracle"`)
}

func TestLoadMissingDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := writeConfig(t, `driver = "sqlite"`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "DSN is empty")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.Validate(), "DSN is empty")

	cfg.DSN = ":memory:"
	cfg.Driver = "sqlite"
	assert.NoError(t, cfg.Validate())
}
