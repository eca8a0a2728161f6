package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Data/Processed/manifests", cfg.Pipeline.ManifestDir)
	assert.Equal(t, 900, cfg.Pipeline.ChunkMaxChars)
	assert.Equal(t, 3, cfg.Pipeline.CitationMaxPages)
	assert.Equal(t, 40, cfg.OCR.MinCharsPerPage)
	assert.True(t, cfg.OCR.PreferOCR)
	assert.Equal(t, ":8090", cfg.Worker.HealthAddr)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  sqlite_path: /tmp/from-file.db
pipeline:
  chunk_max_chars: 500
worker:
  poll_interval: 2s
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("CHUNK_MAX_CHARS", "700")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/from-file.db", cfg.Database.SQLitePath)
	assert.Equal(t, 700, cfg.Pipeline.ChunkMaxChars)
	assert.Equal(t, 2*time.Second, cfg.Worker.PollInterval)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = ""
	cfg.Pipeline.ChunkMaxChars = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
	assert.Contains(t, err.Error(), "DB_URL")
	assert.Contains(t, err.Error(), "CHUNK_MAX_CHARS")
}
