package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icebridge.yml")

	cfg := DefaultConfig()
	cfg.Warehouse.RootPath = filepath.Join(dir, "warehouse")
	cfg.Watermark.Dir = filepath.Join(dir, "watermarks")
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Warehouse.RootPath, loaded.Warehouse.RootPath)
	assert.Equal(t, cfg.Watermark.Dir, loaded.Watermark.Dir)
}

func TestLoadFromFileMissingRejected(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(os.TempDir(), "does-not-exist-icebridge.yml"))
	assert.Error(t, err)
}

func TestValidateRejectsEmptyWarehouse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warehouse.RootPath = ""
	assert.Error(t, cfg.Validate())
}
