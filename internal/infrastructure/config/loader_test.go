package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicyFromBytesParsesMinimalDocument(t *testing.T) {
	doc, err := LoadPolicyFromBytes([]byte(`version: "1.0"`), nil)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
}

func TestLoadPolicyReadsFileFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.0"`), 0o600))

	doc, err := LoadPolicy(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
}

func TestLoadHostConfigMissingFileReturnsEmpty(t *testing.T) {
	cfg, err := LoadHostConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.StoreDir)
}

func TestLoadHostConfigParsesCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store_dir: /tmp/store
credentials:
  - registry: ghcr.io
    username: octocat
    password: hunter2
`), 0o600))

	cfg, err := LoadHostConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/store", cfg.StoreDir)
	require.Len(t, cfg.Credentials, 1)
	assert.Equal(t, "ghcr.io", cfg.Credentials[0].Registry)
}
