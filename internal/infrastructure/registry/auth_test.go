package registry

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnvRefsInterpolates(t *testing.T) {
	raw := map[string]Credential{
		"registry.example.com": {Username: "bot", Password: "${REGISTRY_TOKEN}"},
	}
	lookup := func(name string) (string, bool) {
		if name == "REGISTRY_TOKEN" {
			return "s3cr3t", true
		}
		return "", false
	}
	resolved := ResolveEnvRefs(raw, lookup)
	assert.Equal(t, "s3cr3t", resolved["registry.example.com"].Password)
	assert.Equal(t, "bot", resolved["registry.example.com"].Username)
}

func TestResolveEnvRefsLeavesUnresolvedAlone(t *testing.T) {
	raw := map[string]Credential{"r": {Password: "${MISSING}"}}
	resolved := ResolveEnvRefs(raw, func(string) (string, bool) { return "", false })
	assert.Equal(t, "${MISSING}", resolved["r"].Password)
}

func TestLoadDockerCredentialStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	auth := base64.StdEncoding.EncodeToString([]byte("alice:hunter2"))
	cfg := map[string]any{
		"auths": map[string]any{
			"registry.example.com": map[string]string{"auth": auth},
		},
	}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	store, err := LoadDockerCredentialStore(path)
	require.NoError(t, err)
	cred, ok := store.Credential("registry.example.com")
	require.True(t, ok)
	assert.Equal(t, "alice", cred.Username)
	assert.Equal(t, "hunter2", cred.Password)
}

func TestLoadDockerCredentialStoreMissingFileIsEmpty(t *testing.T) {
	store, err := LoadDockerCredentialStore(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	_, ok := store.Credential("anything")
	assert.False(t, ok)
}
