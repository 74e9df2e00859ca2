package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	dir := t.TempDir()
	c, err := New(Options{
		HostConfigPath: filepath.Join(dir, "missing-config.yaml"),
		StoreDir:       filepath.Join(dir, "store"),
	})
	require.NoError(t, err)
	return c
}

func TestNewBuildsContainerWithDefaults(t *testing.T) {
	c := newTestContainer(t)
	assert.NotNil(t, c.Store())
	assert.NotNil(t, c.Registry())
	assert.NotNil(t, c.Logger())
}

func TestLoadPolicyInterpolatesAndParses(t *testing.T) {
	c := newTestContainer(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: "1.0"`), 0o600))

	doc, err := c.LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
}

func TestPullRejectsMalformedReference(t *testing.T) {
	c := newTestContainer(t)
	_, _, err := c.Pull(context.Background(), "not a reference")
	assert.Error(t, err)
}

func TestPushRejectsMalformedReference(t *testing.T) {
	c := newTestContainer(t)
	_, err := c.Push(context.Background(), "not a reference", nil, nil, nil)
	assert.Error(t, err)
}

func TestPrecompiledPathRejectsMalformedReference(t *testing.T) {
	c := newTestContainer(t)
	_, err := c.PrecompiledPath("not a reference")
	assert.Error(t, err)
}

func TestCachedBundleRejectsMalformedReference(t *testing.T) {
	c := newTestContainer(t)
	_, _, err := c.CachedBundle("not a reference")
	assert.Error(t, err)
}
