package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcpkit-dev/mcpkit/internal/domain/bundle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBundle(t *testing.T) *bundle.Bundle {
	t.Helper()
	b, _, err := bundle.Encode([]byte("version: \"1.0\"\n"), []byte("fake wasm"), nil)
	require.NoError(t, err)
	return b
}

func TestStorePutGetRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	ref, err := bundle.ParseReference("registry.example.com/org/tool:1.0.0")
	require.NoError(t, err)
	b := newTestBundle(t)

	_, err = s.Put(context.Background(), ref, b)
	require.NoError(t, err)
	assert.True(t, s.Has(ref))

	got, meta, err := s.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, b.Module, got.Module)
	assert.Equal(t, b.Config, got.Config)
	assert.Equal(t, ref.String(), meta.Reference)
}

func TestStoreGetMissingReturnsNotFound(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ref, err := bundle.ParseReference("registry.example.com/org/missing:1.0.0")
	require.NoError(t, err)

	_, _, err = s.Get(ref)
	require.Error(t, err)
}

func TestStoreDelete(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ref, err := bundle.ParseReference("registry.example.com/org/tool:1.0.0")
	require.NoError(t, err)
	_, err = s.Put(context.Background(), ref, newTestBundle(t))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ref))
	assert.False(t, s.Has(ref))
}

func TestStorePruneKeepsMostRecent(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	for _, tag := range []string{"1.0.0", "1.1.0", "1.2.0"} {
		ref, err := bundle.ParseReference("registry.example.com/org/tool:" + tag)
		require.NoError(t, err)
		_, err = s.Put(context.Background(), ref, newTestBundle(t))
		require.NoError(t, err)
	}

	removed, err := s.Prune(1)
	require.NoError(t, err)
	require.Len(t, removed, 2)

	kept, err := s.Index()
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Equal(t, "1.2.0", kept[0].Tag)
}

func TestStoreIndexSkipsIncompleteEntries(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(s.Dir, "registry.example.com", "org", "tool", "1.0.0"), 0o755))
	entries, err := s.Index()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
