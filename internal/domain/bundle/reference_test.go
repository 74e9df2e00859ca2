package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReferenceTag(t *testing.T) {
	ref, err := ParseReference("registry.example.com/org/tool:1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "registry.example.com", ref.Registry)
	assert.Equal(t, "org/tool", ref.Repository)
	assert.Equal(t, "1.2.3", ref.Tag)
	assert.Equal(t, "registry.example.com/org/tool:1.2.3", ref.String())
}

func TestParseReferenceDigest(t *testing.T) {
	ref, err := ParseReference("registry.example.com/org/tool@sha256:deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "sha256:deadbeef", ref.Digest)
	assert.Equal(t, "registry.example.com/org/tool@sha256:deadbeef", ref.String())
}

func TestParseReferenceDefaultsToLatest(t *testing.T) {
	ref, err := ParseReference("registry.example.com/org/tool")
	require.NoError(t, err)
	assert.Equal(t, "latest", ref.Tag)
}

func TestParseReferenceRejectsMissingRegistry(t *testing.T) {
	_, err := ParseReference("toolonly:1.0")
	require.Error(t, err)
}

func TestCachePath(t *testing.T) {
	ref, err := ParseReference("registry.example.com/org/tool:1.2.3")
	require.NoError(t, err)
	assert.Equal(t, []string{"registry.example.com", "org", "tool", "1.2.3"}, ref.CachePath())
}
