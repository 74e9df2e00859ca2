package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	config := []byte("version: \"1.0\"\n")
	module := []byte("\x00asm\x01\x00\x00\x00fake module bytes")

	b, manifestJSON, err := Encode(config, module, map[string]string{"org.opencontainers.image.title": "demo"})
	require.NoError(t, err)
	require.NotNil(t, b)

	decoded, err := Decode(manifestJSON, config, module)
	require.NoError(t, err)
	assert.Equal(t, config, decoded.Config)
	assert.Equal(t, module, decoded.Module)
	assert.Equal(t, MediaTypeModule, decoded.Manifest.Layers[0].MediaType)
	assert.Equal(t, MediaTypeConfig, decoded.Manifest.Config.MediaType)
}

func TestDecodeRejectsTamperedModule(t *testing.T) {
	config := []byte("version: \"1.0\"\n")
	module := []byte("original module bytes")
	_, manifestJSON, err := Encode(config, module, nil)
	require.NoError(t, err)

	tampered := []byte("tampered module bytes!!")
	_, err = Decode(manifestJSON, config, tampered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification")
}

func TestDecodeRejectsTamperedConfig(t *testing.T) {
	config := []byte("version: \"1.0\"\n")
	module := []byte("module bytes")
	_, manifestJSON, err := Encode(config, module, nil)
	require.NoError(t, err)

	tampered := []byte("version: \"1.0\"\nmcp: {}\n")
	_, err = Decode(manifestJSON, tampered, module)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config blob")
}

func TestDecodeRejectsWrongLayerCount(t *testing.T) {
	_, err := Decode([]byte(`{"schemaVersion":2,"mediaType":"application/vnd.oci.image.manifest.v1+json","config":{"mediaType":"application/vnd.mcpkit.config+yaml","digest":"sha256:aa","size":1},"layers":[]}`), []byte("x"), []byte("y"))
	require.Error(t, err)
}
