package bundle

import (
	"encoding/json"
	"fmt"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Bundle is the decoded, in-memory form of a pulled (or about-to-be-pushed)
// mcpkit bundle: a compiled WASM module paired with the policy document
// that governs its execution.
type Bundle struct {
	Manifest ocispec.Manifest
	Config   []byte // the policy document, as stored (YAML)
	Module   []byte // the compiled WASM binary
}

// Encode builds the manifest for a (config, module) pair and returns the
// assembled Bundle along with the manifest's own JSON bytes, ready to be
// pushed as three separate blobs (config, module, manifest).
func Encode(config, module []byte, annotations map[string]string) (*Bundle, []byte, error) {
	configDesc := DescriptorFor(MediaTypeConfig, config)
	moduleDesc := DescriptorFor(MediaTypeModule, module)
	manifest := BuildManifest(configDesc, moduleDesc, annotations)

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, nil, fmt.Errorf("bundle: encode manifest: %w", err)
	}
	return &Bundle{Manifest: manifest, Config: config, Module: module}, manifestJSON, nil
}

// Decode parses a manifest blob and verifies that the supplied config and
// module blobs match the digests and sizes the manifest records. It
// returns a plain error if not, which the registry client wraps as
// mcperr.KindBundleDigestMismatch: every
// pulled bundle must be fully verified before anything derived from it
// (a compiled policy, a loaded module) is trusted.
func Decode(manifestJSON, config, module []byte) (*Bundle, error) {
	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, fmt.Errorf("bundle: decode manifest: %w", err)
	}
	if manifest.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("bundle: unexpected manifest media type %q", manifest.MediaType)
	}
	if len(manifest.Layers) != 1 {
		return nil, fmt.Errorf("bundle: expected exactly one layer, got %d", len(manifest.Layers))
	}
	if manifest.Config.MediaType != MediaTypeConfig {
		return nil, fmt.Errorf("bundle: config descriptor has unexpected media type %q", manifest.Config.MediaType)
	}
	if manifest.Layers[0].MediaType != MediaTypeModule {
		return nil, fmt.Errorf("bundle: layer descriptor has unexpected media type %q", manifest.Layers[0].MediaType)
	}
	if err := VerifyDescriptor(manifest.Config, config); err != nil {
		return nil, fmt.Errorf("bundle: config blob failed verification: %w", err)
	}
	if err := VerifyDescriptor(manifest.Layers[0], module); err != nil {
		return nil, fmt.Errorf("bundle: module blob failed verification: %w", err)
	}
	return &Bundle{Manifest: manifest, Config: config, Module: module}, nil
}
