package bundle

import (
	"fmt"

	digest "github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Descriptor is a minimal alias of the OCI content descriptor, kept as its
// own name so callers outside this package don't need to import ocispec
// directly for the common case.
type Descriptor = ocispec.Descriptor

// BuildManifest assembles the two-layer OCI manifest a bundle is pushed and
// pulled as: a config descriptor (the policy document) and exactly one
// layer descriptor (the compiled WASM module), per spec §4.6.
func BuildManifest(config, module Descriptor, annotations map[string]string) ocispec.Manifest {
	config.MediaType = MediaTypeConfig
	module.MediaType = MediaTypeModule
	return ocispec.Manifest{
		Versioned:   specs.Versioned{SchemaVersion: 2},
		MediaType:   ocispec.MediaTypeImageManifest,
		ArtifactType: MediaTypeArtifact,
		Config:      config,
		Layers:      []ocispec.Descriptor{module},
		Annotations: annotations,
	}
}

// DescriptorFor computes a content descriptor over raw bytes, the digest
// algorithm fixed at sha256 per spec §4.6's content-addressing requirement.
func DescriptorFor(mediaType string, content []byte) Descriptor {
	return Descriptor{
		MediaType: mediaType,
		Digest:    digest.FromBytes(content),
		Size:      int64(len(content)),
	}
}

// VerifyDescriptor reports whether content matches the digest and size
// recorded in desc, the tamper check spec §4.6 and §8 (scenarios 5-6)
// require before a pulled bundle is trusted.
func VerifyDescriptor(desc Descriptor, content []byte) error {
	if int64(len(content)) != desc.Size {
		return fmt.Errorf("bundle: size mismatch for %s: descriptor says %d bytes, got %d", desc.Digest, desc.Size, len(content))
	}
	got := digest.FromBytes(content)
	if got != desc.Digest {
		return fmt.Errorf("bundle: digest mismatch: descriptor says %s, content hashes to %s", desc.Digest, got)
	}
	if err := desc.Digest.Validate(); err != nil {
		return fmt.Errorf("bundle: invalid digest %q: %w", desc.Digest, err)
	}
	return nil
}
