// Package store implements the local, content-addressed bundle cache (C8):
// pulled bundles are laid out under a root directory as
// <registry>/<repository>/<tag>/{module.wasm,config.yaml,metadata.json},
// keyed by reference rather than digest so repeated pulls of the same tag
// overwrite in place while a digest-addressed pull is immutable once
// written.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcpkit-dev/mcpkit/internal/domain/bundle"
	"github.com/mcpkit-dev/mcpkit/internal/mcperr"
)

const (
	moduleFileName     = "module.wasm"
	configFileName     = "config.yaml"
	metadataFileName   = "metadata.json"
	precompiledSuffix  = ".precompiled"
)

// Metadata is the bookkeeping record stored alongside a cached bundle's
// blobs, enough to answer "is this still the bundle this reference
// resolves to" without re-contacting the registry.
type Metadata struct {
	Reference  string    `json:"reference"`
	Digest     string    `json:"digest"`
	PulledAt   time.Time `json:"pulled_at"`
	ConfigSize int64     `json:"config_size"`
	ModuleSize int64     `json:"module_size"`
}

// Store is a filesystem-backed bundle cache rooted at Dir.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir, creating it if absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, mcperr.Wrap(mcperr.KindIO, "create store root", err)
	}
	return &Store{Dir: dir}, nil
}

func (s *Store) entryDir(ref bundle.Reference) string {
	return filepath.Join(append([]string{s.Dir}, ref.CachePath()...)...)
}

// Put writes a verified bundle's blobs into the cache under ref, holding
// the entry's file lock for the duration so concurrent Puts on the same
// reference do not interleave. Get does not take the lock.
func (s *Store) Put(ctx context.Context, ref bundle.Reference, b *bundle.Bundle) (string, error) {
	dir := s.entryDir(ref)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", mcperr.Wrap(mcperr.KindIO, "create cache entry dir", err)
	}

	unlock, err := lockEntry(ctx, dir)
	if err != nil {
		return "", err
	}
	defer unlock()

	if err := os.WriteFile(filepath.Join(dir, moduleFileName), b.Module, 0o644); err != nil {
		return "", mcperr.Wrap(mcperr.KindIO, "write module blob", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFileName), b.Config, 0o644); err != nil {
		return "", mcperr.Wrap(mcperr.KindIO, "write config blob", err)
	}

	meta := Metadata{
		Reference:  ref.String(),
		Digest:     string(b.Manifest.Layers[0].Digest),
		PulledAt:   time.Now(),
		ConfigSize: int64(len(b.Config)),
		ModuleSize: int64(len(b.Module)),
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", mcperr.Wrap(mcperr.KindInternal, "marshal cache metadata", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFileName), metaBytes, 0o644); err != nil {
		return "", mcperr.Wrap(mcperr.KindIO, "write cache metadata", err)
	}
	return dir, nil
}

// Get loads a cached bundle for ref, verifying the module blob against the
// recorded digest before returning; the config blob is not re-verified. It returns a KindRegistryNotFound
// error (reused here as "not cached", since the caller's response is the
// same: fall through to a registry pull) if no entry exists.
func (s *Store) Get(ref bundle.Reference) (*bundle.Bundle, *Metadata, error) {
	dir := s.entryDir(ref)
	metaBytes, err := os.ReadFile(filepath.Join(dir, metadataFileName))
	if os.IsNotExist(err) {
		return nil, nil, mcperr.New(mcperr.KindRegistryNotFound, fmt.Sprintf("no cached bundle for %s", ref))
	}
	if err != nil {
		return nil, nil, mcperr.Wrap(mcperr.KindIO, "read cache metadata", err)
	}
	var meta Metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, nil, mcperr.Wrap(mcperr.KindBundleInvalid, "parse cache metadata", err)
	}

	module, err := os.ReadFile(filepath.Join(dir, moduleFileName))
	if err != nil {
		return nil, nil, mcperr.Wrap(mcperr.KindIO, "read cached module", err)
	}
	config, err := os.ReadFile(filepath.Join(dir, configFileName))
	if err != nil {
		return nil, nil, mcperr.Wrap(mcperr.KindIO, "read cached config", err)
	}

	moduleDesc := bundle.DescriptorFor(bundle.MediaTypeModule, module)
	if string(moduleDesc.Digest) != meta.Digest {
		return nil, nil, mcperr.New(mcperr.KindBundleDigestMismatch, fmt.Sprintf("cached module for %s no longer matches recorded digest", ref))
	}

	configDesc := bundle.DescriptorFor(bundle.MediaTypeConfig, config)
	manifest := bundle.BuildManifest(configDesc, moduleDesc, nil)
	return &bundle.Bundle{Manifest: manifest, Config: config, Module: module}, &meta, nil
}

// Has reports whether ref is present in the cache without reading its
// blobs, used by the idempotence short-circuit in a pull workflow.
func (s *Store) Has(ref bundle.Reference) bool {
	_, err := os.Stat(filepath.Join(s.entryDir(ref), metadataFileName))
	return err == nil
}

// PrecompiledPath returns the path a runtime backend should use to cache
// its own compiled-module artifact (e.g. wazero's ahead-of-time cache) for
// ref, namespaced under the bundle's own cache entry so pruning a bundle
// also prunes its precompiled artifact.
func (s *Store) PrecompiledPath(ref bundle.Reference) string {
	return filepath.Join(s.entryDir(ref), moduleFileName+precompiledSuffix)
}

// Delete removes a cache entry entirely.
func (s *Store) Delete(ref bundle.Reference) error {
	if err := os.RemoveAll(s.entryDir(ref)); err != nil {
		return mcperr.Wrap(mcperr.KindIO, "delete cache entry", err)
	}
	return nil
}
