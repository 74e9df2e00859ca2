// Package registry implements the OCI registry client (C7): pushing and
// pulling mcpkit bundles as two-layer OCI artifacts via oras-go.
package registry

import (
	"context"
	"fmt"
	"io"

	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/memory"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/mcpkit-dev/mcpkit/internal/domain/bundle"
	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/build"
	"github.com/mcpkit-dev/mcpkit/internal/mcperr"
)

// Client pushes and pulls bundles against OCI-compliant registries.
type Client struct {
	credentials CredentialStore
	info        build.Info
	insecure    bool
}

// NewClient constructs a registry Client. credentials may be nil, in which
// case every repository is accessed anonymously.
func NewClient(credentials CredentialStore, info build.Info) *Client {
	return &Client{credentials: credentials, info: info}
}

// WithInsecure allows plain HTTP against registries that don't serve TLS,
// for local development registries only.
func (c *Client) WithInsecure(insecure bool) *Client {
	c.insecure = insecure
	return c
}

func (c *Client) repository(ref bundle.Reference) (*remote.Repository, error) {
	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", ref.Registry, ref.Repository))
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindRegistryFatal, "construct repository client", err)
	}
	repo.PlainHTTP = c.insecure
	repo.Client = c.httpClient(ref.Registry)
	return repo, nil
}

// Push uploads config and module blobs and the manifest that ties them
// together, tagging the result with ref's tag (or leaving it untagged if
// ref carries only a digest).
func (c *Client) Push(ctx context.Context, ref bundle.Reference, config, module []byte, annotations map[string]string) (bundle.Descriptor, error) {
	repo, err := c.repository(ref)
	if err != nil {
		return bundle.Descriptor{}, err
	}

	src := memory.New()
	configDesc := bundle.DescriptorFor(bundle.MediaTypeConfig, config)
	moduleDesc := bundle.DescriptorFor(bundle.MediaTypeModule, module)
	manifest := bundle.BuildManifest(configDesc, moduleDesc, annotations)

	if err := src.Push(ctx, configDesc, io.NopCloser(newReader(config))); err != nil {
		return bundle.Descriptor{}, mcperr.Wrap(mcperr.KindIO, "stage config blob", err)
	}
	if err := src.Push(ctx, moduleDesc, io.NopCloser(newReader(module))); err != nil {
		return bundle.Descriptor{}, mcperr.Wrap(mcperr.KindIO, "stage module blob", err)
	}

	manifestDesc, err := oras.PackManifest(ctx, src, oras.PackManifestVersion1_1, bundle.MediaTypeArtifact, oras.PackManifestOptions{
		Layers:              manifest.Layers,
		ConfigDescriptor:    &manifest.Config,
		ManifestAnnotations: annotations,
	})
	if err != nil {
		return bundle.Descriptor{}, mcperr.Wrap(mcperr.KindRegistryFatal, "pack manifest", err)
	}

	tag := ref.Tag
	if tag == "" {
		tag = string(manifestDesc.Digest)
	}

	var pushErr error
	err = withRetry(ctx, func() error {
		_, pushErr = oras.Copy(ctx, src, tag, repo, tag, oras.DefaultCopyOptions)
		return classify(pushErr)
	})
	if err != nil {
		return bundle.Descriptor{}, err
	}
	return manifestDesc, nil
}

// Pull downloads and verifies the bundle ref resolves to.
func (c *Client) Pull(ctx context.Context, ref bundle.Reference) (*bundle.Bundle, error) {
	repo, err := c.repository(ref)
	if err != nil {
		return nil, err
	}

	resolveTarget := ref.Tag
	if ref.Digest != "" {
		resolveTarget = ref.Digest
	}

	dst := memory.New()
	var manifestDesc bundle.Descriptor
	err = withRetry(ctx, func() error {
		var copyErr error
		manifestDesc, copyErr = oras.Copy(ctx, repo, resolveTarget, dst, resolveTarget, oras.DefaultCopyOptions)
		return classify(copyErr)
	})
	if err != nil {
		return nil, err
	}

	manifestJSON, err := fetchAll(ctx, dst, manifestDesc)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindIO, "fetch manifest", err)
	}

	var manifest struct {
		Config bundle.Descriptor   `json:"config"`
		Layers []bundle.Descriptor `json:"layers"`
	}
	if err := unmarshalManifest(manifestJSON, &manifest); err != nil {
		return nil, mcperr.Wrap(mcperr.KindBundleInvalid, "parse manifest", err)
	}
	if len(manifest.Layers) != 1 {
		return nil, mcperr.New(mcperr.KindBundleInvalid, fmt.Sprintf("expected one layer, got %d", len(manifest.Layers)))
	}

	config, err := fetchAll(ctx, dst, manifest.Config)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindIO, "fetch config blob", err)
	}
	module, err := fetchAll(ctx, dst, manifest.Layers[0])
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindIO, "fetch module blob", err)
	}

	b, err := bundle.Decode(manifestJSON, config, module)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindBundleDigestMismatch, "verify pulled bundle", err)
	}
	return b, nil
}

// Resolve returns the manifest descriptor ref currently points to, without
// downloading its blobs — used to check for updates before a full pull.
func (c *Client) Resolve(ctx context.Context, ref bundle.Reference) (bundle.Descriptor, error) {
	repo, err := c.repository(ref)
	if err != nil {
		return bundle.Descriptor{}, err
	}
	target := ref.Tag
	if ref.Digest != "" {
		target = ref.Digest
	}
	var desc bundle.Descriptor
	err = withRetry(ctx, func() error {
		var resolveErr error
		desc, resolveErr = repo.Resolve(ctx, target)
		return classify(resolveErr)
	})
	return desc, err
}
