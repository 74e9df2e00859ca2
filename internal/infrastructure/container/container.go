// Package container wires mcpkit's domain and infrastructure packages into
// one dependency graph, the same composition-root role reglet's container
// package plays: the CLI layer asks for a fully assembled Container and
// never constructs a policy compiler, registry client, or bundle store on
// its own.
package container

import (
	"context"
	"log/slog"

	"github.com/mcpkit-dev/mcpkit/internal/domain/bundle"
	"github.com/mcpkit-dev/mcpkit/internal/domain/capmap"
	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/build"
	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/config"
	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/registry"
	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/sandbox"
	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/store"
	"github.com/mcpkit-dev/mcpkit/internal/mcperr"
)

// Container holds every long-lived dependency the CLI needs.
type Container struct {
	logger         *slog.Logger
	hostConfig     *config.HostConfig
	policyRegistry *policy.Registry
	store          *store.Store
	registry       *registry.Client
}

// Options configure container construction. An empty Options builds a
// Container from on-disk defaults: $HOME/.mcpkit.yaml for host config and
// $HOME/.docker/config.json for registry credentials.
type Options struct {
	Logger         *slog.Logger
	HostConfigPath string
	StoreDir       string
	PolicyRegistry *policy.Registry
	Insecure       bool
	BuildInfo      *build.Info
}

// New assembles a Container from Options, applying the same fallback chain
// reglet's container.New uses for system config: an explicit path wins,
// otherwise the default location is tried and a missing file silently
// falls back to defaults rather than failing startup.
func New(opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hostConfigPath := opts.HostConfigPath
	if hostConfigPath == "" {
		if p, err := config.DefaultHostConfigPath(); err == nil {
			hostConfigPath = p
		}
	}

	hostConfig := &config.HostConfig{}
	if hostConfigPath != "" {
		loaded, err := config.LoadHostConfig(hostConfigPath)
		if err != nil {
			logger.Debug("failed to load host config, using defaults", "error", err)
		} else {
			hostConfig = loaded
		}
	}

	storeDir := opts.StoreDir
	if storeDir == "" {
		storeDir = hostConfig.StoreDir
	}
	if storeDir == "" {
		d, err := config.DefaultStoreDir()
		if err != nil {
			return nil, mcperr.Wrap(mcperr.KindConfiguration, "determine default store directory", err)
		}
		storeDir = d
	}

	bundleStore, err := store.New(storeDir)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindIO, "open bundle store", err)
	}

	creds := resolveCredentials(hostConfig, logger)

	info := build.Get()
	if opts.BuildInfo != nil {
		info = *opts.BuildInfo
	}

	registryClient := registry.NewClient(creds, info).WithInsecure(opts.Insecure)

	policyRegistry := opts.PolicyRegistry
	if policyRegistry == nil {
		policyRegistry = policy.DefaultRegistry()
	}

	return &Container{
		logger:         logger,
		hostConfig:     hostConfig,
		policyRegistry: policyRegistry,
		store:          bundleStore,
		registry:       registryClient,
	}, nil
}

// resolveCredentials picks one credential source: when the host config
// file lists any credentials, those are used alone; otherwise the ambient
// docker config.json is used. The two are not merged, so a registry absent
// from a non-empty host config list gets no docker-config fallback.
func resolveCredentials(hostConfig *config.HostConfig, logger *slog.Logger) registry.CredentialStore {
	static := registry.StaticCredentialStore{}
	for _, entry := range hostConfig.Credentials {
		static[entry.Registry] = registry.Credential{
			Username: entry.Username,
			Password: entry.Password,
			Token:    entry.Token,
		}
	}
	resolved := registry.ResolveEnvRefs(toCredentialMap(static), config.OSLookup)

	if len(resolved) > 0 {
		return resolved
	}

	dockerStore, err := registry.LoadDockerCredentialStore(registry.DefaultDockerConfigPath())
	if err != nil {
		logger.Debug("no docker credential store found, registries will be accessed anonymously", "error", err)
		return resolved
	}
	return dockerStore
}

func toCredentialMap(s registry.StaticCredentialStore) map[string]registry.Credential {
	out := make(map[string]registry.Credential, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Logger returns the container's configured logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Store returns the local content-addressed bundle store.
func (c *Container) Store() *store.Store { return c.store }

// Registry returns the OCI registry client.
func (c *Container) Registry() *registry.Client { return c.registry }

// LoadPolicy loads and interpolates the policy document at path against
// the container's extension registry.
func (c *Container) LoadPolicy(path string) (*policy.Document, error) {
	return config.LoadPolicy(path, c.policyRegistry)
}

// Pull fetches ref into the local store unless it is already cached,
// implementing the idempotent pull spec §6 requires: a second pull of the
// same digest is a cache hit, not a redundant registry round trip.
func (c *Container) Pull(ctx context.Context, refStr string) (*bundle.Bundle, *store.Metadata, error) {
	ref, err := bundle.ParseReference(refStr)
	if err != nil {
		return nil, nil, mcperr.Wrap(mcperr.KindBundleInvalid, "parse bundle reference", err)
	}

	if c.store.Has(ref) {
		b, meta, err := c.store.Get(ref)
		if err == nil {
			c.logger.Debug("bundle already cached", "ref", ref.String())
			return b, meta, nil
		}
	}

	b, err := c.registry.Pull(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	if _, err := c.store.Put(ctx, ref, b); err != nil {
		return nil, nil, mcperr.Wrap(mcperr.KindIO, "cache pulled bundle", err)
	}

	_, meta, err := c.store.Get(ref)
	if err != nil {
		return nil, nil, mcperr.Wrap(mcperr.KindIO, "read cached bundle metadata", err)
	}
	return b, meta, nil
}

// Push encodes configBytes/moduleBytes into a bundle and publishes it to
// refStr's registry.
func (c *Container) Push(ctx context.Context, refStr string, configBytes, moduleBytes []byte, annotations map[string]string) (bundle.Descriptor, error) {
	ref, err := bundle.ParseReference(refStr)
	if err != nil {
		return bundle.Descriptor{}, mcperr.Wrap(mcperr.KindBundleInvalid, "parse bundle reference", err)
	}
	return c.registry.Push(ctx, ref, configBytes, moduleBytes, annotations)
}

// NewSandbox compiles a policy document, projects it into a capability
// descriptor, and instantiates a sandbox.Host ready to run wasmBytes.
// capOpts controls the environment/scratch-directory projection step;
// the zero value grants no process environment and adds no scratch
// directory.
func (c *Container) NewSandbox(ctx context.Context, doc *policy.Document, wasmBytes []byte, capOpts capmap.Options) (*sandbox.Host, error) {
	compiledPolicy, err := compiled.Compile(doc)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindPolicyValidate, "compile policy", err)
	}

	caps := capmap.Map(doc, compiledPolicy, capOpts)

	host, err := sandbox.New(ctx, wasmBytes, compiledPolicy, caps)
	if err != nil {
		return nil, err
	}
	return host, nil
}

// CachedBundle loads a bundle already present in the local store without
// touching the registry, for runs that load the guest bytes without
// pulling again.
func (c *Container) CachedBundle(refStr string) (*bundle.Bundle, *store.Metadata, error) {
	ref, err := bundle.ParseReference(refStr)
	if err != nil {
		return nil, nil, mcperr.Wrap(mcperr.KindBundleInvalid, "parse bundle reference", err)
	}
	return c.store.Get(ref)
}

// PrecompiledPath returns where a cached bundle's AOT-compiled module
// artifact should live, namespaced under the bundle's own cache entry.
func (c *Container) PrecompiledPath(refStr string) (string, error) {
	ref, err := bundle.ParseReference(refStr)
	if err != nil {
		return "", mcperr.Wrap(mcperr.KindBundleInvalid, "parse bundle reference", err)
	}
	return c.store.PrecompiledPath(ref), nil
}
