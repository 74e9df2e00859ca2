package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/mcpkit-dev/mcpkit/internal/mcperr"
)

// LoadPolicy reads the policy document at path, applies environment
// interpolation, and parses it against registry. A nil registry uses
// policy.DefaultRegistry.
func LoadPolicy(path string, registry *policy.Registry) (*policy.Document, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindConfiguration, "open policy directory", err)
	}
	defer func() { _ = root.Close() }()

	raw, err := readFileFromRoot(root, base)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindConfiguration, "read policy file", err)
	}

	return LoadPolicyFromBytes(raw, registry)
}

// LoadPolicyFromBytes interpolates and parses raw policy YAML already
// held in memory, the path Substitute -> policy.Parse takes regardless
// of whether the bytes came from disk, an OCI bundle's config layer, or
// a test fixture.
func LoadPolicyFromBytes(raw []byte, registry *policy.Registry) (*policy.Document, error) {
	interpolated, err := Substitute(raw, nil)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindConfiguration, "interpolate policy variables", err)
	}

	doc, err := policy.Parse(interpolated, registry)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindConfiguration, "parse policy document", err)
	}
	return doc, nil
}

// HostConfig is the top-level configuration for the mcpkit CLI/daemon:
// registry credentials and the local bundle cache directory. It carries
// no resource limits; those come only from the policy document. It is
// loaded from $HOME/.mcpkit.yaml (or --config) the same
// way viper would, but decoded with go-yaml directly so its shape
// matches the policy document's decoder rather than viper's looser
// mapstructure semantics.
type HostConfig struct {
	StoreDir    string            `yaml:"store_dir"`
	Registries  map[string]string `yaml:"registries"`
	Credentials []CredentialEntry `yaml:"credentials"`
}

// CredentialEntry is one registry's static credentials in the host
// config file, kept separate from registry.Credential so config
// decoding doesn't reach into the registry package's wire types.
type CredentialEntry struct {
	Registry string `yaml:"registry"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
}

// LoadHostConfig reads and interpolates a host configuration file. A
// missing file is not an error: it returns an empty HostConfig so the
// CLI can fall back to built-in defaults.
func LoadHostConfig(path string) (*HostConfig, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return &HostConfig{}, nil
		}
		return nil, mcperr.Wrap(mcperr.KindConfiguration, "read host config", err)
	}

	interpolated, err := Substitute(raw, nil)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindConfiguration, "interpolate host config variables", err)
	}

	var cfg HostConfig
	if err := yaml.Unmarshal(interpolated, &cfg); err != nil {
		return nil, mcperr.Wrap(mcperr.KindConfiguration, "parse host config", err)
	}
	return &cfg, nil
}

// DefaultHostConfigPath returns $HOME/.mcpkit.yaml.
func DefaultHostConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".mcpkit.yaml"), nil
}

// DefaultStoreDir returns $HOME/.mcpkit/store, the default bundle cache
// location when HostConfig.StoreDir is unset.
func DefaultStoreDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".mcpkit", "store"), nil
}

func readFileFromRoot(root *os.Root, name string) ([]byte, error) {
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, info.Size())
	if _, err := f.Read(buf); err != nil && info.Size() > 0 {
		return nil, err
	}
	return buf, nil
}
