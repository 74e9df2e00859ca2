package registry

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"oras.land/oras-go/v2/registry/remote/auth"
)

// Credential is one registry's username/password or bearer token, resolved
// from either an explicit policy-adjacent config value or a
// ${ENV_VAR}-style reference into the process environment.
type Credential struct {
	Username string
	Password string
	Token    string
}

// CredentialStore resolves credentials for a registry hostname. nil is a
// valid CredentialStore value (anonymous access).
type CredentialStore interface {
	Credential(registry string) (Credential, bool)
}

// StaticCredentialStore holds credentials assigned directly, with values
// already having passed through ${VAR} interpolation.
type StaticCredentialStore map[string]Credential

func (s StaticCredentialStore) Credential(registry string) (Credential, bool) {
	c, ok := s[registry]
	return c, ok
}

// ResolveEnvRefs interpolates "${VAR}" tokens in username/password/token
// fields against the process environment, the same substitution syntax
// SPEC_FULL.md's configuration loader uses elsewhere so credentials files
// don't need a second templating convention.
func ResolveEnvRefs(raw map[string]Credential, lookup func(string) (string, bool)) StaticCredentialStore {
	out := make(StaticCredentialStore, len(raw))
	for host, cred := range raw {
		out[host] = Credential{
			Username: interpolate(cred.Username, lookup),
			Password: interpolate(cred.Password, lookup),
			Token:    interpolate(cred.Token, lookup),
		}
	}
	return out
}

func interpolate(s string, lookup func(string) (string, bool)) string {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return s
	}
	name := s[2 : len(s)-1]
	if v, ok := lookup(name); ok {
		return v
	}
	return s
}

// dockerConfigEntry mirrors the subset of ~/.docker/config.json this
// package reads: per-registry base64("user:pass") auth. Other fields, such
// as identity tokens, are not read.
type dockerConfigEntry struct {
	Auth string `json:"auth"`
}

type dockerConfig struct {
	Auths map[string]dockerConfigEntry `json:"auths"`
}

// DockerCredentialStore reads credentials from a docker-style config.json,
// the de facto standard format registry CLIs already use.
type DockerCredentialStore struct {
	entries map[string]Credential
}

// LoadDockerCredentialStore parses path (typically ~/.docker/config.json).
// A missing file is not an error — it behaves as an empty store.
func LoadDockerCredentialStore(path string) (*DockerCredentialStore, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &DockerCredentialStore{entries: map[string]Credential{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg dockerConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	entries := make(map[string]Credential, len(cfg.Auths))
	for host, entry := range cfg.Auths {
		decoded, err := base64.StdEncoding.DecodeString(entry.Auth)
		if err != nil {
			continue
		}
		user, pass, ok := strings.Cut(string(decoded), ":")
		if !ok {
			continue
		}
		entries[host] = Credential{Username: user, Password: pass}
	}
	return &DockerCredentialStore{entries: entries}, nil
}

// DefaultDockerConfigPath returns the conventional ~/.docker/config.json
// location for the current user.
func DefaultDockerConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docker", "config.json")
}

func (s *DockerCredentialStore) Credential(registry string) (Credential, bool) {
	c, ok := s.entries[registry]
	return c, ok
}

// httpClient builds the oras-go auth.Client this registry's requests use,
// attaching the resolved credential (if any) and the mcpkit User-Agent.
func (c *Client) httpClient(registryHost string) *auth.Client {
	authClient := &auth.Client{
		Client:     http.DefaultClient,
		Cache:      auth.NewCache(),
		ClientID:   c.info.UserAgent(),
		Header:     http.Header{"User-Agent": []string{c.info.UserAgent()}},
	}
	if c.credentials == nil {
		return authClient
	}
	cred, ok := c.credentials.Credential(registryHost)
	if !ok {
		return authClient
	}
	authClient.Credential = func(_ context.Context, _ string) (auth.Credential, error) {
		if cred.Token != "" {
			return auth.Credential{RefreshToken: cred.Token}, nil
		}
		return auth.Credential{Username: cred.Username, Password: cred.Password}, nil
	}
	return authClient
}
