package bundle

import (
	"fmt"
	"strings"
)

// MediaTypeModule and MediaTypeConfig are the two content layers of an
// mcpkit bundle manifest, alongside the manifest's own artifact type.
const (
	MediaTypeArtifact = "application/vnd.mcpkit.bundle.v1+json"
	MediaTypeModule   = "application/wasm"
	MediaTypeConfig    = "application/vnd.mcpkit.config+yaml"
)

// Reference identifies a bundle in a registry: registry/repository:tag or
// registry/repository@digest.
type Reference struct {
	Registry   string
	Repository string
	Tag        string
	Digest     string
}

// ParseReference parses a reference string of the form
// "registry.example.com/namespace/name:tag" or "...@sha256:...".
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}, fmt.Errorf("bundle reference: empty string")
	}
	slash := strings.Index(raw, "/")
	if slash < 0 {
		return Reference{}, fmt.Errorf("bundle reference %q: missing registry component", raw)
	}
	registry := raw[:slash]
	rest := raw[slash+1:]

	if at := strings.LastIndex(rest, "@"); at >= 0 {
		repo := rest[:at]
		digest := rest[at+1:]
		if repo == "" || digest == "" {
			return Reference{}, fmt.Errorf("bundle reference %q: malformed digest reference", raw)
		}
		return Reference{Registry: registry, Repository: repo, Digest: digest}, nil
	}

	if colon := strings.LastIndex(rest, ":"); colon >= 0 {
		repo := rest[:colon]
		tag := rest[colon+1:]
		if repo == "" || tag == "" {
			return Reference{}, fmt.Errorf("bundle reference %q: malformed tag reference", raw)
		}
		return Reference{Registry: registry, Repository: repo, Tag: tag}, nil
	}

	return Reference{Registry: registry, Repository: rest, Tag: "latest"}, nil
}

// String renders the reference back into canonical form, preferring digest
// over tag when both are present.
func (r Reference) String() string {
	if r.Digest != "" {
		return fmt.Sprintf("%s/%s@%s", r.Registry, r.Repository, r.Digest)
	}
	tag := r.Tag
	if tag == "" {
		tag = "latest"
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, tag)
}

// CachePath returns the slash-separated path segments used to lay this
// reference out in the local bundle store: registry/repository/tag-or-digest.
func (r Reference) CachePath() []string {
	tail := r.Tag
	if tail == "" {
		tail = strings.ReplaceAll(r.Digest, ":", "_")
	}
	segments := append([]string{r.Registry}, strings.Split(r.Repository, "/")...)
	return append(segments, tail)
}
