package policy

import "sync"

// Permission is the opaque value a policy extension returns after parsing
// its subtree. The core never inspects a Permission's internals directly;
// it only validates it and, for extensions the compiled-policy layer knows
// about, type-asserts to the concrete type.
type Permission interface {
	// Validate checks the permission's internal consistency (e.g. no rule
	// has an empty name). It never panics on malformed input.
	Validate() error
}

// Extension is a registered handler for one top-level policy document key
// outside the built-in core groups. Modeled as a closed enumeration of
// built-in groups plus a registry keyed by string identifier, per the
// design notes: tagged variants over open inheritance, so the compiled
// policy shape stays statically analyzable even though new extensions can
// be registered at runtime.
type Extension interface {
	// ID is the top-level document key this extension owns (e.g. "mcp").
	ID() string
	// ParseSubtree decodes raw YAML bytes scoped to this extension's own
	// subtree into a Permission value.
	ParseSubtree(raw []byte) (Permission, error)
}

// Registry maps extension identifiers to their handlers. It mirrors the
// capability-extractor registry pattern: a string-keyed map guarded by an
// RWMutex, safe for concurrent registration and lookup.
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]Extension
}

// NewRegistry returns an empty extension registry.
func NewRegistry() *Registry {
	return &Registry{extensions: make(map[string]Extension)}
}

// Register adds or replaces the handler for ext.ID().
func (r *Registry) Register(ext Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions[ext.ID()] = ext
}

// Get retrieves the handler registered for id, if any.
func (r *Registry) Get(id string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.extensions[id]
	return ext, ok
}

// DefaultRegistry returns a registry with every built-in extension this
// repository ships registered: currently just "mcp".
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&McpExtension{})
	return r
}
