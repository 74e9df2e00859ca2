package match

import (
	"path"
	"path/filepath"
	"strings"
)

// CanonicalizePath strips an fs:// scheme prefix and resolves "." and ".."
// components, matching invariant I4: storage decisions are made on the
// canonical path, never the raw request string. Symlinks are resolved by
// the caller when the runtime backend exposes a resolver (see the sandbox
// host); this function only performs lexical canonicalization.
func CanonicalizePath(raw string) string {
	p := strings.TrimPrefix(raw, "fs://")
	if p == "" {
		p = "/"
	}
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// PathGlob compiles a storage-rule pattern (already fs://-stripped and
// cleaned by the caller) into a glob matcher operating on canonicalized
// paths, where the separator is always "/".
type PathGlob struct {
	glob *Glob
}

// CompilePathGlob compiles pattern, canonicalizing it first so that a
// pattern written as "fs:///tmp/**" and one written as "/tmp/**" compile
// identically.
func CompilePathGlob(pattern string) (*PathGlob, error) {
	clean := CanonicalizePath(pattern)
	// Canonicalization via path.Clean collapses a trailing "/**" suffix's
	// double slash but otherwise preserves glob metacharacters verbatim.
	if strings.HasSuffix(pattern, "/**") && !strings.HasSuffix(clean, "/**") {
		clean += "/**"
	}
	// A bare "*" names every path in the storage group, not only the
	// entries directly under "/".
	if pattern == "*" {
		clean = "/**"
	}
	g, err := CompileGlob(clean)
	if err != nil {
		return nil, err
	}
	return &PathGlob{glob: g}, nil
}

// Match reports whether a canonicalized candidate path satisfies the pattern.
func (p *PathGlob) Match(candidate string) bool {
	return p.glob.Match(candidate)
}

// String returns the original (canonicalized) pattern text.
func (p *PathGlob) String() string { return p.glob.String() }

// LiteralPrefixDir returns the deepest directory that is a literal
// (non-glob) ancestor of the pattern, used by the capability mapper to
// derive preopen directories.
func (p *PathGlob) LiteralPrefixDir() string {
	prefix := p.glob.LiteralPrefix()
	if prefix == "" || prefix == "/" {
		return "/"
	}
	if strings.HasSuffix(prefix, "/") {
		return strings.TrimSuffix(prefix, "/")
	}
	return path.Dir(prefix)
}
