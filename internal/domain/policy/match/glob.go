// Package match implements the pattern predicates shared by every
// permission kind: glob, CIDR, and normalized filesystem paths.
package match

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob is a compiled glob matcher over a single pattern. It supports
// doublestar syntax (`*`, `**`, character classes) the way storage and
// tool-name rules are expressed in a policy document.
type Glob struct {
	raw     string
	literal bool
}

// CompileGlob validates pattern syntax eagerly so a malformed pattern is
// rejected at policy-parse time rather than at decision time.
func CompileGlob(pattern string) (*Glob, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern: empty pattern")
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("pattern %q: invalid glob syntax", pattern)
	}
	return &Glob{raw: pattern, literal: !containsMeta(pattern)}, nil
}

// Match reports whether candidate satisfies the compiled pattern.
func (g *Glob) Match(candidate string) bool {
	if g.literal {
		return g.raw == candidate
	}
	ok, err := doublestar.Match(g.raw, candidate)
	return err == nil && ok
}

// String returns the original pattern text.
func (g *Glob) String() string { return g.raw }

// LiteralPrefix returns the longest prefix of the pattern that contains no
// glob metacharacters. The capability mapper (C4) uses this to derive the
// smallest set of directories that cover a set of storage allow patterns.
func (g *Glob) LiteralPrefix() string {
	for i := 0; i < len(g.raw); i++ {
		switch g.raw[i] {
		case '*', '?', '[', '{':
			return g.raw[:i]
		}
	}
	return g.raw
}

func containsMeta(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[', '{', '\\':
			return true
		}
	}
	return false
}

// Set is an aggregate matcher over many compiled glob patterns. It answers
// "does any member match?" in a single pass, as required of rule compilers.
type Set struct {
	globs []*Glob
}

// NewSet compiles every pattern in patterns, failing on the first invalid one.
func NewSet(patterns []string) (*Set, error) {
	s := &Set{globs: make([]*Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := CompileGlob(p)
		if err != nil {
			return nil, err
		}
		s.globs = append(s.globs, g)
	}
	return s, nil
}

// MatchAny reports whether any compiled pattern matches candidate.
func (s *Set) MatchAny(candidate string) bool {
	for _, g := range s.globs {
		if g.Match(candidate) {
			return true
		}
	}
	return false
}

// Len reports the number of compiled patterns in the set.
func (s *Set) Len() int { return len(s.globs) }

// Patterns returns the original pattern text of every member, in
// compilation order.
func (s *Set) Patterns() []string {
	out := make([]string, len(s.globs))
	for i, g := range s.globs {
		out[i] = g.raw
	}
	return out
}
