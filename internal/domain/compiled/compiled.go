// Package compiled implements the decision-optimized compiled policy (C3):
// exact-match tables, aggregate pattern matchers, compiled storage path
// globs, a bloom filter fronting the network host table, and per-rule
// rate-limit state, all derived from a validated policy.Document.
package compiled

import (
	"fmt"

	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy/match"
)

// ErrInternalPattern is the one permitted decision-time failure: a
// previously-unseen compilation bug. The caller must treat it as deny.
var ErrInternalPattern = fmt.Errorf("compiled: internal_pattern_error")

// CompiledPolicy is an immutable, reference-shared decision structure.
// Invariant I2: it is never mutated after Compile returns; a policy change
// produces a new CompiledPolicy. Invariant I3: every predicate below is
// pure except the rate-limit counters returned by AllowedTool, which
// advance atomically.
type CompiledPolicy struct {
	resourceLimits policy.ResolvedLimits

	storageAllow []storageEntry
	// storageDeny holds only the compiled patterns: invariant I1 means a
	// deny match dominates unconditionally, so no access bits are tracked
	// here (matching the original's is_storage_allowed, which denies on
	// any storage_deny_patterns hit without consulting access).
	storageDeny []*match.PathGlob

	networkAllow []networkEntry
	networkDeny  []networkEntry
	networkBloom *Bloom
	// networkAllowAllExact is true when every allow rule is a literal host
	// (no CIDR range or "*"/"*.suffix" wildcard), making the bloom filter's
	// membership population complete for the allow set: a negative
	// MightContain then rules out an allow decision outright.
	networkAllowAllExact bool

	envAllowExact    map[string]bool
	envAllowPatterns *match.Set
	envDenyExact     map[string]bool
	envDenyPatterns  *match.Set

	toolAllow       []*toolEntry
	toolDenyExact   map[string]bool
	toolDenyPattern *match.Set

	promptAllow []*promptEntry
	promptDeny  []*promptEntry

	resourceAllow []*resourceEntry
	resourceDeny  []*resourceEntry

	transport *policy.TransportPermissions

	// storageAllowPrefixes records the literal directory ancestor of every
	// storage allow rule, for diagnostics ("mcpkit policy explain").
	storageAllowPrefixes []string
}

// storageEntry pairs a compiled path glob (which, unlike a whole-segment
// trie, correctly matches partial-segment patterns such as "*.json" or
// "app-*") with the access bits its allow rule grants.
type storageEntry struct {
	glob *match.PathGlob
	bits policy.Access
}

type networkEntry struct {
	cidr      *match.CIDR
	ports     map[int]bool
	protocols map[string]bool
}

func (e networkEntry) matches(host string, port int, protocol string) bool {
	if !e.cidr.Match(host) {
		return false
	}
	if len(e.ports) > 0 && !e.ports[port] {
		return false
	}
	if len(e.protocols) > 0 && !e.protocols[protocol] {
		return false
	}
	return true
}

type toolEntry struct {
	glob    *match.Glob
	limiter *RateLimiter
}

type promptEntry struct {
	glob      *match.Glob
	maxLength *int
}

type resourceEntry struct {
	glob       *match.Glob
	operations map[string]bool
}

// Compile derives a CompiledPolicy from a validated policy document.
// Compilation is a pure function of doc: compiling the same document twice
// yields two CompiledPolicy values with identical decision behavior.
func Compile(doc *policy.Document) (*CompiledPolicy, error) {
	c := &CompiledPolicy{
		envAllowExact: make(map[string]bool),
		envDenyExact:  make(map[string]bool),
		toolDenyExact: make(map[string]bool),
	}

	limits, err := doc.Core.Resources.Resolve()
	if err != nil {
		return nil, fmt.Errorf("compiled: %w", err)
	}
	c.resourceLimits = limits

	if err := c.compileStorage(doc.Core.Storage); err != nil {
		return nil, err
	}
	if err := c.compileNetwork(doc.Core.Network); err != nil {
		return nil, err
	}
	if err := c.compileEnvironment(doc.Core.Environment); err != nil {
		return nil, err
	}
	if mcp, ok := doc.MCP(); ok {
		if err := c.compileMCP(mcp); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// compileStorage compiles every storage rule into a PathGlob, the way the
// original policy engine backs storage decisions with a glob set
// (crates/mcpkit-rs-policy/src/compiled.rs storage_allow_patterns /
// storage_deny_patterns) rather than a whole-segment trie: a trie edge can
// only be a literal segment, a single-segment "*" wildcard, or a "**"
// terminator, so it cannot express a partial-segment pattern like
// "*.json" or "app-*". PathGlob, backed by bmatcuk/doublestar, can.
func (c *CompiledPolicy) compileStorage(group policy.RuleGroup[policy.StorageRule]) error {
	for _, rule := range group.Allow {
		bits, err := policy.ParseAccess(rule.Access)
		if err != nil {
			return fmt.Errorf("compiled: storage allow rule %q: %w", rule.URI, err)
		}
		g, err := match.CompilePathGlob(rule.URI)
		if err != nil {
			return fmt.Errorf("compiled: storage allow rule %q: %w", rule.URI, err)
		}
		c.storageAllow = append(c.storageAllow, storageEntry{glob: g, bits: bits})
		c.storageAllowPrefixes = append(c.storageAllowPrefixes, g.LiteralPrefixDir())
	}
	for _, rule := range group.Deny {
		// Access tokens are still validated eagerly so a typo fails at
		// compile time, but the tokens themselves are not tracked: a deny
		// match denies unconditionally, regardless of access requested.
		if _, err := policy.ParseAccess(rule.Access); err != nil {
			return fmt.Errorf("compiled: storage deny rule %q: %w", rule.URI, err)
		}
		g, err := match.CompilePathGlob(rule.URI)
		if err != nil {
			return fmt.Errorf("compiled: storage deny rule %q: %w", rule.URI, err)
		}
		c.storageDeny = append(c.storageDeny, g)
	}
	return nil
}

func (c *CompiledPolicy) compileNetwork(group policy.RuleGroup[policy.NetworkRule]) error {
	bloomSize := len(group.Allow) + len(group.Deny)
	c.networkBloom = NewBloom(bloomSize, 0.01)

	compile := func(rules []policy.NetworkRule) ([]networkEntry, error) {
		out := make([]networkEntry, 0, len(rules))
		for _, rule := range rules {
			cidr, err := match.CompileCIDR(rule.Pattern())
			if err != nil {
				return nil, fmt.Errorf("compiled: network rule %q: %w", rule.Pattern(), err)
			}
			entry := networkEntry{cidr: cidr}
			if len(rule.Ports) > 0 {
				entry.ports = make(map[int]bool, len(rule.Ports))
				for _, p := range rule.Ports {
					entry.ports[p] = true
				}
			}
			if len(rule.Protocols) > 0 {
				entry.protocols = make(map[string]bool, len(rule.Protocols))
				for _, p := range rule.Protocols {
					entry.protocols[p] = true
				}
			}
			if cidr.IsExact() {
				c.networkBloom.Add(rule.Pattern())
			}
			out = append(out, entry)
		}
		return out, nil
	}

	var err error
	c.networkAllow, err = compile(group.Allow)
	if err != nil {
		return err
	}
	c.networkDeny, err = compile(group.Deny)
	if err != nil {
		return err
	}

	c.networkAllowAllExact = true
	for _, e := range c.networkAllow {
		if !e.cidr.IsExact() {
			c.networkAllowAllExact = false
			break
		}
	}
	return nil
}

func (c *CompiledPolicy) compileEnvironment(group policy.RuleGroup[policy.EnvironmentRule]) error {
	var allowPatterns, denyPatterns []string
	for _, rule := range group.Allow {
		if isLiteral(rule.Key) {
			c.envAllowExact[rule.Key] = true
		} else {
			allowPatterns = append(allowPatterns, rule.Key)
		}
	}
	for _, rule := range group.Deny {
		if isLiteral(rule.Key) {
			c.envDenyExact[rule.Key] = true
		} else {
			denyPatterns = append(denyPatterns, rule.Key)
		}
	}
	var err error
	c.envAllowPatterns, err = match.NewSet(allowPatterns)
	if err != nil {
		return fmt.Errorf("compiled: environment allow pattern: %w", err)
	}
	c.envDenyPatterns, err = match.NewSet(denyPatterns)
	if err != nil {
		return fmt.Errorf("compiled: environment deny pattern: %w", err)
	}
	return nil
}

func isLiteral(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[', '{':
			return false
		}
	}
	return true
}

func (c *CompiledPolicy) compileMCP(mcp *policy.McpPermissions) error {
	if mcp.Tools != nil {
		for _, rule := range mcp.Tools.Allow {
			g, err := match.CompileGlob(rule.Name)
			if err != nil {
				return fmt.Errorf("compiled: mcp.tools allow rule %q: %w", rule.Name, err)
			}
			var limit uint32
			if rule.MaxCallsPerMinute != nil {
				limit = *rule.MaxCallsPerMinute
			}
			c.toolAllow = append(c.toolAllow, &toolEntry{glob: g, limiter: NewRateLimiter(limit)})
		}
		var denyPatterns []string
		for _, rule := range mcp.Tools.Deny {
			if isLiteral(rule.Name) {
				c.toolDenyExact[rule.Name] = true
			} else {
				denyPatterns = append(denyPatterns, rule.Name)
			}
		}
		var err error
		c.toolDenyPattern, err = match.NewSet(denyPatterns)
		if err != nil {
			return fmt.Errorf("compiled: mcp.tools deny pattern: %w", err)
		}
	} else {
		c.toolDenyPattern, _ = match.NewSet(nil)
	}

	if mcp.Prompts != nil {
		for _, rule := range mcp.Prompts.Allow {
			g, err := match.CompileGlob(rule.Name)
			if err != nil {
				return fmt.Errorf("compiled: mcp.prompts allow rule %q: %w", rule.Name, err)
			}
			c.promptAllow = append(c.promptAllow, &promptEntry{glob: g, maxLength: rule.MaxLength})
		}
		for _, rule := range mcp.Prompts.Deny {
			g, err := match.CompileGlob(rule.Name)
			if err != nil {
				return fmt.Errorf("compiled: mcp.prompts deny rule %q: %w", rule.Name, err)
			}
			c.promptDeny = append(c.promptDeny, &promptEntry{glob: g})
		}
	}

	if mcp.Resources != nil {
		build := func(rules []policy.ResourceRule) ([]*resourceEntry, error) {
			out := make([]*resourceEntry, 0, len(rules))
			for _, rule := range rules {
				g, err := match.CompileGlob(rule.URI)
				if err != nil {
					return nil, fmt.Errorf("compiled: mcp.resources rule %q: %w", rule.URI, err)
				}
				ops := make(map[string]bool, len(rule.Operations))
				for _, op := range rule.Operations {
					ops[op] = true
				}
				out = append(out, &resourceEntry{glob: g, operations: ops})
			}
			return out, nil
		}
		var err error
		c.resourceAllow, err = build(mcp.Resources.Allow)
		if err != nil {
			return err
		}
		c.resourceDeny, err = build(mcp.Resources.Deny)
		if err != nil {
			return err
		}
	}

	c.transport = mcp.Transport
	return nil
}

// ResourceLimits returns the resolved (cpu, memory, execution_time, fuel)
// tuple for sandbox construction.
func (c *CompiledPolicy) ResourceLimits() policy.ResolvedLimits {
	return c.resourceLimits
}

// StorageAllowPrefixes returns the literal directory ancestor of every
// storage allow rule, printed by "mcpkit policy explain". The capability
// mapper does not read it; it derives preopens from the document's rules.
func (c *CompiledPolicy) StorageAllowPrefixes() []string {
	return c.storageAllowPrefixes
}

// AllowedStorage decides a (path, access) action against the compiled
// storage glob sets. path must already be canonicalized (invariant I4).
// The decision cache, if non-nil, is consulted first and populated on miss.
func (c *CompiledPolicy) AllowedStorage(path string, access policy.Access, cache *DecisionCache) bool {
	key := fmt.Sprintf("storage:%s:%d", path, access)
	if v, ok := cache.get(key); ok {
		return v
	}
	// Invariant I1: a matching deny rule dominates unconditionally, the
	// same way the original's is_storage_allowed short-circuits to false
	// on any storage_deny_patterns hit without consulting access bits.
	for _, g := range c.storageDeny {
		if g.Match(path) {
			cache.put(key, false)
			return false
		}
	}
	var allowBits policy.Access
	allowed := false
	for _, e := range c.storageAllow {
		if e.glob.Match(path) {
			allowed = true
			allowBits |= e.bits
		}
	}
	decision := allowed && allowBits.Has(access)
	cache.put(key, decision)
	return decision
}

// AllowedNetwork decides a (host, port, protocol) egress action. The bloom
// filter is consulted only as a fast negative pre-check against the exact
// host population; every allow/deny rule, including CIDR and wildcard
// rules, is still evaluated on a bloom hit or when the filter is empty.
func (c *CompiledPolicy) AllowedNetwork(host string, port int, protocol string, cache *DecisionCache) bool {
	key := fmt.Sprintf("network:%s:%d:%s", host, port, protocol)
	if v, ok := cache.get(key); ok {
		return v
	}
	decision := false
	for _, e := range c.networkDeny {
		if e.matches(host, port, protocol) {
			cache.put(key, false)
			return false
		}
	}
	// Fast negative pre-filter (spec §4.3): when every allow rule is an
	// exact host, the bloom filter's population is exhaustive for the
	// allow set, so a miss here rules out an allow decision without
	// walking the allow list at all.
	if c.networkAllowAllExact && !c.networkBloom.MightContain(host) {
		cache.put(key, false)
		return false
	}
	for _, e := range c.networkAllow {
		if e.matches(host, port, protocol) {
			decision = true
			break
		}
	}
	cache.put(key, decision)
	return decision
}

// AllowedEnv decides whether an environment variable may be read.
func (c *CompiledPolicy) AllowedEnv(key string, cache *DecisionCache) bool {
	cacheKey := "env:" + key
	if v, ok := cache.get(cacheKey); ok {
		return v
	}
	if c.envDenyExact[key] || c.envDenyPatterns.MatchAny(key) {
		cache.put(cacheKey, false)
		return false
	}
	decision := c.envAllowExact[key] || c.envAllowPatterns.MatchAny(key)
	cache.put(cacheKey, decision)
	return decision
}

// AllowedTool decides whether a tool name may be invoked. On allow, it
// also returns the rate-limit handle belonging to the matched allow rule,
// which the caller must advance with Allow before performing the
// operation (spec §4.5(c)).
func (c *CompiledPolicy) AllowedTool(name string) (bool, *RateLimiter) {
	if c.toolDenyExact[name] || (c.toolDenyPattern != nil && c.toolDenyPattern.MatchAny(name)) {
		return false, nil
	}
	for _, e := range c.toolAllow {
		if e.glob.Match(name) {
			return true, e.limiter
		}
	}
	return false, nil
}

// AllowedPrompt decides whether a prompt may be retrieved, returning its
// configured maximum rendered length, if any.
func (c *CompiledPolicy) AllowedPrompt(name string) (allowed bool, maxLength *int) {
	for _, e := range c.promptDeny {
		if e.glob.Match(name) {
			return false, nil
		}
	}
	for _, e := range c.promptAllow {
		if e.glob.Match(name) {
			return true, e.maxLength
		}
	}
	return false, nil
}

// AllowedResource decides whether a resource URI supports a given
// operation (read, write, list).
func (c *CompiledPolicy) AllowedResource(uri, operation string) bool {
	for _, e := range c.resourceDeny {
		if e.glob.Match(uri) && e.operations[operation] {
			return false
		}
	}
	for _, e := range c.resourceAllow {
		if e.glob.Match(uri) && e.operations[operation] {
			return true
		}
	}
	return false
}

// TransportAllowed decides whether a transport kind ("stdio", "http",
// "websocket") may be used, and for "http" whether host is in the
// configured allowed_hosts set.
func (c *CompiledPolicy) TransportAllowed(kind, host string) bool {
	if c.transport == nil {
		return false
	}
	switch kind {
	case "stdio":
		return c.transport.Stdio
	case "websocket":
		return c.transport.WebSocket
	case "http":
		if c.transport.HTTP == nil {
			return false
		}
		if host == "" {
			return true
		}
		for _, h := range c.transport.HTTP.AllowedHosts {
			if h == host || h == "*" {
				return true
			}
		}
		return false
	default:
		return false
	}
}
