package match

import (
	"fmt"
	"net"
	"strings"
)

// CIDR matches a host pattern that is either a literal hostname, an IPv4/IPv6
// address, or a network prefix in CIDR notation. Hostname rules match
// textually; CIDR rules match by parsing the candidate as an IP and testing
// network containment, grounded on the same net.ParseCIDR idiom used to
// reject private/reserved destinations at the sandbox's network boundary.
type CIDR struct {
	raw     string
	network *net.IPNet
	host    string
}

// CompileCIDR compiles a single network-rule host pattern.
func CompileCIDR(pattern string) (*CIDR, error) {
	if pattern == "" {
		return nil, fmt.Errorf("network pattern: empty pattern")
	}
	if strings.Contains(pattern, "/") {
		_, network, err := net.ParseCIDR(pattern)
		if err != nil {
			return nil, fmt.Errorf("network pattern %q: %w", pattern, err)
		}
		return &CIDR{raw: pattern, network: network}, nil
	}
	return &CIDR{raw: pattern, host: pattern}, nil
}

// Match reports whether host satisfies the compiled rule. host may be a
// hostname (matched against a glob-capable literal/wildcard host pattern) or
// a dotted/colon IP literal (matched against a CIDR network).
func (c *CIDR) Match(host string) bool {
	if c.network != nil {
		ip := net.ParseIP(host)
		if ip == nil {
			return false
		}
		return c.network.Contains(ip)
	}
	if c.host == "*" {
		return true
	}
	if strings.HasPrefix(c.host, "*.") {
		suffix := c.host[1:] // ".example.com"
		return strings.HasSuffix(host, suffix) && host != suffix[1:]
	}
	return c.host == host
}

// String returns the original pattern text.
func (c *CIDR) String() string { return c.raw }

// IsExact reports whether the pattern is a literal host with no wildcard or
// network component, making it eligible for the exact-match table and the
// bloom filter's pre-check population.
func (c *CIDR) IsExact() bool {
	return c.network == nil && !strings.ContainsAny(c.host, "*")
}

// CIDRSet aggregates many compiled network patterns.
type CIDRSet struct {
	members []*CIDR
}

// NewCIDRSet compiles every pattern, failing on the first invalid one.
func NewCIDRSet(patterns []string) (*CIDRSet, error) {
	s := &CIDRSet{members: make([]*CIDR, 0, len(patterns))}
	for _, p := range patterns {
		c, err := CompileCIDR(p)
		if err != nil {
			return nil, err
		}
		s.members = append(s.members, c)
	}
	return s, nil
}

// MatchAny reports whether any compiled pattern matches host.
func (s *CIDRSet) MatchAny(host string) bool {
	for _, c := range s.members {
		if c.Match(host) {
			return true
		}
	}
	return false
}

// Len reports the number of compiled patterns.
func (s *CIDRSet) Len() int { return len(s.members) }

// IsPrivateOrReserved reports whether ip falls within a well-known
// RFC1918/loopback/link-local/multicast/unique-local block. The sandbox's
// network trampoline uses this to refuse egress to private destinations,
// whatever the policy's network rules allow.
func IsPrivateOrReserved(ip net.IP) bool {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

var privateBlocks = mustParseCIDRs([]string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"224.0.0.0/4",
	"0.0.0.0/8",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
	"ff00::/8",
})

func mustParseCIDRs(cidrs []string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, network, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("match: invalid built-in CIDR %q: %v", c, err))
		}
		out = append(out, network)
	}
	return out
}
