package policy

import "strings"

// Access is a bitset of storage operations a rule grants or denies.
// Invariant: write always implies the mutate bit (spec §9 open question,
// resolved here by folding write into mutate rather than adding a
// separate flag).
type Access uint8

const (
	AccessRead Access = 1 << iota
	AccessWrite
	AccessCreate
	AccessDelete
	AccessExecute
)

var accessNames = map[string]Access{
	"read":    AccessRead,
	"write":   AccessWrite,
	"create":  AccessCreate,
	"delete":  AccessDelete,
	"execute": AccessExecute,
}

// ParseAccess converts a list of access-set tokens (as written in a policy
// document) into an Access bitset. An unrecognized token is an error so
// typos fail at parse time rather than silently granting nothing.
func ParseAccess(tokens []string) (Access, error) {
	var a Access
	for _, tok := range tokens {
		bit, ok := accessNames[strings.ToLower(strings.TrimSpace(tok))]
		if !ok {
			return 0, &ParseError{Path: "access", Message: "unrecognized storage access token: " + tok}
		}
		a |= bit
	}
	return a, nil
}

// Has reports whether every bit set in want is also set in a.
func (a Access) Has(want Access) bool { return a&want == want }

// String renders the access set for diagnostics, e.g. "read|write".
func (a Access) String() string {
	var parts []string
	for name, bit := range accessNames {
		if a&bit != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// StorageRule grants or denies a storage access pattern.
type StorageRule struct {
	URI    string `yaml:"uri"`
	Access []string `yaml:"access"`
}

// NetworkRule grants or denies egress to a host or CIDR on an optional port
// and protocol set.
type NetworkRule struct {
	Host      string   `yaml:"host"`
	CIDR      string   `yaml:"cidr"`
	Ports     []int    `yaml:"ports,omitempty"`
	Protocols []string `yaml:"protocols,omitempty"`
}

// Pattern returns the host-or-CIDR text this rule matches against,
// preferring an explicit cidr field over host.
func (r NetworkRule) Pattern() string {
	if r.CIDR != "" {
		return r.CIDR
	}
	return r.Host
}

// EnvironmentRule grants or denies a process environment variable by name
// or glob pattern.
type EnvironmentRule struct {
	Key string `yaml:"key"`
}

// RuleGroup is a pair (allow, deny) of rules of the same shape, the uniform
// structure every permission group and extension subtree is built from.
type RuleGroup[T any] struct {
	Allow []T `yaml:"allow,omitempty"`
	Deny  []T `yaml:"deny,omitempty"`
}
