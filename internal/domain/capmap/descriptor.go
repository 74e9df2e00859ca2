// Package capmap implements the capability mapper (C4): it projects a
// compiled policy into runtime-specific capability descriptors consumable
// by a WASM runtime backend.
package capmap

import (
	"time"

	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
)

// PreopenDescriptor grants the guest a directory handle with an associated
// permission bitset, covering every allowed path pattern rooted at it.
type PreopenDescriptor struct {
	HostPath  string
	GuestPath string
	Access    policy.Access
}

// NetworkDescriptor is a socket allow-list expressed as the concrete hosts,
// CIDRs, and ports the guest may connect to. Deny rules are not expressed
// here — they are re-enforced at every host call by the sandbox's network
// trampoline, consulting the compiled policy directly.
type NetworkDescriptor struct {
	AllowedHosts []string
	AllowedCIDRs []string
}

// EnvironmentDescriptor is the process environment, projected once through
// the allow/deny lists at sandbox construction (spec §4.4).
type EnvironmentDescriptor struct {
	Variables map[string]string
}

// ResourceDescriptor is the fuel budget, memory-page ceiling, and
// wall-clock deadline derived from the policy's resource limits.
type ResourceDescriptor struct {
	FuelBudget      uint64
	MemoryPages     uint32
	ExecutionDeadline time.Duration
}

// CapabilityDescriptor is the complete runtime-facing projection of a
// compiled policy, consumed by the sandbox host at construction time.
type CapabilityDescriptor struct {
	Preopens    []PreopenDescriptor
	Network     NetworkDescriptor
	Environment EnvironmentDescriptor
	Resources   ResourceDescriptor
}
