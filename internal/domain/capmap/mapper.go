package capmap

import (
	"os"
	"path"
	"strings"
	"time"

	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy/match"
)

const wasmPageSize = 64 * 1024

// defaultFuelPerMillicore is a heuristic conversion from CPU millicores to
// a wazero fuel budget, used only when the policy document does not set an
// explicit fuel value. It has no bearing on decision correctness — fuel
// exhaustion is a resource_exhausted failure, not a policy denial.
const defaultFuelPerMillicore = 1_000_000

// Options configures a single Map call.
type Options struct {
	// ProcessEnviron is the host process environment to project through
	// the policy's environment allow/deny lists, in os.Environ() form
	// ("KEY=value"). Passed explicitly rather than read internally so
	// mapping stays a pure function of its inputs.
	ProcessEnviron []string
	// RequireScratchDir requests a default writable scratch directory when
	// the policy grants no storage at all (spec §4.4: "only if the
	// execution mode requires one").
	RequireScratchDir bool
	// ScratchDir overrides the default scratch directory's host path.
	ScratchDir string
}

// Map projects a compiled policy into a CapabilityDescriptor. doc supplies
// the raw storage allow rules the preopen-set derivation needs (deriving
// the smallest covering set of directories needs per-rule access bits
// grouped by literal prefix directory, a shape CompiledPolicy's decision
// surface doesn't expose directly); compiledPolicy supplies every other
// field via its public predicate surface.
func Map(doc *policy.Document, compiledPolicy *compiled.CompiledPolicy, opts Options) *CapabilityDescriptor {
	desc := &CapabilityDescriptor{
		Preopens:    mapPreopens(doc.Core.Storage.Allow, opts),
		Network:     mapNetwork(doc.Core.Network.Allow),
		Environment: mapEnvironment(opts.ProcessEnviron, compiledPolicy),
		Resources:   mapResources(compiledPolicy.ResourceLimits()),
	}
	return desc
}

func mapPreopens(allow []policy.StorageRule, opts Options) []PreopenDescriptor {
	type entry struct {
		dir    string
		access policy.Access
	}
	byDir := make(map[string]policy.Access)
	for _, rule := range allow {
		bits, err := policy.ParseAccess(rule.Access)
		if err != nil {
			continue // already rejected at validation time; defensive only
		}
		dir := literalPrefixDir(rule.URI)
		byDir[dir] |= bits
	}

	entries := make([]entry, 0, len(byDir))
	for dir, access := range byDir {
		entries = append(entries, entry{dir: dir, access: access})
	}

	// Reduce to the smallest covering set: drop any directory that is a
	// descendant of another directory already present, folding its access
	// bits into the ancestor.
	covered := make([]entry, 0, len(entries))
	for _, e := range entries {
		absorbed := false
		for i := range covered {
			if isAncestorDir(covered[i].dir, e.dir) {
				covered[i].access |= e.access
				absorbed = true
				break
			}
		}
		if absorbed {
			continue
		}
		kept := covered[:0]
		for _, c := range covered {
			if isAncestorDir(e.dir, c.dir) {
				e.access |= c.access
			} else {
				kept = append(kept, c)
			}
		}
		covered = append(kept, e)
	}

	if len(covered) == 0 && opts.RequireScratchDir {
		scratch := opts.ScratchDir
		if scratch == "" {
			scratch = path.Join(os.TempDir(), "mcpkit-scratch")
		}
		covered = append(covered, entry{dir: scratch, access: policy.AccessRead | policy.AccessWrite | policy.AccessCreate | policy.AccessDelete})
	}

	out := make([]PreopenDescriptor, 0, len(covered))
	for _, e := range covered {
		out = append(out, PreopenDescriptor{HostPath: e.dir, GuestPath: e.dir, Access: e.access})
	}
	return out
}

func isAncestorDir(ancestor, candidate string) bool {
	if ancestor == candidate {
		return true
	}
	if ancestor == "/" {
		return true
	}
	return strings.HasPrefix(candidate, ancestor+"/")
}

func literalPrefixDir(pattern string) string {
	g, err := match.CompilePathGlob(pattern)
	if err != nil {
		return "/"
	}
	return g.LiteralPrefixDir()
}

func mapNetwork(allow []policy.NetworkRule) NetworkDescriptor {
	var desc NetworkDescriptor
	for _, rule := range allow {
		p := rule.Pattern()
		if strings.Contains(p, "/") {
			desc.AllowedCIDRs = append(desc.AllowedCIDRs, p)
		} else {
			desc.AllowedHosts = append(desc.AllowedHosts, p)
		}
	}
	return desc
}

func mapEnvironment(processEnviron []string, compiledPolicy *compiled.CompiledPolicy) EnvironmentDescriptor {
	vars := make(map[string]string)
	for _, kv := range processEnviron {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if compiledPolicy.AllowedEnv(k, nil) {
			vars[k] = v
		}
	}
	return EnvironmentDescriptor{Variables: vars}
}

func mapResources(limits policy.ResolvedLimits) ResourceDescriptor {
	fuel := limits.Fuel
	if fuel == 0 && limits.CPUMillicores > 0 {
		fuel = limits.CPUMillicores * defaultFuelPerMillicore
	}
	pages := uint32(limits.MemoryBytes / wasmPageSize)
	if limits.MemoryBytes%wasmPageSize != 0 {
		pages++
	}
	deadline := time.Duration(limits.ExecutionMS) * time.Millisecond
	return ResourceDescriptor{FuelBudget: fuel, MemoryPages: pages, ExecutionDeadline: deadline}
}
