package policy

import (
	"fmt"

	"github.com/mcpkit-dev/mcpkit/internal/domain/policy/match"
)

func compilePathGlobChecked(pattern string) (*match.PathGlob, error) {
	return match.CompilePathGlob(pattern)
}

func compileCIDRChecked(pattern string) (*match.CIDR, error) {
	return match.CompileCIDR(pattern)
}

// collectWarnings detects findings that should not fail validation but are
// worth surfacing, such as an allow rule that can never fire because a
// deny-all rule shadows the entire group (spec §3(c)).
func collectWarnings(doc *Document) []Warning {
	var warnings []Warning

	if denyAll(doc.Core.Storage.Deny, func(r StorageRule) string { return r.URI }) && len(doc.Core.Storage.Allow) > 0 {
		warnings = append(warnings, Warning{Path: "core.storage", Message: "all allow rules are shadowed by a deny-all rule"})
	}
	if denyAll(doc.Core.Network.Deny, func(r NetworkRule) string { return r.Pattern() }) && len(doc.Core.Network.Allow) > 0 {
		warnings = append(warnings, Warning{Path: "core.network", Message: "all allow rules are shadowed by a deny-all rule"})
	}
	if denyAll(doc.Core.Environment.Deny, func(r EnvironmentRule) string { return r.Key }) && len(doc.Core.Environment.Allow) > 0 {
		warnings = append(warnings, Warning{Path: "core.environment", Message: "all allow rules are shadowed by a deny-all rule"})
	}

	if mcp, ok := doc.MCP(); ok && mcp.Tools != nil {
		if denyAll(mcp.Tools.Deny, func(r ToolRule) string { return r.Name }) && len(mcp.Tools.Allow) > 0 {
			warnings = append(warnings, Warning{Path: "mcp.tools", Message: "all allow rules are shadowed by a deny-all rule"})
		}
	}

	// Per-rule shadowing: an allow rule whose pattern is identical to a
	// deny rule's pattern in the same group can never fire.
	allowSet := make(map[string]bool)
	for _, r := range doc.Core.Storage.Allow {
		allowSet[r.URI] = true
	}
	for i, r := range doc.Core.Storage.Deny {
		if allowSet[r.URI] {
			warnings = append(warnings, Warning{Path: fmt.Sprintf("core.storage.deny[%d]", i), Message: fmt.Sprintf("deny pattern %q exactly shadows an identical allow pattern", r.URI)})
		}
	}

	return warnings
}

func denyAll[T any](rules []T, pattern func(T) string) bool {
	for _, r := range rules {
		if pattern(r) == "*" {
			return true
		}
	}
	return false
}
