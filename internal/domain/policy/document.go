// Package policy implements the policy document model: parsing a
// declarative permission tree, validating it, and dispatching its
// extension subtrees, per C1 (via the match package) and C2.
package policy

// Document is the parsed, validated tree of a policy document, prior to
// compilation (C3). It is immutable by convention once returned from
// Parse: callers that need a modified policy parse a new document.
type Document struct {
	Version     string
	Description string
	Core        CoreSection
	// Extensions holds one parsed Permission per recognized top-level
	// extension key (e.g. "mcp"), keyed by extension identifier.
	Extensions map[string]Permission
	// Warnings carries non-fatal findings surfaced during validation,
	// such as an allow rule fully shadowed by a deny rule.
	Warnings []Warning
}

// CoreSection holds the four built-in permission groups every policy
// document carries, regardless of which extensions it also declares.
type CoreSection struct {
	Storage     RuleGroup[StorageRule]
	Network     RuleGroup[NetworkRule]
	Environment RuleGroup[EnvironmentRule]
	Resources   ResourceLimits
}

// MCP returns the parsed "mcp" extension subtree, if the document declared
// one.
func (d *Document) MCP() (*McpPermissions, bool) {
	if d.Extensions == nil {
		return nil, false
	}
	perm, ok := d.Extensions["mcp"]
	if !ok {
		return nil, false
	}
	mcp, ok := perm.(*McpPermissions)
	return mcp, ok
}
