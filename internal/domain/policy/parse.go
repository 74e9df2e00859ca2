package policy

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

var reservedTopLevelKeys = map[string]bool{
	"version":     true,
	"description": true,
	"core":        true,
}

type rawDocument struct {
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Core        struct {
		Storage     RuleGroup[StorageRule]     `yaml:"storage"`
		Network     RuleGroup[NetworkRule]     `yaml:"network"`
		Environment RuleGroup[EnvironmentRule] `yaml:"environment"`
		Resources   ResourceLimits             `yaml:"resources"`
	} `yaml:"core"`
}

// Parse decodes, validates, and dispatches the extension subtrees of a
// policy document already interpolated to final byte form (environment
// variable substitution, per spec §1, happens in the ambient configuration
// loader — this function never reads the environment). registry supplies
// the set of known extension identifiers; an unrecognized top-level key is
// a fatal parse error. Parsing is total: it never panics on malformed
// input. Failures tied to a document node carry its path; syntax and
// schema-shape failures of the whole document carry an empty path.
func Parse(raw []byte, registry *Registry) (*Document, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}

	// Stage 0: decode into a generic tree for shape validation and
	// extension-key discovery.
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, &ParseError{Message: "invalid document syntax: " + err.Error()}
	}

	// Stage 1: schema shape.
	if err := validateShape(tree); err != nil {
		return nil, err
	}

	// Typed decode of version/description/core.
	var rd rawDocument
	if err := yaml.Unmarshal(raw, &rd); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	if err := validateVersion(rd.Version); err != nil {
		return nil, err
	}

	// Stage 2: pattern syntactic validity per group.
	if err := validatePatterns(rd); err != nil {
		return nil, err
	}

	doc := &Document{
		Version:     rd.Version,
		Description: rd.Description,
		Extensions:  make(map[string]Permission),
		Core: CoreSection{
			Storage:     rd.Core.Storage,
			Network:     rd.Core.Network,
			Environment: rd.Core.Environment,
			Resources:   rd.Core.Resources,
		},
	}

	// Stage 3: extension dispatch. Every top-level key that is not a
	// reserved core key is an extension subtree.
	for key, value := range tree {
		if reservedTopLevelKeys[key] {
			continue
		}
		ext, ok := registry.Get(key)
		if !ok {
			return nil, &ParseError{Path: key, Message: fmt.Sprintf("unrecognized top-level key %q: no extension registered for it", key)}
		}
		subtreeBytes, err := yaml.Marshal(value)
		if err != nil {
			return nil, &ParseError{Path: key, Message: err.Error()}
		}
		perm, err := ext.ParseSubtree(subtreeBytes)
		if err != nil {
			return nil, wrapPath(key, err)
		}
		if err := perm.Validate(); err != nil {
			return nil, wrapPath(key, err)
		}
		doc.Extensions[key] = perm
	}

	doc.Warnings = collectWarnings(doc)

	return doc, nil
}

func wrapPath(prefix string, err error) error {
	if pe, ok := err.(*ParseError); ok && pe.Path == "" {
		pe.Path = prefix
		return pe
	}
	if ve, ok := err.(*ValidationError); ok && ve.Path == "" {
		ve.Path = prefix
		return ve
	}
	return &ParseError{Path: prefix, Message: err.Error()}
}

func validateVersion(version string) error {
	if strings.TrimSpace(version) == "" {
		return &ValidationError{Path: "version", Message: "version is required"}
	}
	if !strings.HasPrefix(version, "1.") {
		return &ValidationError{Path: "version", Message: fmt.Sprintf("unrecognized policy version %q: this repository understands the 1.x document format", version)}
	}
	return nil
}

func validatePatterns(rd rawDocument) error {
	for i, rule := range rd.Core.Storage.Allow {
		if err := validateStorageRule("core.storage.allow", i, rule); err != nil {
			return err
		}
	}
	for i, rule := range rd.Core.Storage.Deny {
		if err := validateStorageRule("core.storage.deny", i, rule); err != nil {
			return err
		}
	}
	for i, rule := range rd.Core.Network.Allow {
		if err := validateNetworkRule("core.network.allow", i, rule); err != nil {
			return err
		}
	}
	for i, rule := range rd.Core.Network.Deny {
		if err := validateNetworkRule("core.network.deny", i, rule); err != nil {
			return err
		}
	}
	for i, rule := range rd.Core.Environment.Allow {
		if rule.Key == "" {
			return &ParseError{Path: fmt.Sprintf("core.environment.allow[%d].key", i), Message: "environment key pattern cannot be empty"}
		}
	}
	if _, err := rd.Core.Resources.Resolve(); err != nil {
		return &ParseError{Path: "core.resources", Message: err.Error()}
	}
	return nil
}

func validateStorageRule(path string, i int, rule StorageRule) error {
	if rule.URI == "" {
		return &ParseError{Path: fmt.Sprintf("%s[%d].uri", path, i), Message: "storage uri cannot be empty"}
	}
	if _, err := compilePathGlobChecked(rule.URI); err != nil {
		return &ParseError{Path: fmt.Sprintf("%s[%d].uri", path, i), Message: err.Error()}
	}
	if _, err := ParseAccess(rule.Access); err != nil {
		return &ParseError{Path: fmt.Sprintf("%s[%d].access", path, i), Message: err.Error()}
	}
	return nil
}

func validateNetworkRule(path string, i int, rule NetworkRule) error {
	pattern := rule.Pattern()
	if pattern == "" {
		return &ParseError{Path: fmt.Sprintf("%s[%d]", path, i), Message: "network rule must set host or cidr"}
	}
	if _, err := compileCIDRChecked(pattern); err != nil {
		return &ParseError{Path: fmt.Sprintf("%s[%d]", path, i), Message: err.Error()}
	}
	return nil
}
