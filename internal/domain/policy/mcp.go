package policy

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// McpExtension parses and validates the "mcp" policy subtree: tool, prompt,
// resource, and transport permissions specific to Model Context Protocol
// actions rather than generic filesystem/network/env access.
type McpExtension struct{}

// ID returns the top-level document key this extension owns.
func (McpExtension) ID() string { return "mcp" }

// ParseSubtree decodes the "mcp" subtree into an McpPermissions value.
func (McpExtension) ParseSubtree(raw []byte) (Permission, error) {
	var perms McpPermissions
	if err := yaml.Unmarshal(raw, &perms); err != nil {
		return nil, &ParseError{Path: "mcp", Message: err.Error()}
	}
	return &perms, nil
}

// McpPermissions is the mcp extension's parsed permission tree.
type McpPermissions struct {
	Tools     *RuleGroup[ToolRule]     `yaml:"tools,omitempty"`
	Prompts   *RuleGroup[PromptRule]   `yaml:"prompts,omitempty"`
	Resources *RuleGroup[ResourceRule] `yaml:"resources,omitempty"`
	Transport *TransportPermissions    `yaml:"transport,omitempty"`
}

// ToolRule grants or denies invocation of a tool name pattern, optionally
// capping its call rate.
type ToolRule struct {
	Name               string `yaml:"name"`
	MaxCallsPerMinute  *uint32 `yaml:"max_calls_per_minute,omitempty"`
	RequireConfirmation bool   `yaml:"require_confirmation,omitempty"`
}

// PromptRule grants or denies retrieval of a prompt name, optionally
// capping its rendered length.
type PromptRule struct {
	Name      string `yaml:"name"`
	MaxLength *int   `yaml:"max_length,omitempty"`
}

// ResourceRule grants or denies a set of operations on a resource URI
// pattern.
type ResourceRule struct {
	URI        string   `yaml:"uri"`
	Operations []string `yaml:"operations"`
}

// TransportPermissions gates which wire transports the sandboxed module may
// use to speak MCP to its caller.
type TransportPermissions struct {
	Stdio     bool               `yaml:"stdio,omitempty"`
	HTTP      *HTTPTransportRule `yaml:"http,omitempty"`
	WebSocket bool               `yaml:"websocket,omitempty"`
}

// HTTPTransportRule restricts MCP-over-HTTP to a set of allowed hosts (and,
// for browser-originated clients, origins).
type HTTPTransportRule struct {
	AllowedHosts   []string `yaml:"allowed_hosts,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// Validate checks internal consistency: every rule must carry a non-empty
// match key, and every resource rule must declare at least one operation.
func (m *McpPermissions) Validate() error {
	if m.Tools != nil {
		for i, rule := range m.Tools.Allow {
			if rule.Name == "" {
				return &ValidationError{Path: fmt.Sprintf("mcp.tools.allow[%d].name", i), Message: "tool name cannot be empty"}
			}
		}
		for i, rule := range m.Tools.Deny {
			if rule.Name == "" {
				return &ValidationError{Path: fmt.Sprintf("mcp.tools.deny[%d].name", i), Message: "tool name cannot be empty"}
			}
		}
	}
	if m.Prompts != nil {
		for i, rule := range m.Prompts.Allow {
			if rule.Name == "" {
				return &ValidationError{Path: fmt.Sprintf("mcp.prompts.allow[%d].name", i), Message: "prompt name cannot be empty"}
			}
		}
	}
	if m.Resources != nil {
		for i, rule := range m.Resources.Allow {
			if rule.URI == "" {
				return &ValidationError{Path: fmt.Sprintf("mcp.resources.allow[%d].uri", i), Message: "resource uri cannot be empty"}
			}
			if len(rule.Operations) == 0 {
				return &ValidationError{Path: fmt.Sprintf("mcp.resources.allow[%d].operations", i), Message: "resource operations cannot be empty"}
			}
		}
	}
	return nil
}
