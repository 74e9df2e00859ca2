package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDenyAllBaseline(t *testing.T) {
	doc, err := Parse([]byte(`version: "1.0"`), nil)
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
	assert.Empty(t, doc.Core.Storage.Allow)
}

func TestParseRejectsUnrecognizedVersion(t *testing.T) {
	_, err := Parse([]byte(`version: "2.0"`), nil)
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestParseRejectsMissingVersion(t *testing.T) {
	_, err := Parse([]byte(`description: "no version"`), nil)
	require.Error(t, err)
}

func TestParseRejectsUnknownExtension(t *testing.T) {
	_, err := Parse([]byte("version: \"1.0\"\nbogus:\n  whatever: true\n"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestParseStorageRulesAndAccess(t *testing.T) {
	doc := `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["read", "write"]
    deny:
      - uri: "fs:///tmp/secret/**"
        access: ["read", "write"]
`
	d, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.Len(t, d.Core.Storage.Allow, 1)
	bits, err := ParseAccess(d.Core.Storage.Allow[0].Access)
	require.NoError(t, err)
	assert.True(t, bits.Has(AccessRead))
	assert.True(t, bits.Has(AccessWrite))
}

func TestParseRejectsInvalidAccessToken(t *testing.T) {
	doc := `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["fly"]
`
	_, err := Parse([]byte(doc), nil)
	require.Error(t, err)
}

func TestParseMcpExtension(t *testing.T) {
	doc := `
version: "1.0"
mcp:
  tools:
    allow:
      - name: "calc.*"
        max_calls_per_minute: 3
    deny:
      - name: "calc.dangerous"
`
	d, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	mcp, ok := d.MCP()
	require.True(t, ok)
	require.NotNil(t, mcp.Tools)
	assert.Len(t, mcp.Tools.Allow, 1)
	assert.Equal(t, uint32(3), *mcp.Tools.Allow[0].MaxCallsPerMinute)
}

func TestParseMcpRejectsEmptyToolName(t *testing.T) {
	doc := `
version: "1.0"
mcp:
  tools:
    allow:
      - name: ""
`
	_, err := Parse([]byte(doc), nil)
	require.Error(t, err)
}

func TestParseWarnsOnShadowedAllow(t *testing.T) {
	doc := `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["read"]
    deny:
      - uri: "*"
        access: ["read"]
`
	d, err := Parse([]byte(doc), nil)
	require.NoError(t, err)
	require.NotEmpty(t, d.Warnings)
}

func TestResourceLimitsResolve(t *testing.T) {
	cpu := "250m"
	mem := "128Mi"
	exec := "30s"
	limits := ResourceLimits{CPU: &cpu, Memory: &mem, ExecutionTime: &exec}
	resolved, err := limits.Resolve()
	require.NoError(t, err)
	assert.Equal(t, uint64(250), resolved.CPUMillicores)
	assert.Equal(t, uint64(128*1024*1024), resolved.MemoryBytes)
	assert.Equal(t, uint64(30000), resolved.ExecutionMS)
}

func TestResourceLimitsCoreCount(t *testing.T) {
	cpu := "0.5"
	limits := ResourceLimits{CPU: &cpu}
	resolved, err := limits.Resolve()
	require.NoError(t, err)
	assert.Equal(t, uint64(500), resolved.CPUMillicores)
}

func TestResourceLimitsRejectsMissingTimeUnit(t *testing.T) {
	exec := "30"
	limits := ResourceLimits{ExecutionTime: &exec}
	_, err := limits.Resolve()
	assert.Error(t, err)
}
