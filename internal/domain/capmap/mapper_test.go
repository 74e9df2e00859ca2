package capmap

import (
	"testing"
	"time"

	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, yamlDoc string) (*policy.Document, *compiled.CompiledPolicy) {
	t.Helper()
	doc, err := policy.Parse([]byte(yamlDoc), nil)
	require.NoError(t, err)
	c, err := compiled.Compile(doc)
	require.NoError(t, err)
	return doc, c
}

func TestMapPreopensCoversNestedRules(t *testing.T) {
	doc, c := mustCompile(t, `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///data/**"
        access: ["read"]
      - uri: "fs:///data/cache/**"
        access: ["write"]
`)
	desc := Map(doc, c, Options{})
	require.Len(t, desc.Preopens, 1)
	assert.Equal(t, "/data", desc.Preopens[0].HostPath)
	assert.True(t, desc.Preopens[0].Access.Has(policy.AccessRead))
	assert.True(t, desc.Preopens[0].Access.Has(policy.AccessWrite))
}

func TestMapPreopensDistinctRoots(t *testing.T) {
	doc, c := mustCompile(t, `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///data/**"
        access: ["read"]
      - uri: "fs:///etc/app/**"
        access: ["read"]
`)
	desc := Map(doc, c, Options{})
	assert.Len(t, desc.Preopens, 2)
}

func TestMapNoStorageNoScratchByDefault(t *testing.T) {
	doc, c := mustCompile(t, `version: "1.0"`)
	desc := Map(doc, c, Options{})
	assert.Empty(t, desc.Preopens)
}

func TestMapNoStorageWithRequiredScratch(t *testing.T) {
	doc, c := mustCompile(t, `version: "1.0"`)
	desc := Map(doc, c, Options{RequireScratchDir: true, ScratchDir: "/scratch"})
	require.Len(t, desc.Preopens, 1)
	assert.Equal(t, "/scratch", desc.Preopens[0].HostPath)
	assert.True(t, desc.Preopens[0].Access.Has(policy.AccessWrite))
}

func TestMapNetworkSplitsHostsAndCIDRs(t *testing.T) {
	doc, c := mustCompile(t, `
version: "1.0"
core:
  network:
    allow:
      - host: "api.example.com"
      - cidr: "10.0.0.0/8"
`)
	desc := Map(doc, c, Options{})
	assert.Contains(t, desc.Network.AllowedHosts, "api.example.com")
	assert.Contains(t, desc.Network.AllowedCIDRs, "10.0.0.0/8")
}

func TestMapEnvironmentProjectsAllowedOnly(t *testing.T) {
	doc, c := mustCompile(t, `
version: "1.0"
core:
  environment:
    allow:
      - key: "PATH"
`)
	desc := Map(doc, c, Options{ProcessEnviron: []string{"PATH=/usr/bin", "HOME=/root", "malformed"}})
	assert.Equal(t, map[string]string{"PATH": "/usr/bin"}, desc.Environment.Variables)
}

func TestMapResourcesConvertsUnits(t *testing.T) {
	doc, c := mustCompile(t, `
version: "1.0"
core:
  resources:
    cpu: "1"
    memory: "128Ki"
    execution_time: "2s"
`)
	desc := Map(doc, c, Options{})
	assert.Equal(t, uint32(2), desc.Resources.MemoryPages)
	assert.Equal(t, 2*time.Second, desc.Resources.ExecutionDeadline)
	assert.Equal(t, uint64(1000*defaultFuelPerMillicore), desc.Resources.FuelBudget)
}

func TestMapResourcesExplicitFuelOverridesHeuristic(t *testing.T) {
	doc, c := mustCompile(t, `
version: "1.0"
core:
  resources:
    cpu: "1"
    fuel: 42
`)
	desc := Map(doc, c, Options{})
	assert.Equal(t, uint64(42), desc.Resources.FuelBudget)
}
