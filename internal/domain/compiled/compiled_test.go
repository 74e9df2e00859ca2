package compiled

import (
	"testing"
	"time"

	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileDoc(t *testing.T, yamlDoc string) *CompiledPolicy {
	t.Helper()
	doc, err := policy.Parse([]byte(yamlDoc), nil)
	require.NoError(t, err)
	c, err := Compile(doc)
	require.NoError(t, err)
	return c
}

func TestDenyAllBaseline(t *testing.T) {
	c := compileDoc(t, `version: "1.0"`)
	allowed, limiter := c.AllowedTool("anything")
	assert.False(t, allowed)
	assert.Nil(t, limiter)
}

func TestStorageAllowWithDenyOverride(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["read", "write"]
    deny:
      - uri: "fs:///tmp/secret/**"
        access: ["read", "write"]
`)
	assert.True(t, c.AllowedStorage("/tmp/a.txt", policy.AccessRead, nil))
	assert.False(t, c.AllowedStorage("/tmp/secret/x", policy.AccessRead, nil))
	assert.True(t, c.AllowedStorage("/tmp/b/c.txt", policy.AccessWrite, nil))
	assert.False(t, c.AllowedStorage("/etc/passwd", policy.AccessWrite, nil))
}

func TestStorageDenyDominatesRegardlessOfAccessBits(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["read", "write", "delete"]
    deny:
      - uri: "fs:///tmp/secret/**"
        access: ["read"]
`)
	assert.False(t, c.AllowedStorage("/tmp/secret/x", policy.AccessWrite, nil))
	assert.False(t, c.AllowedStorage("/tmp/secret/x", policy.AccessDelete, nil))
}

func TestStoragePartialSegmentGlob(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///config/*.json"
        access: ["read"]
`)
	assert.True(t, c.AllowedStorage("/config/app.json", policy.AccessRead, nil))
	assert.False(t, c.AllowedStorage("/config/app.yaml", policy.AccessRead, nil))
	assert.False(t, c.AllowedStorage("/config/sub/app.json", policy.AccessRead, nil))
}

func TestStoragePrefixBoundary(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["read"]
`)
	assert.True(t, c.AllowedStorage("/tmp/a/b", policy.AccessRead, nil))
	assert.False(t, c.AllowedStorage("/tmpfoo", policy.AccessRead, nil))
}

func TestNetworkBloomAndPortMismatch(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  network:
    allow:
      - host: "api.example.com"
        ports: [443]
`)
	assert.True(t, c.AllowedNetwork("api.example.com", 443, "tcp", nil))
	assert.False(t, c.AllowedNetwork("evil.example.com", 443, "tcp", nil))
	assert.False(t, c.AllowedNetwork("api.example.com", 80, "tcp", nil))
}

func TestNetworkCIDR(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  network:
    allow:
      - cidr: "10.0.0.0/8"
`)
	assert.True(t, c.AllowedNetwork("10.1.2.3", 0, "tcp", nil))
	assert.False(t, c.AllowedNetwork("11.0.0.1", 0, "tcp", nil))
}

func TestRateLimitBoundary(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
mcp:
  tools:
    allow:
      - name: "calc.add"
        max_calls_per_minute: 3
`)
	allowed, limiter := c.AllowedTool("calc.add")
	require.True(t, allowed)
	require.NotNil(t, limiter)

	now := time.Unix(0, 0)
	ok1, _ := limiter.Allow(now)
	ok2, _ := limiter.Allow(now)
	ok3, _ := limiter.Allow(now)
	ok4, _ := limiter.Allow(now)
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.True(t, ok3)
	assert.False(t, ok4)

	nextMinute := now.Add(time.Minute)
	ok5, _ := limiter.Allow(nextMinute)
	assert.True(t, ok5)
}

func TestEnvironmentExactAndPattern(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  environment:
    allow:
      - key: "PATH"
      - key: "APP_*"
    deny:
      - key: "APP_SECRET"
`)
	assert.True(t, c.AllowedEnv("PATH", nil))
	assert.True(t, c.AllowedEnv("APP_CONFIG", nil))
	assert.False(t, c.AllowedEnv("APP_SECRET", nil))
	assert.False(t, c.AllowedEnv("HOME", nil))
}

func TestResourceLimitsFromCompile(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  resources:
    cpu: "500m"
    memory: "256Mi"
    execution_time: "10s"
`)
	limits := c.ResourceLimits()
	assert.Equal(t, uint64(500), limits.CPUMillicores)
	assert.Equal(t, uint64(256*1024*1024), limits.MemoryBytes)
	assert.Equal(t, uint64(10000), limits.ExecutionMS)
}

func TestDecisionCacheHitsAndMisses(t *testing.T) {
	c := compileDoc(t, `
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["read"]
`)
	cache := NewDecisionCache()
	assert.True(t, c.AllowedStorage("/tmp/a", policy.AccessRead, cache))
	assert.True(t, c.AllowedStorage("/tmp/a", policy.AccessRead, cache))
	stats := cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCompileIsDeterministic(t *testing.T) {
	doc, err := policy.Parse([]byte(`
version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["read"]
`), nil)
	require.NoError(t, err)
	a, err := Compile(doc)
	require.NoError(t, err)
	b, err := Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, a.AllowedStorage("/tmp/x", policy.AccessRead, nil), b.AllowedStorage("/tmp/x", policy.AccessRead, nil))
}
