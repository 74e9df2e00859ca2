package match

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		candidate string
		want      bool
	}{
		{"exact literal", "calc.add", "calc.add", true},
		{"literal mismatch", "calc.add", "calc.sub", false},
		{"star wildcard", "calc.*", "calc.add", true},
		{"star matches a string with no separator","fs:*", "fs:read", true},
		{"globstar crosses separators", "/tmp/**", "/tmp/a/b/c", true},
		{"single star stays within segment", "/tmp/*", "/tmp/a/b", false},
		{"single star within segment matches", "/tmp/*", "/tmp/a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := CompileGlob(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Match(tt.candidate))
		})
	}
}

func TestGlobRejectsEmptyPattern(t *testing.T) {
	_, err := CompileGlob("")
	assert.Error(t, err)
}

func TestSetMatchAny(t *testing.T) {
	s, err := NewSet([]string{"calc.*", "weather.lookup"})
	require.NoError(t, err)
	assert.True(t, s.MatchAny("calc.add"))
	assert.True(t, s.MatchAny("weather.lookup"))
	assert.False(t, s.MatchAny("shell.exec"))
}

func TestCIDRMatch(t *testing.T) {
	c, err := CompileCIDR("10.0.0.0/8")
	require.NoError(t, err)
	assert.True(t, c.Match("10.1.2.3"))
	assert.False(t, c.Match("11.0.0.1"))
}

func TestCIDRHostWildcard(t *testing.T) {
	c, err := CompileCIDR("*.example.com")
	require.NoError(t, err)
	assert.True(t, c.Match("api.example.com"))
	assert.False(t, c.Match("example.com"))
	assert.False(t, c.Match("api.evil.com"))
}

func TestCIDRExactHost(t *testing.T) {
	c, err := CompileCIDR("api.example.com")
	require.NoError(t, err)
	assert.True(t, c.IsExact())
	assert.True(t, c.Match("api.example.com"))
	assert.False(t, c.Match("evil.example.com"))
}

func TestIsPrivateOrReserved(t *testing.T) {
	assert.True(t, IsPrivateOrReserved(net.ParseIP("10.1.2.3")))
	assert.True(t, IsPrivateOrReserved(net.ParseIP("127.0.0.1")))
	assert.True(t, IsPrivateOrReserved(net.ParseIP("169.254.1.1")))
	assert.False(t, IsPrivateOrReserved(net.ParseIP("8.8.8.8")))
}

func TestCanonicalizePath(t *testing.T) {
	tests := map[string]string{
		"fs:///tmp/a/../b": "/tmp/b",
		"tmp/a":            "/tmp/a",
		"/tmp/./a/":        "/tmp/a",
		"fs://":            "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalizePath(in), "input %q", in)
	}
}

func TestPathGlobCoverage(t *testing.T) {
	g, err := CompilePathGlob("fs:///tmp/**")
	require.NoError(t, err)
	assert.True(t, g.Match(CanonicalizePath("/tmp/a/b")))
	assert.False(t, g.Match(CanonicalizePath("/tmpfoo")))
	assert.Equal(t, "/tmp", g.LiteralPrefixDir())
}
