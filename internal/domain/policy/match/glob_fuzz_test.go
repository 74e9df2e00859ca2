package match

import "testing"

// FuzzCompileGlob exercises the glob compiler the way the teacher fuzzes its
// host-function wire decoders: it must never panic on arbitrary input, only
// return an error.
func FuzzCompileGlob(f *testing.F) {
	seeds := []string{"*", "**", "/tmp/**", "calc.*", "[", "{", "a\\*b", ""}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, pattern string) {
		g, err := CompileGlob(pattern)
		if err != nil {
			return
		}
		_ = g.Match(pattern)
		_ = g.LiteralPrefix()
	})
}

// FuzzCompileCIDR checks the same property for network host patterns.
func FuzzCompileCIDR(f *testing.F) {
	seeds := []string{"10.0.0.0/8", "*.example.com", "example.com", "::1/128", "not a cidr/"}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, pattern string) {
		c, err := CompileCIDR(pattern)
		if err != nil {
			return
		}
		_ = c.Match("api.example.com")
	})
}
