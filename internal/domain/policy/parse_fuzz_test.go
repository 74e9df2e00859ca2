package policy

import "testing"

// FuzzParse checks that Parse never panics on arbitrary byte input,
// regardless of whether it is valid YAML or a valid policy document.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`version: "1.0"`,
		`version: "1.0"
core:
  storage:
    allow:
      - uri: "fs:///tmp/**"
        access: ["read"]`,
		`{not: valid: yaml:`,
		``,
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	f.Fuzz(func(t *testing.T, raw []byte) {
		_, _ = Parse(raw, nil)
	})
}
