// Package config loads policy documents and host configuration from disk,
// performing environment interpolation before anything touches YAML
// parsing. Nothing under internal/domain ever reads the environment
// directly, so this substitution step is the single place untrusted
// ${VAR} references become concrete values.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// varPattern matches ${VAR} and ${VAR:-default}. This is shell-style
// interpolation, not the template-action syntax some YAML-driven tools
// use, because policy documents are meant to be readable by a security
// reviewer without a templating mental model.
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// Lookup resolves an environment variable name to a value. The zero
// value of Lookup is os.LookupEnv; tests supply a map-backed Lookup to
// avoid touching the real environment.
type Lookup func(key string) (string, bool)

// OSLookup reads from the process environment.
func OSLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Substitute replaces every ${VAR} and ${VAR:-default} reference in raw
// with the looked-up value. A reference with no default and no
// matching environment variable is an error naming the missing
// variable, so a misconfigured host fails loudly at load time instead
// of silently running a module under a mistakenly empty policy field.
func Substitute(raw []byte, lookup Lookup) ([]byte, error) {
	if lookup == nil {
		lookup = OSLookup
	}

	var missing []string
	out := varPattern.ReplaceAllStringFunc(string(raw), func(match string) string {
		groups := varPattern.FindStringSubmatch(match)
		name := groups[1]
		hasDefault := groups[2] != ""
		def := groups[3]

		if value, ok := lookup(name); ok {
			return value
		}
		if hasDefault {
			return def
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("undefined environment variable(s) referenced in config: %s", strings.Join(missing, ", "))
	}
	return []byte(out), nil
}
