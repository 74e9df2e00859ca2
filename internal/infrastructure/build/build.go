// Package build exposes version and platform metadata baked into the
// mcpkit binary at link time via -ldflags.
package build

import (
	"fmt"
	"runtime"
)

// Info describes the running build.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	Platform  string
}

// These are overridden at link time with:
//
//	-X github.com/mcpkit-dev/mcpkit/internal/infrastructure/build.version=...
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// Get returns the current build's Info.
func Get() Info {
	return Info{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Full renders a one-line version string, e.g. "0.1.0 (abc1234) built 2026-01-01".
func (i Info) Full() string {
	return fmt.Sprintf("%s (%s) built %s", i.Version, i.Commit, i.BuildDate)
}

// UserAgent renders the string mcpkit sends as the HTTP User-Agent header
// on registry requests, e.g. "mcpkit/0.1.0 (linux/amd64)".
func (i Info) UserAgent() string {
	return fmt.Sprintf("mcpkit/%s (%s)", i.Version, i.Platform)
}
