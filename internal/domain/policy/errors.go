package policy

import "fmt"

// ParseError reports a malformed policy document. Path is a dotted path
// into the document (e.g. "core.network.allow[2].host") so the caller can
// point a user at the offending node. ParseError is never raised from
// malformed external input via a panic — parsing is total.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationError reports a document that parsed but failed a cross-field
// or semantic check (unrecognized version, extension rejection, and so on).
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Warning is a non-fatal validation finding, such as an allow rule that is
// fully shadowed by a deny rule (spec §3(c): reported as a warning, never
// an error).
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}
