// Package mcperr defines the error-kind taxonomy surfaced across mcpkit's
// policy, sandbox, bundle, and registry layers, so a caller can branch on
// Kind rather than string-matching error text.
package mcperr

import "fmt"

// Kind classifies an Error into one of a closed set of failure categories.
type Kind string

const (
	KindPolicyParse          Kind = "policy_parse"
	KindPolicyValidate       Kind = "policy_validate"
	KindPolicyDenied         Kind = "policy_denied"
	KindRateLimited          Kind = "rate_limited"
	KindResourceExhausted    Kind = "resource_exhausted"
	KindWasmTrap             Kind = "wasm_trap"
	KindBundleInvalid        Kind = "bundle_invalid"
	KindBundleDigestMismatch Kind = "bundle_digest_mismatch"
	KindRegistryAuth         Kind = "registry_auth"
	KindRegistryNotFound     Kind = "registry_not_found"
	KindRegistryTransient    Kind = "registry_transient"
	KindRegistryFatal        Kind = "registry_fatal"
	KindConfiguration        Kind = "configuration"
	KindIO                   Kind = "io"
	KindTimeout              Kind = "timeout"
	KindCancelled            Kind = "cancelled"
	KindInternal             Kind = "internal"
)

// Error is the concrete error type every mcpkit layer returns. Cause is
// optional; Unwrap exposes it so errors.Is/errors.As keep working through
// this taxonomy.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind wrapping cause. Wrapping a nil
// cause returns a nil *Error; returned through an `error` result, that nil
// pointer is a non-nil error value, so call sites check err before wrapping.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether the first *Error in err's Unwrap chain has the given
// kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if asErr, ok := err.(*Error); ok {
			e = asErr
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

// Retryable reports whether a failure of this kind is worth retrying with
// backoff, used by the registry client's transient-error handling.
func Retryable(kind Kind) bool {
	switch kind {
	case KindRegistryTransient, KindTimeout, KindIO:
		return true
	default:
		return false
	}
}
