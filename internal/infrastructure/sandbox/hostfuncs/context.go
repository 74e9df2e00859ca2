package hostfuncs

import (
	"context"
	"net"

	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
)

// Recorder is implemented by the sandbox host so host-import trampolines
// can log a denial without importing the sandbox package (which imports
// this one).
type Recorder interface {
	Record(kind, operation, detail string)
}

// Dialer performs a policy-checked, DNS-pinned validation dial on behalf of
// the net_check host import, closing over the compiled policy and its DNS
// resolution logic so hostfuncs never needs to import the sandbox package
// back. The returned connection is closed immediately by the caller — it
// exists only to prove the address is reachable and not privately routed,
// never to carry guest traffic.
type Dialer interface {
	DialValidated(ctx context.Context, host string, port int, protocol string) (net.Conn, error)
}

// Invocation carries everything a host-import trampoline needs to enforce
// policy for a single guest call: the compiled policy, its per-invocation
// decision cache, a validation dialer, and a place to record violations.
type Invocation struct {
	Policy    *compiled.CompiledPolicy
	Cache     *compiled.DecisionCache
	Dialer    Dialer
	Recorder  Recorder
	RequestID string
}

type invocationKey struct{}

// WithInvocation attaches inv to ctx for the duration of one guest call.
func WithInvocation(ctx context.Context, inv *Invocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, inv)
}

// InvocationFromContext retrieves the Invocation attached by WithInvocation.
func InvocationFromContext(ctx context.Context) (*Invocation, bool) {
	inv, ok := ctx.Value(invocationKey{}).(*Invocation)
	return inv, ok
}
