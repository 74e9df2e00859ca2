package sandbox

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy/match"
)

// dialDeadline bounds DNS resolution and TCP connect for a guest-initiated
// outbound connection; the sandbox's own execution deadline governs the
// call as a whole.
const dialDeadline = 10 * time.Second

// dialValidated resolves host, rejects it if the policy denies the
// connection or any resolved address falls in a private/reserved range,
// and dials the first address that passes both checks. Resolving once and
// dialing the resolved IP (rather than letting net.Dial re-resolve)
// closes the DNS-rebinding window between the allow check and the
// connection, the same reasoning behind reglet's DNS-pinning transport.
func dialValidated(ctx context.Context, policyCheck *compiled.CompiledPolicy, cache *compiled.DecisionCache, host string, port int, protocol string) (net.Conn, error) {
	if !policyCheck.AllowedNetwork(host, port, protocol, cache) {
		return nil, fmt.Errorf("network access to %s:%d (%s) denied by policy", host, port, protocol)
	}

	resolveCtx, cancel := context.WithTimeout(ctx, dialDeadline)
	defer cancel()
	ips, err := net.DefaultResolver.LookupIP(resolveCtx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}

	var lastErr error
	for _, ip := range ips {
		if match.IsPrivateOrReserved(ip) {
			lastErr = fmt.Errorf("%s resolves to private/reserved address %s", host, ip)
			continue
		}
		dialer := &net.Dialer{Timeout: dialDeadline}
		addr := net.JoinHostPort(ip.String(), fmt.Sprintf("%d", port))
		conn, err := dialer.DialContext(ctx, protocol, addr)
		if err != nil {
			lastErr = err
			continue
		}
		return conn, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s did not resolve to any usable address", host)
	}
	return nil, lastErr
}

// hostDialer adapts dialValidated to hostfuncs.Dialer, giving the net_check
// trampoline a real DNS-pinned validation dial instead of a pure policy
// lookup: a guest is told a connection is allowed only after the host has
// itself resolved and reached the address without hitting a private range.
type hostDialer struct {
	policy *compiled.CompiledPolicy
	cache  *compiled.DecisionCache
}

func (d hostDialer) DialValidated(ctx context.Context, host string, port int, protocol string) (net.Conn, error) {
	return dialValidated(ctx, d.policy, d.cache, host, port, protocol)
}
