package hostfuncs

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

type netConnectRequestWire struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
}

type netConnectResponseWire struct {
	Allowed bool         `json:"allowed"`
	Error   *errorDetail `json:"error,omitempty"`
}

// NetCheck implements the net_check host import: the guest asks whether a
// connection it's about to make would be allowed, without the host handing
// a live socket back to the guest. Dialing the wire itself remains the
// guest's own responsibility over WASI sockets once preopened; this call
// exists because wazero's WASI sockets extension has no hook for
// per-connection policy enforcement, so the guest must ask first and honor
// the answer. Beyond the pure policy lookup, NetCheck also performs a
// DNS-pinned validation dial through inv.Dialer and closes it immediately
// — proving the resolved address is actually reachable and not privately
// routed before telling the guest "allowed", closing the DNS-rebinding
// window between this check and the guest's own dial.
func NetCheck(ctx context.Context, mod api.Module, stack []uint64) {
	inv, ok := InvocationFromContext(ctx)
	if !ok {
		stack[0] = writeResponse(ctx, mod, netConnectResponseWire{Error: &errorDetail{Message: "no invocation context", Kind: "internal"}})
		return
	}

	var req netConnectRequestWire
	if err := readRequest(mod, stack[0], &req); err != nil {
		stack[0] = writeResponse(ctx, mod, netConnectResponseWire{Error: &errorDetail{Message: err.Error(), Kind: "internal"}})
		return
	}

	allowed := inv.Policy.AllowedNetwork(req.Host, req.Port, req.Protocol, inv.Cache)
	if allowed && inv.Dialer != nil {
		conn, err := inv.Dialer.DialValidated(ctx, req.Host, req.Port, req.Protocol)
		if err != nil {
			allowed = false
		} else {
			_ = conn.Close()
		}
	}
	if !allowed {
		inv.Recorder.Record("network", req.Protocol, fmt.Sprintf("%s:%d", req.Host, req.Port))
	}
	stack[0] = writeResponse(ctx, mod, netConnectResponseWire{Allowed: allowed})
}
