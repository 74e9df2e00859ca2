package hostfuncs

import (
	"context"
	"fmt"
	"os"

	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy/match"
	"github.com/tetratelabs/wazero/api"
)

// storageRequestWire and storageResponseWire mirror sandbox.StorageRequestWire
// / StorageResponseWire; duplicated here rather than imported to keep this
// package free of a dependency on the sandbox package that registers it.
type storageRequestWire struct {
	Path string `json:"path"`
	Data []byte `json:"data,omitempty"`
}

type storageResponseWire struct {
	Data  []byte       `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// StorageRead implements the storage_read host import: read a file at a
// policy-checked path and return its bytes.
func StorageRead(ctx context.Context, mod api.Module, stack []uint64) {
	_, req, earlyResp := beginStorageOp(ctx, mod, stack[0], policy.AccessRead)
	if earlyResp != 0 {
		stack[0] = earlyResp
		return
	}
	data, err := os.ReadFile(req.Path)
	if err != nil {
		stack[0] = writeResponse(ctx, mod, storageResponseWire{Error: &errorDetail{Message: err.Error(), Kind: "io"}})
		return
	}
	stack[0] = writeResponse(ctx, mod, storageResponseWire{Data: data})
}

// StorageWrite implements the storage_write host import.
func StorageWrite(ctx context.Context, mod api.Module, stack []uint64) {
	_, req, earlyResp := beginStorageOp(ctx, mod, stack[0], policy.AccessWrite)
	if earlyResp != 0 {
		stack[0] = earlyResp
		return
	}
	if err := os.WriteFile(req.Path, req.Data, 0o644); err != nil {
		stack[0] = writeResponse(ctx, mod, storageResponseWire{Error: &errorDetail{Message: err.Error(), Kind: "io"}})
		return
	}
	stack[0] = writeResponse(ctx, mod, storageResponseWire{})
}

// beginStorageOp decodes the request, canonicalizes its path, and checks
// it against policy, returning a nonzero packed response the caller should
// return immediately if anything failed or was denied.
func beginStorageOp(ctx context.Context, mod api.Module, packed uint64, access policy.Access) (*Invocation, storageRequestWire, uint64) {
	inv, ok := InvocationFromContext(ctx)
	if !ok {
		return nil, storageRequestWire{}, writeResponse(ctx, mod, storageResponseWire{Error: &errorDetail{Message: "no invocation context", Kind: "internal"}})
	}

	var req storageRequestWire
	if err := readRequest(mod, packed, &req); err != nil {
		return nil, storageRequestWire{}, writeResponse(ctx, mod, storageResponseWire{Error: &errorDetail{Message: err.Error(), Kind: "internal"}})
	}
	req.Path = match.CanonicalizePath(req.Path)

	if !inv.Policy.AllowedStorage(req.Path, access, inv.Cache) {
		inv.Recorder.Record("storage", access.String(), req.Path)
		return nil, storageRequestWire{}, writeResponse(ctx, mod, storageResponseWire{Error: &errorDetail{Message: fmt.Sprintf("storage access denied: %s %s", access, req.Path), Kind: "policy_denied"}})
	}
	return inv, req, 0
}
