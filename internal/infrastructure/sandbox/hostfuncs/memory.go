// Package hostfuncs registers the host-import trampolines a guest module
// calls into: storage, network, and environment access gated by the
// compiled policy already resolved for the sandbox it runs in.
package hostfuncs

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero/api"
)

func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

func unpackPtrLen(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}

// readRequest reads and unmarshals a packed ptr+len JSON payload from
// guest memory into v.
func readRequest(mod api.Module, packed uint64, v any) error {
	ptr, length := unpackPtrLen(packed)
	raw, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return errMemoryRead
	}
	return json.Unmarshal(raw, v)
}

// writeResponse marshals v, allocates guest memory via the guest's
// exported "allocate" function, copies the bytes in, and returns the
// packed ptr+len the calling host-import trampoline hands back to the
// guest.
func writeResponse(ctx context.Context, mod api.Module, v any) uint64 {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(map[string]any{"error": map[string]string{"message": err.Error(), "kind": "internal"}})
	}
	allocate := mod.ExportedFunction("allocate")
	if allocate == nil {
		return 0
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil || len(results) == 0 {
		return 0
	}
	ptr := uint32(results[0])
	if !mod.Memory().Write(ptr, data) {
		return 0
	}
	return packPtrLen(ptr, uint32(len(data)))
}
