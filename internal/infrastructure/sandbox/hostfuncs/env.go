package hostfuncs

import (
	"context"
	"os"

	"github.com/tetratelabs/wazero/api"
)

type envReadRequestWire struct {
	Key string `json:"key"`
}

type envReadResponseWire struct {
	Value string       `json:"value,omitempty"`
	Found bool         `json:"found"`
	Error *errorDetail `json:"error,omitempty"`
}

// EnvRead implements the env_read host import. Environment variables
// allowed by policy are already injected into the module's config at
// instantiation time (spec §4.4); this import exists for a guest that
// wants to probe a single key dynamically (e.g. an optional variable)
// without failing module instantiation if it's absent.
func EnvRead(ctx context.Context, mod api.Module, stack []uint64) {
	inv, ok := InvocationFromContext(ctx)
	if !ok {
		stack[0] = writeResponse(ctx, mod, envReadResponseWire{Error: &errorDetail{Message: "no invocation context", Kind: "internal"}})
		return
	}

	var req envReadRequestWire
	if err := readRequest(mod, stack[0], &req); err != nil {
		stack[0] = writeResponse(ctx, mod, envReadResponseWire{Error: &errorDetail{Message: err.Error(), Kind: "internal"}})
		return
	}

	if !inv.Policy.AllowedEnv(req.Key, inv.Cache) {
		inv.Recorder.Record("environment", "read", req.Key)
		stack[0] = writeResponse(ctx, mod, envReadResponseWire{Error: &errorDetail{Message: "environment variable denied by policy: " + req.Key, Kind: "policy_denied"}})
		return
	}

	value, found := os.LookupEnv(req.Key)
	stack[0] = writeResponse(ctx, mod, envReadResponseWire{Value: value, Found: found})
}
