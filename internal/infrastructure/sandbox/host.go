// Package sandbox implements the sandbox host (C5): it instantiates a
// compiled WASM module under a capability descriptor projected from a
// compiled policy, dispatches MCP operations to the guest's exported
// functions, and enforces the policy's storage/network/environment rules
// at every host-import call the guest makes along the way.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/mcpkit-dev/mcpkit/internal/domain/capmap"
	"github.com/mcpkit-dev/mcpkit/internal/domain/compiled"
	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/sandbox/hostfuncs"
	"github.com/mcpkit-dev/mcpkit/internal/mcperr"
)

const defaultViolationRingSize = 64

// Host wraps one guest module under one compiled policy. A Host is not
// safe for concurrent CallTool calls from multiple goroutines against the same
// underlying wazero.Runtime instantiation — spec §5's "many parallel
// single-threaded sandboxes" model means callers run one Host per
// concurrent invocation, each with its own decision cache, not one Host
// shared across goroutines.
type Host struct {
	mu               sync.Mutex
	runtime          wazero.Runtime
	module           wazero.CompiledModule
	policy           *compiled.CompiledPolicy
	caps             *capmap.CapabilityDescriptor
	state            State
	violations       *violationRing
	currentRequestID string
}

// New compiles wasmBytes under policyCheck/caps and returns a Host in
// StateReady. The caller owns the returned Host's lifetime and must call
// Close to release the wazero runtime.
func New(ctx context.Context, wasmBytes []byte, policyCheck *compiled.CompiledPolicy, caps *capmap.CapabilityDescriptor) (*Host, error) {
	runtime, err := newWazeroRuntime(ctx, caps)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.KindInternal, "create wazero runtime", err)
	}

	module, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, mcperr.Wrap(mcperr.KindWasmTrap, "compile module", err)
	}

	h := &Host{
		runtime:    runtime,
		module:     module,
		policy:     policyCheck,
		caps:       caps,
		state:      StateCreated,
		violations: newViolationRing(defaultViolationRingSize),
	}
	if err := h.state.transition(StateReady); err != nil {
		_ = h.Close(ctx)
		return nil, mcperr.Wrap(mcperr.KindInternal, "initialize sandbox state", err)
	}
	return h, nil
}

// Record implements hostfuncs.Recorder.
func (h *Host) Record(kind, operation, detail string) {
	h.mu.Lock()
	requestID := h.currentRequestID
	h.mu.Unlock()
	h.violations.record(Violation{Time: time.Now(), Kind: kind, Operation: operation, Detail: detail, RequestID: requestID})
}

// Violations returns every violation observed on this host so far.
func (h *Host) Violations() []Violation {
	return h.violations.All()
}

// State returns the sandbox's current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// CallTool invokes the guest's exported mcp_call_tool function with name
// and arguments, after checking the tool against policy and its
// associated rate limiter. The call gets a fresh module instance and a
// fresh decision cache, per spec §4.3's "per-invocation" cache lifetime.
// A Host runs one guest invocation: once a call has left StateReady, a
// further CallTool fails with an invalid state transition.
func (h *Host) CallTool(ctx context.Context, name string, arguments []byte) ([]byte, error) {
	allowed, limiter := h.policy.AllowedTool(name)
	if !allowed {
		h.Record("tool", "call", name)
		return nil, mcperr.New(mcperr.KindPolicyDenied, fmt.Sprintf("tool %q is not allowed by policy", name))
	}
	if limiter != nil {
		if ok, _ := limiter.Allow(time.Now()); !ok {
			h.Record("tool", "rate_limited", name)
			return nil, mcperr.New(mcperr.KindRateLimited, fmt.Sprintf("tool %q exceeded its call rate limit", name))
		}
	}

	requestID := uuid.NewString()
	return h.invoke(ctx, "mcp_call_tool", ToolCallRequestWire{Name: name, Arguments: arguments, RequestID: requestID}, func(raw []byte) (*ToolCallResponseWire, error) {
		var resp ToolCallResponseWire
		if err := unmarshalInto(raw, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}

// invoke manages one instance's lifecycle for a single guest call: it
// transitions to Running, instantiates a fresh module, wires the request
// through the packed-ptr ABI, decodes the response, and transitions to a
// terminal state based on the outcome.
func (h *Host) invoke(ctx context.Context, export string, request ToolCallRequestWire, decode func([]byte) (*ToolCallResponseWire, error)) ([]byte, error) {
	h.mu.Lock()
	if err := h.state.transition(StateRunning); err != nil {
		h.mu.Unlock()
		return nil, mcperr.Wrap(mcperr.KindInternal, "begin invocation", err)
	}
	h.currentRequestID = request.RequestID
	h.mu.Unlock()

	deadline := h.policy.ResourceLimits().ExecutionMS
	runCtx := ctx
	var cancel context.CancelFunc
	if deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(deadline)*time.Millisecond)
		defer cancel()
	}

	cache := compiled.NewDecisionCache()
	inv := &hostfuncs.Invocation{Policy: h.policy, Cache: cache, Dialer: hostDialer{policy: h.policy, cache: cache}, Recorder: h, RequestID: request.RequestID}
	runCtx = hostfuncs.WithInvocation(runCtx, inv)

	var stdout, stderr bytes.Buffer
	instance, err := h.runtime.InstantiateModule(runCtx, h.module, moduleConfig(h.caps, io.Writer(&stdout), io.Writer(&stderr)))
	if err != nil {
		h.finish(StateFailedTrap)
		return nil, mcperr.Wrap(mcperr.KindWasmTrap, "instantiate module", err)
	}
	defer func() { _ = instance.Close(ctx) }()

	fn := instance.ExportedFunction(export)
	if fn == nil {
		h.finish(StateFailedTrap)
		return nil, mcperr.New(mcperr.KindWasmTrap, fmt.Sprintf("guest module does not export %s", export))
	}

	reqBytes, err := marshalRequest(request)
	if err != nil {
		h.finish(StateFailedTrap)
		return nil, mcperr.Wrap(mcperr.KindInternal, "marshal request", err)
	}
	reqPtr, err := writeGuestMemory(runCtx, instance, reqBytes)
	if err != nil {
		h.finish(StateFailedTrap)
		return nil, mcperr.Wrap(mcperr.KindWasmTrap, "write request into guest memory", err)
	}

	results, err := fn.Call(runCtx, uint64(reqPtr), uint64(len(reqBytes)))
	if err != nil {
		if runCtx.Err() != nil {
			h.finish(StateFailedResource)
			return nil, mcperr.Wrap(mcperr.KindResourceExhausted, "guest execution deadline exceeded", runCtx.Err())
		}
		h.finish(StateFailedTrap)
		return nil, mcperr.Wrap(mcperr.KindWasmTrap, "guest function call trapped", err)
	}
	if len(results) == 0 {
		h.finish(StateFailedTrap)
		return nil, mcperr.New(mcperr.KindWasmTrap, fmt.Sprintf("%s returned no result", export))
	}

	respBytes, err := readGuestMemory(instance, results[0])
	if err != nil {
		h.finish(StateFailedTrap)
		return nil, mcperr.Wrap(mcperr.KindWasmTrap, "read response from guest memory", err)
	}

	resp, err := decode(respBytes)
	if err != nil {
		h.finish(StateFailedTrap)
		return nil, mcperr.Wrap(mcperr.KindWasmTrap, "decode guest response", err)
	}
	if resp.Error != nil {
		h.finish(StateCompleted)
		return nil, mcperr.New(mcperr.KindWasmTrap, resp.Error.Message)
	}

	h.finish(StateCompleted)
	return resp.Result, nil
}

func (h *Host) finish(to State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = h.state.transition(to)
}

// Close releases the underlying wazero runtime. A Host must not be used
// after Close.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	h.state.destroy()
	h.mu.Unlock()
	return h.runtime.Close(ctx)
}

func writeGuestMemory(ctx context.Context, instance api.Module, data []byte) (uint32, error) {
	allocate := instance.ExportedFunction("allocate")
	if allocate == nil {
		return 0, fmt.Errorf("guest module does not export allocate")
	}
	results, err := allocate.Call(ctx, uint64(len(data)))
	if err != nil || len(results) == 0 {
		return 0, fmt.Errorf("guest allocate failed: %w", err)
	}
	ptr := uint32(results[0])
	if !instance.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("failed to write %d bytes at guest offset %d", len(data), ptr)
	}
	return ptr, nil
}

func readGuestMemory(instance api.Module, packed uint64) ([]byte, error) {
	ptr, length := unpackPtrLen(packed)
	if ptr == 0 || length == 0 {
		return nil, fmt.Errorf("guest returned null pointer or zero length")
	}
	data, ok := instance.Memory().Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("failed to read %d bytes at guest offset %d", length, ptr)
	}
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}
