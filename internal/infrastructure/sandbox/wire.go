package sandbox

import (
	"encoding/json"
	"time"
)

// These wire types are the JSON payloads exchanged across the guest/host
// boundary, packed as a single i64 (ptr<<32 | len) per call, the same ABI
// convention reglet's plugin SDK used for its own host functions.

// ErrorDetail is the structured error every wire response carries instead
// of a bare string, letting the guest distinguish policy denials from
// transient I/O failures without parsing prose.
type ErrorDetail struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// ToolCallRequestWire is the payload the host writes into guest memory
// before calling the guest's exported mcp_call_tool function.
type ToolCallRequestWire struct {
	Name      string     `json:"name"`
	Arguments []byte     `json:"arguments"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	// RequestID correlates this call with the violations and logs it
	// produces, generated fresh per invocation with google/uuid.
	RequestID string `json:"request_id"`
}

// ToolCallResponseWire is the payload the guest writes back.
type ToolCallResponseWire struct {
	Result []byte       `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// StorageRequestWire is the payload for the storage_read/storage_write
// host imports a guest calls to perform its own filesystem I/O under
// dynamic policy enforcement, independent of the coarse-grained preopen
// directories already wired into the module's FS config.
type StorageRequestWire struct {
	Path string `json:"path"`
	Data []byte `json:"data,omitempty"` // present for storage_write
}

type StorageResponseWire struct {
	Data  []byte       `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// EnvReadRequestWire is the payload for the env_read host import.
type EnvReadRequestWire struct {
	Key string `json:"key"`
}

type EnvReadResponseWire struct {
	Value string       `json:"value,omitempty"`
	Found bool         `json:"found"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// packPtrLen and unpackPtrLen implement the packed ptr+len ABI every host
// import and guest export on this boundary uses in place of multiple
// return values, since wazero host functions see only the i64 stack.
func packPtrLen(ptr, length uint32) uint64 {
	return (uint64(ptr) << 32) | uint64(length)
}

func unpackPtrLen(packed uint64) (ptr, length uint32) {
	return uint32(packed >> 32), uint32(packed)
}

func marshalRequest(req ToolCallRequestWire) ([]byte, error) {
	return json.Marshal(req)
}

func unmarshalInto(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}
