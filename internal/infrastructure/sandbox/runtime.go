package sandbox

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/mcpkit-dev/mcpkit/internal/domain/capmap"
	"github.com/mcpkit-dev/mcpkit/internal/domain/policy"
	"github.com/mcpkit-dev/mcpkit/internal/infrastructure/sandbox/hostfuncs"
)

// runtimeCache speeds up repeated compilation of the same module bytes
// across sandbox hosts, mirroring the global wazero.CompilationCache
// reglet's own WASM runtime keeps for the same reason.
var runtimeCache = wazero.NewCompilationCache()

// newWazeroRuntime builds a wazero runtime configured to the capability
// descriptor's memory ceiling and with mcpkit's host imports registered.
func newWazeroRuntime(ctx context.Context, caps *capmap.CapabilityDescriptor) (wazero.Runtime, error) {
	config := wazero.NewRuntimeConfig().WithCompilationCache(runtimeCache).WithCloseOnContextDone(true)
	if caps.Resources.MemoryPages > 0 {
		config = config.WithMemoryLimitPages(caps.Resources.MemoryPages)
	}

	r := wazero.NewRuntimeWithConfig(ctx, config)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}
	if err := hostfuncs.Register(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("register host functions: %w", err)
	}
	return r, nil
}

// moduleConfig builds the wazero ModuleConfig for a single instantiation:
// preopened directories from the capability descriptor, the projected
// environment, and stdout/stderr wired to the sandbox's own writers.
func moduleConfig(caps *capmap.CapabilityDescriptor, stdout, stderr io.Writer) wazero.ModuleConfig {
	fsConfig := wazero.NewFSConfig()
	for _, p := range caps.Preopens {
		if p.Access.Has(policy.AccessWrite) || p.Access.Has(policy.AccessCreate) || p.Access.Has(policy.AccessDelete) {
			fsConfig = fsConfig.WithDirMount(p.HostPath, p.GuestPath)
		} else {
			fsConfig = fsConfig.WithReadOnlyDirMount(p.HostPath, p.GuestPath)
		}
	}

	cfg := wazero.NewModuleConfig().
		WithFSConfig(fsConfig).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader).
		WithStdout(stdout).
		WithStderr(stderr)

	for key, value := range caps.Environment.Variables {
		cfg = cfg.WithEnv(key, value)
	}
	return cfg
}
