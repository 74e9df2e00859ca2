package hostfuncs

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ModuleName is the host module a guest imports these functions from.
const ModuleName = "mcpkit_host"

// Register builds and instantiates the host module exposing storage,
// network-check, and environment-read imports to guest modules.
func Register(ctx context.Context, runtime wazero.Runtime) error {
	builder := runtime.NewHostModuleBuilder(ModuleName)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(StorageRead), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export("storage_read")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(StorageWrite), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export("storage_write")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(NetCheck), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export("net_check")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(EnvRead), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
		Export("env_read")

	_, err := builder.Instantiate(ctx)
	return err
}
