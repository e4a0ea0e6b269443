package pwasm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/pwasm/internal/wasm"
)

// addWasm is the binary form of:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // type section
	0x03, 0x02, 0x01, 0x00, // function section
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, // export section: "add"
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // code section
}

// importDoubleWasm is the binary form of:
//
//	(module
//	  (import "env" "double" (func $double (param i32) (result i32)))
//	  (func (export "run") (param i32) (result i32)
//	    local.get 0
//	    call 0))
var importDoubleWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f, // type section
	0x02, 0x0e, 0x01, 0x03, 0x65, 0x6e, 0x76, 0x06, 0x64, 0x6f, 0x75, 0x62, 0x6c, 0x65, 0x00, 0x00, // import section
	0x03, 0x02, 0x01, 0x00, // function section
	0x07, 0x07, 0x01, 0x03, 0x72, 0x75, 0x6e, 0x00, 0x01, // export section: "run"
	0x0a, 0x08, 0x01, 0x06, 0x00, 0x20, 0x00, 0x10, 0x00, 0x0b, // code section
}

// unreachableWasm is the binary form of:
//
//	(module
//	  (func (export "crash")
//	    unreachable))
var unreachableWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x03, 0x01, 0x60, 0x00, 0x00, // type section
	0x03, 0x02, 0x01, 0x00, // function section
	0x07, 0x09, 0x01, 0x05, 0x63, 0x72, 0x61, 0x73, 0x68, 0x00, 0x00, // export section: "crash"
	0x0a, 0x05, 0x01, 0x03, 0x00, 0x00, 0x0b, // code section
}

func TestRuntime_TrapPropagatesAsError(t *testing.T) {
	ctx := context.Background()
	r := NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, unreachableWasm)
	require.NoError(t, err)

	_, err = mod.ExportedFunction("crash").Call(ctx)
	require.Error(t, err)
}

func TestRuntime_InstantiateAndCall(t *testing.T) {
	ctx := context.Background()
	r := NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, addWasm)
	require.NoError(t, err)

	add := mod.ExportedFunction("add")
	require.NotNil(t, add)

	results, err := add.Call(ctx, 40, 2)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

func TestRuntime_HostFunctionImport(t *testing.T) {
	ctx := context.Background()
	r := NewRuntime(ctx)
	defer r.Close(ctx)

	_, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(x uint32) uint32 { return x * 2 }).
		Export("double").
		Instantiate()
	require.NoError(t, err)

	mod, err := r.Instantiate(ctx, importDoubleWasm)
	require.NoError(t, err)

	run := mod.ExportedFunction("run")
	require.NotNil(t, run)

	results, err := run.Call(ctx, 21)
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, results)
}

func TestRuntime_CompileModuleReusesCache(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(8)
	rc := NewRuntimeConfig().WithCache(cache)

	r1 := NewRuntimeWithConfig(ctx, rc)
	defer r1.Close(ctx)
	c1, err := r1.CompileModule(ctx, addWasm)
	require.NoError(t, err)

	r2 := NewRuntimeWithConfig(ctx, rc)
	defer r2.Close(ctx)
	c2, err := r2.CompileModule(ctx, addWasm)
	require.NoError(t, err)

	mod1, err := r1.InstantiateModule(ctx, c1, NewModuleConfig().WithName("m1"))
	require.NoError(t, err)
	mod2, err := r2.InstantiateModule(ctx, c2, NewModuleConfig().WithName("m2"))
	require.NoError(t, err)

	r1Add, err := mod1.ExportedFunction("add").Call(ctx, 1, 2)
	require.NoError(t, err)
	r2Add, err := mod2.ExportedFunction("add").Call(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, r1Add, r2Add)
}

func TestRuntime_MemoryReadWrite(t *testing.T) {
	ctx := context.Background()
	r := NewRuntime(ctx)
	defer r.Close(ctx)

	_, err := r.NewHostModuleBuilder("env").
		ExportMemory("mem", 1).
		Instantiate()
	require.NoError(t, err)

	env := r.Module("env")
	require.NotNil(t, env)

	mem := env.ExportedMemory("mem")
	require.NotNil(t, mem)
	require.Equal(t, uint32(65536), mem.Size(ctx))

	ok := mem.WriteUint32Le(ctx, 0, 0xdeadbeef)
	require.True(t, ok)
	v, ok := mem.ReadUint32Le(ctx, 0)
	require.True(t, ok)
	require.Equal(t, uint32(0xdeadbeef), v)
}

func TestRuntimeConfig_FeatureToggling(t *testing.T) {
	rc := NewRuntimeConfig()
	require.True(t, rc.enabledFeatures.IsEnabled(wasm.FeatureSIMD))

	disabled := rc.WithFeatureSIMD(false)
	require.False(t, disabled.enabledFeatures.IsEnabled(wasm.FeatureSIMD))
	require.True(t, rc.enabledFeatures.IsEnabled(wasm.FeatureSIMD), "WithFeatureSIMD must not mutate the receiver")
}
