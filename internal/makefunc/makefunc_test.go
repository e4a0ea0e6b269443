package makefunc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/pwasm/internal/wasm"
)

func TestFromReflect_SignatureAndCall(t *testing.T) {
	native, sig, err := FromReflect("add", func(a, b uint32) uint32 { return a + b })
	require.NoError(t, err)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, sig.Params)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI32}, sig.Results)

	stack := []uint64{40, 2}
	native(&wasm.CallContext{}, stack)
	require.Equal(t, uint64(42), stack[0])
}

func TestFromReflect_SignedAndFloatTypes(t *testing.T) {
	native, sig, err := FromReflect("mix", func(a int64, b float64) float32 {
		return float32(a) + float32(b)
	})
	require.NoError(t, err)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeI64, wasm.ValueTypeF64}, sig.Params)
	require.Equal(t, []wasm.ValueType{wasm.ValueTypeF32}, sig.Results)

	stack := make([]uint64, 2)
	stack[0] = uint64(int64(-3))
	stack[1] = math.Float64bits(2.5)
	native(&wasm.CallContext{}, stack)
	require.Equal(t, math.Float32bits(-0.5), uint32(stack[0]))
}

func TestFromReflect_NoResults(t *testing.T) {
	called := false
	native, sig, err := FromReflect("noop", func(x uint32) { called = true })
	require.NoError(t, err)
	require.Len(t, sig.Results, 0)

	native(&wasm.CallContext{}, []uint64{7})
	require.True(t, called)
}

func TestFromReflect_RejectsVariadic(t *testing.T) {
	_, _, err := FromReflect("bad", func(a ...uint32) uint32 { return 0 })
	require.Error(t, err)
}

func TestFromReflect_RejectsUnsupportedType(t *testing.T) {
	_, _, err := FromReflect("bad", func(a string) uint32 { return 0 })
	require.Error(t, err)
}

func TestFromReflect_RejectsNonFunc(t *testing.T) {
	_, _, err := FromReflect("bad", 42)
	require.Error(t, err)
}
