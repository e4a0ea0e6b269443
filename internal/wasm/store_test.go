package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandle_ValidAndIndex(t *testing.T) {
	var h Handle
	require.False(t, h.Valid())

	h = handleOf(0)
	require.True(t, h.Valid())
	require.Equal(t, 0, h.index())

	h = handleOf(5)
	require.Equal(t, 5, h.index())
}

func TestSignature_Equal(t *testing.T) {
	a := Signature{Params: []ValueType{ValueTypeI32, ValueTypeI64}, Results: []ValueType{ValueTypeF32}}
	b := Signature{Params: []ValueType{ValueTypeI32, ValueTypeI64}, Results: []ValueType{ValueTypeF32}}
	c := Signature{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeF32}}
	d := Signature{Params: []ValueType{ValueTypeI32, ValueTypeI64}, Results: []ValueType{ValueTypeF64}}

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(d))
}

func TestMemoryInstance_Grow(t *testing.T) {
	m := &MemoryInstance{Min: 1, Max: 2, HasMax: true, Buffer: make([]byte, memoryPageSize)}

	prev := m.Grow(1, MemoryMaxPages)
	require.Equal(t, int32(1), prev)
	require.Equal(t, uint32(2), m.PageCount())

	// Growing past the memory's own declared max fails.
	require.Equal(t, int32(-1), m.Grow(1, MemoryMaxPages))

	// Growing past the store-wide ceiling fails even within the memory's own max.
	m2 := &MemoryInstance{Min: 1, Buffer: make([]byte, memoryPageSize)}
	require.Equal(t, int32(-1), m2.Grow(10, 5))
}

func TestMemoryInstance_GrowPreservesContents(t *testing.T) {
	m := &MemoryInstance{Buffer: make([]byte, memoryPageSize)}
	m.Buffer[0] = 0x42

	m.Grow(1, MemoryMaxPages)
	require.Equal(t, byte(0x42), m.Buffer[0])
	require.Equal(t, uint32(2), m.PageCount())
}

func TestStore_CallFunctionWithoutEngineErrors(t *testing.T) {
	// Does not register an engine; exercises the "no engine registered"
	// guard directly rather than through a real call, since any package
	// that imports internal/engine/interpreter installs one process-wide.
	s := &Store{Modules: map[string]*ModuleInstance{}}
	prevEngine := engineCallFunction
	engineCallFunction = nil
	defer func() { engineCallFunction = prevEngine }()

	_, err := s.CallFunction(handleOf(0), nil)
	require.Error(t, err)
}
