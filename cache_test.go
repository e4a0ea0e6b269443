package pwasm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/pwasm/internal/wasm"
	wasmbin "github.com/tetratelabs/pwasm/internal/wasm/binary"
)

func TestCache_GetPutRoundTrip(t *testing.T) {
	m, err := wasmbin.DecodeModule(addWasm, wasm.All)
	require.NoError(t, err)

	c := NewCache(4)
	_, ok := c.get(m.ID)
	require.False(t, ok)

	c.put(m)
	got, ok := c.get(m.ID)
	require.True(t, ok)
	require.Same(t, m, got)
}

func TestCache_NonPositiveSizeDisablesCaching(t *testing.T) {
	m, err := wasmbin.DecodeModule(addWasm, wasm.All)
	require.NoError(t, err)

	c := NewCache(0)
	c.put(m)
	_, ok := c.get(m.ID)
	require.False(t, ok)
}

func TestCache_NilCacheIsSafe(t *testing.T) {
	var c *Cache
	_, ok := c.get(wasm.ModuleID{})
	require.False(t, ok)
	c.put(&wasm.Module{}) // must not panic
}
