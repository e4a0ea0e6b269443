package pwasm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/pwasm/internal/wasm"
)

func TestRuntimeConfig_WithContextRejectsNil(t *testing.T) {
	rc := NewRuntimeConfig().WithContext(nil)
	require.NotNil(t, rc.ctx)
	require.Equal(t, context.Background(), rc.ctx)
}

func TestRuntimeConfig_WithMemoryMaxPages(t *testing.T) {
	base := NewRuntimeConfig()
	require.Equal(t, wasm.MemoryMaxPages, base.memoryMaxPages)

	limited := base.WithMemoryMaxPages(10)
	require.Equal(t, uint32(10), limited.memoryMaxPages)
	require.Equal(t, wasm.MemoryMaxPages, base.memoryMaxPages, "WithMemoryMaxPages must not mutate the receiver")
}

func TestRuntimeConfig_CloneIsIndependent(t *testing.T) {
	base := NewRuntimeConfig()
	withCache := base.WithCache(NewCache(4))
	require.Nil(t, base.cache)
	require.NotNil(t, withCache.cache)
}

func TestModuleConfig_WithName(t *testing.T) {
	c := NewModuleConfig()
	require.Equal(t, "", c.name)

	named := c.WithName("foo")
	require.Equal(t, "foo", named.name)
	require.Equal(t, "", c.name, "WithName must not mutate the receiver")
}
