package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVector_PushPop(t *testing.T) {
	var v Vector[uint32]
	require.Equal(t, 0, v.Len())

	for i := uint32(0); i < 10; i++ {
		v.Push(i)
	}
	require.Equal(t, 10, v.Len())
	require.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, v.Data())

	top, ok := v.Peek()
	require.True(t, ok)
	require.Equal(t, uint32(9), top)

	for i := 9; i >= 0; i-- {
		val, ok := v.Pop()
		require.True(t, ok)
		require.Equal(t, uint32(i), val)
	}
	_, ok = v.Pop()
	require.False(t, ok)
}

func TestVector_GrowReallocatesAcrossPages(t *testing.T) {
	var v Vector[byte]
	for i := 0; i < pageBytes*3; i++ {
		v.Push(byte(i))
	}
	require.Equal(t, pageBytes*3, v.Len())
	require.GreaterOrEqual(t, v.Cap(), pageBytes*3)
	for i := 0; i < pageBytes*3; i++ {
		require.Equal(t, byte(i), v.Data()[i])
	}
}

func TestVector_ShrinkAndClear(t *testing.T) {
	var v Vector[int]
	v.Push(1)
	v.Push(2)
	v.Push(3)

	v.Shrink(1)
	require.Equal(t, []int{1}, v.Data())

	v.Clear()
	require.Equal(t, 0, v.Len())
	require.GreaterOrEqual(t, v.Cap(), 1)
}

func TestVector_PushUninitializedAllowsInPlaceInit(t *testing.T) {
	var v Vector[struct{ A, B uint32 }]
	p := v.PushUninitialized()
	p.A, p.B = 7, 9
	got, ok := v.Peek()
	require.True(t, ok)
	require.Equal(t, uint32(7), got.A)
	require.Equal(t, uint32(9), got.B)
}
