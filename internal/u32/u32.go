// Package u32 holds uint32 helpers.
package u32

import "encoding/binary"

// LeBytes returns v little-endian encoded in a new 4-byte slice.
func LeBytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
