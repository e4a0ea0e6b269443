// Package u64 holds uint64 helpers.
package u64

import "encoding/binary"

// LeBytes returns v little-endian encoded in a new 8-byte slice.
func LeBytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
