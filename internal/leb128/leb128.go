// Package leb128 implements the LEB128 (Little-Endian Base-128) variable
// length integer encoding used throughout the WebAssembly binary format.
//
// Every decode function enforces the byte-length caps the format mandates
// (5 bytes for a 32-bit value, 10 for a 64-bit value, or its signed
// equivalents); an over-length encoding is a decode error, not silently
// truncated.
package leb128

import (
	"fmt"
	"io"
)

const (
	maxVarintLen32 = 5
	maxVarintLen33 = 5
	maxVarintLen64 = 10
)

// DecodeUint32 reads an unsigned LEB128-encoded uint32 from r, returning the
// value and the number of bytes consumed.
func DecodeUint32(r io.ByteReader) (uint32, uint64, error) {
	v, n, err := decodeUvarint(r, 32, maxVarintLen32)
	return uint32(v), n, err
}

// DecodeUint64 reads an unsigned LEB128-encoded uint64 from r.
func DecodeUint64(r io.ByteReader) (uint64, uint64, error) {
	return decodeUvarint(r, 64, maxVarintLen64)
}

// DecodeInt32 reads a signed LEB128-encoded int32 from r.
func DecodeInt32(r io.ByteReader) (int32, uint64, error) {
	v, n, err := decodeVarint(r, 32, maxVarintLen32)
	return int32(v), n, err
}

// DecodeInt64 reads a signed LEB128-encoded int64 from r.
func DecodeInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeVarint(r, 64, maxVarintLen64)
}

// DecodeInt33AsInt64 decodes a signed 33-bit LEB128 value (the encoding used
// by Wasm 1.0 block types, where a negative value names a single result
// valtype or -0x40 names "void") sign-extended into an int64.
func DecodeInt33AsInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeVarint(r, 33, maxVarintLen33)
}

func decodeUvarint(r io.ByteReader, size int, byteCap int) (uint64, uint64, error) {
	var result uint64
	var shift uint
	var read uint64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, read, fmt.Errorf("readByte failed: %w", err)
		}
		read++
		if read > uint64(byteCap) {
			return 0, read, fmt.Errorf("overflows a %d-bit integer", size)
		}

		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			// Reject spurious high bits in the last byte beyond `size`.
			remainingBits := size - int(shift)
			if remainingBits < 7 && (b>>uint(remainingBits)) != 0 {
				return 0, read, fmt.Errorf("overflows a %d-bit integer", size)
			}
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, read, fmt.Errorf("overflows a %d-bit integer", size)
		}
	}
	if size < 64 {
		result &= (1 << uint(size)) - 1
	}
	return result, read, nil
}

func decodeVarint(r io.ByteReader, size int, byteCap int) (int64, uint64, error) {
	var result int64
	var shift uint
	var read uint64
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, read, fmt.Errorf("readByte failed: %w", err)
		}
		read++
		if read > uint64(byteCap) {
			return 0, read, fmt.Errorf("overflows a %d-bit integer", size)
		}

		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 64 {
			return 0, read, fmt.Errorf("overflows a %d-bit integer", size)
		}
	}

	// Sign extend if the sign bit of the last group is set and we haven't
	// consumed the full 64 bits.
	if shift < 64 && (b&0x40) != 0 {
		result |= -1 << shift
	}

	if size < 64 {
		// The value must be representable in `size` bits once sign-extended
		// to 64 bits; otherwise this is an over-long / out-of-range encoding.
		hi := result >> uint(size-1)
		if hi != 0 && hi != -1 {
			return 0, read, fmt.Errorf("overflows a %d-bit integer", size)
		}
	}
	return result, read, nil
}

// LoadUint32 decodes an unsigned LEB128 uint32 directly from a byte slice,
// without allocating a reader.
func LoadUint32(buf []byte) (uint32, uint64, error) {
	v, n, err := decodeUvarint(&sliceReader{buf: buf}, 32, maxVarintLen32)
	return uint32(v), n, err
}

// LoadUint64 decodes an unsigned LEB128 uint64 directly from a byte slice.
func LoadUint64(buf []byte) (uint64, uint64, error) {
	return decodeUvarint(&sliceReader{buf: buf}, 64, maxVarintLen64)
}

// LoadInt32 decodes a signed LEB128 int32 directly from a byte slice.
func LoadInt32(buf []byte) (int32, uint64, error) {
	v, n, err := decodeVarint(&sliceReader{buf: buf}, 32, maxVarintLen32)
	return int32(v), n, err
}

// LoadInt64 decodes a signed LEB128 int64 directly from a byte slice.
func LoadInt64(buf []byte) (int64, uint64, error) {
	return decodeVarint(&sliceReader{buf: buf}, 64, maxVarintLen64)
}

// sliceReader is a zero-allocation io.ByteReader over a slice, used by the
// Load* family so hot-path decoding never allocates (mirrored by
// leb128_alloc_test.go's allocation assertions).
type sliceReader struct {
	buf []byte
	pos int
}

func (s *sliceReader) ReadByte() (byte, error) {
	if s.pos >= len(s.buf) {
		return 0, io.EOF
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

// EncodeUint32 encodes v as unsigned LEB128.
func EncodeUint32(v uint32) []byte {
	return EncodeUint64(uint64(v))
}

// EncodeUint64 encodes v as unsigned LEB128.
func EncodeUint64(v uint64) []byte {
	out := make([]byte, 0, maxVarintLen64)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

// EncodeInt32 encodes v as signed LEB128.
func EncodeInt32(v int32) []byte {
	return EncodeInt64(int64(v))
}

// EncodeInt64 encodes v as signed LEB128.
func EncodeInt64(v int64) []byte {
	out := make([]byte, 0, maxVarintLen64)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			out = append(out, b)
			break
		}
		out = append(out, b|0x80)
	}
	return out
}
