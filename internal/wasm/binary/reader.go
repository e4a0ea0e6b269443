// Package binary implements Wasm's binary module format: DecodeModule parses
// a byte slice into an internal/wasm.Module, EncodeModule serializes one
// back out.
package binary

import (
	"fmt"
	"io"

	"github.com/tetratelabs/pwasm/internal/leb128"
)

// reader is a position-tracking cursor over a module's bytes. It implements
// io.ByteReader so the leb128 package's Decode* functions can read directly
// from it without an intermediate allocation.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader { return &reader{buf: buf} }

func (r *reader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, io.EOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) byte() (byte, error) { return r.ReadByte() }

func (r *reader) bytes(n uint32) ([]byte, error) {
	if uint64(r.pos)+uint64(n) > uint64(len(r.buf)) {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *reader) u32() (uint32, error) {
	v, n, err := leb128.DecodeUint32(r)
	if err != nil {
		return 0, fmt.Errorf("u32: %w", err)
	}
	_ = n
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, _, err := leb128.DecodeInt32(r)
	if err != nil {
		return 0, fmt.Errorf("i32: %w", err)
	}
	return v, nil
}

func (r *reader) i64() (int64, error) {
	v, _, err := leb128.DecodeInt64(r)
	if err != nil {
		return 0, fmt.Errorf("i64: %w", err)
	}
	return v, nil
}

func (r *reader) i33AsI64() (int64, error) {
	v, _, err := leb128.DecodeInt33AsInt64(r)
	if err != nil {
		return 0, fmt.Errorf("i33: %w", err)
	}
	return v, nil
}

// f32bits reads 4 little-endian bytes as raw bit pattern.
func (r *reader) f32bits() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// f64bits reads 8 little-endian bytes as raw bit pattern.
func (r *reader) f64bits() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v, nil
}

func (r *reader) v128bits() ([16]byte, error) {
	var out [16]byte
	b, err := r.bytes(16)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (r *reader) eof() bool { return r.pos >= len(r.buf) }

func (r *reader) remaining() []byte { return r.buf[r.pos:] }
