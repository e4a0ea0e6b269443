package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		valid bool
	}{
		{"empty", nil, true},
		{"ascii", []byte("add"), true},
		{"two byte", []byte{0xc3, 0xa9}, true},       // é
		{"three byte", []byte{0xe2, 0x82, 0xac}, true}, // €
		{"four byte", []byte{0xf0, 0x9f, 0x92, 0xa9}, true},
		{"truncated two byte", []byte{0xc3}, false},
		{"truncated three byte", []byte{0xe2, 0x82}, false},
		{"overlong two byte (NUL)", []byte{0xc0, 0x80}, false},
		{"encoded surrogate", []byte{0xed, 0xa0, 0x80}, false},
		{"codepoint above max", []byte{0xf4, 0x90, 0x80, 0x80}, false},
		{"bad continuation byte", []byte{0xc3, 0x28}, false},
		{"lone continuation byte", []byte{0x80}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.valid, ValidUTF8(tt.input))
		})
	}
}
