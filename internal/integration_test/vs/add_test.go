//go:build amd64 && cgo && !windows

// wasmtime-go only links on amd64 with CGO; wasmer-go doesn't link on Windows.
package vs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// addWasm is the binary form of:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // type section
	0x03, 0x02, 0x01, 0x00, // function section
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00, // export section: "add"
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // code section
}

var testCtx = context.WithValue(context.Background(), struct{}{}, "arbitrary")

// TestAdd runs the same module through pwasm, wasmtime-go, and wasmer-go
// and requires their results to agree.
func TestAdd(t *testing.T) {
	testers := map[string]runtimeTester{
		"pwasm":       newPwasmTester(),
		"wasmtime-go": newWasmtimeTester(),
		"wasmer-go":   newWasmerTester(),
	}

	cases := []struct{ a, b, want uint64 }{
		{1, 2, 3},
		{0, 0, 0},
		{0xffffffff, 1, 0}, // wraps at i32
	}

	for name, rt := range testers {
		rt := rt
		t.Run(name, func(t *testing.T) {
			require.NoError(t, rt.Init(testCtx, addWasm, "add"))
			defer rt.Close()

			for _, c := range cases {
				got, err := rt.Call(testCtx, "add", c.a, c.b)
				require.NoError(t, err)
				require.Equal(t, c.want, got)
			}
		})
	}
}
