package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/pwasm/internal/wasm"
	wasmbin "github.com/tetratelabs/pwasm/internal/wasm/binary"
)

// typeMismatchWasm is the binary form of:
//
//	(module
//	  (func (param i32 i64) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
//
// i32.add's second operand is declared i64, which must be rejected.
var typeMismatchWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7e, 0x01, 0x7f, // type: (i32,i64)->i32
	0x03, 0x02, 0x01, 0x00, // function section
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b, // code
}

func TestModule_Validate_RejectsTypeMismatch(t *testing.T) {
	m, err := wasmbin.DecodeModule(typeMismatchWasm, wasm.All)
	require.NoError(t, err)

	err = m.Validate(wasm.All)
	require.Error(t, err)
	require.Contains(t, err.Error(), "type mismatch")
}

// brMismatchWasm is the binary form of:
//
//	(module
//	  (func (result i32)
//	    (block (result i32)
//	      i64.const 0
//	      br 0)
//	    unreachable))
//
// br 0 leaves an i64 on the stack where the enclosing block expects i32.
var brMismatchWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f, // type: ()->i32
	0x03, 0x02, 0x01, 0x00,
	0x0a, 0x0c, 0x01, 0x0a, 0x00, 0x02, 0x7f, 0x42, 0x00, 0x0c, 0x00, 0x0b, 0x00, 0x0b,
}

func TestModule_Validate_RejectsBrTypeMismatch(t *testing.T) {
	m, err := wasmbin.DecodeModule(brMismatchWasm, wasm.All)
	require.NoError(t, err)

	err = m.Validate(wasm.All)
	require.Error(t, err)
	require.Contains(t, err.Error(), "type mismatch")
}

// unreachableStackWasm is the binary form of:
//
//	(module
//	  (func (result i32)
//	    unreachable
//	    i32.add))
//
// i32.add normally needs two operands; after unreachable the frame is
// polymorphic and popping past the frame's height is treated as "any type"
// rather than underflow, so this validates despite the missing operands.
var unreachableStackWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f, // type: ()->i32
	0x03, 0x02, 0x01, 0x00,
	0x0a, 0x06, 0x01, 0x04, 0x00, 0x00, 0x6a, 0x0b, // code
}

func TestModule_Validate_UnreachableCodeIsPolymorphic(t *testing.T) {
	m, err := wasmbin.DecodeModule(unreachableStackWasm, wasm.All)
	require.NoError(t, err)

	require.NoError(t, m.Validate(wasm.All))
}

// brTableArityMismatchWasm is the binary form of:
//
//	(module
//	  (func
//	    (block (result i32)
//	      (block
//	        i32.const 0
//	        i32.const 0
//	        br_table 0 1
//	      )
//	      unreachable
//	    )
//	    drop))
//
// br_table's two targets (depth 0, the inner void block; depth 1, the outer
// i32 block) don't agree on arity.
var brTableArityMismatchWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type: ()->()
	0x03, 0x02, 0x01, 0x00,
	0x0a, 0x14, 0x01, 0x12, 0x00,
	0x02, 0x7f, // block (result i32)
	0x02, 0x40, // block
	0x41, 0x00, 0x41, 0x00,
	0x0e, 0x01, 0x00, 0x01, // br_table 0 1
	0x0b, // end inner block
	0x00, // unreachable
	0x0b, // end outer block
	0x1a, // drop
	0x0b, // end func
}

func TestModule_Validate_RejectsBrTableArityMismatch(t *testing.T) {
	m, err := wasmbin.DecodeModule(brTableArityMismatchWasm, wasm.All)
	require.NoError(t, err)

	err = m.Validate(wasm.All)
	require.Error(t, err)
	require.Contains(t, err.Error(), "br_table")
}

func TestModule_Validate_AcceptsAdd(t *testing.T) {
	m, err := wasmbin.DecodeModule(addWasmForValidation, wasm.All)
	require.NoError(t, err)
	require.NoError(t, m.Validate(wasm.All))
}

// addWasmForValidation mirrors binary.addWasm without depending on the
// binary package's test-only fixture.
var addWasmForValidation = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}
