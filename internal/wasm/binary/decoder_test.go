package binary

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/pwasm/internal/wasm"
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

func TestDecodeModule_RejectsBadMagicAndVersion(t *testing.T) {
	_, err := DecodeModule([]byte{0x00, 0x61, 0x73, 0x00, 0x01, 0x00, 0x00, 0x00}, wasm.All)
	require.Error(t, err)

	_, err = DecodeModule([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00}, wasm.All)
	require.Error(t, err)
}

func TestDecodeModule_Add(t *testing.T) {
	m, err := DecodeModule(addWasm, wasm.All)
	require.NoError(t, err)

	require.Len(t, m.TypeSection, 1)
	require.Equal(t, []byte{byte(wasm.ValueTypeI32), byte(wasm.ValueTypeI32)}, m.Bytes(m.TypeSection[0].Params))
	require.Equal(t, []byte{byte(wasm.ValueTypeI32)}, m.Bytes(m.TypeSection[0].Results))

	require.Len(t, m.ExportSection, 1)
	require.Equal(t, "add", string(m.Bytes(m.ExportSection[0].Name)))
	require.Equal(t, wasm.ExternKindFunc, wasm.ExternKind(m.ExportSection[0].Kind))
}

func TestDecodeModule_RejectsSectionsOutOfOrder(t *testing.T) {
	// Swap the type and function section IDs' relative order by moving the
	// function section (id 3) before the type section (id 1).
	bad := append([]byte{}, addWasm[:8]...)
	bad = append(bad, addWasm[17:21]...) // function section
	bad = append(bad, addWasm[8:17]...)  // type section
	bad = append(bad, addWasm[21:]...)

	_, err := DecodeModule(bad, wasm.All)
	require.Error(t, err)
}

func TestEncodeModule_RoundTrips(t *testing.T) {
	m, err := DecodeModule(addWasm, wasm.All)
	require.NoError(t, err)

	encoded := EncodeModule(m)
	m2, err := DecodeModule(encoded, wasm.All)
	require.NoError(t, err)

	require.Equal(t, m.Bytes(m.ExportSection[0].Name), m2.Bytes(m2.ExportSection[0].Name))
	require.Equal(t, m.Bytes(m.TypeSection[0].Params), m2.Bytes(m2.TypeSection[0].Params))
	require.Equal(t, m.Bytes(m.TypeSection[0].Results), m2.Bytes(m2.TypeSection[0].Results))
	require.Len(t, m2.CodeSection, 1)
}

// memoryFillWasm is the binary form of:
//
//	(module
//	  (memory 1)
//	  (func (export "f")
//	    i32.const 0
//	    i32.const 0
//	    i32.const 0
//	    memory.fill))
var memoryFillWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00, // magic, version
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type section: ()->()
	0x03, 0x02, 0x01, 0x00, // function section
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page
	0x07, 0x05, 0x01, 0x01, 0x66, 0x00, 0x00, // export section: "f"
	0x0a, 0x0d, 0x01, 0x0b, 0x00, 0x41, 0x00, 0x41, 0x00, 0x41, 0x00, 0xfc, 0x0b, 0x00, 0x0b, // code section
}

func TestDecodeModule_RejectsDisabledBulkMemoryFeature(t *testing.T) {
	_, err := DecodeModule(memoryFillWasm, wasm.All.Clear(wasm.FeatureBulkMemoryOperations))
	require.Error(t, err)

	m, err := DecodeModule(memoryFillWasm, wasm.All)
	require.NoError(t, err)
	require.Len(t, m.CodeSection, 1)
}
