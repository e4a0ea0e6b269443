package interpreter_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/pwasm/internal/wasm"
	wasmbin "github.com/tetratelabs/pwasm/internal/wasm/binary"
)

func mustInstantiate(t *testing.T, s *wasm.Store, name string, b []byte, r wasm.ImportResolver) *wasm.ModuleInstance {
	t.Helper()
	m, err := wasmbin.DecodeModule(b, wasm.All)
	require.NoError(t, err)
	mi, err := s.Instantiate(name, m, r)
	require.NoError(t, err)
	return mi
}

// storeResolver resolves an import against whatever modules are already
// registered in a Store, the same linking model pwasm.Runtime uses for
// module-to-module imports.
type storeResolver struct{ s *wasm.Store }

func (r storeResolver) Resolve(moduleName, fieldName string, kind wasm.ExternKind) (wasm.Handle, wasm.Signature, error) {
	mi, ok := r.s.Modules[moduleName]
	if !ok {
		return 0, wasm.Signature{}, fmt.Errorf("module %q not instantiated", moduleName)
	}
	exp, ok := mi.Exports[fieldName]
	if !ok || exp.Kind != kind {
		return 0, wasm.Signature{}, fmt.Errorf("export %q not found on %q", fieldName, moduleName)
	}
	switch kind {
	case wasm.ExternKindFunc:
		h := mi.Functions[exp.Index]
		return h, r.s.Function(h).Type, nil
	case wasm.ExternKindTable:
		return mi.Tables[exp.Index], wasm.Signature{}, nil
	case wasm.ExternKindMem:
		return mi.Memories[exp.Index], wasm.Signature{}, nil
	case wasm.ExternKindGlobal:
		return mi.Globals[exp.Index], wasm.Signature{}, nil
	default:
		return 0, wasm.Signature{}, fmt.Errorf("unsupported import kind %d", kind)
	}
}

// addWasm is the binary form of:
//
//	(module
//	  (func (export "add") (param i32 i32) (result i32)
//	    local.get 0
//	    local.get 1
//	    i32.add))
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func TestCallFunction_Add(t *testing.T) {
	s := wasm.NewStore(wasm.All)
	mi := mustInstantiate(t, s, "m", addWasm, storeResolver{s})

	h := mi.Functions[mi.Exports["add"].Index]
	out, err := s.CallFunction(h, []uint64{7, 35})
	require.NoError(t, err)
	require.Equal(t, []uint64{42}, out)
}

// dataLoadWasm is the binary form of:
//
//	(module
//	  (memory 1)
//	  (func (export "load") (result i32)
//	    i32.const 0
//	    i32.load)
//	  (data (i32.const 0) "abcd"))
var dataLoadWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f, // type: ()->i32
	0x03, 0x02, 0x01, 0x00, // function section
	0x05, 0x03, 0x01, 0x00, 0x01, // memory: 1 page, no max
	0x07, 0x08, 0x01, 0x04, 0x6c, 0x6f, 0x61, 0x64, 0x00, 0x00, // export "load"
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x41, 0x00, 0x28, 0x02, 0x00, 0x0b, // code: i32.const 0; i32.load
	0x0b, 0x0a, 0x01, 0x00, 0x41, 0x00, 0x0b, 0x04, 0x61, 0x62, 0x63, 0x64, // data: memidx 0, offset 0, "abcd"
}

func TestCallFunction_DataSegmentLoad(t *testing.T) {
	s := wasm.NewStore(wasm.All)
	mi := mustInstantiate(t, s, "m", dataLoadWasm, storeResolver{s})

	h := mi.Functions[mi.Exports["load"].Index]
	out, err := s.CallFunction(h, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{0x64636261}, out)
}

// sumToZeroWasm is the binary form of:
//
//	(module
//	  (func (export "sum") (result i32)
//	    (local $i i32) (local $sum i32)
//	    i32.const 10
//	    local.set $i
//	    (block
//	      (loop
//	        local.get $i
//	        i32.eqz
//	        br_if 1
//	        local.get $sum
//	        local.get $i
//	        i32.add
//	        local.set $sum
//	        local.get $i
//	        i32.const 1
//	        i32.sub
//	        local.set $i
//	        br 0))
//	    local.get $sum))
var sumToZeroWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x05, 0x01, 0x60, 0x00, 0x01, 0x7f, // type: ()->i32
	0x03, 0x02, 0x01, 0x00, // function section
	0x07, 0x07, 0x01, 0x03, 0x73, 0x75, 0x6d, 0x00, 0x00, // export "sum"
	0x0a, 0x27, 0x01, 0x25, // code section, 1 body, 37 bytes
	0x01, 0x02, 0x7f, // locals: 2 x i32 ($i, $sum)
	0x41, 0x0a, // i32.const 10
	0x21, 0x00, // local.set $i
	0x02, 0x40, // block
	0x03, 0x40, // loop
	0x20, 0x00, // local.get $i
	0x45, // i32.eqz
	0x0d, 0x01, // br_if 1
	0x20, 0x01, // local.get $sum
	0x20, 0x00, // local.get $i
	0x6a, // i32.add
	0x21, 0x01, // local.set $sum
	0x20, 0x00, // local.get $i
	0x41, 0x01, // i32.const 1
	0x6b, // i32.sub
	0x21, 0x00, // local.set $i
	0x0c, 0x00, // br 0
	0x0b, // end loop
	0x0b, // end block
	0x20, 0x01, // local.get $sum
	0x0b, // end func
}

func TestCallFunction_LoopAccumulatesSum(t *testing.T) {
	s := wasm.NewStore(wasm.All)
	mi := mustInstantiate(t, s, "m", sumToZeroWasm, storeResolver{s})

	h := mi.Functions[mi.Exports["sum"].Index]
	out, err := s.CallFunction(h, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{55}, out)
}

// memExportWasm is the binary form of:
//
//	(module
//	  (memory (export "mem") 1)
//	  (func (export "load32") (param i32) (result i32)
//	    local.get 0
//	    i32.load))
var memExportWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f, // type: (i32)->i32
	0x03, 0x02, 0x01, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01, // memory
	0x07, 0x10, 0x02, // 2 exports
	0x03, 0x6d, 0x65, 0x6d, 0x02, 0x00, // "mem" -> memory 0
	0x06, 0x6c, 0x6f, 0x61, 0x64, 0x33, 0x32, 0x00, 0x00, // "load32" -> func 0
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x28, 0x02, 0x00, 0x0b, // code
}

// memImportWasm is the binary form of:
//
//	(module
//	  (import "A" "mem" (memory 1))
//	  (func (export "run")
//	    i32.const 4
//	    i32.const 42
//	    i32.store))
var memImportWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type: ()->()
	0x02, 0x0a, 0x01, 0x01, 0x41, 0x03, 0x6d, 0x65, 0x6d, 0x02, 0x00, 0x01, // import "A"."mem" memory
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x72, 0x75, 0x6e, 0x00, 0x00, // export "run"
	0x0a, 0x0b, 0x01, 0x09, 0x00, 0x41, 0x04, 0x41, 0x2a, 0x36, 0x02, 0x00, 0x0b, // code
}

func TestCallFunction_ImportedMemoryIsShared(t *testing.T) {
	s := wasm.NewStore(wasm.All)
	a := mustInstantiate(t, s, "A", memExportWasm, storeResolver{s})
	b := mustInstantiate(t, s, "B", memImportWasm, storeResolver{s})

	run := b.Functions[b.Exports["run"].Index]
	_, err := s.CallFunction(run, nil)
	require.NoError(t, err)

	load32 := a.Functions[a.Exports["load32"].Index]
	out, err := s.CallFunction(load32, []uint64{4})
	require.NoError(t, err)
	require.Equal(t, []uint64{0x2a}, out)
}

// startGlobalWasm is the binary form of:
//
//	(module
//	  (global (export "g") (mut i32) (i32.const 0))
//	  (func
//	    i32.const 1
//	    global.set 0)
//	  (start 0))
var startGlobalWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type: ()->()
	0x03, 0x02, 0x01, 0x00,
	0x06, 0x06, 0x01, 0x7f, 0x01, 0x41, 0x00, 0x0b, // global: mut i32, init 0
	0x07, 0x05, 0x01, 0x01, 0x67, 0x03, 0x00, // export "g" global 0
	0x08, 0x01, 0x00, // start function 0
	0x0a, 0x08, 0x01, 0x06, 0x00, 0x41, 0x01, 0x24, 0x00, 0x0b, // code
}

func TestInstantiate_StartFunctionWritesGlobal(t *testing.T) {
	s := wasm.NewStore(wasm.All)
	mi := mustInstantiate(t, s, "m", startGlobalWasm, storeResolver{s})

	h := mi.Globals[mi.Exports["g"].Index]
	require.Equal(t, uint64(1), s.Global(h).Val)
}

// callIndirectWasm is the binary form of:
//
//	(module
//	  (table 4 funcref)
//	  (func $double (param i32) (result i32)
//	    local.get 0
//	    local.get 0
//	    i32.add)
//	  (func (export "invoke") (param i32) (result i32)
//	    i32.const 5
//	    local.get 0
//	    call_indirect (type $double))
//	  (func (export "invokeWrongType") (result i32)
//	    i32.const 2
//	    call_indirect (type $voidToI32))
//	  (elem (i32.const 2) $double))
//
// $double occupies table slot 2; slot 3 is left unset. invoke's call_indirect
// declares $double's own type ((i32)->i32); invokeWrongType declares a
// ()->i32 type against the same slot, a mismatch the table contents alone
// can't catch statically.
var callIndirectWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x0a, 0x02, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x00, 0x01, 0x7f, // types: (i32)->i32, ()->i32
	0x03, 0x04, 0x03, 0x00, 0x00, 0x01, // functions: double, invoke, invokeWrongType
	0x04, 0x04, 0x01, 0x70, 0x00, 0x04, // table: funcref, min 4
	0x07, 0x1c, 0x02,
	0x06, 0x69, 0x6e, 0x76, 0x6f, 0x6b, 0x65, 0x00, 0x01, // "invoke" -> func 1
	0x0f, 0x69, 0x6e, 0x76, 0x6f, 0x6b, 0x65, 0x57, 0x72, 0x6f, 0x6e, 0x67, 0x54, 0x79, 0x70, 0x65, 0x00, 0x02, // "invokeWrongType" -> func 2
	0x09, 0x07, 0x01, 0x00, 0x41, 0x02, 0x0b, 0x01, 0x00, // elem: table 0, offset 2, [func 0]
	0x0a, 0x1b, 0x03,
	0x07, 0x00, 0x20, 0x00, 0x20, 0x00, 0x6a, 0x0b, // double
	0x09, 0x00, 0x41, 0x05, 0x20, 0x00, 0x11, 0x00, 0x00, 0x0b, // invoke
	0x07, 0x00, 0x41, 0x02, 0x11, 0x01, 0x00, 0x0b, // invokeWrongType
}

func TestCallIndirect_ValidSlotUnsetSlotAndTypeMismatch(t *testing.T) {
	s := wasm.NewStore(wasm.All)
	mi := mustInstantiate(t, s, "m", callIndirectWasm, storeResolver{s})

	invoke := mi.Functions[mi.Exports["invoke"].Index]
	out, err := s.CallFunction(invoke, []uint64{2})
	require.NoError(t, err)
	require.Equal(t, []uint64{10}, out)

	_, err = s.CallFunction(invoke, []uint64{3})
	require.Error(t, err)

	invokeWrongType := mi.Functions[mi.Exports["invokeWrongType"].Index]
	_, err = s.CallFunction(invokeWrongType, nil)
	require.Error(t, err)
}
