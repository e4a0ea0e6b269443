// Package makefunc builds a wasm.NativeFunc (and its Signature) out of an
// ordinary Go function via reflection, so a host module can expose Go code
// as a Wasm import without hand-writing the uint64 value-stack shuffling
// every call crosses.
package makefunc

import (
	"fmt"
	"math"
	"reflect"

	"github.com/tetratelabs/pwasm/internal/wasm"
)

// FromReflect wraps fn (a Go func whose parameters and results are each one
// of int32/uint32/int64/uint64/float32/float64) as a wasm.NativeFunc, along
// with the Signature the runtime needs to type-check calls against it.
// fn must not accept a context.Context or return an error: a host import in
// this runtime traps the same way any other instruction does, by panicking
// with a wasmruntime sentinel, so there is no error return to thread back
// through the call.
func FromReflect(name string, fn interface{}) (wasm.NativeFunc, wasm.Signature, error) {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, wasm.Signature{}, fmt.Errorf("%s: not a function: %s", name, ft)
	}
	if ft.IsVariadic() {
		return nil, wasm.Signature{}, fmt.Errorf("%s: variadic functions are not supported", name)
	}

	sig := wasm.Signature{
		Params:  make([]wasm.ValueType, ft.NumIn()),
		Results: make([]wasm.ValueType, ft.NumOut()),
	}
	for i := 0; i < ft.NumIn(); i++ {
		vt, err := valueTypeOf(ft.In(i))
		if err != nil {
			return nil, wasm.Signature{}, fmt.Errorf("%s: param %d: %w", name, i, err)
		}
		sig.Params[i] = vt
	}
	for i := 0; i < ft.NumOut(); i++ {
		vt, err := valueTypeOf(ft.Out(i))
		if err != nil {
			return nil, wasm.Signature{}, fmt.Errorf("%s: result %d: %w", name, i, err)
		}
		sig.Results[i] = vt
	}

	native := func(_ *wasm.CallContext, stack []uint64) {
		in := make([]reflect.Value, len(sig.Params))
		for i, vt := range sig.Params {
			in[i] = toReflect(vt, stack[i], ft.In(i))
		}
		out := fv.Call(in)
		for i, rv := range out {
			stack[i] = fromReflect(sig.Results[i], rv)
		}
	}
	return native, sig, nil
}

func valueTypeOf(t reflect.Type) (wasm.ValueType, error) {
	switch t.Kind() {
	case reflect.Int32, reflect.Uint32:
		return wasm.ValueTypeI32, nil
	case reflect.Int64, reflect.Uint64:
		return wasm.ValueTypeI64, nil
	case reflect.Float32:
		return wasm.ValueTypeF32, nil
	case reflect.Float64:
		return wasm.ValueTypeF64, nil
	default:
		return 0, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

func toReflect(vt wasm.ValueType, raw uint64, t reflect.Type) reflect.Value {
	switch vt {
	case wasm.ValueTypeI32:
		if t.Kind() == reflect.Uint32 {
			return reflect.ValueOf(uint32(raw)).Convert(t)
		}
		return reflect.ValueOf(int32(raw)).Convert(t)
	case wasm.ValueTypeI64:
		if t.Kind() == reflect.Uint64 {
			return reflect.ValueOf(raw).Convert(t)
		}
		return reflect.ValueOf(int64(raw)).Convert(t)
	case wasm.ValueTypeF32:
		return reflect.ValueOf(math.Float32frombits(uint32(raw))).Convert(t)
	case wasm.ValueTypeF64:
		return reflect.ValueOf(math.Float64frombits(raw)).Convert(t)
	default:
		panic(fmt.Sprintf("BUG: unhandled value type %s", vt))
	}
}

func fromReflect(vt wasm.ValueType, v reflect.Value) uint64 {
	switch vt {
	case wasm.ValueTypeI32:
		if v.Kind() == reflect.Uint32 {
			return uint64(uint32(v.Uint()))
		}
		return uint64(uint32(v.Int()))
	case wasm.ValueTypeI64:
		if v.Kind() == reflect.Uint64 {
			return v.Uint()
		}
		return uint64(v.Int())
	case wasm.ValueTypeF32:
		return uint64(math.Float32bits(float32(v.Float())))
	case wasm.ValueTypeF64:
		return math.Float64bits(v.Float())
	default:
		panic(fmt.Sprintf("BUG: unhandled value type %s", vt))
	}
}
