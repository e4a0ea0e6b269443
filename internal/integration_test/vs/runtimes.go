// Package vs cross-checks pwasm's interpreter against other WebAssembly
// runtimes on the same binaries, so behavior differences show up as test
// failures instead of silent divergence.
package vs

import (
	"context"
	"fmt"
	"io"

	"github.com/bytecodealliance/wasmtime-go/v3"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/tetratelabs/pwasm"
)

// runtimeTester wraps a WebAssembly engine behind one shape so the same
// test body can drive pwasm, wasmtime-go, and wasmer-go.
type runtimeTester interface {
	Init(ctx context.Context, wasm []byte, funcNames ...string) error
	Call(ctx context.Context, funcName string, params ...uint64) (uint64, error)
	io.Closer
}

func newPwasmTester() runtimeTester {
	return &pwasmTester{funcs: map[string]pwasmFunc{}}
}

type pwasmFunc interface {
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

type pwasmTester struct {
	rt    pwasm.Runtime
	mod   interface{ Close(context.Context) error }
	funcs map[string]pwasmFunc
}

func (w *pwasmTester) Init(ctx context.Context, wasm []byte, funcNames ...string) error {
	w.rt = pwasm.NewRuntime(ctx)
	mod, err := w.rt.Instantiate(ctx, wasm)
	if err != nil {
		return err
	}
	w.mod = mod
	for _, name := range funcNames {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			return fmt.Errorf("%s is not an exported function", name)
		}
		w.funcs[name] = fn
	}
	return nil
}

func (w *pwasmTester) Call(ctx context.Context, funcName string, params ...uint64) (uint64, error) {
	results, err := w.funcs[funcName].Call(ctx, params...)
	if err != nil {
		return 0, err
	}
	if len(results) > 0 {
		return results[0], nil
	}
	return 0, nil
}

func (w *pwasmTester) Close() error {
	if w.mod != nil {
		return w.mod.Close(context.Background())
	}
	return nil
}

func newWasmtimeTester() runtimeTester {
	return &wasmtimeTester{funcs: map[string]*wasmtime.Func{}}
}

type wasmtimeTester struct {
	store *wasmtime.Store
	funcs map[string]*wasmtime.Func
}

func (w *wasmtimeTester) Init(_ context.Context, wasm []byte, funcNames ...string) error {
	w.store = wasmtime.NewStore(wasmtime.NewEngine())
	module, err := wasmtime.NewModule(w.store.Engine, wasm)
	if err != nil {
		return err
	}
	instance, err := wasmtime.NewInstance(w.store, module, nil)
	if err != nil {
		return err
	}
	for _, name := range funcNames {
		fn := instance.GetFunc(w.store, name)
		if fn == nil {
			return fmt.Errorf("%s is not an exported function", name)
		}
		w.funcs[name] = fn
	}
	return nil
}

func (w *wasmtimeTester) Call(_ context.Context, funcName string, params ...uint64) (uint64, error) {
	fn := w.funcs[funcName]
	iParams := make([]interface{}, len(params))
	for i := range params {
		switch fn.Type(w.store).Params()[i].Kind() {
		case wasmtime.KindI64:
			iParams[i] = int64(params[i])
		default:
			iParams[i] = int32(params[i])
		}
	}
	result, err := fn.Call(w.store, iParams...)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case int32:
		return uint64(v), nil
	case int64:
		return uint64(v), nil
	}
	return 0, nil
}

func (w *wasmtimeTester) Close() error { return nil }

func newWasmerTester() runtimeTester {
	return &wasmerTester{funcs: map[string]*wasmer.Function{}}
}

type wasmerTester struct {
	store    *wasmer.Store
	module   *wasmer.Module
	instance *wasmer.Instance
	funcs    map[string]*wasmer.Function
}

func (w *wasmerTester) Init(_ context.Context, wasm []byte, funcNames ...string) (err error) {
	w.store = wasmer.NewStore(wasmer.NewEngine())
	if w.module, err = wasmer.NewModule(w.store, wasm); err != nil {
		return err
	}
	if w.instance, err = wasmer.NewInstance(w.module, wasmer.NewImportObject()); err != nil {
		return err
	}
	for _, name := range funcNames {
		fn, err := w.instance.Exports.GetRawFunction(name)
		if err != nil {
			return err
		}
		if fn == nil {
			return fmt.Errorf("%s is not an exported function", name)
		}
		w.funcs[name] = fn
	}
	return nil
}

func (w *wasmerTester) Call(_ context.Context, funcName string, params ...uint64) (uint64, error) {
	fn := w.funcs[funcName]
	iParams := make([]interface{}, len(params))
	for i := range params {
		switch fn.Type().Params()[i].Kind() {
		case wasmer.I64:
			iParams[i] = int64(params[i])
		default:
			iParams[i] = int32(params[i])
		}
	}
	result, err := fn.Call(iParams...)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case int32:
		return uint64(v), nil
	case int64:
		return uint64(v), nil
	}
	return 0, nil
}

func (w *wasmerTester) Close() error {
	for _, closer := range []func(){w.instance.Close, w.module.Close, w.store.Close} {
		if closer != nil {
			closer()
		}
	}
	return nil
}
