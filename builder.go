package pwasm

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tetratelabs/pwasm/api"
	"github.com/tetratelabs/pwasm/internal/makefunc"
	"github.com/tetratelabs/pwasm/internal/wasm"
)

// HostFunctionBuilder defines a host function (in Go) so a WebAssembly
// binary can import and use it.
//
// Here's an example of an addition function:
//
//	hostModuleBuilder.NewFunctionBuilder().
//		WithFunc(func(x, y uint32) uint32 {
//			return x + y
//		}).
//		Export("add")
//
// # Notes
//
//   - This is an interface for decoupling, not third-party implementations.
//     All implementations are in this module.
type HostFunctionBuilder interface {
	// WithFunc uses reflect.Value to map a Go func to a WebAssembly
	// compatible signature. Parameters and results must each be one of
	// int32/uint32/int64/uint64/float32/float64: see internal/makefunc.
	WithFunc(fn interface{}) HostFunctionBuilder

	// WithName defines the optional module-local name of this function,
	// e.g. "random_get". Not required to match the Export name.
	WithName(name string) HostFunctionBuilder

	// Export exports this to the HostModuleBuilder as the given name.
	Export(name string) HostModuleBuilder
}

// HostModuleBuilder is a way to define host functions (in Go), so that a
// WebAssembly binary can import and use them.
//
// For example, this defines and instantiates a module named "env" with one
// function:
//
//	ctx := context.Background()
//	r := pwasm.NewRuntime(ctx)
//	defer r.Close(ctx)
//
//	env, _ := r.NewHostModuleBuilder("env").
//		NewFunctionBuilder().WithFunc(func() { println("hello!") }).Export("hello").
//		Instantiate()
//
// # Notes
//
//   - HostModuleBuilder is mutable: each method returns the same instance
//     for chaining.
//   - Functions are indexed in the order their names were first passed to
//     Export; exporting a name again replaces that function in place.
type HostModuleBuilder interface {
	// ExportMemory adds linear memory a WebAssembly module can import.
	ExportMemory(name string, minPages uint32) HostModuleBuilder

	// ExportMemoryWithMax is like ExportMemory, bounding how far
	// "memory.grow" can extend it.
	ExportMemoryWithMax(name string, minPages, maxPages uint32) HostModuleBuilder

	// NewFunctionBuilder begins the definition of a host function.
	NewFunctionBuilder() HostFunctionBuilder

	// Instantiate links this host module into the Runtime's Store under
	// its configured name, making its exports resolvable by modules
	// instantiated afterward.
	Instantiate() (api.Module, error)
}

type hostFunc struct {
	fn   interface{}
	name string
}

// hostModuleBuilder implements HostModuleBuilder.
type hostModuleBuilder struct {
	r           *runtime
	moduleName  string
	exportNames []string
	funcs       map[string]*hostFunc
	memNames    []string
	mems        map[string]wasm.Limits
}

// NewHostModuleBuilder implements Runtime.NewHostModuleBuilder.
func (r *runtime) NewHostModuleBuilder(moduleName string) HostModuleBuilder {
	return &hostModuleBuilder{
		r:          r,
		moduleName: moduleName,
		funcs:      map[string]*hostFunc{},
		mems:       map[string]wasm.Limits{},
	}
}

// hostFunctionBuilder implements HostFunctionBuilder.
type hostFunctionBuilder struct {
	b  *hostModuleBuilder
	hf *hostFunc
}

func (h *hostFunctionBuilder) WithFunc(fn interface{}) HostFunctionBuilder {
	h.hf.fn = fn
	return h
}

func (h *hostFunctionBuilder) WithName(name string) HostFunctionBuilder {
	h.hf.name = name
	return h
}

func (h *hostFunctionBuilder) Export(exportName string) HostModuleBuilder {
	if _, ok := h.b.funcs[exportName]; !ok {
		h.b.exportNames = append(h.b.exportNames, exportName)
	}
	h.b.funcs[exportName] = h.hf
	return h.b
}

func (b *hostModuleBuilder) NewFunctionBuilder() HostFunctionBuilder {
	return &hostFunctionBuilder{b: b, hf: &hostFunc{}}
}

func (b *hostModuleBuilder) ExportMemory(name string, minPages uint32) HostModuleBuilder {
	if _, ok := b.mems[name]; !ok {
		b.memNames = append(b.memNames, name)
	}
	b.mems[name] = wasm.Limits{Min: minPages}
	return b
}

func (b *hostModuleBuilder) ExportMemoryWithMax(name string, minPages, maxPages uint32) HostModuleBuilder {
	if _, ok := b.mems[name]; !ok {
		b.memNames = append(b.memNames, name)
	}
	b.mems[name] = wasm.Limits{Min: minPages, Max: maxPages, HasMax: true}
	return b
}

// Instantiate builds the host functions/memories into the Runtime's Store
// as a ModuleInstance named moduleName, mirroring wasm.Store.Instantiate's
// bookkeeping for a module that has no decoded binary behind it.
func (b *hostModuleBuilder) Instantiate() (api.Module, error) {
	s := b.r.store
	mi := &wasm.ModuleInstance{
		Name:       b.moduleName,
		InstanceID: uuid.New(),
		Exports:    map[string]wasm.Export{},
	}

	for i, name := range b.exportNames {
		hf := b.funcs[name]
		fnName := hf.name
		if fnName == "" {
			fnName = name
		}
		native, sig, err := makefunc.FromReflect(fnName, hf.fn)
		if err != nil {
			return nil, fmt.Errorf("host module %s: func %s: %w", b.moduleName, name, err)
		}
		s.Functions = append(s.Functions, wasm.FunctionInstance{Type: sig, Module: mi, Native: native})
		h := wasm.Handle(len(s.Functions))
		mi.Functions = append(mi.Functions, h)
		mi.Exports[name] = wasm.Export{Kind: wasm.ExternKindFunc, Index: uint32(i)}
	}

	for i, name := range b.memNames {
		lim := b.mems[name]
		s.Memories = append(s.Memories, wasm.MemoryInstance{
			Min: lim.Min, Max: lim.Max, HasMax: lim.HasMax,
			Buffer: make([]byte, uint64(lim.Min)*65536),
		})
		h := wasm.Handle(len(s.Memories))
		mi.Memories = append(mi.Memories, h)
		mi.Exports[name] = wasm.Export{Kind: wasm.ExternKindMem, Index: uint32(i)}
	}

	s.Modules[b.moduleName] = mi
	return &moduleInstance{rt: b.r, mi: mi}, nil
}
