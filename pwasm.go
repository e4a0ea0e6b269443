// Package pwasm is a standalone WebAssembly 1.0 (20191205) runtime, plus
// the bulk-memory-operations and SIMD proposals: decode a binary, validate
// it, instantiate it against a Store shared with any other modules already
// linked into the same Runtime, and call its exports.
package pwasm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/tetratelabs/pwasm/api"
	"github.com/tetratelabs/pwasm/experimental"
	"github.com/tetratelabs/pwasm/internal/engine"
	"github.com/tetratelabs/pwasm/internal/wasm"
	wasmbin "github.com/tetratelabs/pwasm/internal/wasm/binary"

	// Imported for its init(), which registers the only engine this runtime
	// ships via wasm.RegisterEngine.
	_ "github.com/tetratelabs/pwasm/internal/engine/interpreter"
)

// Runtime links and runs WebAssembly modules. A Runtime owns a single
// wasm.Store: every module instantiated through it can resolve imports
// against every other module's exports.
type Runtime interface {
	// NewHostModuleBuilder begins defining Go functions a Wasm module can
	// import by moduleName.
	NewHostModuleBuilder(moduleName string) HostModuleBuilder

	// CompileModule decodes and validates binary, ready for
	// InstantiateModule. The same CompiledModule can be instantiated more
	// than once under different names.
	CompileModule(ctx context.Context, binary []byte) (CompiledModule, error)

	// InstantiateModule links compiled's imports against this Runtime's
	// Store and runs its start function, if any.
	InstantiateModule(ctx context.Context, compiled CompiledModule, config *ModuleConfig) (api.Module, error)

	// Instantiate is a convenience that calls CompileModule then
	// InstantiateModule with NewModuleConfig().
	Instantiate(ctx context.Context, binary []byte) (api.Module, error)

	// Module returns a previously instantiated module by name, or nil.
	Module(moduleName string) api.Module

	// Close releases every module this Runtime instantiated.
	Close(ctx context.Context) error

	// CloseWithExitCode behaves like Close: it releases every module this
	// Runtime instantiated. exitCode is not recorded or reported anywhere.
	CloseWithExitCode(ctx context.Context, exitCode uint32) error

	// SetCodeCompiler records c, per experimental.WithCodeCompiler. The
	// recorded compiler is never consulted: every call still runs on the
	// interpreter. Nothing in this package calls SetCodeCompiler itself.
	SetCodeCompiler(c engine.CodeCompiler) error
}

// NewRuntime returns a Runtime configured by NewRuntimeConfig.
func NewRuntime(ctx context.Context) Runtime {
	return NewRuntimeWithConfig(ctx, NewRuntimeConfig())
}

// NewRuntimeWithConfig returns a Runtime configured by rc.
func NewRuntimeWithConfig(ctx context.Context, rc *RuntimeConfig) Runtime {
	if rc == nil {
		rc = NewRuntimeConfig()
	}
	s := wasm.NewStore(rc.enabledFeatures)
	if rc.memoryMaxPages != 0 {
		s.MaxMemoryPages = rc.memoryMaxPages
	}
	return &runtime{store: s, enabledFeatures: rc.enabledFeatures, memoryMaxPages: s.MaxMemoryPages, cache: rc.cache}
}

type runtime struct {
	store           *wasm.Store
	enabledFeatures wasm.Features
	memoryMaxPages  uint32
	cache           *Cache
	codeCompiler    engine.CodeCompiler
}

// SetCodeCompiler implements Runtime.SetCodeCompiler.
func (r *runtime) SetCodeCompiler(c engine.CodeCompiler) error {
	r.codeCompiler = c
	return nil
}

// CompiledModule is a decoded, validated module ready to be instantiated.
//
// Note: in WebAssembly terminology this is itself still called a "module";
// this runtime reserves the bare name "Module" for its instantiated form
// (api.Module) to avoid conflating the two, matching common Go runtime
// naming for this split.
type CompiledModule interface {
	// Name is the module name decoded from the custom name section, or
	// empty if absent.
	Name() string
	Closer
}

// Closer closes a resource.
type Closer interface {
	Close(context.Context) error
}

type compiledModule struct {
	module *wasm.Module
	name   string
}

func (c *compiledModule) Name() string          { return c.name }
func (c *compiledModule) Close(context.Context) error { return nil }

func moduleNameOf(m *wasm.Module) string {
	if m.NameSection != nil {
		return m.NameSection.ModuleName
	}
	return ""
}

// CompileModule implements Runtime.CompileModule.
func (r *runtime) CompileModule(_ context.Context, bin []byte) (CompiledModule, error) {
	id := wasm.ModuleID(sha256.Sum256(bin))
	if m, ok := r.cache.get(id); ok {
		return &compiledModule{module: m, name: moduleNameOf(m)}, nil
	}

	m, err := wasmbin.DecodeModule(bin, r.enabledFeatures)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	if err := m.Validate(r.enabledFeatures); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	r.cache.put(m)
	return &compiledModule{module: m, name: moduleNameOf(m)}, nil
}

// InstantiateModule implements Runtime.InstantiateModule.
func (r *runtime) InstantiateModule(_ context.Context, compiled CompiledModule, config *ModuleConfig) (api.Module, error) {
	cm, ok := compiled.(*compiledModule)
	if !ok {
		return nil, fmt.Errorf("instantiate: compiled module not from this runtime")
	}
	name := cm.name
	if config != nil && config.name != "" {
		name = config.name
	}
	if name == "" {
		name = fmt.Sprintf("$%d", len(r.store.Modules))
	}
	mi, err := r.store.Instantiate(name, cm.module, storeResolver{r.store})
	if err != nil {
		return nil, err
	}
	return &moduleInstance{rt: r, mi: mi}, nil
}

// Instantiate implements Runtime.Instantiate.
func (r *runtime) Instantiate(ctx context.Context, bin []byte) (api.Module, error) {
	compiled, err := r.CompileModule(ctx, bin)
	if err != nil {
		return nil, err
	}
	return r.InstantiateModule(ctx, compiled, NewModuleConfig())
}

// Module implements Runtime.Module.
func (r *runtime) Module(name string) api.Module {
	mi, ok := r.store.Modules[name]
	if !ok {
		return nil
	}
	return &moduleInstance{rt: r, mi: mi}
}

// Close implements Runtime.Close.
func (r *runtime) Close(ctx context.Context) error { return r.CloseWithExitCode(ctx, 0) }

// CloseWithExitCode implements Runtime.CloseWithExitCode.
func (r *runtime) CloseWithExitCode(context.Context, uint32) error {
	r.store.Modules = map[string]*wasm.ModuleInstance{}
	return nil
}

// storeResolver resolves imports against whatever is already instantiated
// into the Runtime's Store, including host modules built via
// HostModuleBuilder.
type storeResolver struct{ s *wasm.Store }

func (sr storeResolver) Resolve(moduleName, fieldName string, kind wasm.ExternKind) (wasm.Handle, wasm.Signature, error) {
	mi, ok := sr.s.Modules[moduleName]
	if !ok {
		return 0, wasm.Signature{}, fmt.Errorf("module %q is not instantiated", moduleName)
	}
	exp, ok := mi.Exports[fieldName]
	if !ok {
		return 0, wasm.Signature{}, fmt.Errorf("%s.%s is not exported", moduleName, fieldName)
	}
	if exp.Kind != kind {
		return 0, wasm.Signature{}, fmt.Errorf("%s.%s is not the expected kind", moduleName, fieldName)
	}
	var h wasm.Handle
	switch kind {
	case wasm.ExternKindFunc:
		h = mi.Functions[exp.Index]
	case wasm.ExternKindTable:
		h = mi.Tables[exp.Index]
	case wasm.ExternKindMem:
		h = mi.Memories[exp.Index]
	case wasm.ExternKindGlobal:
		h = mi.Globals[exp.Index]
	}
	var sig wasm.Signature
	if kind == wasm.ExternKindFunc {
		sig = sr.s.Function(h).Type
	}
	return h, sig, nil
}

// moduleInstance implements api.Module over a wasm.ModuleInstance.
type moduleInstance struct {
	rt *runtime
	mi *wasm.ModuleInstance
}

func (m *moduleInstance) String() string { return fmt.Sprintf("Module[%s]", m.mi.Name) }
func (m *moduleInstance) Name() string   { return m.mi.Name }

func (m *moduleInstance) Memory() api.Memory {
	if len(m.mi.Memories) == 0 {
		return nil
	}
	return &memoryInstance{store: m.rt.store, h: m.mi.Memories[0], maxPages: m.rt.memoryMaxPages}
}

func (m *moduleInstance) ExportedFunction(name string) api.Function {
	exp, ok := m.mi.Exports[name]
	if !ok || exp.Kind != wasm.ExternKindFunc {
		return nil
	}
	return &functionInstance{rt: m.rt, moduleName: m.mi.Name, h: m.mi.Functions[exp.Index], name: name, index: exp.Index}
}

func (m *moduleInstance) ExportedMemory(name string) api.Memory {
	exp, ok := m.mi.Exports[name]
	if !ok || exp.Kind != wasm.ExternKindMem {
		return nil
	}
	return &memoryInstance{store: m.rt.store, h: m.mi.Memories[exp.Index], maxPages: m.rt.memoryMaxPages}
}

func (m *moduleInstance) ExportedGlobal(name string) api.Global {
	exp, ok := m.mi.Exports[name]
	if !ok || exp.Kind != wasm.ExternKindGlobal {
		return nil
	}
	h := m.mi.Globals[exp.Index]
	g := globalInstance{store: m.rt.store, h: h}
	if m.rt.store.Global(h).Type.Mutable {
		return &mutableGlobalInstance{g}
	}
	return &g
}

func (m *moduleInstance) CloseWithExitCode(_ context.Context, _ uint32) error {
	delete(m.rt.store.Modules, m.mi.Name)
	return nil
}

func (m *moduleInstance) Close(ctx context.Context) error { return m.CloseWithExitCode(ctx, 0) }

// functionInstance implements both api.Function and api.FunctionDefinition:
// there is no separate pre-instantiation definition object here, since a
// function's type and index never change across instantiations of the same
// compiled module.
type functionInstance struct {
	rt         *runtime
	moduleName string
	h          wasm.Handle
	name       string
	index      uint32
}

func (f *functionInstance) Definition() api.FunctionDefinition { return f }

func (f *functionInstance) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	m := experimental.FromContext(ctx)
	results, err := f.rt.store.CallFunction(f.h, params)
	if m != nil {
		m.Calls.WithLabelValues(f.moduleName, f.name).Inc()
		if err != nil {
			m.Traps.WithLabelValues(f.moduleName, f.name).Inc()
		}
	}
	return results, err
}

func (f *functionInstance) ModuleName() string { return f.moduleName }
func (f *functionInstance) Index() uint32      { return f.index }
func (f *functionInstance) Name() string       { return f.name }
func (f *functionInstance) DebugName() string  { return f.moduleName + "." + f.name }

func (f *functionInstance) Import() (moduleName, name string, isImport bool) { return "", "", false }
func (f *functionInstance) ExportNames() []string                           { return []string{f.name} }
func (f *functionInstance) GoFunc() *reflect.Value                         { return nil }

func (f *functionInstance) ParamTypes() []api.ValueType {
	return toAPITypes(f.rt.store.Function(f.h).Type.Params)
}
func (f *functionInstance) ParamNames() []string { return nil }
func (f *functionInstance) ResultTypes() []api.ValueType {
	return toAPITypes(f.rt.store.Function(f.h).Type.Results)
}

func toAPITypes(vts []wasm.ValueType) []api.ValueType {
	if vts == nil {
		return nil
	}
	out := make([]api.ValueType, len(vts))
	for i, v := range vts {
		out[i] = api.ValueType(v)
	}
	return out
}

// globalInstance implements api.Global.
type globalInstance struct {
	store *wasm.Store
	h     wasm.Handle
}

func (g *globalInstance) String() string {
	return fmt.Sprintf("Global(%s)", api.ValueTypeName(g.Type()))
}
func (g *globalInstance) Type() api.ValueType { return api.ValueType(g.store.Global(g.h).Type.ValType) }
func (g *globalInstance) Get(context.Context) uint64 { return g.store.Global(g.h).Val }

// mutableGlobalInstance implements api.MutableGlobal.
type mutableGlobalInstance struct{ globalInstance }

func (g *mutableGlobalInstance) Set(_ context.Context, v uint64) {
	g.store.Global(g.h).Val = v
}

// memoryInstance implements api.Memory over a wasm.MemoryInstance, always
// re-resolving the Handle so a "memory.grow" that reallocates the backing
// buffer is immediately visible to callers holding this wrapper.
type memoryInstance struct {
	store    *wasm.Store
	h        wasm.Handle
	maxPages uint32
}

func (m *memoryInstance) mem() *wasm.MemoryInstance { return m.store.Memory(m.h) }

func (m *memoryInstance) isOutOfRange(offset, length uint32) bool {
	buf := m.mem().Buffer
	return uint64(offset)+uint64(length) > uint64(len(buf))
}

func (m *memoryInstance) Size(context.Context) uint32 { return uint32(len(m.mem().Buffer)) }

func (m *memoryInstance) Grow(_ context.Context, deltaPages uint32) (previousPages uint32, ok bool) {
	prev := m.mem().Grow(deltaPages, m.maxPages)
	if prev < 0 {
		return 0, false
	}
	return uint32(prev), true
}

func (m *memoryInstance) ReadByte(_ context.Context, offset uint32) (byte, bool) {
	if m.isOutOfRange(offset, 1) {
		return 0, false
	}
	return m.mem().Buffer[offset], true
}

func (m *memoryInstance) ReadUint16Le(_ context.Context, offset uint32) (uint16, bool) {
	if m.isOutOfRange(offset, 2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.mem().Buffer[offset:]), true
}

func (m *memoryInstance) ReadUint32Le(_ context.Context, offset uint32) (uint32, bool) {
	if m.isOutOfRange(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.mem().Buffer[offset:]), true
}

func (m *memoryInstance) ReadFloat32Le(ctx context.Context, offset uint32) (float32, bool) {
	v, ok := m.ReadUint32Le(ctx, offset)
	return api.DecodeF32(uint64(v)), ok
}

func (m *memoryInstance) ReadUint64Le(_ context.Context, offset uint32) (uint64, bool) {
	if m.isOutOfRange(offset, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.mem().Buffer[offset:]), true
}

func (m *memoryInstance) ReadFloat64Le(ctx context.Context, offset uint32) (float64, bool) {
	v, ok := m.ReadUint64Le(ctx, offset)
	return api.DecodeF64(v), ok
}

func (m *memoryInstance) Read(_ context.Context, offset, byteCount uint32) ([]byte, bool) {
	if m.isOutOfRange(offset, byteCount) {
		return nil, false
	}
	buf := m.mem().Buffer
	return buf[offset : offset+byteCount : offset+byteCount], true
}

func (m *memoryInstance) WriteByte(_ context.Context, offset uint32, v byte) bool {
	if m.isOutOfRange(offset, 1) {
		return false
	}
	m.mem().Buffer[offset] = v
	return true
}

func (m *memoryInstance) WriteUint16Le(_ context.Context, offset uint32, v uint16) bool {
	if m.isOutOfRange(offset, 2) {
		return false
	}
	binary.LittleEndian.PutUint16(m.mem().Buffer[offset:], v)
	return true
}

func (m *memoryInstance) WriteUint32Le(_ context.Context, offset, v uint32) bool {
	if m.isOutOfRange(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.mem().Buffer[offset:], v)
	return true
}

func (m *memoryInstance) WriteFloat32Le(ctx context.Context, offset uint32, v float32) bool {
	return m.WriteUint32Le(ctx, offset, uint32(api.EncodeF32(v)))
}

func (m *memoryInstance) WriteUint64Le(_ context.Context, offset uint32, v uint64) bool {
	if m.isOutOfRange(offset, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.mem().Buffer[offset:], v)
	return true
}

func (m *memoryInstance) WriteFloat64Le(ctx context.Context, offset uint32, v float64) bool {
	return m.WriteUint64Le(ctx, offset, api.EncodeF64(v))
}

func (m *memoryInstance) Write(_ context.Context, offset uint32, v []byte) bool {
	if m.isOutOfRange(offset, uint32(len(v))) {
		return false
	}
	copy(m.mem().Buffer[offset:], v)
	return true
}
