package wasm

import (
	"fmt"

	"github.com/google/uuid"
)

// Handle is a 1-based reference into a Store's Functions/Globals/Memories/
// Tables arrays: 0 always means "null" (an unset table/global import slot),
// using a "handle = offset+1" convention so the zero value of a
// Handle is never confused with a valid entry.
type Handle uint32

// Valid reports whether h refers to an entry (h != 0).
func (h Handle) Valid() bool { return h != 0 }

// index returns the zero-based slice index h refers to. Callers must only
// call this after checking Valid.
func (h Handle) index() int { return int(h) - 1 }

func handleOf(i int) Handle { return Handle(i + 1) }

// Signature is a function type in a form that outlives any single Module's
// pools: FuncType's Params/Results are Slice views into one module's
// BytePool, which makes a bare *FuncType meaningless once compared against
// another module (an import's exporter, or a table entry reached through
// call_indirect against a different instance). Signature copies the value
// types out so a function's type can be compared regardless of which
// module, if any, it came from.
type Signature struct {
	Params  []ValueType
	Results []ValueType
}

// SignatureOf copies ft's parameter and result types out of m's BytePool.
func SignatureOf(m *Module, ft *FuncType) Signature {
	return Signature{
		Params:  append([]ValueType(nil), m.Params(ft)...),
		Results: append([]ValueType(nil), m.Results(ft)...),
	}
}

// Equal reports whether s and o describe the same parameter and result
// types, in order.
func (s Signature) Equal(o Signature) bool {
	if len(s.Params) != len(o.Params) || len(s.Results) != len(o.Results) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range s.Results {
		if s.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

// FunctionInstance is a function in a Store's combined function index
// space: either a native (host-provided) Go function or a defined function
// body belonging to a decoded Module.
type FunctionInstance struct {
	Type Signature

	// Module/FuncIdx identify the owning instance and its index within it
	// for a defined function; nil Module means Native is authoritative.
	Module  *ModuleInstance
	FuncIdx uint32

	// Native, if non-nil, is a host function: Store.Instantiate lets
	// imports bind to a Native function directly without requiring a
	// wrapped Module around it.
	Native NativeFunc
}

// NativeFunc is the signature every host-provided import must satisfy: raw
// value-stack words in, raw value-stack words out, matching how the
// interpreter already represents locals and operands so that calling into
// a host function needs no marshalling step beyond what internal/makefunc
// generates from a reflect.Func.
type NativeFunc func(ctx *CallContext, stack []uint64)

// CallContext carries the state a Native function needs to call back into
// the module that invoked it (to read/write its memory, say).
type CallContext struct {
	Memory *MemoryInstance
}

// GlobalInstance is a global variable's storage cell plus its declared
// type.
type GlobalInstance struct {
	Type GlobalType
	Val  uint64 // raw bit pattern, reinterpreted per Type.ValType
}

// TableInstance backs a table: Elems holds one Handle per slot (0 = null).
type TableInstance struct {
	ElemKind byte
	Min      uint32
	Max      uint32
	HasMax   bool
	Elems    []Handle
}

// MemoryInstance backs linear memory as a single contiguous, page-aligned
// byte slice.
type MemoryInstance struct {
	Min    uint32
	Max    uint32
	HasMax bool
	Buffer []byte
}

const memoryPageSize = 65536

// MemoryMaxPages is the absolute ceiling on a memory's page count the Wasm
// spec allows (4GiB / 64KiB), used as Store.MaxMemoryPages' default.
const MemoryMaxPages uint32 = 65536

// PageCount returns the current size of the memory in 64KiB pages.
func (m *MemoryInstance) PageCount() uint32 { return uint32(len(m.Buffer) / memoryPageSize) }

// Grow extends the memory by delta pages, returning the previous page
// count, or -1 if the grow would exceed Max (or the Store's configured
// ceiling).
func (m *MemoryInstance) Grow(delta uint32, maxPages uint32) int32 {
	prev := m.PageCount()
	next := prev + delta
	if delta > 0 && next < prev { // overflow
		return -1
	}
	if m.HasMax && next > m.Max {
		return -1
	}
	if next > maxPages {
		return -1
	}
	grown := make([]byte, next*memoryPageSize)
	copy(grown, m.Buffer)
	m.Buffer = grown
	return int32(prev)
}

// ModuleInstance is one instantiated module within a Store: its own slice
// of each of the four combined index spaces, resolved once at
// instantiation time so the interpreter never has to re-resolve an import
// indirection on a hot path.
type ModuleInstance struct {
	Name string
	// InstanceID disambiguates same-named repeat instantiations in trap
	// messages and diagnostics; generated once at instantiation.
	InstanceID uuid.UUID

	Module *Module

	Functions []Handle // Handle into Store.Functions, one per function index space entry
	Tables    []Handle
	Memories  []Handle
	Globals   []Handle

	Exports map[string]Export
}

// Store is the environment: the registry of instantiated modules and the
// combined storage for every function/table/memory/global any of them
// owns or imports from a host. A Store is the unit of linking; two modules
// instantiated into the same Store can reference each other's exports.
type Store struct {
	Functions []FunctionInstance
	Tables    []TableInstance
	Memories  []MemoryInstance
	Globals   []GlobalInstance

	Modules  map[string]*ModuleInstance
	Features Features

	// MaxMemoryPages bounds memory.grow regardless of a memory's own
	// declared Max, defaulting to the Wasm spec's absolute ceiling
	// (4GiB / 64KiB).
	MaxMemoryPages uint32
}

// NewStore creates an empty Store with default limits.
func NewStore(features Features) *Store {
	return &Store{
		Modules:        map[string]*ModuleInstance{},
		Features:       features,
		MaxMemoryPages: 65536,
	}
}

// ImportResolver looks up a Handle for a given (module, field, kind) import
// triple, typically backed by Store.Modules' exports or a host-registered
// native module. The returned Signature is only meaningful when kind is
// ExternKindFunc.
type ImportResolver interface {
	Resolve(moduleName, fieldName string, kind ExternKind) (Handle, Signature, error)
}

// Instantiate links module's imports via resolver, allocates and
// initializes its tables/memories/globals, runs active element and data
// segments, and (if present) calls its start function, in that order, per
// the instantiation algorithm: resolve imports, allocate instances,
// initialize globals, run segments, register the new ModuleInstance in
// s.Modules, run start.
func (s *Store) Instantiate(name string, m *Module, resolver ImportResolver) (*ModuleInstance, error) {
	if err := m.Validate(s.Features); err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", name, err)
	}

	mi := &ModuleInstance{Name: name, Module: m, InstanceID: uuid.New(), Exports: map[string]Export{}}

	for _, imp := range m.ImportSection {
		modName, fieldName := string(m.Bytes(imp.ModuleName)), string(m.Bytes(imp.FieldName))
		h, sig, err := resolver.Resolve(modName, fieldName, imp.Kind)
		if err != nil {
			return nil, fmt.Errorf("instantiate %s: resolving import %s.%s: %w", name, modName, fieldName, err)
		}
		switch imp.Kind {
		case ExternKindFunc:
			want := SignatureOf(m, &m.TypeSection[imp.DescFunc])
			if !want.Equal(sig) {
				return nil, fmt.Errorf("instantiate %s: import %s.%s: function signature mismatch", name, modName, fieldName)
			}
			mi.Functions = append(mi.Functions, h)
		case ExternKindTable:
			mi.Tables = append(mi.Tables, h)
		case ExternKindMem:
			mi.Memories = append(mi.Memories, h)
		case ExternKindGlobal:
			mi.Globals = append(mi.Globals, h)
		}
	}

	for i, t := range m.TableSection {
		s.Tables = append(s.Tables, TableInstance{
			ElemKind: t.ElemKind, Min: t.Limits.Min, Max: t.Limits.Max, HasMax: t.Limits.HasMax,
			Elems: make([]Handle, t.Limits.Min),
		})
		mi.Tables = append(mi.Tables, handleOf(len(s.Tables)-1))
		_ = i
	}
	for _, l := range m.MemorySection {
		s.Memories = append(s.Memories, MemoryInstance{
			Min: l.Min, Max: l.Max, HasMax: l.HasMax,
			Buffer: make([]byte, l.Min*memoryPageSize),
		})
		mi.Memories = append(mi.Memories, handleOf(len(s.Memories)-1))
	}

	for funcIdx := range m.FunctionSection {
		ft := m.TypeOf(m.NumImportTypes[ExternKindFunc] + uint32(funcIdx))
		s.Functions = append(s.Functions, FunctionInstance{
			Type: SignatureOf(m, ft), Module: mi, FuncIdx: uint32(funcIdx),
		})
		mi.Functions = append(mi.Functions, handleOf(len(s.Functions)-1))
	}

	for _, g := range m.GlobalSection {
		val, err := s.evalConstExprGlobal(mi, m.Instructions(g.Init))
		if err != nil {
			return nil, fmt.Errorf("instantiate %s: global init: %w", name, err)
		}
		s.Globals = append(s.Globals, GlobalInstance{Type: g.Type, Val: val})
		mi.Globals = append(mi.Globals, handleOf(len(s.Globals)-1))
	}

	for _, e := range m.ExportSection {
		e := e
		mi.Exports[string(m.Bytes(e.Name))] = e
	}

	for i := range m.ElementSection {
		if err := s.initElementSegment(mi, m, &m.ElementSection[i]); err != nil {
			return nil, fmt.Errorf("instantiate %s: element %d: %w", name, i, err)
		}
	}
	for i := range m.DataSection {
		if err := s.initDataSegment(mi, m, &m.DataSection[i]); err != nil {
			return nil, fmt.Errorf("instantiate %s: data %d: %w", name, i, err)
		}
	}

	s.Modules[name] = mi

	if m.HasStart {
		h := mi.Functions[m.StartSection]
		if _, err := s.CallFunction(h, nil); err != nil {
			return nil, fmt.Errorf("instantiate %s: start function: %w", name, err)
		}
	}

	return mi, nil
}

// engineCallFunction is set by internal/engine/interpreter's init() via
// RegisterEngine, avoiding an import cycle between wasm and the engine
// package (the engine needs *wasm.Module/Store; wasm cannot import the
// engine that executes it).
var engineCallFunction func(s *Store, h Handle, args []uint64) ([]uint64, error)

// RegisterEngine installs the function the Store uses to actually execute
// a call: exactly one engine implementation is expected to call this from
// its package init.
func RegisterEngine(call func(s *Store, h Handle, args []uint64) ([]uint64, error)) {
	engineCallFunction = call
}

// Function returns the FunctionInstance h refers to.
func (s *Store) Function(h Handle) *FunctionInstance { return &s.Functions[h.index()] }

// Global returns the GlobalInstance h refers to.
func (s *Store) Global(h Handle) *GlobalInstance { return &s.Globals[h.index()] }

// Memory returns the MemoryInstance h refers to.
func (s *Store) Memory(h Handle) *MemoryInstance { return &s.Memories[h.index()] }

// Table returns the TableInstance h refers to.
func (s *Store) Table(h Handle) *TableInstance { return &s.Tables[h.index()] }

// CallFunction invokes the function h refers to with args on its value
// stack, via whichever engine called RegisterEngine.
func (s *Store) CallFunction(h Handle, args []uint64) ([]uint64, error) {
	if engineCallFunction == nil {
		return nil, fmt.Errorf("no engine registered")
	}
	return engineCallFunction(s, h, args)
}

func (s *Store) evalConstExprGlobal(mi *ModuleInstance, instrs []Instruction) (uint64, error) {
	in := instrs[0]
	switch in.Op {
	case OpI32Const, OpF32Const:
		return uint64(in.I32), nil
	case OpI64Const, OpF64Const:
		return in.I64, nil
	case OpGlobalGet:
		h := mi.Globals[in.Index]
		return s.Globals[h.index()].Val, nil
	default:
		return 0, fmt.Errorf("unsupported constant expression opcode 0x%x", in.Op)
	}
}

func (s *Store) evalConstExprI32(mi *ModuleInstance, instrs []Instruction) (int32, error) {
	v, err := s.evalConstExprGlobal(mi, instrs)
	return int32(v), err
}

func (s *Store) initElementSegment(mi *ModuleInstance, m *Module, e *ElementSegment) error {
	offset, err := s.evalConstExprI32(mi, m.Instructions(e.Offset))
	if err != nil {
		return err
	}
	th := mi.Tables[e.TableIndex]
	table := &s.Tables[th.index()]
	funcIdxs := m.U32s(e.FuncIndex)
	need := int(offset) + len(funcIdxs)
	if need > len(table.Elems) {
		// An active segment may land past the table's initial Min size; grow
		// it (like the table.grow opcode does) rather than rejecting the
		// module, subject to the same declared Max.
		if table.HasMax && need > int(table.Max) {
			return fmt.Errorf("out of bounds table access")
		}
		grown := make([]Handle, need)
		copy(grown, table.Elems)
		table.Elems = grown
	}
	for i, fi := range funcIdxs {
		table.Elems[int(offset)+i] = mi.Functions[fi]
	}
	return nil
}

func (s *Store) initDataSegment(mi *ModuleInstance, m *Module, d *DataSegment) error {
	offset, err := s.evalConstExprI32(mi, m.Instructions(d.Offset))
	if err != nil {
		return err
	}
	mh := mi.Memories[d.MemIndex]
	mem := &s.Memories[mh.index()]
	data := m.Bytes(d.Data)
	if int(offset)+len(data) > len(mem.Buffer) {
		return fmt.Errorf("out of bounds memory access")
	}
	copy(mem.Buffer[offset:], data)
	return nil
}
