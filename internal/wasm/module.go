package wasm

// Instruction is one decoded opcode plus its immediate, stored by value in
// a module's InstrPool. Every instruction uses the same fixed-size layout
// regardless of opcode; which fields are meaningful is determined by
// Op's OpcodeInfo.Imm. This trades a few unused words per instruction for a
// pool that is a flat, relocatable []Instruction with no per-instruction
// heap allocation, which is the point of the pool-based model.
type Instruction struct {
	Op Opcode

	// block/loop/if: BlockType is the raw s33 block type immediate, negative
	// for one of the five value types (or -0x40 for the empty type), else a
	// non-negative type index into Module.TypeSection.
	BlockType int64
	// Populated by the decoder's structured-control fixup pass: the
	// instruction offset (within the enclosing function's InstrPool slice)
	// of this block's matching else (if any, else/if only) and end.
	ElseOfs uint32
	EndOfs  uint32

	// br, br_if: branch depth (count of enclosing labels to exit).
	Label uint32
	// br_table: Labels is a slice into U32Pool holding the jump table,
	// Default is the label used when the index operand is out of range.
	Labels  Slice
	Default uint32

	// call_indirect: TypeIndex is the expected signature, TableIndex the
	// table the indirect call dispatches through.
	TypeIndex  uint32
	TableIndex uint32

	// local.*, global.*, call, memory.size/grow, memory.init, data.drop,
	// table.init, elem.drop: single index operand.
	Index uint32

	// memarg-bearing load/store ops.
	MemAlign  uint32
	MemOffset uint32

	// const ops: raw bit patterns, reinterpreted by the checker/interpreter
	// according to Op.
	I32  uint32
	I64  uint64
	V128 [16]byte

	// SIMD lane-index and shuffle immediates.
	LaneIndex    byte
	ShuffleLanes [16]byte
}

// Module is the decoded form of a single Wasm binary: section contents plus
// the four pools (BytePool, U32Pool, InstrPool, LocalPool) that all
// cross-references in the section contents are cut from as Slice values.
// A Module owns its pools outright; copying a Module's pools copies the
// whole decoded program, there is no sharing or reference counting.
type Module struct {
	BytePool  Vector[byte]
	U32Pool   Vector[uint32]
	InstrPool Vector[Instruction]
	LocalPool Vector[LocalDecl]

	TypeSection     []FuncType
	ImportSection   []Import
	FunctionSection []uint32 // type index per defined function, parallel to CodeSection
	TableSection    []Table
	MemorySection   []Limits
	GlobalSection   []Global
	ExportSection   []Export
	StartSection    uint32
	HasStart        bool
	ElementSection  []ElementSegment
	CodeSection     []Function
	DataSection     []DataSegment
	// DataCount is the declared count from an optional data count section,
	// used by the decoder/validator to reject memory.init/data.drop when
	// absent (bulk-memory requires it precede the code section).
	DataCount    uint32
	HasDataCount bool

	// NumImportTypes[k] is how many ExternKind k entries ImportSection
	// contributes, letting index-space lookups tell "is this index an
	// import or a module-defined entry" without a per-lookup scan.
	NumImportTypes [4]uint32
	// MaxIndices[k] is the total size of index space k (imports plus
	// module-defined entries), cached off the section slices above.
	MaxIndices [4]uint32

	// ID is a content hash of the original binary, used as an engine
	// compiled-code cache key and exposed for diagnostics.
	ID ModuleID

	// NameSection holds the optional custom "name" section, decoded
	// best-effort for diagnostics; nil if absent or unparseable.
	NameSection *NameSection
}

// ModuleID is a sha256 digest of a module's source bytes.
type ModuleID [32]byte

// NameSection is the subset of the custom "name" section this runtime uses
// for trap messages and the dump CLI: the module name and per-function
// names. Local names are not retained.
type NameSection struct {
	ModuleName string
	FuncNames  map[uint32]string
}

// TypeOf returns the signature of the function at the given index within
// the combined (imported + defined) function index space.
func (m *Module) TypeOf(funcIdx uint32) *FuncType {
	if funcIdx < m.NumImportTypes[ExternKindFunc] {
		var n uint32
		for i := range m.ImportSection {
			if m.ImportSection[i].Kind != ExternKindFunc {
				continue
			}
			if n == funcIdx {
				return &m.TypeSection[m.ImportSection[i].DescFunc]
			}
			n++
		}
	}
	defIdx := funcIdx - m.NumImportTypes[ExternKindFunc]
	return &m.TypeSection[m.FunctionSection[defIdx]]
}

// Params returns a FuncType's parameter types as a []ValueType view into
// BytePool.
func (m *Module) Params(ft *FuncType) []ValueType {
	return bytesAsValueTypes(m.BytePool.Data()[ft.Params.Offset:ft.Params.End()])
}

// Results returns a FuncType's result types as a []ValueType view into
// BytePool.
func (m *Module) Results(ft *FuncType) []ValueType {
	return bytesAsValueTypes(m.BytePool.Data()[ft.Results.Offset:ft.Results.End()])
}

func bytesAsValueTypes(b []byte) []ValueType {
	out := make([]ValueType, len(b))
	for i, v := range b {
		out[i] = ValueType(v)
	}
	return out
}

// Instructions returns a function body's decoded instructions as a slice
// view into InstrPool.
func (m *Module) Instructions(s Slice) []Instruction {
	return m.InstrPool.Data()[s.Offset:s.End()]
}

// Locals returns a function's run-length-encoded local declarations as a
// slice view into LocalPool.
func (m *Module) Locals(s Slice) []LocalDecl {
	return m.LocalPool.Data()[s.Offset:s.End()]
}

// U32s returns a slice view into U32Pool, used for br_table's jump table and
// element-segment function index lists.
func (m *Module) U32s(s Slice) []uint32 {
	return m.U32Pool.Data()[s.Offset:s.End()]
}

// Bytes returns a slice view into BytePool, used for import/export names
// and data-segment contents.
func (m *Module) Bytes(s Slice) []byte {
	return m.BytePool.Data()[s.Offset:s.End()]
}
