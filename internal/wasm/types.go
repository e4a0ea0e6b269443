package wasm

// ValueType is one of the five value types this runtime accepts: the four
// Wasm 1.0 numeric types plus v128 from the SIMD proposal.
type ValueType byte

const (
	ValueTypeI32  ValueType = 0x7f
	ValueTypeI64  ValueType = 0x7e
	ValueTypeF32  ValueType = 0x7d
	ValueTypeF64  ValueType = 0x7c
	ValueTypeV128 ValueType = 0x7b
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeV128:
		return "v128"
	default:
		return "unknown"
	}
}

// ExternKind classifies imports, exports, and the four index spaces: func,
// table, mem, global, in that fixed order (matches api.ExternType ordinals).
type ExternKind = byte

const (
	ExternKindFunc ExternKind = iota
	ExternKindTable
	ExternKindMem
	ExternKindGlobal
	externKindCount
)

// Slice is the system's universal cross-reference: an (offset, length) pair
// indexing into a module-owned pool. It never outlives the pool it was cut
// from, keeps the module relocatable and copy-friendly, and is the Go
// rendering of a pointer-free data model (a Go slice header is
// already (ptr, len); Slice just persists the (offset, len) form so it
// survives pool growth during decode instead of being invalidated by it).
type Slice struct {
	Offset uint32
	Length uint32
}

// End returns Offset+Length, useful for the "ofs+len <= pool.size" invariant
// check.
func (s Slice) End() uint32 { return s.Offset + s.Length }

// FuncType is a function signature: Params/Results are slices into the
// module's BytePool, reinterpreted as ValueType (ValueType is a byte, so the
// byte pool already holds it without a separate pool).
type FuncType struct {
	Params  Slice
	Results Slice
}

// Limits bounds a table or memory: Min <= Max (if HasMax) <= the kind's
// maximum.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// ElemKindFuncref is the only table element kind in Wasm 1.0.
const ElemKindFuncref byte = 0x70

// Table describes a table section (or import) entry.
type Table struct {
	ElemKind byte
	Limits   Limits
}

// GlobalType is a global's declared type: value type plus mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Import describes one import-section entry. ModuleName/FieldName are
// slices into BytePool. Exactly one of the kind-specific fields is
// meaningful, selected by Kind.
type Import struct {
	ModuleName Slice
	FieldName  Slice
	Kind       ExternKind

	DescFunc   uint32 // type index, when Kind == ExternKindFunc
	DescTable  Table
	DescMem    Limits
	DescGlobal GlobalType
}

// Global is a global-section entry: its declared type plus a constant
// expression (a slice into InstrPool) that computes its initial value.
type Global struct {
	Type GlobalType
	Init Slice
}

// Export maps a name to an index within one of the four kind-specific index
// spaces.
type Export struct {
	Name  Slice
	Kind  ExternKind
	Index uint32
}

// ElementSegment initializes a range of a table with function indices.
type ElementSegment struct {
	TableIndex uint32
	Offset     Slice // constant expression, slice into InstrPool
	FuncIndex  Slice // slice into U32Pool
}

// DataSegment initializes a range of linear memory with bytes.
type DataSegment struct {
	MemIndex uint32
	Offset   Slice // constant expression, slice into InstrPool
	Data     Slice // slice into BytePool
}

// LocalDecl is one run-length-encoded entry of a function body's locals
// declaration: Count locals of type Type.
type LocalDecl struct {
	Count uint32
	Type  ValueType
}

// Function is a decoded function body.
type Function struct {
	TypeIndex uint32
	Locals    Slice // slice into LocalPool
	Body      Slice // slice into InstrPool

	// FrameSize is params.len + sum(local decl counts): the number of value
	// stack slots reserved for locals at call entry.
	FrameSize uint32
	// MaxLocals equals FrameSize; kept as a separate field because the
	// interpreter also uses it to size the scratch region it zeroes, and a
	// future JIT backend may want to track a different "max locals" if it
	// spills temporaries into the same region.
	MaxLocals uint32
}
