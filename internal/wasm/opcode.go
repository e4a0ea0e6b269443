package wasm

// Opcode names a decoded instruction. The three encoding "sets" the binary
// format uses (plain 1-byte opcodes, the 0xFC trunc-sat/bulk-memory set, and
// the 0xFD SIMD set) are folded into one flat namespace: main-set opcodes
// keep their raw byte value (0x00-0xff), the 0xFC set is offset by
// opcodeSetMisc, and the 0xFD set is offset by opcodeSetSIMD. This is the
// same "3x256 lookup" shape most decoders use, just addressed as one array
// instead of a [3][256] one, since Go slice/array indexing is already O(1)
// either way.
type Opcode uint16

const (
	opcodeSetMain Opcode = 0x000
	opcodeSetMisc Opcode = 0x100 // secondary opcode set introduced by 0xFC
	opcodeSetSIMD Opcode = 0x200 // secondary opcode set introduced by 0xFD
)

// MiscOpcode and SIMDOpcode convert a secondary byte read after the 0xFC or
// 0xFD prefix into this package's flat Opcode space.
func MiscOpcode(secondary uint32) Opcode { return opcodeSetMisc + Opcode(secondary) }
func SIMDOpcode(secondary uint32) Opcode { return opcodeSetSIMD + Opcode(secondary) }

// Main set (1-byte) opcodes, Wasm 1.0 core + the sign-extension ops.
const (
	OpUnreachable Opcode = 0x00
	OpNop         Opcode = 0x01
	OpBlock       Opcode = 0x02
	OpLoop        Opcode = 0x03
	OpIf          Opcode = 0x04
	OpElse        Opcode = 0x05
	OpEnd         Opcode = 0x0b
	OpBr          Opcode = 0x0c
	OpBrIf        Opcode = 0x0d
	OpBrTable     Opcode = 0x0e
	OpReturn      Opcode = 0x0f
	OpCall        Opcode = 0x10
	OpCallIndirect Opcode = 0x11

	OpDrop   Opcode = 0x1a
	OpSelect Opcode = 0x1b

	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF32Load    Opcode = 0x2a
	OpF64Load    Opcode = 0x2b
	OpI32Load8S  Opcode = 0x2c
	OpI32Load8U  Opcode = 0x2d
	OpI32Load16S Opcode = 0x2e
	OpI32Load16U Opcode = 0x2f
	OpI64Load8S  Opcode = 0x30
	OpI64Load8U  Opcode = 0x31
	OpI64Load16S Opcode = 0x32
	OpI64Load16U Opcode = 0x33
	OpI64Load32S Opcode = 0x34
	OpI64Load32U Opcode = 0x35
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF32Store   Opcode = 0x38
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3a
	OpI32Store16 Opcode = 0x3b
	OpI64Store8  Opcode = 0x3c
	OpI64Store16 Opcode = 0x3d
	OpI64Store32 Opcode = 0x3e
	OpMemorySize Opcode = 0x3f
	OpMemoryGrow Opcode = 0x40

	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44

	OpI32Eqz Opcode = 0x45
	OpI32Eq  Opcode = 0x46
	OpI32Ne  Opcode = 0x47
	OpI32LtS Opcode = 0x48
	OpI32LtU Opcode = 0x49
	OpI32GtS Opcode = 0x4a
	OpI32GtU Opcode = 0x4b
	OpI32LeS Opcode = 0x4c
	OpI32LeU Opcode = 0x4d
	OpI32GeS Opcode = 0x4e
	OpI32GeU Opcode = 0x4f

	OpI64Eqz Opcode = 0x50
	OpI64Eq  Opcode = 0x51
	OpI64Ne  Opcode = 0x52
	OpI64LtS Opcode = 0x53
	OpI64LtU Opcode = 0x54
	OpI64GtS Opcode = 0x55
	OpI64GtU Opcode = 0x56
	OpI64LeS Opcode = 0x57
	OpI64LeU Opcode = 0x58
	OpI64GeS Opcode = 0x59
	OpI64GeU Opcode = 0x5a

	OpF32Eq Opcode = 0x5b
	OpF32Ne Opcode = 0x5c
	OpF32Lt Opcode = 0x5d
	OpF32Gt Opcode = 0x5e
	OpF32Le Opcode = 0x5f
	OpF32Ge Opcode = 0x60

	OpF64Eq Opcode = 0x61
	OpF64Ne Opcode = 0x62
	OpF64Lt Opcode = 0x63
	OpF64Gt Opcode = 0x64
	OpF64Le Opcode = 0x65
	OpF64Ge Opcode = 0x66

	OpI32Clz    Opcode = 0x67
	OpI32Ctz    Opcode = 0x68
	OpI32Popcnt Opcode = 0x69
	OpI32Add    Opcode = 0x6a
	OpI32Sub    Opcode = 0x6b
	OpI32Mul    Opcode = 0x6c
	OpI32DivS   Opcode = 0x6d
	OpI32DivU   Opcode = 0x6e
	OpI32RemS   Opcode = 0x6f
	OpI32RemU   Opcode = 0x70
	OpI32And    Opcode = 0x71
	OpI32Or     Opcode = 0x72
	OpI32Xor    Opcode = 0x73
	OpI32Shl    Opcode = 0x74
	OpI32ShrS   Opcode = 0x75
	OpI32ShrU   Opcode = 0x76
	OpI32Rotl   Opcode = 0x77
	OpI32Rotr   Opcode = 0x78

	OpI64Clz    Opcode = 0x79
	OpI64Ctz    Opcode = 0x7a
	OpI64Popcnt Opcode = 0x7b
	OpI64Add    Opcode = 0x7c
	OpI64Sub    Opcode = 0x7d
	OpI64Mul    Opcode = 0x7e
	OpI64DivS   Opcode = 0x7f
	OpI64DivU   Opcode = 0x80
	OpI64RemS   Opcode = 0x81
	OpI64RemU   Opcode = 0x82
	OpI64And    Opcode = 0x83
	OpI64Or     Opcode = 0x84
	OpI64Xor    Opcode = 0x85
	OpI64Shl    Opcode = 0x86
	OpI64ShrS   Opcode = 0x87
	OpI64ShrU   Opcode = 0x88
	OpI64Rotl   Opcode = 0x89
	OpI64Rotr   Opcode = 0x8a

	OpF32Abs      Opcode = 0x8b
	OpF32Neg      Opcode = 0x8c
	OpF32Ceil     Opcode = 0x8d
	OpF32Floor    Opcode = 0x8e
	OpF32Trunc    Opcode = 0x8f
	OpF32Nearest  Opcode = 0x90
	OpF32Sqrt     Opcode = 0x91
	OpF32Add      Opcode = 0x92
	OpF32Sub      Opcode = 0x93
	OpF32Mul      Opcode = 0x94
	OpF32Div      Opcode = 0x95
	OpF32Min      Opcode = 0x96
	OpF32Max      Opcode = 0x97
	OpF32Copysign Opcode = 0x98

	OpF64Abs      Opcode = 0x99
	OpF64Neg      Opcode = 0x9a
	OpF64Ceil     Opcode = 0x9b
	OpF64Floor    Opcode = 0x9c
	OpF64Trunc    Opcode = 0x9d
	OpF64Nearest  Opcode = 0x9e
	OpF64Sqrt     Opcode = 0x9f
	OpF64Add      Opcode = 0xa0
	OpF64Sub      Opcode = 0xa1
	OpF64Mul      Opcode = 0xa2
	OpF64Div      Opcode = 0xa3
	OpF64Min      Opcode = 0xa4
	OpF64Max      Opcode = 0xa5
	OpF64Copysign Opcode = 0xa6

	OpI32WrapI64        Opcode = 0xa7
	OpI32TruncF32S      Opcode = 0xa8
	OpI32TruncF32U      Opcode = 0xa9
	OpI32TruncF64S      Opcode = 0xaa
	OpI32TruncF64U      Opcode = 0xab
	OpI64ExtendI32S     Opcode = 0xac
	OpI64ExtendI32U     Opcode = 0xad
	OpI64TruncF32S      Opcode = 0xae
	OpI64TruncF32U      Opcode = 0xaf
	OpI64TruncF64S      Opcode = 0xb0
	OpI64TruncF64U      Opcode = 0xb1
	OpF32ConvertI32S    Opcode = 0xb2
	OpF32ConvertI32U    Opcode = 0xb3
	OpF32ConvertI64S    Opcode = 0xb4
	OpF32ConvertI64U    Opcode = 0xb5
	OpF32DemoteF64      Opcode = 0xb6
	OpF64ConvertI32S    Opcode = 0xb7
	OpF64ConvertI32U    Opcode = 0xb8
	OpF64ConvertI64S    Opcode = 0xb9
	OpF64ConvertI64U    Opcode = 0xba
	OpF64PromoteF32     Opcode = 0xbb
	OpI32ReinterpretF32 Opcode = 0xbc
	OpI64ReinterpretF64 Opcode = 0xbd
	OpF32ReinterpretI32 Opcode = 0xbe
	OpF64ReinterpretI64 Opcode = 0xbf

	OpI32Extend8S  Opcode = 0xc0
	OpI32Extend16S Opcode = 0xc1
	OpI64Extend8S  Opcode = 0xc2
	OpI64Extend16S Opcode = 0xc3
	OpI64Extend32S Opcode = 0xc4
)

// 0xFC trunc-sat + bulk-memory set (secondary byte offset by opcodeSetMisc).
const (
	OpI32TruncSatF32S Opcode = opcodeSetMisc + 0x00
	OpI32TruncSatF32U Opcode = opcodeSetMisc + 0x01
	OpI32TruncSatF64S Opcode = opcodeSetMisc + 0x02
	OpI32TruncSatF64U Opcode = opcodeSetMisc + 0x03
	OpI64TruncSatF32S Opcode = opcodeSetMisc + 0x04
	OpI64TruncSatF32U Opcode = opcodeSetMisc + 0x05
	OpI64TruncSatF64S Opcode = opcodeSetMisc + 0x06
	OpI64TruncSatF64U Opcode = opcodeSetMisc + 0x07

	OpMemoryInit Opcode = opcodeSetMisc + 0x08
	OpDataDrop   Opcode = opcodeSetMisc + 0x09
	OpMemoryCopy Opcode = opcodeSetMisc + 0x0a
	OpMemoryFill Opcode = opcodeSetMisc + 0x0b
	OpTableInit  Opcode = opcodeSetMisc + 0x0c
	OpElemDrop   Opcode = opcodeSetMisc + 0x0d
	OpTableCopy  Opcode = opcodeSetMisc + 0x0e
	OpTableGrow  Opcode = opcodeSetMisc + 0x0f
	OpTableSize  Opcode = opcodeSetMisc + 0x10
	OpTableFill  Opcode = opcodeSetMisc + 0x11
)

// 0xFD SIMD set. Not exhaustive of the ~236 proposal opcodes; this covers
// the load/store/const/shuffle/lane/arithmetic/comparison/bitwise subset
// this decoder, validator, and interpreter accept and execute.
const (
	OpV128Load  Opcode = opcodeSetSIMD + 0x00
	OpV128Store Opcode = opcodeSetSIMD + 0x0b
	OpV128Const Opcode = opcodeSetSIMD + 0x0c
	OpI8x16Shuffle Opcode = opcodeSetSIMD + 0x0d

	OpI8x16Splat Opcode = opcodeSetSIMD + 0x0f
	OpI16x8Splat Opcode = opcodeSetSIMD + 0x10
	OpI32x4Splat Opcode = opcodeSetSIMD + 0x11
	OpI64x2Splat Opcode = opcodeSetSIMD + 0x12
	OpF32x4Splat Opcode = opcodeSetSIMD + 0x13
	OpF64x2Splat Opcode = opcodeSetSIMD + 0x14

	OpI8x16ExtractLaneS Opcode = opcodeSetSIMD + 0x15
	OpI8x16ExtractLaneU Opcode = opcodeSetSIMD + 0x16
	OpI8x16ReplaceLane  Opcode = opcodeSetSIMD + 0x17
	OpI16x8ExtractLaneS Opcode = opcodeSetSIMD + 0x18
	OpI16x8ExtractLaneU Opcode = opcodeSetSIMD + 0x19
	OpI16x8ReplaceLane  Opcode = opcodeSetSIMD + 0x1a
	OpI32x4ExtractLane  Opcode = opcodeSetSIMD + 0x1b
	OpI32x4ReplaceLane  Opcode = opcodeSetSIMD + 0x1c
	OpI64x2ExtractLane  Opcode = opcodeSetSIMD + 0x1d
	OpI64x2ReplaceLane  Opcode = opcodeSetSIMD + 0x1e
	OpF32x4ExtractLane  Opcode = opcodeSetSIMD + 0x1f
	OpF32x4ReplaceLane  Opcode = opcodeSetSIMD + 0x20
	OpF64x2ExtractLane  Opcode = opcodeSetSIMD + 0x21
	OpF64x2ReplaceLane  Opcode = opcodeSetSIMD + 0x22

	OpI8x16Eq Opcode = opcodeSetSIMD + 0x23
	OpI32x4Eq Opcode = opcodeSetSIMD + 0x2f

	OpV128Not Opcode = opcodeSetSIMD + 0x4d
	OpV128And Opcode = opcodeSetSIMD + 0x4e
	OpV128Or  Opcode = opcodeSetSIMD + 0x50
	OpV128Xor Opcode = opcodeSetSIMD + 0x51

	OpI8x16Add Opcode = opcodeSetSIMD + 0x6e
	OpI8x16Sub Opcode = opcodeSetSIMD + 0x71

	OpI16x8Add Opcode = opcodeSetSIMD + 0x8e
	OpI16x8Sub Opcode = opcodeSetSIMD + 0x91
	OpI16x8Mul Opcode = opcodeSetSIMD + 0x95

	OpI32x4Add Opcode = opcodeSetSIMD + 0xae
	OpI32x4Sub Opcode = opcodeSetSIMD + 0xb1
	OpI32x4Mul Opcode = opcodeSetSIMD + 0xb5

	OpI64x2Add Opcode = opcodeSetSIMD + 0xce
	OpI64x2Sub Opcode = opcodeSetSIMD + 0xd1
	OpI64x2Mul Opcode = opcodeSetSIMD + 0xd5

	OpF32x4Add Opcode = opcodeSetSIMD + 0xe4
	OpF32x4Sub Opcode = opcodeSetSIMD + 0xe5
	OpF32x4Mul Opcode = opcodeSetSIMD + 0xe6
	OpF32x4Div Opcode = opcodeSetSIMD + 0xe7

	OpF64x2Add Opcode = opcodeSetSIMD + 0xf0
	OpF64x2Sub Opcode = opcodeSetSIMD + 0xf1
	OpF64x2Mul Opcode = opcodeSetSIMD + 0xf2
	OpF64x2Div Opcode = opcodeSetSIMD + 0xf3
)

// ImmKind discriminates which field of Instruction's immediate union is
// populated for a given opcode.
type ImmKind byte

const (
	ImmNone ImmKind = iota
	ImmBlockType
	ImmLabel
	ImmLabels // br_table: a vector of labels plus one default
	ImmCallIndirect
	ImmMemArg
	ImmI32
	ImmI64
	ImmF32
	ImmF64
	ImmV128
	ImmLaneIndex
	ImmLocalIndex
	ImmGlobalIndex
	ImmFuncIndex
	ImmTypeIndex
	ImmTableIndex
	ImmMemIndex
	ImmDataIndex
	ImmElemIndex
	ImmShuffleLanes
)

// OpcodeInfo is the static metadata the decoder and validator consult per
// opcode: its name (for diagnostics), what kind of immediate follows it, and
// (for memory ops) the natural width in bytes used to validate the
// alignment immediate.
type OpcodeInfo struct {
	Valid      bool
	Name       string
	Imm        ImmKind
	MemWidth   int // 0 if not a memory instruction
	NumLanes   int // for lane-index-bearing SIMD ops
}

// opcodeTable is addressed by Opcode directly: main-set opcodes occupy
// [0,0x100), the 0xFC set [0x100,0x200), the 0xFD set [0x200,0x300). A zero
// entry (Valid == false) means "unknown opcode" in that set, answering the
// "is this byte a valid opcode in this set" bitmask query for free.
var opcodeTable [0x300]OpcodeInfo

func op(code Opcode, name string, imm ImmKind) {
	opcodeTable[code] = OpcodeInfo{Valid: true, Name: name, Imm: imm}
}

func memOp(code Opcode, name string, imm ImmKind, width int) {
	opcodeTable[code] = OpcodeInfo{Valid: true, Name: name, Imm: imm, MemWidth: width}
}

func laneOp(code Opcode, name string, imm ImmKind, numLanes int) {
	opcodeTable[code] = OpcodeInfo{Valid: true, Name: name, Imm: imm, NumLanes: numLanes}
}

// Lookup returns the metadata for code, and false if code is not a defined
// opcode in its set.
func Lookup(code Opcode) (OpcodeInfo, bool) {
	if int(code) >= len(opcodeTable) {
		return OpcodeInfo{}, false
	}
	info := opcodeTable[code]
	return info, info.Valid
}

func init() {
	op(OpUnreachable, "unreachable", ImmNone)
	op(OpNop, "nop", ImmNone)
	op(OpBlock, "block", ImmBlockType)
	op(OpLoop, "loop", ImmBlockType)
	op(OpIf, "if", ImmBlockType)
	op(OpElse, "else", ImmNone)
	op(OpEnd, "end", ImmNone)
	op(OpBr, "br", ImmLabel)
	op(OpBrIf, "br_if", ImmLabel)
	op(OpBrTable, "br_table", ImmLabels)
	op(OpReturn, "return", ImmNone)
	op(OpCall, "call", ImmFuncIndex)
	op(OpCallIndirect, "call_indirect", ImmCallIndirect)

	op(OpDrop, "drop", ImmNone)
	op(OpSelect, "select", ImmNone)

	op(OpLocalGet, "local.get", ImmLocalIndex)
	op(OpLocalSet, "local.set", ImmLocalIndex)
	op(OpLocalTee, "local.tee", ImmLocalIndex)
	op(OpGlobalGet, "global.get", ImmGlobalIndex)
	op(OpGlobalSet, "global.set", ImmGlobalIndex)

	memOp(OpI32Load, "i32.load", ImmMemArg, 4)
	memOp(OpI64Load, "i64.load", ImmMemArg, 8)
	memOp(OpF32Load, "f32.load", ImmMemArg, 4)
	memOp(OpF64Load, "f64.load", ImmMemArg, 8)
	memOp(OpI32Load8S, "i32.load8_s", ImmMemArg, 1)
	memOp(OpI32Load8U, "i32.load8_u", ImmMemArg, 1)
	memOp(OpI32Load16S, "i32.load16_s", ImmMemArg, 2)
	memOp(OpI32Load16U, "i32.load16_u", ImmMemArg, 2)
	memOp(OpI64Load8S, "i64.load8_s", ImmMemArg, 1)
	memOp(OpI64Load8U, "i64.load8_u", ImmMemArg, 1)
	memOp(OpI64Load16S, "i64.load16_s", ImmMemArg, 2)
	memOp(OpI64Load16U, "i64.load16_u", ImmMemArg, 2)
	memOp(OpI64Load32S, "i64.load32_s", ImmMemArg, 4)
	memOp(OpI64Load32U, "i64.load32_u", ImmMemArg, 4)
	memOp(OpI32Store, "i32.store", ImmMemArg, 4)
	memOp(OpI64Store, "i64.store", ImmMemArg, 8)
	memOp(OpF32Store, "f32.store", ImmMemArg, 4)
	memOp(OpF64Store, "f64.store", ImmMemArg, 8)
	memOp(OpI32Store8, "i32.store8", ImmMemArg, 1)
	memOp(OpI32Store16, "i32.store16", ImmMemArg, 2)
	memOp(OpI64Store8, "i64.store8", ImmMemArg, 1)
	memOp(OpI64Store16, "i64.store16", ImmMemArg, 2)
	memOp(OpI64Store32, "i64.store32", ImmMemArg, 4)
	op(OpMemorySize, "memory.size", ImmMemIndex)
	op(OpMemoryGrow, "memory.grow", ImmMemIndex)

	op(OpI32Const, "i32.const", ImmI32)
	op(OpI64Const, "i64.const", ImmI64)
	op(OpF32Const, "f32.const", ImmF32)
	op(OpF64Const, "f64.const", ImmF64)

	for code, name := range map[Opcode]string{
		OpI32Eqz: "i32.eqz", OpI32Eq: "i32.eq", OpI32Ne: "i32.ne",
		OpI32LtS: "i32.lt_s", OpI32LtU: "i32.lt_u", OpI32GtS: "i32.gt_s", OpI32GtU: "i32.gt_u",
		OpI32LeS: "i32.le_s", OpI32LeU: "i32.le_u", OpI32GeS: "i32.ge_s", OpI32GeU: "i32.ge_u",
		OpI64Eqz: "i64.eqz", OpI64Eq: "i64.eq", OpI64Ne: "i64.ne",
		OpI64LtS: "i64.lt_s", OpI64LtU: "i64.lt_u", OpI64GtS: "i64.gt_s", OpI64GtU: "i64.gt_u",
		OpI64LeS: "i64.le_s", OpI64LeU: "i64.le_u", OpI64GeS: "i64.ge_s", OpI64GeU: "i64.ge_u",
		OpF32Eq: "f32.eq", OpF32Ne: "f32.ne", OpF32Lt: "f32.lt", OpF32Gt: "f32.gt", OpF32Le: "f32.le", OpF32Ge: "f32.ge",
		OpF64Eq: "f64.eq", OpF64Ne: "f64.ne", OpF64Lt: "f64.lt", OpF64Gt: "f64.gt", OpF64Le: "f64.le", OpF64Ge: "f64.ge",
		OpI32Clz: "i32.clz", OpI32Ctz: "i32.ctz", OpI32Popcnt: "i32.popcnt",
		OpI32Add: "i32.add", OpI32Sub: "i32.sub", OpI32Mul: "i32.mul",
		OpI32DivS: "i32.div_s", OpI32DivU: "i32.div_u", OpI32RemS: "i32.rem_s", OpI32RemU: "i32.rem_u",
		OpI32And: "i32.and", OpI32Or: "i32.or", OpI32Xor: "i32.xor",
		OpI32Shl: "i32.shl", OpI32ShrS: "i32.shr_s", OpI32ShrU: "i32.shr_u",
		OpI32Rotl: "i32.rotl", OpI32Rotr: "i32.rotr",
		OpI64Clz: "i64.clz", OpI64Ctz: "i64.ctz", OpI64Popcnt: "i64.popcnt",
		OpI64Add: "i64.add", OpI64Sub: "i64.sub", OpI64Mul: "i64.mul",
		OpI64DivS: "i64.div_s", OpI64DivU: "i64.div_u", OpI64RemS: "i64.rem_s", OpI64RemU: "i64.rem_u",
		OpI64And: "i64.and", OpI64Or: "i64.or", OpI64Xor: "i64.xor",
		OpI64Shl: "i64.shl", OpI64ShrS: "i64.shr_s", OpI64ShrU: "i64.shr_u",
		OpI64Rotl: "i64.rotl", OpI64Rotr: "i64.rotr",
		OpF32Abs: "f32.abs", OpF32Neg: "f32.neg", OpF32Ceil: "f32.ceil", OpF32Floor: "f32.floor",
		OpF32Trunc: "f32.trunc", OpF32Nearest: "f32.nearest", OpF32Sqrt: "f32.sqrt",
		OpF32Add: "f32.add", OpF32Sub: "f32.sub", OpF32Mul: "f32.mul", OpF32Div: "f32.div",
		OpF32Min: "f32.min", OpF32Max: "f32.max", OpF32Copysign: "f32.copysign",
		OpF64Abs: "f64.abs", OpF64Neg: "f64.neg", OpF64Ceil: "f64.ceil", OpF64Floor: "f64.floor",
		OpF64Trunc: "f64.trunc", OpF64Nearest: "f64.nearest", OpF64Sqrt: "f64.sqrt",
		OpF64Add: "f64.add", OpF64Sub: "f64.sub", OpF64Mul: "f64.mul", OpF64Div: "f64.div",
		OpF64Min: "f64.min", OpF64Max: "f64.max", OpF64Copysign: "f64.copysign",
		OpI32WrapI64: "i32.wrap_i64",
		OpI32TruncF32S: "i32.trunc_f32_s", OpI32TruncF32U: "i32.trunc_f32_u",
		OpI32TruncF64S: "i32.trunc_f64_s", OpI32TruncF64U: "i32.trunc_f64_u",
		OpI64ExtendI32S: "i64.extend_i32_s", OpI64ExtendI32U: "i64.extend_i32_u",
		OpI64TruncF32S: "i64.trunc_f32_s", OpI64TruncF32U: "i64.trunc_f32_u",
		OpI64TruncF64S: "i64.trunc_f64_s", OpI64TruncF64U: "i64.trunc_f64_u",
		OpF32ConvertI32S: "f32.convert_i32_s", OpF32ConvertI32U: "f32.convert_i32_u",
		OpF32ConvertI64S: "f32.convert_i64_s", OpF32ConvertI64U: "f32.convert_i64_u",
		OpF32DemoteF64: "f32.demote_f64",
		OpF64ConvertI32S: "f64.convert_i32_s", OpF64ConvertI32U: "f64.convert_i32_u",
		OpF64ConvertI64S: "f64.convert_i64_s", OpF64ConvertI64U: "f64.convert_i64_u",
		OpF64PromoteF32: "f64.promote_f32",
		OpI32ReinterpretF32: "i32.reinterpret_f32", OpI64ReinterpretF64: "i64.reinterpret_f64",
		OpF32ReinterpretI32: "f32.reinterpret_i32", OpF64ReinterpretI64: "f64.reinterpret_i64",
		OpI32Extend8S: "i32.extend8_s", OpI32Extend16S: "i32.extend16_s",
		OpI64Extend8S: "i64.extend8_s", OpI64Extend16S: "i64.extend16_s", OpI64Extend32S: "i64.extend32_s",
	} {
		op(code, name, ImmNone)
	}

	for code, name := range map[Opcode]string{
		OpI32TruncSatF32S: "i32.trunc_sat_f32_s", OpI32TruncSatF32U: "i32.trunc_sat_f32_u",
		OpI32TruncSatF64S: "i32.trunc_sat_f64_s", OpI32TruncSatF64U: "i32.trunc_sat_f64_u",
		OpI64TruncSatF32S: "i64.trunc_sat_f32_s", OpI64TruncSatF32U: "i64.trunc_sat_f32_u",
		OpI64TruncSatF64S: "i64.trunc_sat_f64_s", OpI64TruncSatF64U: "i64.trunc_sat_f64_u",
	} {
		op(code, name, ImmNone)
	}
	op(OpMemoryInit, "memory.init", ImmDataIndex)
	op(OpDataDrop, "data.drop", ImmDataIndex)
	op(OpMemoryCopy, "memory.copy", ImmNone)
	op(OpMemoryFill, "memory.fill", ImmNone)
	op(OpTableInit, "table.init", ImmElemIndex)
	op(OpElemDrop, "elem.drop", ImmElemIndex)
	op(OpTableCopy, "table.copy", ImmNone)
	op(OpTableGrow, "table.grow", ImmTableIndex)
	op(OpTableSize, "table.size", ImmTableIndex)
	op(OpTableFill, "table.fill", ImmTableIndex)

	memOp(OpV128Load, "v128.load", ImmMemArg, 16)
	memOp(OpV128Store, "v128.store", ImmMemArg, 16)
	op(OpV128Const, "v128.const", ImmV128)
	op(OpI8x16Shuffle, "i8x16.shuffle", ImmShuffleLanes)

	laneOp(OpI8x16Splat, "i8x16.splat", ImmNone, 16)
	laneOp(OpI16x8Splat, "i16x8.splat", ImmNone, 8)
	laneOp(OpI32x4Splat, "i32x4.splat", ImmNone, 4)
	laneOp(OpI64x2Splat, "i64x2.splat", ImmNone, 2)
	laneOp(OpF32x4Splat, "f32x4.splat", ImmNone, 4)
	laneOp(OpF64x2Splat, "f64x2.splat", ImmNone, 2)

	laneOp(OpI8x16ExtractLaneS, "i8x16.extract_lane_s", ImmLaneIndex, 16)
	laneOp(OpI8x16ExtractLaneU, "i8x16.extract_lane_u", ImmLaneIndex, 16)
	laneOp(OpI8x16ReplaceLane, "i8x16.replace_lane", ImmLaneIndex, 16)
	laneOp(OpI16x8ExtractLaneS, "i16x8.extract_lane_s", ImmLaneIndex, 8)
	laneOp(OpI16x8ExtractLaneU, "i16x8.extract_lane_u", ImmLaneIndex, 8)
	laneOp(OpI16x8ReplaceLane, "i16x8.replace_lane", ImmLaneIndex, 8)
	laneOp(OpI32x4ExtractLane, "i32x4.extract_lane", ImmLaneIndex, 4)
	laneOp(OpI32x4ReplaceLane, "i32x4.replace_lane", ImmLaneIndex, 4)
	laneOp(OpI64x2ExtractLane, "i64x2.extract_lane", ImmLaneIndex, 2)
	laneOp(OpI64x2ReplaceLane, "i64x2.replace_lane", ImmLaneIndex, 2)
	laneOp(OpF32x4ExtractLane, "f32x4.extract_lane", ImmLaneIndex, 4)
	laneOp(OpF32x4ReplaceLane, "f32x4.replace_lane", ImmLaneIndex, 4)
	laneOp(OpF64x2ExtractLane, "f64x2.extract_lane", ImmLaneIndex, 2)
	laneOp(OpF64x2ReplaceLane, "f64x2.replace_lane", ImmLaneIndex, 2)

	op(OpI8x16Eq, "i8x16.eq", ImmNone)
	op(OpI32x4Eq, "i32x4.eq", ImmNone)
	op(OpV128Not, "v128.not", ImmNone)
	op(OpV128And, "v128.and", ImmNone)
	op(OpV128Or, "v128.or", ImmNone)
	op(OpV128Xor, "v128.xor", ImmNone)
	op(OpI8x16Add, "i8x16.add", ImmNone)
	op(OpI8x16Sub, "i8x16.sub", ImmNone)
	op(OpI16x8Add, "i16x8.add", ImmNone)
	op(OpI16x8Sub, "i16x8.sub", ImmNone)
	op(OpI16x8Mul, "i16x8.mul", ImmNone)
	op(OpI32x4Add, "i32x4.add", ImmNone)
	op(OpI32x4Sub, "i32x4.sub", ImmNone)
	op(OpI32x4Mul, "i32x4.mul", ImmNone)
	op(OpI64x2Add, "i64x2.add", ImmNone)
	op(OpI64x2Sub, "i64x2.sub", ImmNone)
	op(OpI64x2Mul, "i64x2.mul", ImmNone)
	op(OpF32x4Add, "f32x4.add", ImmNone)
	op(OpF32x4Sub, "f32x4.sub", ImmNone)
	op(OpF32x4Mul, "f32x4.mul", ImmNone)
	op(OpF32x4Div, "f32x4.div", ImmNone)
	op(OpF64x2Add, "f64x2.add", ImmNone)
	op(OpF64x2Sub, "f64x2.sub", ImmNone)
	op(OpF64x2Mul, "f64x2.mul", ImmNone)
	op(OpF64x2Div, "f64x2.div", ImmNone)
}
