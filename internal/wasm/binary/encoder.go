package binary

import (
	"encoding/binary"

	"github.com/tetratelabs/pwasm/internal/leb128"
	"github.com/tetratelabs/pwasm/internal/wasm"
)

// writer accumulates encoded bytes. Unlike reader, it never needs to report
// errors: every value it's given has already passed validation on the way
// in, either from DecodeModule or from a caller constructing a Module by
// hand within package-documented invariants.
type writer struct{ buf []byte }

func (w *writer) byte(b byte)         { w.buf = append(w.buf, b) }
func (w *writer) bytes(b []byte)      { w.buf = append(w.buf, b...) }
func (w *writer) u32(v uint32)        { w.buf = append(w.buf, leb128.EncodeUint32(v)...) }
func (w *writer) u64(v uint64)        { w.buf = append(w.buf, leb128.EncodeUint64(v)...) }
func (w *writer) i32(v int32)         { w.buf = append(w.buf, leb128.EncodeInt32(v)...) }
func (w *writer) i64(v int64)         { w.buf = append(w.buf, leb128.EncodeInt64(v)...) }
func (w *writer) i33(v int64)         { w.buf = append(w.buf, leb128.EncodeInt64(v)...) }
func (w *writer) f32bits(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *writer) f64bits(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}
func (w *writer) name(b []byte) {
	w.u32(uint32(len(b)))
	w.bytes(b)
}

// section wraps body with its id and byte-length prefix.
func section(id byte, body []byte) []byte {
	w := &writer{}
	w.byte(id)
	w.u32(uint32(len(body)))
	w.bytes(body)
	return w.buf
}

// EncodeModule serializes m back into a Wasm binary. It is the left
// inverse of DecodeModule: DecodeModule(EncodeModule(m)) describes the same
// module, though byte-for-byte identity with an arbitrary input binary is
// not guaranteed (custom sections other than "name" are dropped, and
// sections are always emitted in canonical order).
func EncodeModule(m *wasm.Module) []byte {
	out := &writer{}
	out.bytes([]byte{0x00, 'a', 's', 'm'})
	out.bytes([]byte{1, 0, 0, 0})

	if len(m.TypeSection) > 0 {
		out.bytes(section(sectionIDType, encodeTypeSection(m)))
	}
	if len(m.ImportSection) > 0 {
		out.bytes(section(sectionIDImport, encodeImportSection(m)))
	}
	if len(m.FunctionSection) > 0 {
		out.bytes(section(sectionIDFunction, encodeFunctionSection(m)))
	}
	if len(m.TableSection) > 0 {
		out.bytes(section(sectionIDTable, encodeTableSection(m)))
	}
	if len(m.MemorySection) > 0 {
		out.bytes(section(sectionIDMemory, encodeMemorySection(m)))
	}
	if len(m.GlobalSection) > 0 {
		out.bytes(section(sectionIDGlobal, encodeGlobalSection(m)))
	}
	if len(m.ExportSection) > 0 {
		out.bytes(section(sectionIDExport, encodeExportSection(m)))
	}
	if m.HasStart {
		w := &writer{}
		w.u32(m.StartSection)
		out.bytes(section(sectionIDStart, w.buf))
	}
	if len(m.ElementSection) > 0 {
		out.bytes(section(sectionIDElement, encodeElementSection(m)))
	}
	if m.HasDataCount {
		w := &writer{}
		w.u32(m.DataCount)
		out.bytes(section(sectionIDDataCount, w.buf))
	}
	if len(m.CodeSection) > 0 {
		out.bytes(section(sectionIDCode, encodeCodeSection(m)))
	}
	if len(m.DataSection) > 0 {
		out.bytes(section(sectionIDData, encodeDataSection(m)))
	}
	return out.buf
}

func encodeValueTypes(m *wasm.Module, s wasm.Slice) []byte {
	w := &writer{}
	w.u32(s.Length)
	w.bytes(m.Bytes(s))
	return w.buf
}

func encodeTypeSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.TypeSection)))
	for _, ft := range m.TypeSection {
		w.byte(0x60)
		w.bytes(encodeValueTypes(m, ft.Params))
		w.bytes(encodeValueTypes(m, ft.Results))
	}
	return w.buf
}

func encodeLimits(w *writer, l wasm.Limits) {
	if l.HasMax {
		w.byte(1)
		w.u32(l.Min)
		w.u32(l.Max)
	} else {
		w.byte(0)
		w.u32(l.Min)
	}
}

func encodeTable(w *writer, t wasm.Table) {
	w.byte(t.ElemKind)
	encodeLimits(w, t.Limits)
}

func encodeGlobalType(w *writer, gt wasm.GlobalType) {
	w.byte(byte(gt.ValType))
	if gt.Mutable {
		w.byte(1)
	} else {
		w.byte(0)
	}
}

func encodeImportSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.ImportSection)))
	for _, imp := range m.ImportSection {
		w.name(m.Bytes(imp.ModuleName))
		w.name(m.Bytes(imp.FieldName))
		w.byte(imp.Kind)
		switch imp.Kind {
		case wasm.ExternKindFunc:
			w.u32(imp.DescFunc)
		case wasm.ExternKindTable:
			encodeTable(w, imp.DescTable)
		case wasm.ExternKindMem:
			encodeLimits(w, imp.DescMem)
		case wasm.ExternKindGlobal:
			encodeGlobalType(w, imp.DescGlobal)
		}
	}
	return w.buf
}

func encodeFunctionSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.FunctionSection)))
	for _, idx := range m.FunctionSection {
		w.u32(idx)
	}
	return w.buf
}

func encodeTableSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.TableSection)))
	for _, t := range m.TableSection {
		encodeTable(w, t)
	}
	return w.buf
}

func encodeMemorySection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.MemorySection)))
	for _, l := range m.MemorySection {
		encodeLimits(w, l)
	}
	return w.buf
}

func encodeExpr(m *wasm.Module, s wasm.Slice) []byte {
	w := &writer{}
	for _, instr := range m.Instructions(s) {
		encodeInstr(m, w, instr)
	}
	return w.buf
}

func encodeGlobalSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.GlobalSection)))
	for _, g := range m.GlobalSection {
		encodeGlobalType(w, g.Type)
		w.bytes(encodeExpr(m, g.Init))
	}
	return w.buf
}

func encodeExportSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.ExportSection)))
	for _, e := range m.ExportSection {
		w.name(m.Bytes(e.Name))
		w.byte(e.Kind)
		w.u32(e.Index)
	}
	return w.buf
}

func encodeElementSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.ElementSection)))
	for _, e := range m.ElementSection {
		w.u32(e.TableIndex)
		w.bytes(encodeExpr(m, e.Offset))
		idxs := m.U32s(e.FuncIndex)
		w.u32(uint32(len(idxs)))
		for _, idx := range idxs {
			w.u32(idx)
		}
	}
	return w.buf
}

func encodeDataSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.DataSection)))
	for _, d := range m.DataSection {
		w.u32(d.MemIndex)
		w.bytes(encodeExpr(m, d.Offset))
		data := m.Bytes(d.Data)
		w.u32(uint32(len(data)))
		w.bytes(data)
	}
	return w.buf
}

func encodeCodeSection(m *wasm.Module) []byte {
	w := &writer{}
	w.u32(uint32(len(m.CodeSection)))
	for _, fn := range m.CodeSection {
		body := &writer{}
		decls := m.Locals(fn.Locals)
		body.u32(uint32(len(decls)))
		for _, ld := range decls {
			body.u32(ld.Count)
			body.byte(byte(ld.Type))
		}
		body.bytes(encodeExpr(m, fn.Body))

		w.u32(uint32(len(body.buf)))
		w.bytes(body.buf)
	}
	return w.buf
}

// encodeInstr writes one instruction's opcode byte(s) and immediate. The
// ElseOfs/EndOfs fixup fields are decode-time conveniences and carry no
// independent information (they're recomputed by decodeExpr from the
// else/end instructions themselves), so encoding never touches them.
func encodeInstr(m *wasm.Module, w *writer, instr wasm.Instruction) {
	encodeOpcodeByte(w, instr.Op)
	info, _ := wasm.Lookup(instr.Op)
	switch info.Imm {
	case wasm.ImmNone:
	case wasm.ImmBlockType:
		w.i33(instr.BlockType)
	case wasm.ImmLabel:
		w.u32(instr.Label)
	case wasm.ImmLabels:
		labels := m.U32s(instr.Labels)
		w.u32(uint32(len(labels)))
		for _, l := range labels {
			w.u32(l)
		}
		w.u32(instr.Default)
	case wasm.ImmCallIndirect:
		w.u32(instr.TypeIndex)
		w.u32(instr.TableIndex)
	case wasm.ImmMemArg:
		w.u32(instr.MemAlign)
		w.u32(instr.MemOffset)
	case wasm.ImmI32:
		w.i32(int32(instr.I32))
	case wasm.ImmI64:
		w.i64(int64(instr.I64))
	case wasm.ImmF32:
		w.f32bits(instr.I32)
	case wasm.ImmF64:
		w.f64bits(instr.I64)
	case wasm.ImmV128:
		w.bytes(instr.V128[:])
	case wasm.ImmLaneIndex:
		w.byte(instr.LaneIndex)
	case wasm.ImmShuffleLanes:
		w.bytes(instr.ShuffleLanes[:])
	case wasm.ImmLocalIndex, wasm.ImmGlobalIndex, wasm.ImmFuncIndex, wasm.ImmTypeIndex,
		wasm.ImmTableIndex, wasm.ImmMemIndex, wasm.ImmDataIndex, wasm.ImmElemIndex:
		w.u32(instr.Index)
	}

	switch instr.Op {
	case wasm.OpMemoryInit:
		w.byte(0)
	case wasm.OpMemoryCopy:
		w.byte(0)
		w.byte(0)
	case wasm.OpMemoryFill:
		w.byte(0)
	case wasm.OpTableCopy:
		w.u32(instr.TableIndex)
		w.u32(instr.Index)
	case wasm.OpTableInit:
		w.u32(instr.TableIndex)
	}
}

func encodeOpcodeByte(w *writer, op wasm.Opcode) {
	switch {
	case op < 0x100:
		w.byte(byte(op))
	case op < 0x200:
		w.byte(0xfc)
		w.u32(uint32(op - 0x100))
	default:
		w.byte(0xfd)
		w.u32(uint32(op - 0x200))
	}
}
