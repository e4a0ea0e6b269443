package binary

import (
	"crypto/sha256"
	"fmt"

	"github.com/tetratelabs/pwasm/internal/wasm"
)

const (
	magic   = 0x6d736100 // "\0asm"
	version = uint32(1)
)

// Section IDs. Non-custom sections appear in ascending id order, except the
// data count section, which goes between the element and code sections
// (custom sections may repeat anywhere).
const (
	sectionIDCustom = iota
	sectionIDType
	sectionIDImport
	sectionIDFunction
	sectionIDTable
	sectionIDMemory
	sectionIDGlobal
	sectionIDExport
	sectionIDStart
	sectionIDElement
	sectionIDCode
	sectionIDData
	sectionIDDataCount
)

// decoder holds the state threaded through a single DecodeModule call.
type decoder struct {
	m        *wasm.Module
	enabled  wasm.Features
	lastID   int
	seenCode bool
}

// DecodeModule parses a complete Wasm binary module. enabled gates which
// optional proposals (SIMD, bulk memory, ...) the decoder accepts; an
// opcode or section belonging to a disabled feature is a decode error, not
// a silent skip.
func DecodeModule(data []byte, enabled wasm.Features) (*wasm.Module, error) {
	r := newReader(data)

	magicBytes, err := r.bytes(4)
	if err != nil {
		return nil, fmt.Errorf("unexpected EOF reading magic")
	}
	if magicBytes[0] != 0 || magicBytes[1] != 'a' || magicBytes[2] != 's' || magicBytes[3] != 'm' {
		return nil, fmt.Errorf("invalid magic number")
	}
	verBytes, err := r.bytes(4)
	if err != nil {
		return nil, fmt.Errorf("unexpected EOF reading version")
	}
	ver := uint32(verBytes[0]) | uint32(verBytes[1])<<8 | uint32(verBytes[2])<<16 | uint32(verBytes[3])<<24
	if ver != version {
		return nil, fmt.Errorf("unsupported version: %d", ver)
	}

	d := &decoder{m: &wasm.Module{}, enabled: enabled, lastID: -1}

	for !r.eof() {
		id, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("reading section id: %w", err)
		}
		size, err := r.u32()
		if err != nil {
			return nil, fmt.Errorf("reading section %d size: %w", id, err)
		}
		body, err := r.bytes(size)
		if err != nil {
			return nil, fmt.Errorf("reading section %d body: %w", id, err)
		}

		if id != sectionIDCustom {
			// Order is checked by rank rather than raw id, so the data count
			// section ranks between the element and code sections.
			rank := 2 * int(id)
			if id == sectionIDDataCount {
				rank = 2*sectionIDElement + 1
			}
			if rank <= d.lastID {
				return nil, fmt.Errorf("section %d out of order", id)
			}
			d.lastID = rank
		}

		sr := newReader(body)
		if err := d.decodeSection(id, sr); err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}
		if !sr.eof() {
			return nil, fmt.Errorf("section %d: %d unconsumed trailing bytes", id, len(sr.remaining()))
		}
	}

	d.computeIndexSpaces()
	d.m.ID = wasm.ModuleID(sha256.Sum256(data))
	return d.m, nil
}

func (d *decoder) decodeSection(id byte, r *reader) error {
	switch id {
	case sectionIDCustom:
		return d.decodeCustomSection(r)
	case sectionIDType:
		return d.decodeTypeSection(r)
	case sectionIDImport:
		return d.decodeImportSection(r)
	case sectionIDFunction:
		return d.decodeFunctionSection(r)
	case sectionIDTable:
		return d.decodeTableSection(r)
	case sectionIDMemory:
		return d.decodeMemorySection(r)
	case sectionIDGlobal:
		return d.decodeGlobalSection(r)
	case sectionIDExport:
		return d.decodeExportSection(r)
	case sectionIDStart:
		idx, err := r.u32()
		if err != nil {
			return err
		}
		d.m.StartSection, d.m.HasStart = idx, true
		return nil
	case sectionIDElement:
		return d.decodeElementSection(r)
	case sectionIDCode:
		d.seenCode = true
		return d.decodeCodeSection(r)
	case sectionIDData:
		return d.decodeDataSection(r)
	case sectionIDDataCount:
		if !d.enabled.IsEnabled(wasm.FeatureBulkMemoryOperations) {
			return fmt.Errorf("data count section requires bulk-memory-operations")
		}
		cnt, err := r.u32()
		if err != nil {
			return err
		}
		d.m.DataCount, d.m.HasDataCount = cnt, true
		return nil
	default:
		return fmt.Errorf("unknown section id %d", id)
	}
}

func vecCount(r *reader) (uint32, error) { return r.u32() }

func (d *decoder) decodeCustomSection(r *reader) error {
	name, err := d.readRawName(r)
	if err != nil {
		return fmt.Errorf("custom section name: %w", err)
	}
	if name != "name" {
		return nil // other custom sections are opaque and ignored
	}
	ns, err := decodeNameSection(r)
	if err != nil {
		return nil // best-effort: a malformed name section is not a module error
	}
	d.m.NameSection = ns
	return nil
}

func (d *decoder) readRawName(r *reader) (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(n)
	if err != nil {
		return "", err
	}
	if !wasm.ValidUTF8(b) {
		return "", fmt.Errorf("invalid UTF-8 in name")
	}
	return string(b), nil
}

// internBytes copies b into BytePool and returns the Slice referencing it.
func (d *decoder) internBytes(b []byte) wasm.Slice {
	off := uint32(d.m.BytePool.Len())
	for _, c := range b {
		d.m.BytePool.Push(c)
	}
	return wasm.Slice{Offset: off, Length: uint32(len(b))}
}

func (d *decoder) readName(r *reader) (wasm.Slice, error) {
	n, err := r.u32()
	if err != nil {
		return wasm.Slice{}, err
	}
	b, err := r.bytes(n)
	if err != nil {
		return wasm.Slice{}, err
	}
	if !wasm.ValidUTF8(b) {
		return wasm.Slice{}, fmt.Errorf("invalid UTF-8 in name")
	}
	return d.internBytes(b), nil
}

func (d *decoder) readValueTypes(r *reader) (wasm.Slice, error) {
	n, err := r.u32()
	if err != nil {
		return wasm.Slice{}, err
	}
	off := uint32(d.m.BytePool.Len())
	for i := uint32(0); i < n; i++ {
		vt, err := r.byte()
		if err != nil {
			return wasm.Slice{}, err
		}
		if err := d.checkValueType(wasm.ValueType(vt)); err != nil {
			return wasm.Slice{}, err
		}
		d.m.BytePool.Push(vt)
	}
	return wasm.Slice{Offset: off, Length: n}, nil
}

func (d *decoder) checkValueType(v wasm.ValueType) error {
	switch v {
	case wasm.ValueTypeI32, wasm.ValueTypeI64, wasm.ValueTypeF32, wasm.ValueTypeF64:
		return nil
	case wasm.ValueTypeV128:
		if !d.enabled.IsEnabled(wasm.FeatureSIMD) {
			return fmt.Errorf("v128 requires the simd feature")
		}
		return nil
	default:
		return fmt.Errorf("invalid value type 0x%x", v)
	}
}

func (d *decoder) decodeTypeSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	d.m.TypeSection = make([]wasm.FuncType, 0, n)
	for i := uint32(0); i < n; i++ {
		tag, err := r.byte()
		if err != nil {
			return err
		}
		if tag != 0x60 {
			return fmt.Errorf("expected functype tag 0x60, got 0x%x", tag)
		}
		params, err := d.readValueTypes(r)
		if err != nil {
			return fmt.Errorf("type %d params: %w", i, err)
		}
		results, err := d.readValueTypes(r)
		if err != nil {
			return fmt.Errorf("type %d results: %w", i, err)
		}
		if results.Length > 1 && !d.enabled.IsEnabled(wasm.FeatureMultiValue) {
			return fmt.Errorf("type %d: multiple results requires the multi-value feature", i)
		}
		d.m.TypeSection = append(d.m.TypeSection, wasm.FuncType{Params: params, Results: results})
	}
	return nil
}

func (d *decoder) decodeLimits(r *reader) (wasm.Limits, error) {
	flag, err := r.byte()
	if err != nil {
		return wasm.Limits{}, err
	}
	min, err := r.u32()
	if err != nil {
		return wasm.Limits{}, err
	}
	lim := wasm.Limits{Min: min}
	if flag == 1 {
		max, err := r.u32()
		if err != nil {
			return wasm.Limits{}, err
		}
		lim.Max, lim.HasMax = max, true
	} else if flag != 0 {
		return wasm.Limits{}, fmt.Errorf("invalid limits flag 0x%x", flag)
	}
	return lim, nil
}

func (d *decoder) decodeTable(r *reader) (wasm.Table, error) {
	kind, err := r.byte()
	if err != nil {
		return wasm.Table{}, err
	}
	if kind != wasm.ElemKindFuncref {
		return wasm.Table{}, fmt.Errorf("invalid table element kind 0x%x", kind)
	}
	lim, err := d.decodeLimits(r)
	if err != nil {
		return wasm.Table{}, err
	}
	return wasm.Table{ElemKind: kind, Limits: lim}, nil
}

func (d *decoder) decodeGlobalType(r *reader) (wasm.GlobalType, error) {
	vt, err := r.byte()
	if err != nil {
		return wasm.GlobalType{}, err
	}
	if err := d.checkValueType(wasm.ValueType(vt)); err != nil {
		return wasm.GlobalType{}, err
	}
	m, err := r.byte()
	if err != nil {
		return wasm.GlobalType{}, err
	}
	if m > 1 {
		return wasm.GlobalType{}, fmt.Errorf("invalid mutability flag 0x%x", m)
	}
	return wasm.GlobalType{ValType: wasm.ValueType(vt), Mutable: m == 1}, nil
}

func (d *decoder) decodeImportSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	d.m.ImportSection = make([]wasm.Import, 0, n)
	for i := uint32(0); i < n; i++ {
		modName, err := d.readName(r)
		if err != nil {
			return fmt.Errorf("import %d module: %w", i, err)
		}
		fieldName, err := d.readName(r)
		if err != nil {
			return fmt.Errorf("import %d field: %w", i, err)
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		imp := wasm.Import{ModuleName: modName, FieldName: fieldName, Kind: kind}
		switch kind {
		case wasm.ExternKindFunc:
			idx, err := r.u32()
			if err != nil {
				return err
			}
			imp.DescFunc = idx
		case wasm.ExternKindTable:
			t, err := d.decodeTable(r)
			if err != nil {
				return err
			}
			imp.DescTable = t
		case wasm.ExternKindMem:
			lim, err := d.decodeLimits(r)
			if err != nil {
				return err
			}
			imp.DescMem = lim
		case wasm.ExternKindGlobal:
			gt, err := d.decodeGlobalType(r)
			if err != nil {
				return err
			}
			imp.DescGlobal = gt
		default:
			return fmt.Errorf("invalid import kind 0x%x", kind)
		}
		d.m.ImportSection = append(d.m.ImportSection, imp)
		d.m.NumImportTypes[kind]++
	}
	return nil
}

func (d *decoder) decodeFunctionSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	d.m.FunctionSection = make([]uint32, 0, n)
	for i := uint32(0); i < n; i++ {
		idx, err := r.u32()
		if err != nil {
			return err
		}
		d.m.FunctionSection = append(d.m.FunctionSection, idx)
	}
	return nil
}

func (d *decoder) decodeTableSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	d.m.TableSection = make([]wasm.Table, 0, n)
	for i := uint32(0); i < n; i++ {
		t, err := d.decodeTable(r)
		if err != nil {
			return err
		}
		d.m.TableSection = append(d.m.TableSection, t)
	}
	return nil
}

func (d *decoder) decodeMemorySection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	d.m.MemorySection = make([]wasm.Limits, 0, n)
	for i := uint32(0); i < n; i++ {
		lim, err := d.decodeLimits(r)
		if err != nil {
			return err
		}
		d.m.MemorySection = append(d.m.MemorySection, lim)
	}
	return nil
}

func (d *decoder) decodeGlobalSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	d.m.GlobalSection = make([]wasm.Global, 0, n)
	for i := uint32(0); i < n; i++ {
		gt, err := d.decodeGlobalType(r)
		if err != nil {
			return err
		}
		expr, err := d.decodeConstExpr(r)
		if err != nil {
			return fmt.Errorf("global %d init expr: %w", i, err)
		}
		d.m.GlobalSection = append(d.m.GlobalSection, wasm.Global{Type: gt, Init: expr})
	}
	return nil
}

func (d *decoder) decodeExportSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	d.m.ExportSection = make([]wasm.Export, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := d.readName(r)
		if err != nil {
			return err
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		idx, err := r.u32()
		if err != nil {
			return err
		}
		d.m.ExportSection = append(d.m.ExportSection, wasm.Export{Name: name, Kind: kind, Index: idx})
	}
	return nil
}

func (d *decoder) decodeElementSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	d.m.ElementSection = make([]wasm.ElementSegment, 0, n)
	for i := uint32(0); i < n; i++ {
		tableIdx, err := r.u32()
		if err != nil {
			return err
		}
		offset, err := d.decodeConstExpr(r)
		if err != nil {
			return fmt.Errorf("element %d offset expr: %w", i, err)
		}
		cnt, err := r.u32()
		if err != nil {
			return err
		}
		off := uint32(d.m.U32Pool.Len())
		for j := uint32(0); j < cnt; j++ {
			fi, err := r.u32()
			if err != nil {
				return err
			}
			d.m.U32Pool.Push(fi)
		}
		d.m.ElementSection = append(d.m.ElementSection, wasm.ElementSegment{
			TableIndex: tableIdx,
			Offset:     offset,
			FuncIndex:  wasm.Slice{Offset: off, Length: cnt},
		})
	}
	return nil
}

func (d *decoder) decodeDataSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	if d.m.HasDataCount && n != d.m.DataCount {
		return fmt.Errorf("data section count %d does not match data count section %d", n, d.m.DataCount)
	}
	d.m.DataSection = make([]wasm.DataSegment, 0, n)
	for i := uint32(0); i < n; i++ {
		memIdx, err := r.u32()
		if err != nil {
			return err
		}
		offset, err := d.decodeConstExpr(r)
		if err != nil {
			return fmt.Errorf("data %d offset expr: %w", i, err)
		}
		size, err := r.u32()
		if err != nil {
			return err
		}
		b, err := r.bytes(size)
		if err != nil {
			return err
		}
		d.m.DataSection = append(d.m.DataSection, wasm.DataSegment{
			MemIndex: memIdx,
			Offset:   offset,
			Data:     d.internBytes(b),
		})
	}
	return nil
}

// computeIndexSpaces fills in MaxIndices from the section slices decoded so
// far, so later lookups don't need to re-scan ImportSection.
func (d *decoder) computeIndexSpaces() {
	m := d.m
	m.MaxIndices[wasm.ExternKindFunc] = m.NumImportTypes[wasm.ExternKindFunc] + uint32(len(m.FunctionSection))
	m.MaxIndices[wasm.ExternKindTable] = m.NumImportTypes[wasm.ExternKindTable] + uint32(len(m.TableSection))
	m.MaxIndices[wasm.ExternKindMem] = m.NumImportTypes[wasm.ExternKindMem] + uint32(len(m.MemorySection))
	m.MaxIndices[wasm.ExternKindGlobal] = m.NumImportTypes[wasm.ExternKindGlobal] + uint32(len(m.GlobalSection))
}
