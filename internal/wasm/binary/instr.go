package binary

import (
	"fmt"

	"github.com/tetratelabs/pwasm/internal/wasm"
)

// controlFrame tracks one open block/loop/if while decoding a function body,
// so decodeExpr can stamp ElseOfs/EndOfs onto the opening instruction as
// soon as its matching else/end is decoded.
type controlFrame struct {
	instrIdx uint32 // index into m.InstrPool of the opening block/loop/if
	isIf     bool
}

// decodeCodeSection decodes the vector of function bodies, one per entry in
// FunctionSection (in the same order).
func (d *decoder) decodeCodeSection(r *reader) error {
	n, err := vecCount(r)
	if err != nil {
		return err
	}
	if int(n) != len(d.m.FunctionSection) {
		return fmt.Errorf("code section has %d entries, function section declared %d", n, len(d.m.FunctionSection))
	}
	d.m.CodeSection = make([]wasm.Function, 0, n)
	for i := uint32(0); i < n; i++ {
		size, err := r.u32()
		if err != nil {
			return err
		}
		body, err := r.bytes(size)
		if err != nil {
			return err
		}
		fn, err := d.decodeFunctionBody(d.m.FunctionSection[i], newReader(body))
		if err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
		d.m.CodeSection = append(d.m.CodeSection, fn)
	}
	return nil
}

func (d *decoder) decodeFunctionBody(typeIdx uint32, r *reader) (wasm.Function, error) {
	if int(typeIdx) >= len(d.m.TypeSection) {
		return wasm.Function{}, fmt.Errorf("invalid type index %d", typeIdx)
	}
	ft := d.m.TypeSection[typeIdx]
	frameSize := ft.Params.Length

	localsOff := uint32(d.m.LocalPool.Len())
	declCount, err := r.u32()
	if err != nil {
		return wasm.Function{}, err
	}
	for i := uint32(0); i < declCount; i++ {
		cnt, err := r.u32()
		if err != nil {
			return wasm.Function{}, err
		}
		vt, err := r.byte()
		if err != nil {
			return wasm.Function{}, err
		}
		if err := d.checkValueType(wasm.ValueType(vt)); err != nil {
			return wasm.Function{}, err
		}
		d.m.LocalPool.Push(wasm.LocalDecl{Count: cnt, Type: wasm.ValueType(vt)})
		frameSize += cnt
	}
	locals := wasm.Slice{Offset: localsOff, Length: declCount}

	bodyOff := uint32(d.m.InstrPool.Len())
	if err := d.decodeExpr(r, nil); err != nil {
		return wasm.Function{}, fmt.Errorf("body: %w", err)
	}
	body := wasm.Slice{Offset: bodyOff, Length: uint32(d.m.InstrPool.Len()) - bodyOff}

	return wasm.Function{
		TypeIndex: typeIdx,
		Locals:    locals,
		Body:      body,
		FrameSize: frameSize,
		MaxLocals: frameSize,
	}, nil
}

// decodeConstExpr decodes a constant expression (global/element/data
// offset): one constant-producing instruction followed by end.
func (d *decoder) decodeConstExpr(r *reader) (wasm.Slice, error) {
	off := uint32(d.m.InstrPool.Len())
	if err := d.decodeExpr(r, nil); err != nil {
		return wasm.Slice{}, err
	}
	return wasm.Slice{Offset: off, Length: uint32(d.m.InstrPool.Len()) - off}, nil
}

// decodeExpr decodes instructions up to and including the matching top-level
// `end`, running the structured-control fixup as it goes. stack carries any
// already-open control frames (nil at a function/constant-expression's own
// top level).
func (d *decoder) decodeExpr(r *reader, stack []controlFrame) error {
	depth := 0
	base := uint32(d.m.InstrPool.Len())
	for {
		idx := uint32(d.m.InstrPool.Len())
		op, instr, err := d.decodeInstr(r)
		if err != nil {
			return err
		}

		switch op {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			d.m.InstrPool.Push(instr)
			stack = append(stack, controlFrame{instrIdx: idx, isIf: op == wasm.OpIf})
			depth++
			continue
		case wasm.OpElse:
			if len(stack) == 0 || !stack[len(stack)-1].isIf {
				return fmt.Errorf("else without matching if")
			}
			top := &d.m.InstrPool.Data()[stack[len(stack)-1].instrIdx]
			top.ElseOfs = idx - base
			d.m.InstrPool.Push(instr)
			continue
		case wasm.OpEnd:
			d.m.InstrPool.Push(instr)
			if depth == 0 {
				return nil
			}
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			d.m.InstrPool.Data()[frame.instrIdx].EndOfs = idx - base
			depth--
			continue
		default:
			d.m.InstrPool.Push(instr)
		}
	}
}

func (d *decoder) decodeInstr(r *reader) (wasm.Opcode, wasm.Instruction, error) {
	b, err := r.byte()
	if err != nil {
		return 0, wasm.Instruction{}, err
	}
	var op wasm.Opcode
	switch b {
	case 0xfc:
		sub, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		op = wasm.MiscOpcode(sub)
	case 0xfd:
		if !d.enabled.IsEnabled(wasm.FeatureSIMD) {
			return 0, wasm.Instruction{}, fmt.Errorf("0xfd opcode requires the simd feature")
		}
		sub, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		op = wasm.SIMDOpcode(sub)
	default:
		op = wasm.Opcode(b)
	}

	info, ok := wasm.Lookup(op)
	if !ok {
		return 0, wasm.Instruction{}, fmt.Errorf("invalid opcode 0x%x", op)
	}
	if op >= 0x100 && op < 0x200 && !bulkMemoryOpcode(op) && !d.enabled.IsEnabled(wasm.FeatureSaturatingFloatToInt) {
		return 0, wasm.Instruction{}, fmt.Errorf("%s requires the saturating-float-to-int feature", info.Name)
	}
	if bulkMemoryOpcode(op) && !d.enabled.IsEnabled(wasm.FeatureBulkMemoryOperations) {
		return 0, wasm.Instruction{}, fmt.Errorf("%s requires the bulk-memory-operations feature", info.Name)
	}
	if op >= wasm.OpI32Extend8S && op <= wasm.OpI64Extend32S && !d.enabled.IsEnabled(wasm.FeatureSignExtensionOps) {
		return 0, wasm.Instruction{}, fmt.Errorf("%s requires the sign-extension-ops feature", info.Name)
	}

	instr := wasm.Instruction{Op: op}
	switch info.Imm {
	case wasm.ImmNone:
	case wasm.ImmBlockType:
		bt, err := r.i33AsI64()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.BlockType = bt
	case wasm.ImmLabel:
		l, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.Label = l
	case wasm.ImmLabels:
		cnt, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		off := uint32(d.m.U32Pool.Len())
		for i := uint32(0); i < cnt; i++ {
			l, err := r.u32()
			if err != nil {
				return 0, wasm.Instruction{}, err
			}
			d.m.U32Pool.Push(l)
		}
		def, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.Labels = wasm.Slice{Offset: off, Length: cnt}
		instr.Default = def
	case wasm.ImmCallIndirect:
		ti, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		tbl, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.TypeIndex, instr.TableIndex = ti, tbl
	case wasm.ImmMemArg:
		align, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		offset, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.MemAlign, instr.MemOffset = align, offset
	case wasm.ImmI32:
		v, err := r.i32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.I32 = uint32(v)
	case wasm.ImmI64:
		v, err := r.i64()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.I64 = uint64(v)
	case wasm.ImmF32:
		v, err := r.f32bits()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.I32 = v
	case wasm.ImmF64:
		v, err := r.f64bits()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.I64 = v
	case wasm.ImmV128:
		v, err := r.v128bits()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.V128 = v
	case wasm.ImmLaneIndex:
		l, err := r.byte()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		if info.NumLanes != 0 && int(l) >= info.NumLanes {
			return 0, wasm.Instruction{}, fmt.Errorf("%s: lane index %d out of range", info.Name, l)
		}
		instr.LaneIndex = l
	case wasm.ImmShuffleLanes:
		lanes, err := r.bytes(16)
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		for _, l := range lanes {
			if l >= 32 {
				return 0, wasm.Instruction{}, fmt.Errorf("i8x16.shuffle: lane index %d out of range", l)
			}
		}
		copy(instr.ShuffleLanes[:], lanes)
	case wasm.ImmLocalIndex, wasm.ImmGlobalIndex, wasm.ImmFuncIndex, wasm.ImmTypeIndex,
		wasm.ImmTableIndex, wasm.ImmMemIndex, wasm.ImmDataIndex, wasm.ImmElemIndex:
		idx, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.Index = idx
	default:
		return 0, wasm.Instruction{}, fmt.Errorf("%s: unhandled immediate kind", info.Name)
	}

	// memory.size/grow and table.size/grow/fill carry a reserved/table index
	// byte decoded above as ImmMemIndex/ImmTableIndex; memory.copy/fill have
	// additional reserved bytes not modeled as a generic ImmKind.
	switch op {
	case wasm.OpMemoryInit:
		if _, err := r.byte(); err != nil { // reserved memidx
			return 0, wasm.Instruction{}, err
		}
	case wasm.OpMemoryCopy:
		if _, err := r.byte(); err != nil { // dst reserved
			return 0, wasm.Instruction{}, err
		}
		if _, err := r.byte(); err != nil { // src reserved
			return 0, wasm.Instruction{}, err
		}
	case wasm.OpMemoryFill:
		if _, err := r.byte(); err != nil {
			return 0, wasm.Instruction{}, err
		}
	case wasm.OpTableCopy:
		dst, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		src, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.TableIndex, instr.Index = dst, src
	case wasm.OpTableInit:
		tbl, err := r.u32()
		if err != nil {
			return 0, wasm.Instruction{}, err
		}
		instr.TableIndex = tbl
	case wasm.OpSelect:
		// plain select has no immediate; typed select (post-MVP) is not
		// supported, so nothing further to read here.
	}

	return op, instr, nil
}

func bulkMemoryOpcode(op wasm.Opcode) bool {
	return op >= wasm.OpMemoryInit && op <= wasm.OpTableFill
}
