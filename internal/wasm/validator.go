package wasm

import "fmt"

// checkerType is the validator's abstract stack entry: one of the five
// value types, or unknown, which a polymorphic stack (one opened by an
// unconditional control transfer: unreachable, br, br_table, return) uses
// to mean "matches any type, and matches it only once."
type checkerType byte

const (
	checkI32 checkerType = checkerType(ValueTypeI32)
	checkI64 checkerType = checkerType(ValueTypeI64)
	checkF32 checkerType = checkerType(ValueTypeF32)
	checkF64 checkerType = checkerType(ValueTypeF64)
	checkV128 checkerType = checkerType(ValueTypeV128)
	checkUnknown checkerType = 0
)

func checkerOf(v ValueType) checkerType { return checkerType(v) }

func (c checkerType) String() string {
	if c == checkUnknown {
		return "unknown"
	}
	return ValueType(c).String()
}

// ctrlFrame is one entry of the validator's control-frame stack, tracking
// enough of a block/loop/if/function to type-check branches that target it
// and to restore the operand stack on `end`.
type ctrlFrame struct {
	op          Opcode // OpBlock, OpLoop, OpIf, or 0 for the function's implicit outer frame
	startTypes  []checkerType
	endTypes    []checkerType
	height      int // operand stack depth when this frame was entered
	unreachable bool
	sawElse     bool
}

// labelTypes returns the checker types a branch to this frame must supply:
// a loop's label type is its parameter types (WebAssembly defines branching to a
// loop re-enters at the top), any other frame's is its result types.
func (f *ctrlFrame) labelTypes() []checkerType {
	if f.op == OpLoop {
		return f.startTypes
	}
	return f.endTypes
}

// funcValidator holds the operand/control stacks threaded through
// validating one function body.
type funcValidator struct {
	m        *Module
	features Features
	locals   []ValueType
	operands []checkerType
	frames   []ctrlFrame
}

// Validate checks every section's cross-references and runs validateFunction
// over each function body. It is always run in full: an earlier revision of
// this runtime could skip function-body checking when a caller claimed a
// module was pre-validated, but a Module decoded from untrusted bytes has no
// such claim to make, so the checker always runs now.
func (m *Module) Validate(features Features) error {
	if err := m.validateTypeUses(); err != nil {
		return err
	}
	if err := m.validateImportsExports(); err != nil {
		return err
	}
	if err := m.validateGlobalInits(features); err != nil {
		return err
	}
	if m.HasStart {
		if err := m.validateStart(); err != nil {
			return err
		}
	}
	for i := range m.ElementSection {
		if err := m.validateElementSegment(&m.ElementSection[i]); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	for i := range m.DataSection {
		if err := m.validateDataSegment(&m.DataSection[i], features); err != nil {
			return fmt.Errorf("data %d: %w", i, err)
		}
	}
	for i := range m.CodeSection {
		if err := m.validateFunction(i, features); err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
	}
	return nil
}

func (m *Module) validateTypeUses() error {
	for _, idx := range m.FunctionSection {
		if int(idx) >= len(m.TypeSection) {
			return fmt.Errorf("function section: invalid type index %d", idx)
		}
	}
	for i, imp := range m.ImportSection {
		if imp.Kind == ExternKindFunc && int(imp.DescFunc) >= len(m.TypeSection) {
			return fmt.Errorf("import %d: invalid type index %d", i, imp.DescFunc)
		}
	}
	return nil
}

func (m *Module) validateImportsExports() error {
	seen := map[string]bool{}
	for i, e := range m.ExportSection {
		name := string(m.Bytes(e.Name))
		if seen[name] {
			return fmt.Errorf("export %d: duplicate export name %q", i, name)
		}
		seen[name] = true
		if e.Index >= m.MaxIndices[e.Kind] {
			return fmt.Errorf("export %d: index %d out of range for kind %d", i, e.Index, e.Kind)
		}
	}
	return nil
}

func (m *Module) globalType(idx uint32) (GlobalType, bool) {
	if idx < m.NumImportTypes[ExternKindGlobal] {
		var n uint32
		for _, imp := range m.ImportSection {
			if imp.Kind != ExternKindGlobal {
				continue
			}
			if n == idx {
				return imp.DescGlobal, true
			}
			n++
		}
		return GlobalType{}, false
	}
	defIdx := idx - m.NumImportTypes[ExternKindGlobal]
	if int(defIdx) >= len(m.GlobalSection) {
		return GlobalType{}, false
	}
	return m.GlobalSection[defIdx].Type, true
}

// validateGlobalInits checks each global's init expression is a single
// constant instruction of the declared type (optionally global.get of an
// imported immutable global, per WebAssembly's restricted constant-expression
// grammar).
func (m *Module) validateGlobalInits(features Features) error {
	for i, g := range m.GlobalSection {
		instrs := m.Instructions(g.Init)
		ct, err := m.validateConstExpr(instrs, features)
		if err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
		if ct != checkUnknown && ct != checkerOf(g.Type.ValType) {
			return fmt.Errorf("global %d: init expr type %s does not match declared type %s", i, ct, g.Type.ValType)
		}
	}
	return nil
}

func (m *Module) validateConstExpr(instrs []Instruction, features Features) (checkerType, error) {
	if len(instrs) != 2 || instrs[1].Op != OpEnd {
		return checkUnknown, fmt.Errorf("constant expression must be exactly one instruction followed by end")
	}
	in := instrs[0]
	switch in.Op {
	case OpI32Const:
		return checkI32, nil
	case OpI64Const:
		return checkI64, nil
	case OpF32Const:
		return checkF32, nil
	case OpF64Const:
		return checkF64, nil
	case OpV128Const:
		if !features.IsEnabled(FeatureSIMD) {
			return checkUnknown, fmt.Errorf("v128.const requires the simd feature")
		}
		return checkV128, nil
	case OpGlobalGet:
		gt, ok := m.globalType(in.Index)
		if !ok {
			return checkUnknown, fmt.Errorf("global.get: invalid index %d", in.Index)
		}
		if in.Index < m.NumImportTypes[ExternKindGlobal] && gt.Mutable {
			return checkUnknown, fmt.Errorf("global.get in constant expression must reference an immutable global")
		}
		if in.Index >= m.NumImportTypes[ExternKindGlobal] {
			return checkUnknown, fmt.Errorf("global.get in constant expression must reference an imported global")
		}
		return checkerOf(gt.ValType), nil
	default:
		return checkUnknown, fmt.Errorf("opcode 0x%x is not valid in a constant expression", in.Op)
	}
}

func (m *Module) validateStart() error {
	ft := m.TypeOf(m.StartSection)
	if ft == nil {
		return fmt.Errorf("start: invalid function index %d", m.StartSection)
	}
	if m.StartSection >= m.MaxIndices[ExternKindFunc] {
		return fmt.Errorf("start: invalid function index %d", m.StartSection)
	}
	if len(m.Params(ft)) != 0 || len(m.Results(ft)) != 0 {
		return fmt.Errorf("start function must have type () -> ()")
	}
	return nil
}

func (m *Module) validateElementSegment(e *ElementSegment) error {
	if e.TableIndex >= m.MaxIndices[ExternKindTable] {
		return fmt.Errorf("invalid table index %d", e.TableIndex)
	}
	ct, err := m.validateConstExpr(m.Instructions(e.Offset), All)
	if err != nil {
		return err
	}
	if ct != checkUnknown && ct != checkI32 {
		return fmt.Errorf("offset expr must be i32, got %s", ct)
	}
	for _, fi := range m.U32s(e.FuncIndex) {
		if fi >= m.MaxIndices[ExternKindFunc] {
			return fmt.Errorf("invalid function index %d", fi)
		}
	}
	return nil
}

func (m *Module) validateDataSegment(d *DataSegment, features Features) error {
	if d.MemIndex >= m.MaxIndices[ExternKindMem] {
		return fmt.Errorf("invalid memory index %d", d.MemIndex)
	}
	ct, err := m.validateConstExpr(m.Instructions(d.Offset), features)
	if err != nil {
		return err
	}
	if ct != checkUnknown && ct != checkI32 {
		return fmt.Errorf("offset expr must be i32, got %s", ct)
	}
	return nil
}

// validateFunction runs the abstract-stack type checker over one function
// body: the algorithm is the standard single-pass operand/control stack
// walk the Wasm spec's validation appendix describes (push/pop/popExpected
// against a stack that goes polymorphic after unreachable/br/br_table/
// return), implemented directly against Instruction rather than against a
// lowered IR.
func (m *Module) validateFunction(idx int, features Features) error {
	fn := &m.CodeSection[idx]
	ft := m.TypeOf(m.NumImportTypes[ExternKindFunc] + uint32(idx))

	v := &funcValidator{m: m, features: features}
	for _, p := range m.Params(ft) {
		v.locals = append(v.locals, p)
	}
	for _, ld := range m.Locals(fn.Locals) {
		for i := uint32(0); i < ld.Count; i++ {
			v.locals = append(v.locals, ld.Type)
		}
	}

	results := checkerTypes(m.Results(ft))
	v.frames = append(v.frames, ctrlFrame{endTypes: results})

	for _, in := range m.Instructions(fn.Body) {
		if err := v.step(in); err != nil {
			return err
		}
	}
	if len(v.frames) != 0 {
		return fmt.Errorf("function body ended with %d unclosed control frame(s)", len(v.frames))
	}
	return nil
}

func checkerTypes(vs []ValueType) []checkerType {
	out := make([]checkerType, len(vs))
	for i, t := range vs {
		out[i] = checkerOf(t)
	}
	return out
}

func (v *funcValidator) frame() *ctrlFrame { return &v.frames[len(v.frames)-1] }

func (v *funcValidator) push(t checkerType) { v.operands = append(v.operands, t) }

func (v *funcValidator) pop() (checkerType, error) {
	f := v.frame()
	if len(v.operands) == f.height {
		if f.unreachable {
			return checkUnknown, nil
		}
		return checkUnknown, fmt.Errorf("operand stack underflow")
	}
	t := v.operands[len(v.operands)-1]
	v.operands = v.operands[:len(v.operands)-1]
	return t, nil
}

func (v *funcValidator) popExpected(want checkerType) error {
	got, err := v.pop()
	if err != nil {
		return err
	}
	if got != checkUnknown && want != checkUnknown && got != want {
		return fmt.Errorf("type mismatch: expected %s, got %s", want, got)
	}
	return nil
}

func (v *funcValidator) popAll(types []checkerType) error {
	for i := len(types) - 1; i >= 0; i-- {
		if err := v.popExpected(types[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *funcValidator) pushAll(types []checkerType) {
	for _, t := range types {
		v.push(t)
	}
}

// markUnreachable discards everything pushed since the current frame opened
// and flags it polymorphic: an unconditional control transfer means any
// code up to the next structured boundary is statically known dead, and the
// checker treats its operand requirements as automatically satisfied.
func (v *funcValidator) markUnreachable() {
	f := v.frame()
	v.operands = v.operands[:f.height]
	f.unreachable = true
}

func (v *funcValidator) blockTypes(bt int64) (params, results []checkerType, err error) {
	if bt >= 0 {
		if int(bt) >= len(v.m.TypeSection) {
			return nil, nil, fmt.Errorf("invalid block type index %d", bt)
		}
		ft := v.m.TypeSection[bt]
		return checkerTypes(v.m.Params(&ft)), checkerTypes(v.m.Results(&ft)), nil
	}
	if bt == -0x40 {
		return nil, nil, nil
	}
	vt := ValueType(bt & 0x7f)
	switch vt {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return nil, []checkerType{checkerOf(vt)}, nil
	case ValueTypeV128:
		if !v.features.IsEnabled(FeatureSIMD) {
			return nil, nil, fmt.Errorf("v128 block result requires the simd feature")
		}
		return nil, []checkerType{checkerOf(vt)}, nil
	default:
		return nil, nil, fmt.Errorf("invalid block type %d", bt)
	}
}

func (v *funcValidator) step(in Instruction) error {
	info, ok := Lookup(in.Op)
	if !ok {
		return fmt.Errorf("invalid opcode 0x%x", in.Op)
	}

	switch in.Op {
	case OpUnreachable:
		v.markUnreachable()
		return nil
	case OpNop:
		return nil
	case OpBlock, OpLoop, OpIf:
		params, results, err := v.blockTypes(in.BlockType)
		if err != nil {
			return err
		}
		if in.Op == OpIf {
			if err := v.popExpected(checkI32); err != nil {
				return err
			}
		}
		if err := v.popAll(params); err != nil {
			return err
		}
		v.frames = append(v.frames, ctrlFrame{
			op: in.Op, startTypes: params, endTypes: results, height: len(v.operands),
		})
		v.pushAll(params)
		return nil
	case OpElse:
		f := v.frame()
		if f.op != OpIf {
			return fmt.Errorf("else without matching if")
		}
		if err := v.popAll(f.endTypes); err != nil {
			return err
		}
		if len(v.operands) != f.height {
			return fmt.Errorf("operand stack not empty at else")
		}
		f.unreachable = false
		f.sawElse = true
		v.pushAll(f.startTypes)
		return nil
	case OpEnd:
		f := v.frame()
		if err := v.popAll(f.endTypes); err != nil {
			return err
		}
		if len(v.operands) != f.height {
			return fmt.Errorf("operand stack has extra values at end")
		}
		v.frames = v.frames[:len(v.frames)-1]
		if len(v.frames) > 0 {
			v.pushAll(f.endTypes)
		}
		return nil
	case OpBr:
		if err := v.checkLabel(in.Label); err != nil {
			return err
		}
		target := &v.frames[len(v.frames)-1-int(in.Label)]
		if err := v.popAll(target.labelTypes()); err != nil {
			return err
		}
		v.markUnreachable()
		return nil
	case OpBrIf:
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		if err := v.checkLabel(in.Label); err != nil {
			return err
		}
		target := &v.frames[len(v.frames)-1-int(in.Label)]
		types := target.labelTypes()
		if err := v.popAll(types); err != nil {
			return err
		}
		v.pushAll(types)
		return nil
	case OpBrTable:
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		if err := v.checkLabel(in.Default); err != nil {
			return err
		}
		defaultTypes := v.frames[len(v.frames)-1-int(in.Default)].labelTypes()
		for _, l := range v.m.U32s(in.Labels) {
			if err := v.checkLabel(l); err != nil {
				return err
			}
			lt := v.frames[len(v.frames)-1-int(l)].labelTypes()
			if len(lt) != len(defaultTypes) {
				return fmt.Errorf("br_table: arity mismatch between branch targets")
			}
		}
		if err := v.popAll(defaultTypes); err != nil {
			return err
		}
		v.markUnreachable()
		return nil
	case OpReturn:
		if err := v.popAll(v.frames[0].endTypes); err != nil {
			return err
		}
		v.markUnreachable()
		return nil
	case OpCall:
		ft := v.m.TypeOf(in.Index)
		if ft == nil || in.Index >= v.m.MaxIndices[ExternKindFunc] {
			return fmt.Errorf("call: invalid function index %d", in.Index)
		}
		if err := v.popAll(checkerTypes(v.m.Params(ft))); err != nil {
			return err
		}
		v.pushAll(checkerTypes(v.m.Results(ft)))
		return nil
	case OpCallIndirect:
		if in.TableIndex >= v.m.MaxIndices[ExternKindTable] {
			return fmt.Errorf("call_indirect: invalid table index %d", in.TableIndex)
		}
		if int(in.TypeIndex) >= len(v.m.TypeSection) {
			return fmt.Errorf("call_indirect: invalid type index %d", in.TypeIndex)
		}
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		ft := v.m.TypeSection[in.TypeIndex]
		if err := v.popAll(checkerTypes(v.m.Params(&ft))); err != nil {
			return err
		}
		v.pushAll(checkerTypes(v.m.Results(&ft)))
		return nil
	case OpDrop:
		_, err := v.pop()
		return err
	case OpSelect:
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		a, err := v.pop()
		if err != nil {
			return err
		}
		if err := v.popExpected(a); err != nil {
			return err
		}
		v.push(a)
		return nil
	case OpLocalGet:
		t, err := v.localType(in.Index)
		if err != nil {
			return err
		}
		v.push(t)
		return nil
	case OpLocalSet:
		t, err := v.localType(in.Index)
		if err != nil {
			return err
		}
		return v.popExpected(t)
	case OpLocalTee:
		t, err := v.localType(in.Index)
		if err != nil {
			return err
		}
		if err := v.popExpected(t); err != nil {
			return err
		}
		v.push(t)
		return nil
	case OpGlobalGet:
		gt, ok := v.m.globalType(in.Index)
		if !ok {
			return fmt.Errorf("global.get: invalid index %d", in.Index)
		}
		v.push(checkerOf(gt.ValType))
		return nil
	case OpGlobalSet:
		gt, ok := v.m.globalType(in.Index)
		if !ok {
			return fmt.Errorf("global.set: invalid index %d", in.Index)
		}
		if !gt.Mutable {
			return fmt.Errorf("global.set: global %d is immutable", in.Index)
		}
		return v.popExpected(checkerOf(gt.ValType))
	case OpMemorySize:
		if v.m.MaxIndices[ExternKindMem] == 0 {
			return fmt.Errorf("memory.size: no memory")
		}
		v.push(checkI32)
		return nil
	case OpMemoryGrow:
		if v.m.MaxIndices[ExternKindMem] == 0 {
			return fmt.Errorf("memory.grow: no memory")
		}
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		v.push(checkI32)
		return nil
	}

	if info.MemWidth > 0 {
		return v.stepMemOp(in, info)
	}
	if in.Op >= OpMemoryInit && in.Op <= OpTableFill {
		return v.stepBulkMemoryOp(in)
	}
	if in.Op >= opcodeSetSIMD {
		return v.stepSIMDOp(in, info)
	}
	return v.stepNumericOp(in)
}

func (v *funcValidator) checkLabel(label uint32) error {
	if int(label) >= len(v.frames) {
		return fmt.Errorf("invalid branch depth %d", label)
	}
	return nil
}

func (v *funcValidator) localType(idx uint32) (checkerType, error) {
	if int(idx) >= len(v.locals) {
		return checkUnknown, fmt.Errorf("invalid local index %d", idx)
	}
	return checkerOf(v.locals[idx]), nil
}

func (v *funcValidator) stepMemOp(in Instruction, info OpcodeInfo) error {
	if v.m.MaxIndices[ExternKindMem] == 0 {
		return fmt.Errorf("%s: no memory", info.Name)
	}
	naturalAlign := uint32(0)
	for 1<<naturalAlign < info.MemWidth {
		naturalAlign++
	}
	if in.MemAlign > naturalAlign {
		return fmt.Errorf("%s: alignment 2**%d exceeds natural alignment", info.Name, in.MemAlign)
	}
	isStore := in.Op >= OpI32Store && in.Op <= OpI64Store32 || in.Op == OpV128Store
	valType := memOpValueType(in.Op)
	if isStore {
		if err := v.popExpected(valType); err != nil {
			return err
		}
		return v.popExpected(checkI32)
	}
	if err := v.popExpected(checkI32); err != nil {
		return err
	}
	v.push(valType)
	return nil
}

func memOpValueType(op Opcode) checkerType {
	switch op {
	case OpI32Load, OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI32Store, OpI32Store8, OpI32Store16:
		return checkI32
	case OpI64Load, OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U,
		OpI64Store, OpI64Store8, OpI64Store16, OpI64Store32:
		return checkI64
	case OpF32Load, OpF32Store:
		return checkF32
	case OpF64Load, OpF64Store:
		return checkF64
	case OpV128Load, OpV128Store:
		return checkV128
	default:
		return checkUnknown
	}
}

func (v *funcValidator) stepBulkMemoryOp(in Instruction) error {
	if !v.features.IsEnabled(FeatureBulkMemoryOperations) {
		return fmt.Errorf("bulk memory operation requires the bulk-memory-operations feature")
	}
	switch in.Op {
	case OpMemoryInit:
		if !v.m.HasDataCount {
			return fmt.Errorf("memory.init requires a data count section")
		}
		if in.Index >= v.m.DataCount {
			return fmt.Errorf("memory.init: invalid data index %d", in.Index)
		}
		return v.popAll([]checkerType{checkI32, checkI32, checkI32})
	case OpDataDrop:
		if !v.m.HasDataCount || in.Index >= v.m.DataCount {
			return fmt.Errorf("data.drop: invalid data index %d", in.Index)
		}
		return nil
	case OpMemoryCopy, OpMemoryFill:
		return v.popAll([]checkerType{checkI32, checkI32, checkI32})
	case OpTableInit:
		if int(in.Index) >= len(v.m.ElementSection) {
			return fmt.Errorf("table.init: invalid element index %d", in.Index)
		}
		if in.TableIndex >= v.m.MaxIndices[ExternKindTable] {
			return fmt.Errorf("table.init: invalid table index %d", in.TableIndex)
		}
		return v.popAll([]checkerType{checkI32, checkI32, checkI32})
	case OpElemDrop:
		if int(in.Index) >= len(v.m.ElementSection) {
			return fmt.Errorf("elem.drop: invalid element index %d", in.Index)
		}
		return nil
	case OpTableCopy:
		if in.TableIndex >= v.m.MaxIndices[ExternKindTable] || in.Index >= v.m.MaxIndices[ExternKindTable] {
			return fmt.Errorf("table.copy: invalid table index")
		}
		return v.popAll([]checkerType{checkI32, checkI32, checkI32})
	case OpTableGrow:
		if in.Index >= v.m.MaxIndices[ExternKindTable] {
			return fmt.Errorf("table.grow: invalid table index %d", in.Index)
		}
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		if err := v.popExpected(checkI32); err != nil { // funcref operand modeled as i32 (handle)
			return err
		}
		v.push(checkI32)
		return nil
	case OpTableSize:
		if in.Index >= v.m.MaxIndices[ExternKindTable] {
			return fmt.Errorf("table.size: invalid table index %d", in.Index)
		}
		v.push(checkI32)
		return nil
	case OpTableFill:
		if in.Index >= v.m.MaxIndices[ExternKindTable] {
			return fmt.Errorf("table.fill: invalid table index %d", in.Index)
		}
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		return v.popExpected(checkI32)
	}
	return nil
}

func (v *funcValidator) stepSIMDOp(in Instruction, info OpcodeInfo) error {
	if !v.features.IsEnabled(FeatureSIMD) {
		return fmt.Errorf("%s requires the simd feature", info.Name)
	}
	switch in.Op {
	case OpV128Const:
		v.push(checkV128)
		return nil
	case OpI8x16Shuffle:
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpI8x16Splat, OpI16x8Splat, OpI32x4Splat:
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpI64x2Splat:
		if err := v.popExpected(checkI64); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpF32x4Splat:
		if err := v.popExpected(checkF32); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpF64x2Splat:
		if err := v.popExpected(checkF64); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpI8x16ExtractLaneS, OpI8x16ExtractLaneU, OpI16x8ExtractLaneS, OpI16x8ExtractLaneU, OpI32x4ExtractLane:
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkI32)
		return nil
	case OpI64x2ExtractLane:
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkI64)
		return nil
	case OpF32x4ExtractLane:
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkF32)
		return nil
	case OpF64x2ExtractLane:
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkF64)
		return nil
	case OpI8x16ReplaceLane, OpI16x8ReplaceLane, OpI32x4ReplaceLane:
		if err := v.popExpected(checkI32); err != nil {
			return err
		}
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpI64x2ReplaceLane:
		if err := v.popExpected(checkI64); err != nil {
			return err
		}
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpF32x4ReplaceLane:
		if err := v.popExpected(checkF32); err != nil {
			return err
		}
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpF64x2ReplaceLane:
		if err := v.popExpected(checkF64); err != nil {
			return err
		}
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	case OpV128Not:
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	default:
		// remaining binary v128 x v128 -> v128 ops: and/or/xor/eq/add/sub/mul/div.
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		if err := v.popExpected(checkV128); err != nil {
			return err
		}
		v.push(checkV128)
		return nil
	}
}

// numericOpTypes is populated by init() with each plain numeric opcode's
// (operand types..., result type) signature, since there are too many of
// them for a readable switch.
var numericOpTypes = map[Opcode][2][]checkerType{}

func numOp(op Opcode, in []checkerType, out []checkerType) {
	numericOpTypes[op] = [2][]checkerType{in, out}
}

func (v *funcValidator) stepNumericOp(in Instruction) error {
	sig, ok := numericOpTypes[in.Op]
	if !ok {
		info, _ := Lookup(in.Op)
		return fmt.Errorf("%s: unhandled by validator", info.Name)
	}
	if err := v.popAll(sig[0]); err != nil {
		return err
	}
	v.pushAll(sig[1])
	return nil
}

func init() {
	i32, i64, f32, f64 := checkI32, checkI64, checkF32, checkF64
	c1 := []checkerType{i32}
	c2 := []checkerType{i32, i32}

	numOp(OpI32Const, nil, c1)
	numOp(OpI64Const, nil, []checkerType{i64})
	numOp(OpF32Const, nil, []checkerType{f32})
	numOp(OpF64Const, nil, []checkerType{f64})

	for _, op := range []Opcode{OpI32Eqz} {
		numOp(op, c1, c1)
	}
	for _, op := range []Opcode{
		OpI32Eq, OpI32Ne, OpI32LtS, OpI32LtU, OpI32GtS, OpI32GtU, OpI32LeS, OpI32LeU, OpI32GeS, OpI32GeU,
	} {
		numOp(op, c2, c1)
	}
	for _, op := range []Opcode{
		OpI32Clz, OpI32Ctz, OpI32Popcnt, OpI32Extend8S, OpI32Extend16S,
	} {
		numOp(op, c1, c1)
	}
	for _, op := range []Opcode{
		OpI32Add, OpI32Sub, OpI32Mul, OpI32DivS, OpI32DivU, OpI32RemS, OpI32RemU,
		OpI32And, OpI32Or, OpI32Xor, OpI32Shl, OpI32ShrS, OpI32ShrU, OpI32Rotl, OpI32Rotr,
	} {
		numOp(op, c2, c1)
	}

	d2 := []checkerType{i64, i64}
	for _, op := range []Opcode{OpI64Eqz} {
		numOp(op, []checkerType{i64}, c1)
	}
	for _, op := range []Opcode{
		OpI64Eq, OpI64Ne, OpI64LtS, OpI64LtU, OpI64GtS, OpI64GtU, OpI64LeS, OpI64LeU, OpI64GeS, OpI64GeU,
	} {
		numOp(op, d2, c1)
	}
	for _, op := range []Opcode{OpI64Clz, OpI64Ctz, OpI64Popcnt, OpI64Extend8S, OpI64Extend16S, OpI64Extend32S} {
		numOp(op, []checkerType{i64}, []checkerType{i64})
	}
	for _, op := range []Opcode{
		OpI64Add, OpI64Sub, OpI64Mul, OpI64DivS, OpI64DivU, OpI64RemS, OpI64RemU,
		OpI64And, OpI64Or, OpI64Xor, OpI64Shl, OpI64ShrS, OpI64ShrU, OpI64Rotl, OpI64Rotr,
	} {
		numOp(op, d2, []checkerType{i64})
	}

	e2 := []checkerType{f32, f32}
	for _, op := range []Opcode{OpF32Eq, OpF32Ne, OpF32Lt, OpF32Gt, OpF32Le, OpF32Ge} {
		numOp(op, e2, c1)
	}
	for _, op := range []Opcode{OpF32Abs, OpF32Neg, OpF32Ceil, OpF32Floor, OpF32Trunc, OpF32Nearest, OpF32Sqrt} {
		numOp(op, []checkerType{f32}, []checkerType{f32})
	}
	for _, op := range []Opcode{OpF32Add, OpF32Sub, OpF32Mul, OpF32Div, OpF32Min, OpF32Max, OpF32Copysign} {
		numOp(op, e2, []checkerType{f32})
	}

	g2 := []checkerType{f64, f64}
	for _, op := range []Opcode{OpF64Eq, OpF64Ne, OpF64Lt, OpF64Gt, OpF64Le, OpF64Ge} {
		numOp(op, g2, c1)
	}
	for _, op := range []Opcode{OpF64Abs, OpF64Neg, OpF64Ceil, OpF64Floor, OpF64Trunc, OpF64Nearest, OpF64Sqrt} {
		numOp(op, []checkerType{f64}, []checkerType{f64})
	}
	for _, op := range []Opcode{OpF64Add, OpF64Sub, OpF64Mul, OpF64Div, OpF64Min, OpF64Max, OpF64Copysign} {
		numOp(op, g2, []checkerType{f64})
	}

	numOp(OpI32WrapI64, []checkerType{i64}, c1)
	for _, op := range []Opcode{OpI32TruncF32S, OpI32TruncF32U, OpI32TruncSatF32S, OpI32TruncSatF32U} {
		numOp(op, []checkerType{f32}, c1)
	}
	for _, op := range []Opcode{OpI32TruncF64S, OpI32TruncF64U, OpI32TruncSatF64S, OpI32TruncSatF64U} {
		numOp(op, []checkerType{f64}, c1)
	}
	for _, op := range []Opcode{OpI64ExtendI32S, OpI64ExtendI32U} {
		numOp(op, c1, []checkerType{i64})
	}
	for _, op := range []Opcode{OpI64TruncF32S, OpI64TruncF32U, OpI64TruncSatF32S, OpI64TruncSatF32U} {
		numOp(op, []checkerType{f32}, []checkerType{i64})
	}
	for _, op := range []Opcode{OpI64TruncF64S, OpI64TruncF64U, OpI64TruncSatF64S, OpI64TruncSatF64U} {
		numOp(op, []checkerType{f64}, []checkerType{i64})
	}
	for _, op := range []Opcode{OpF32ConvertI32S, OpF32ConvertI32U} {
		numOp(op, c1, []checkerType{f32})
	}
	for _, op := range []Opcode{OpF32ConvertI64S, OpF32ConvertI64U} {
		numOp(op, []checkerType{i64}, []checkerType{f32})
	}
	numOp(OpF32DemoteF64, []checkerType{f64}, []checkerType{f32})
	for _, op := range []Opcode{OpF64ConvertI32S, OpF64ConvertI32U} {
		numOp(op, c1, []checkerType{f64})
	}
	for _, op := range []Opcode{OpF64ConvertI64S, OpF64ConvertI64U} {
		numOp(op, []checkerType{i64}, []checkerType{f64})
	}
	numOp(OpF64PromoteF32, []checkerType{f32}, []checkerType{f64})
	numOp(OpI32ReinterpretF32, []checkerType{f32}, c1)
	numOp(OpI64ReinterpretF64, []checkerType{f64}, []checkerType{i64})
	numOp(OpF32ReinterpretI32, c1, []checkerType{f32})
	numOp(OpF64ReinterpretI64, []checkerType{i64}, []checkerType{f64})
}
