// Package interpreter implements a direct, tree-walking-free interpreter
// over internal/wasm's pool-based Module: it executes Instruction values
// straight out of a function's InstrPool slice, using the ElseOfs/EndOfs
// offsets the decoder's structured-control fixup pass already computed, so
// there is no separate IR lowering step between decode and execution.
package interpreter

import (
	"fmt"
	"math"
	"math/bits"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tetratelabs/pwasm/internal/buildoptions"
	"github.com/tetratelabs/pwasm/internal/moremath"
	"github.com/tetratelabs/pwasm/internal/wasm"
	"github.com/tetratelabs/pwasm/internal/wasmruntime"
)

func init() {
	wasm.RegisterEngine(callFunction)
}

// compiledCache is an LRU keyed by a module's content hash. Nothing in this
// package reads or writes it; decoded modules are cached by the root
// package's Cache (cache.go) instead.
var compiledCache, _ = lru.New[wasm.ModuleID, struct{}](256)

// ctrlFrame is the runtime counterpart of the validator's ctrlFrame: enough
// to resolve a branch without re-decoding anything.
type ctrlFrame struct {
	isLoop   bool
	arity    int
	height   int
	contIP   uint32
	hasElse  bool
}

// callEngine holds the state of one in-flight Wasm-to-Wasm call. A new
// callEngine is allocated per call; nested calls recurse through Go's own
// call stack, bounded by buildoptions.CallStackCeiling.
type callEngine struct {
	store  *wasm.Store
	mi     *wasm.ModuleInstance
	fn     *wasm.Function
	locals []uint64
	stack  wasm.Vector[uint64]
	frames []ctrlFrame
	depth  *int
}

// callFunction is installed into wasm.Store via wasm.RegisterEngine and is
// the only entrypoint this package exposes to the rest of the runtime.
func callFunction(s *wasm.Store, h wasm.Handle, args []uint64) (results []uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			if te, ok := r.(trapError); ok {
				err = te.err
				return
			}
			panic(r)
		}
	}()

	fi := &s.Functions[int(h)-1]
	if fi.Native != nil {
		nres := len(fi.Type.Results)
		size := len(args)
		if nres > size {
			size = nres
		}
		stack := make([]uint64, size)
		copy(stack, args)
		fi.Native(&wasm.CallContext{Memory: firstMemory(s, fi.Module)}, stack)
		return stack[:nres], nil
	}

	depth := 0
	ce := newCallEngine(s, fi.Module, fi.FuncIdx, &depth)
	ce.pushArgs(args)
	ce.run()

	n := len(fi.Type.Results)
	out := make([]uint64, n)
	for i := n - 1; i >= 0; i-- {
		v, _ := ce.stack.Pop()
		out[i] = v
	}
	return out, nil
}

func firstMemory(s *wasm.Store, mi *wasm.ModuleInstance) *wasm.MemoryInstance {
	if mi == nil || len(mi.Memories) == 0 {
		return nil
	}
	return &s.Memories[mi.Memories[0].index()]
}

// trapError is the panic payload every trapping operation raises; callFunction's
// deferred recover converts it back into a normal error return, mirroring
// the real interpreter's panic/recover trap idiom instead of threading an
// error return through every single opcode handler.
type trapError struct{ err error }

func trap(err error) { panic(trapError{err}) }

func newCallEngine(s *wasm.Store, mi *wasm.ModuleInstance, funcIdx uint32, depth *int) *callEngine {
	fn := &mi.Module.CodeSection[funcIdx]
	ce := &callEngine{store: s, mi: mi, fn: fn, depth: depth}
	ce.locals = make([]uint64, fn.MaxLocals)
	return ce
}

func (c *callEngine) pushArgs(args []uint64) {
	copy(c.locals, args)
}

// run executes the function body to completion (falling off the end) or
// until an explicit `return`.
func (c *callEngine) run() {
	*c.depth++
	if *c.depth > buildoptions.CallStackCeiling {
		trap(wasmruntime.ErrRuntimeCallStackOverflow)
	}
	defer func() { *c.depth-- }()

	body := c.mi.Module.Instructions(c.fn.Body)
	ip := uint32(0)
	for {
		if ip >= uint32(len(body)) {
			return
		}
		in := body[ip]
		next, done := c.step(in, ip, body)
		if done {
			return
		}
		ip = next
	}
}

// step executes one instruction and returns the next instruction pointer.
// done is true only for `return` and for falling past the function's own
// implicit outer frame (the final `end`).
func (c *callEngine) step(in wasm.Instruction, ip uint32, body []wasm.Instruction) (next uint32, done bool) {
	switch in.Op {
	case wasm.OpUnreachable:
		trap(wasmruntime.ErrRuntimeUnreachable)
	case wasm.OpNop:
	case wasm.OpBlock:
		c.frames = append(c.frames, ctrlFrame{
			arity: c.blockArity(in, false), height: c.stack.Len(), contIP: in.EndOfs + 1,
		})
	case wasm.OpLoop:
		c.frames = append(c.frames, ctrlFrame{
			isLoop: true, arity: c.blockArity(in, true), height: c.stack.Len(), contIP: ip + 1,
		})
	case wasm.OpIf:
		cond, _ := c.stack.Pop()
		frame := ctrlFrame{arity: c.blockArity(in, false), height: c.stack.Len(), contIP: in.EndOfs + 1, hasElse: in.ElseOfs != 0}
		c.frames = append(c.frames, frame)
		if cond == 0 {
			if in.ElseOfs != 0 {
				return in.ElseOfs + 1, false
			}
			return in.EndOfs, false
		}
	case wasm.OpElse:
		// Reached by falling through the `then` branch: skip the else body
		// entirely and behave like the block's `end`.
		f := c.frames[len(c.frames)-1]
		c.frames = c.frames[:len(c.frames)-1]
		return f.contIP, false
	case wasm.OpEnd:
		if len(c.frames) == 0 {
			return 0, true
		}
		c.frames = c.frames[:len(c.frames)-1]
	case wasm.OpBr:
		return c.branch(in.Label), false
	case wasm.OpBrIf:
		cond, _ := c.stack.Pop()
		if cond != 0 {
			return c.branch(in.Label), false
		}
	case wasm.OpBrTable:
		idx, _ := c.stack.Pop()
		labels := c.mi.Module.U32s(in.Labels)
		label := in.Default
		if int(idx) >= 0 && int(idx) < len(labels) {
			label = labels[idx]
		}
		return c.branch(label), false
	case wasm.OpReturn:
		return 0, true
	case wasm.OpCall:
		c.call(in.Index)
	case wasm.OpCallIndirect:
		c.callIndirect(in)
	case wasm.OpDrop:
		c.stack.Pop()
	case wasm.OpSelect:
		cond, _ := c.stack.Pop()
		b, _ := c.stack.Pop()
		a, _ := c.stack.Pop()
		if cond != 0 {
			c.stack.Push(a)
		} else {
			c.stack.Push(b)
		}
	case wasm.OpLocalGet:
		c.stack.Push(c.locals[in.Index])
	case wasm.OpLocalSet:
		v, _ := c.stack.Pop()
		c.locals[in.Index] = v
	case wasm.OpLocalTee:
		v, _ := c.stack.Peek()
		c.locals[in.Index] = v
	case wasm.OpGlobalGet:
		h := c.mi.Globals[in.Index]
		c.stack.Push(c.store.Globals[h.index()].Val)
	case wasm.OpGlobalSet:
		v, _ := c.stack.Pop()
		h := c.mi.Globals[in.Index]
		c.store.Globals[h.index()].Val = v
	case wasm.OpMemorySize:
		c.stack.Push(uint64(c.memory().PageCount()))
	case wasm.OpMemoryGrow:
		delta, _ := c.stack.Pop()
		c.stack.Push(uint64(uint32(c.memory().Grow(uint32(delta), c.store.MaxMemoryPages))))
	case wasm.OpI32Const:
		c.stack.Push(uint64(in.I32))
	case wasm.OpI64Const:
		c.stack.Push(in.I64)
	case wasm.OpF32Const:
		c.stack.Push(uint64(in.I32))
	case wasm.OpF64Const:
		c.stack.Push(in.I64)
	default:
		if in.Op >= wasm.OpMemoryInit && in.Op <= wasm.OpTableFill {
			c.execBulkMemory(in)
		} else if in.Op >= 0x200 {
			c.execSIMD(in)
		} else if n, ok := memOpcodeInfo(in.Op); ok {
			c.execMemOp(in, n)
		} else {
			c.execNumeric(in)
		}
	}
	return ip + 1, false
}

// blockArity returns the number of values a branch targeting this frame
// carries: a loop's label arity is its parameter count (branching re-enters
// at the top); any other frame's is its result count.
func (c *callEngine) blockArity(in wasm.Instruction, isLoop bool) int {
	params, results, err := blockTypeArity(c.mi.Module, in.BlockType)
	if err != nil {
		trap(err)
	}
	if isLoop {
		return params
	}
	return results
}

func blockTypeArity(m *wasm.Module, bt int64) (params, results int, err error) {
	if bt >= 0 {
		ft := m.TypeSection[bt]
		return len(m.Params(&ft)), len(m.Results(&ft)), nil
	}
	if bt == -0x40 {
		return 0, 0, nil
	}
	return 0, 1, nil
}

// branch unwinds to the frame `depth` labels out (0 = innermost), restoring
// the operand stack to that frame's entry height plus its label arity's
// worth of live values, and returns the instruction pointer execution
// resumes at.
func (c *callEngine) branch(depth uint32) uint32 {
	target := c.frames[len(c.frames)-1-int(depth)]

	arity := target.arity
	vals := make([]uint64, arity)
	for i := arity - 1; i >= 0; i-- {
		vals[i], _ = c.stack.Pop()
	}
	c.stack.Shrink(target.height)
	for _, v := range vals {
		c.stack.Push(v)
	}

	if target.isLoop {
		c.frames = c.frames[:len(c.frames)-int(depth)]
		return target.contIP
	}
	c.frames = c.frames[:len(c.frames)-int(depth)-1]
	return target.contIP
}

func (c *callEngine) memory() *wasm.MemoryInstance {
	if len(c.mi.Memories) == 0 {
		trap(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
	}
	return &c.store.Memories[c.mi.Memories[0].index()]
}

func (c *callEngine) call(funcIdx uint32) {
	c.callHandle(c.mi.Functions[funcIdx])
}

// callHandle invokes the function h refers to, popping its arguments off
// c.stack and pushing its results back on. Both a direct call (resolved
// through the calling module's own function index space) and an indirect
// call (resolved through a table, possibly belonging to a different
// instance) end up here once a Handle is in hand.
func (c *callEngine) callHandle(h wasm.Handle) {
	fi := &c.store.Functions[h.index()]
	n := len(fi.Type.Params)
	args := make([]uint64, n)
	for i := n - 1; i >= 0; i-- {
		args[i], _ = c.stack.Pop()
	}

	if fi.Native != nil {
		nres := len(fi.Type.Results)
		size := n
		if nres > size {
			size = nres
		}
		stack := make([]uint64, size)
		copy(stack, args)
		// A host function acts on the calling (importing) module's memory,
		// not whatever module the host import itself is nominally attached
		// to, matching the semantics the builder docs promise callers.
		fi.Native(&wasm.CallContext{Memory: firstMemory(c.store, c.mi)}, stack)
		for _, v := range stack[:nres] {
			c.stack.Push(v)
		}
		return
	}

	nested := newCallEngine(c.store, fi.Module, fi.FuncIdx, c.depth)
	nested.pushArgs(args)
	nested.run()

	nres := len(fi.Type.Results)
	vals := make([]uint64, nres)
	for i := nres - 1; i >= 0; i-- {
		vals[i], _ = nested.stack.Pop()
	}
	for _, v := range vals {
		c.stack.Push(v)
	}
}

func (c *callEngine) callIndirect(in wasm.Instruction) {
	idx, _ := c.stack.Pop()
	th := c.mi.Tables[in.TableIndex]
	table := &c.store.Tables[th.index()]
	if idx >= uint64(len(table.Elems)) {
		trap(wasmruntime.ErrRuntimeInvalidTableAccess)
	}
	h := table.Elems[idx]
	if !h.Valid() {
		trap(wasmruntime.ErrRuntimeInvalidTableAccess)
	}
	fi := &c.store.Functions[h.index()]
	wantFt := c.mi.Module.TypeSection[in.TypeIndex]
	want := wasm.SignatureOf(c.mi.Module, &wantFt)
	if !want.Equal(fi.Type) {
		trap(wasmruntime.ErrRuntimeIndirectCallTypeMismatch)
	}
	c.callHandle(h)
}

func memOpcodeInfo(op wasm.Opcode) (width int, ok bool) {
	info, found := wasm.Lookup(op)
	if !found || info.MemWidth == 0 {
		return 0, false
	}
	return info.MemWidth, true
}

func (c *callEngine) effectiveAddr(in wasm.Instruction, width int) uint32 {
	base, _ := c.stack.Pop()
	addr := uint64(uint32(base)) + uint64(in.MemOffset)
	mem := c.memory()
	if addr+uint64(width) > uint64(len(mem.Buffer)) {
		trap(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
	}
	return uint32(addr)
}

func (c *callEngine) execMemOp(in wasm.Instruction, width int) {
	mem := c.memory()
	switch in.Op {
	case wasm.OpI32Load:
		a := c.effectiveAddr(in, 4)
		c.stack.Push(uint64(le32(mem.Buffer[a:])))
	case wasm.OpI64Load:
		a := c.effectiveAddr(in, 8)
		c.stack.Push(le64(mem.Buffer[a:]))
	case wasm.OpF32Load:
		a := c.effectiveAddr(in, 4)
		c.stack.Push(uint64(le32(mem.Buffer[a:])))
	case wasm.OpF64Load:
		a := c.effectiveAddr(in, 8)
		c.stack.Push(le64(mem.Buffer[a:]))
	case wasm.OpI32Load8S:
		a := c.effectiveAddr(in, 1)
		c.stack.Push(uint64(uint32(int32(int8(mem.Buffer[a])))))
	case wasm.OpI32Load8U:
		a := c.effectiveAddr(in, 1)
		c.stack.Push(uint64(mem.Buffer[a]))
	case wasm.OpI32Load16S:
		a := c.effectiveAddr(in, 2)
		c.stack.Push(uint64(uint32(int32(int16(le16(mem.Buffer[a:]))))))
	case wasm.OpI32Load16U:
		a := c.effectiveAddr(in, 2)
		c.stack.Push(uint64(le16(mem.Buffer[a:])))
	case wasm.OpI64Load8S:
		a := c.effectiveAddr(in, 1)
		c.stack.Push(uint64(int64(int8(mem.Buffer[a]))))
	case wasm.OpI64Load8U:
		a := c.effectiveAddr(in, 1)
		c.stack.Push(uint64(mem.Buffer[a]))
	case wasm.OpI64Load16S:
		a := c.effectiveAddr(in, 2)
		c.stack.Push(uint64(int64(int16(le16(mem.Buffer[a:])))))
	case wasm.OpI64Load16U:
		a := c.effectiveAddr(in, 2)
		c.stack.Push(uint64(le16(mem.Buffer[a:])))
	case wasm.OpI64Load32S:
		a := c.effectiveAddr(in, 4)
		c.stack.Push(uint64(int64(int32(le32(mem.Buffer[a:])))))
	case wasm.OpI64Load32U:
		a := c.effectiveAddr(in, 4)
		c.stack.Push(uint64(le32(mem.Buffer[a:])))
	case wasm.OpI32Store:
		v, _ := c.stack.Pop()
		a := c.effectiveAddr(in, 4)
		putLe32(mem.Buffer[a:], uint32(v))
	case wasm.OpI64Store:
		v, _ := c.stack.Pop()
		a := c.effectiveAddr(in, 8)
		putLe64(mem.Buffer[a:], v)
	case wasm.OpF32Store:
		v, _ := c.stack.Pop()
		a := c.effectiveAddr(in, 4)
		putLe32(mem.Buffer[a:], uint32(v))
	case wasm.OpF64Store:
		v, _ := c.stack.Pop()
		a := c.effectiveAddr(in, 8)
		putLe64(mem.Buffer[a:], v)
	case wasm.OpI32Store8, wasm.OpI64Store8:
		v, _ := c.stack.Pop()
		a := c.effectiveAddr(in, 1)
		mem.Buffer[a] = byte(v)
	case wasm.OpI32Store16, wasm.OpI64Store16:
		v, _ := c.stack.Pop()
		a := c.effectiveAddr(in, 2)
		putLe16(mem.Buffer[a:], uint16(v))
	case wasm.OpI64Store32:
		v, _ := c.stack.Pop()
		a := c.effectiveAddr(in, 4)
		putLe32(mem.Buffer[a:], uint32(v))
	default:
		trap(fmt.Errorf("BUG: unhandled memory opcode 0x%x", in.Op))
	}
}

func le16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
func putLe16(b []byte, v uint16) { b[0], b[1] = byte(v), byte(v>>8) }
func putLe32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
}
func putLe64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func (c *callEngine) execBulkMemory(in wasm.Instruction) {
	m := c.mi.Module
	switch in.Op {
	case wasm.OpMemoryInit:
		n, _ := c.stack.Pop()
		src, _ := c.stack.Pop()
		dst, _ := c.stack.Pop()
		mem := c.memory()
		data := m.Bytes(m.DataSection[in.Index].Data)
		if src+n > uint64(len(data)) || dst+n > uint64(len(mem.Buffer)) {
			trap(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
		}
		copy(mem.Buffer[dst:dst+n], data[src:src+n])
	case wasm.OpDataDrop:
		// No-op: dropped-segment state isn't tracked, so a later
		// memory.init against this segment still succeeds instead of trapping.
	case wasm.OpMemoryCopy:
		n, _ := c.stack.Pop()
		src, _ := c.stack.Pop()
		dst, _ := c.stack.Pop()
		mem := c.memory()
		if src+n > uint64(len(mem.Buffer)) || dst+n > uint64(len(mem.Buffer)) {
			trap(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
		}
		copy(mem.Buffer[dst:dst+n], mem.Buffer[src:src+n])
	case wasm.OpMemoryFill:
		n, _ := c.stack.Pop()
		val, _ := c.stack.Pop()
		dst, _ := c.stack.Pop()
		mem := c.memory()
		if dst+n > uint64(len(mem.Buffer)) {
			trap(wasmruntime.ErrRuntimeOutOfBoundsMemoryAccess)
		}
		b := byte(val)
		for i := uint64(0); i < n; i++ {
			mem.Buffer[dst+i] = b
		}
	case wasm.OpTableInit:
		n, _ := c.stack.Pop()
		src, _ := c.stack.Pop()
		dst, _ := c.stack.Pop()
		th := c.mi.Tables[in.TableIndex]
		table := &c.store.Tables[th.index()]
		seg := m.U32s(m.ElementSection[in.Index].FuncIndex)
		if src+n > uint64(len(seg)) || dst+n > uint64(len(table.Elems)) {
			trap(wasmruntime.ErrRuntimeInvalidTableAccess)
		}
		for i := uint64(0); i < n; i++ {
			table.Elems[dst+i] = c.mi.Functions[seg[src+i]]
		}
	case wasm.OpElemDrop:
		// See OpDataDrop.
	case wasm.OpTableCopy:
		n, _ := c.stack.Pop()
		src, _ := c.stack.Pop()
		dst, _ := c.stack.Pop()
		dstT := &c.store.Tables[c.mi.Tables[in.TableIndex].index()]
		srcT := &c.store.Tables[c.mi.Tables[in.Index].index()]
		if src+n > uint64(len(srcT.Elems)) || dst+n > uint64(len(dstT.Elems)) {
			trap(wasmruntime.ErrRuntimeInvalidTableAccess)
		}
		copy(dstT.Elems[dst:dst+n], srcT.Elems[src:src+n])
	case wasm.OpTableGrow:
		n, _ := c.stack.Pop()
		val, _ := c.stack.Pop()
		th := c.mi.Tables[in.Index]
		table := &c.store.Tables[th.index()]
		prev := uint32(len(table.Elems))
		next := prev + uint32(n)
		if table.HasMax && next > table.Max {
			c.stack.Push(uint64(uint32(0xffffffff)))
			return
		}
		grown := make([]wasm.Handle, next)
		copy(grown, table.Elems)
		for i := prev; i < next; i++ {
			grown[i] = wasm.Handle(val)
		}
		table.Elems = grown
		c.stack.Push(uint64(prev))
	case wasm.OpTableSize:
		th := c.mi.Tables[in.Index]
		c.stack.Push(uint64(len(c.store.Tables[th.index()].Elems)))
	case wasm.OpTableFill:
		n, _ := c.stack.Pop()
		val, _ := c.stack.Pop()
		dst, _ := c.stack.Pop()
		th := c.mi.Tables[in.Index]
		table := &c.store.Tables[th.index()]
		if dst+n > uint64(len(table.Elems)) {
			trap(wasmruntime.ErrRuntimeInvalidTableAccess)
		}
		for i := uint64(0); i < n; i++ {
			table.Elems[dst+i] = wasm.Handle(val)
		}
	default:
		trap(fmt.Errorf("BUG: unhandled bulk memory opcode 0x%x", in.Op))
	}
}

// execSIMD runs the lane-wise v128 opcodes the decoder and validator accept
// (opcode.go's SIMD set comment lists the exact subset; this is not the full
// ~236-opcode proposal). A v128 occupies two consecutive uint64 stack slots,
// pushed low-then-high and popped high-then-low, so it composes with the
// rest of the stack the same way every other value does.
func (c *callEngine) execSIMD(in wasm.Instruction) {
	switch in.Op {
	case wasm.OpV128Load:
		a := c.effectiveAddr(in, 16)
		var v [16]byte
		copy(v[:], c.memory().Buffer[a:a+16])
		c.pushV128(v)
	case wasm.OpV128Store:
		v := c.popV128()
		a := c.effectiveAddr(in, 16)
		copy(c.memory().Buffer[a:a+16], v[:])
	case wasm.OpV128Const:
		c.pushV128(in.V128)
	case wasm.OpI8x16Shuffle:
		a, b := c.pop2V128()
		var out [16]byte
		for i, lane := range in.ShuffleLanes {
			if lane < 16 {
				out[i] = a[lane]
			} else {
				out[i] = b[lane-16]
			}
		}
		c.pushV128(out)
	case wasm.OpI8x16Splat:
		x, _ := c.stack.Pop()
		var v [16]byte
		for i := range v {
			v[i] = byte(x)
		}
		c.pushV128(v)
	case wasm.OpI16x8Splat:
		x, _ := c.stack.Pop()
		var v [16]byte
		for i := 0; i < 8; i++ {
			putLe16(v[2*i:], uint16(x))
		}
		c.pushV128(v)
	case wasm.OpI32x4Splat, wasm.OpF32x4Splat:
		// f32x4.splat's operand is already f32 bits (OpF32Const et al. push
		// floats that way), so it replicates with the same raw uint32 copy.
		x, _ := c.stack.Pop()
		var v [16]byte
		for i := 0; i < 4; i++ {
			putLe32(v[4*i:], uint32(x))
		}
		c.pushV128(v)
	case wasm.OpI64x2Splat, wasm.OpF64x2Splat:
		x, _ := c.stack.Pop()
		var v [16]byte
		putLe64(v[0:], x)
		putLe64(v[8:], x)
		c.pushV128(v)
	case wasm.OpI8x16ExtractLaneS:
		v := c.popV128()
		c.stack.Push(uint64(uint32(int32(int8(v[in.LaneIndex])))))
	case wasm.OpI8x16ExtractLaneU:
		v := c.popV128()
		c.stack.Push(uint64(v[in.LaneIndex]))
	case wasm.OpI16x8ExtractLaneS:
		v := c.popV128()
		c.stack.Push(uint64(uint32(int32(int16(le16(v[2*int(in.LaneIndex):]))))))
	case wasm.OpI16x8ExtractLaneU:
		v := c.popV128()
		c.stack.Push(uint64(le16(v[2*int(in.LaneIndex):])))
	case wasm.OpI32x4ExtractLane, wasm.OpF32x4ExtractLane:
		v := c.popV128()
		c.stack.Push(uint64(le32(v[4*int(in.LaneIndex):])))
	case wasm.OpI64x2ExtractLane, wasm.OpF64x2ExtractLane:
		v := c.popV128()
		c.stack.Push(le64(v[8*int(in.LaneIndex):]))
	case wasm.OpI8x16ReplaceLane:
		x, _ := c.stack.Pop()
		v := c.popV128()
		v[in.LaneIndex] = byte(x)
		c.pushV128(v)
	case wasm.OpI16x8ReplaceLane:
		x, _ := c.stack.Pop()
		v := c.popV128()
		putLe16(v[2*int(in.LaneIndex):], uint16(x))
		c.pushV128(v)
	case wasm.OpI32x4ReplaceLane, wasm.OpF32x4ReplaceLane:
		x, _ := c.stack.Pop()
		v := c.popV128()
		putLe32(v[4*int(in.LaneIndex):], uint32(x))
		c.pushV128(v)
	case wasm.OpI64x2ReplaceLane, wasm.OpF64x2ReplaceLane:
		x, _ := c.stack.Pop()
		v := c.popV128()
		putLe64(v[8*int(in.LaneIndex):], x)
		c.pushV128(v)
	case wasm.OpI8x16Eq:
		a, b := c.pop2V128()
		c.pushV128(v128BinI8(a, b, func(x, y byte) byte {
			if x == y {
				return 0xff
			}
			return 0
		}))
	case wasm.OpI32x4Eq:
		a, b := c.pop2V128()
		c.pushV128(v128BinI32(a, b, func(x, y uint32) uint32 {
			if x == y {
				return 0xffffffff
			}
			return 0
		}))
	case wasm.OpV128Not:
		v := c.popV128()
		var out [16]byte
		for i := range v {
			out[i] = ^v[i]
		}
		c.pushV128(out)
	case wasm.OpV128And:
		a, b := c.pop2V128()
		c.pushV128(v128BinI8(a, b, func(x, y byte) byte { return x & y }))
	case wasm.OpV128Or:
		a, b := c.pop2V128()
		c.pushV128(v128BinI8(a, b, func(x, y byte) byte { return x | y }))
	case wasm.OpV128Xor:
		a, b := c.pop2V128()
		c.pushV128(v128BinI8(a, b, func(x, y byte) byte { return x ^ y }))
	case wasm.OpI8x16Add:
		a, b := c.pop2V128()
		c.pushV128(v128BinI8(a, b, func(x, y byte) byte { return x + y }))
	case wasm.OpI8x16Sub:
		a, b := c.pop2V128()
		c.pushV128(v128BinI8(a, b, func(x, y byte) byte { return x - y }))
	case wasm.OpI16x8Add:
		a, b := c.pop2V128()
		c.pushV128(v128BinI16(a, b, func(x, y uint16) uint16 { return x + y }))
	case wasm.OpI16x8Sub:
		a, b := c.pop2V128()
		c.pushV128(v128BinI16(a, b, func(x, y uint16) uint16 { return x - y }))
	case wasm.OpI16x8Mul:
		a, b := c.pop2V128()
		c.pushV128(v128BinI16(a, b, func(x, y uint16) uint16 { return x * y }))
	case wasm.OpI32x4Add:
		a, b := c.pop2V128()
		c.pushV128(v128BinI32(a, b, func(x, y uint32) uint32 { return x + y }))
	case wasm.OpI32x4Sub:
		a, b := c.pop2V128()
		c.pushV128(v128BinI32(a, b, func(x, y uint32) uint32 { return x - y }))
	case wasm.OpI32x4Mul:
		a, b := c.pop2V128()
		c.pushV128(v128BinI32(a, b, func(x, y uint32) uint32 { return x * y }))
	case wasm.OpI64x2Add:
		a, b := c.pop2V128()
		c.pushV128(v128BinI64(a, b, func(x, y uint64) uint64 { return x + y }))
	case wasm.OpI64x2Sub:
		a, b := c.pop2V128()
		c.pushV128(v128BinI64(a, b, func(x, y uint64) uint64 { return x - y }))
	case wasm.OpI64x2Mul:
		a, b := c.pop2V128()
		c.pushV128(v128BinI64(a, b, func(x, y uint64) uint64 { return x * y }))
	case wasm.OpF32x4Add:
		a, b := c.pop2V128()
		c.pushV128(v128BinF32(a, b, func(x, y float32) float32 { return x + y }))
	case wasm.OpF32x4Sub:
		a, b := c.pop2V128()
		c.pushV128(v128BinF32(a, b, func(x, y float32) float32 { return x - y }))
	case wasm.OpF32x4Mul:
		a, b := c.pop2V128()
		c.pushV128(v128BinF32(a, b, func(x, y float32) float32 { return x * y }))
	case wasm.OpF32x4Div:
		a, b := c.pop2V128()
		c.pushV128(v128BinF32(a, b, func(x, y float32) float32 { return x / y }))
	case wasm.OpF64x2Add:
		a, b := c.pop2V128()
		c.pushV128(v128BinF64(a, b, func(x, y float64) float64 { return x + y }))
	case wasm.OpF64x2Sub:
		a, b := c.pop2V128()
		c.pushV128(v128BinF64(a, b, func(x, y float64) float64 { return x - y }))
	case wasm.OpF64x2Mul:
		a, b := c.pop2V128()
		c.pushV128(v128BinF64(a, b, func(x, y float64) float64 { return x * y }))
	case wasm.OpF64x2Div:
		a, b := c.pop2V128()
		c.pushV128(v128BinF64(a, b, func(x, y float64) float64 { return x / y }))
	default:
		trap(fmt.Errorf("BUG: unhandled v128 opcode 0x%x", in.Op))
	}
}

func (c *callEngine) execNumeric(in wasm.Instruction) {
	switch in.Op {
	case wasm.OpI32Eqz:
		v, _ := c.stack.Pop()
		c.pushBool(uint32(v) == 0)
	case wasm.OpI32Eq:
		a, b := c.pop2_32()
		c.pushBool(a == b)
	case wasm.OpI32Ne:
		a, b := c.pop2_32()
		c.pushBool(a != b)
	case wasm.OpI32LtS:
		a, b := c.pop2_32()
		c.pushBool(int32(a) < int32(b))
	case wasm.OpI32LtU:
		a, b := c.pop2_32()
		c.pushBool(a < b)
	case wasm.OpI32GtS:
		a, b := c.pop2_32()
		c.pushBool(int32(a) > int32(b))
	case wasm.OpI32GtU:
		a, b := c.pop2_32()
		c.pushBool(a > b)
	case wasm.OpI32LeS:
		a, b := c.pop2_32()
		c.pushBool(int32(a) <= int32(b))
	case wasm.OpI32LeU:
		a, b := c.pop2_32()
		c.pushBool(a <= b)
	case wasm.OpI32GeS:
		a, b := c.pop2_32()
		c.pushBool(int32(a) >= int32(b))
	case wasm.OpI32GeU:
		a, b := c.pop2_32()
		c.pushBool(a >= b)

	case wasm.OpI32Clz:
		v, _ := c.stack.Pop()
		c.push32(uint32(bits.LeadingZeros32(uint32(v))))
	case wasm.OpI32Ctz:
		v, _ := c.stack.Pop()
		c.push32(uint32(bits.TrailingZeros32(uint32(v))))
	case wasm.OpI32Popcnt:
		v, _ := c.stack.Pop()
		c.push32(uint32(bits.OnesCount32(uint32(v))))
	case wasm.OpI32Add:
		a, b := c.pop2_32()
		c.push32(a + b)
	case wasm.OpI32Sub:
		a, b := c.pop2_32()
		c.push32(a - b)
	case wasm.OpI32Mul:
		a, b := c.pop2_32()
		c.push32(a * b)
	case wasm.OpI32DivS:
		a, b := c.pop2_32()
		if b == 0 {
			trap(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		if int32(a) == math.MinInt32 && int32(b) == -1 {
			trap(wasmruntime.ErrRuntimeIntegerOverflow)
		}
		c.push32(uint32(int32(a) / int32(b)))
	case wasm.OpI32DivU:
		a, b := c.pop2_32()
		if b == 0 {
			trap(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		c.push32(a / b)
	case wasm.OpI32RemS:
		a, b := c.pop2_32()
		if b == 0 {
			trap(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		if int32(a) == math.MinInt32 && int32(b) == -1 {
			c.push32(0)
		} else {
			c.push32(uint32(int32(a) % int32(b)))
		}
	case wasm.OpI32RemU:
		a, b := c.pop2_32()
		if b == 0 {
			trap(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		c.push32(a % b)
	case wasm.OpI32And:
		a, b := c.pop2_32()
		c.push32(a & b)
	case wasm.OpI32Or:
		a, b := c.pop2_32()
		c.push32(a | b)
	case wasm.OpI32Xor:
		a, b := c.pop2_32()
		c.push32(a ^ b)
	case wasm.OpI32Shl:
		a, b := c.pop2_32()
		c.push32(a << (b & 31))
	case wasm.OpI32ShrS:
		a, b := c.pop2_32()
		c.push32(uint32(int32(a) >> (b & 31)))
	case wasm.OpI32ShrU:
		a, b := c.pop2_32()
		c.push32(a >> (b & 31))
	case wasm.OpI32Rotl:
		a, b := c.pop2_32()
		c.push32(bits.RotateLeft32(a, int(b&31)))
	case wasm.OpI32Rotr:
		a, b := c.pop2_32()
		c.push32(bits.RotateLeft32(a, -int(b&31)))
	case wasm.OpI32Extend8S:
		v, _ := c.stack.Pop()
		c.push32(uint32(int32(int8(v))))
	case wasm.OpI32Extend16S:
		v, _ := c.stack.Pop()
		c.push32(uint32(int32(int16(v))))
	case wasm.OpI32WrapI64:
		v, _ := c.stack.Pop()
		c.push32(uint32(v))

	case wasm.OpI64Eqz:
		v, _ := c.stack.Pop()
		c.pushBool(v == 0)
	case wasm.OpI64Eq:
		a, b := c.pop2_64()
		c.pushBool(a == b)
	case wasm.OpI64Ne:
		a, b := c.pop2_64()
		c.pushBool(a != b)
	case wasm.OpI64LtS:
		a, b := c.pop2_64()
		c.pushBool(int64(a) < int64(b))
	case wasm.OpI64LtU:
		a, b := c.pop2_64()
		c.pushBool(a < b)
	case wasm.OpI64GtS:
		a, b := c.pop2_64()
		c.pushBool(int64(a) > int64(b))
	case wasm.OpI64GtU:
		a, b := c.pop2_64()
		c.pushBool(a > b)
	case wasm.OpI64LeS:
		a, b := c.pop2_64()
		c.pushBool(int64(a) <= int64(b))
	case wasm.OpI64LeU:
		a, b := c.pop2_64()
		c.pushBool(a <= b)
	case wasm.OpI64GeS:
		a, b := c.pop2_64()
		c.pushBool(int64(a) >= int64(b))
	case wasm.OpI64GeU:
		a, b := c.pop2_64()
		c.pushBool(a >= b)
	case wasm.OpI64Clz:
		v, _ := c.stack.Pop()
		c.stack.Push(uint64(bits.LeadingZeros64(v)))
	case wasm.OpI64Ctz:
		v, _ := c.stack.Pop()
		c.stack.Push(uint64(bits.TrailingZeros64(v)))
	case wasm.OpI64Popcnt:
		v, _ := c.stack.Pop()
		c.stack.Push(uint64(bits.OnesCount64(v)))
	case wasm.OpI64Add:
		a, b := c.pop2_64()
		c.stack.Push(a + b)
	case wasm.OpI64Sub:
		a, b := c.pop2_64()
		c.stack.Push(a - b)
	case wasm.OpI64Mul:
		a, b := c.pop2_64()
		c.stack.Push(a * b)
	case wasm.OpI64DivS:
		a, b := c.pop2_64()
		if b == 0 {
			trap(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		if int64(a) == math.MinInt64 && int64(b) == -1 {
			trap(wasmruntime.ErrRuntimeIntegerOverflow)
		}
		c.stack.Push(uint64(int64(a) / int64(b)))
	case wasm.OpI64DivU:
		a, b := c.pop2_64()
		if b == 0 {
			trap(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		c.stack.Push(a / b)
	case wasm.OpI64RemS:
		a, b := c.pop2_64()
		if b == 0 {
			trap(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		if int64(a) == math.MinInt64 && int64(b) == -1 {
			c.stack.Push(0)
		} else {
			c.stack.Push(uint64(int64(a) % int64(b)))
		}
	case wasm.OpI64RemU:
		a, b := c.pop2_64()
		if b == 0 {
			trap(wasmruntime.ErrRuntimeIntegerDivideByZero)
		}
		c.stack.Push(a % b)
	case wasm.OpI64And:
		a, b := c.pop2_64()
		c.stack.Push(a & b)
	case wasm.OpI64Or:
		a, b := c.pop2_64()
		c.stack.Push(a | b)
	case wasm.OpI64Xor:
		a, b := c.pop2_64()
		c.stack.Push(a ^ b)
	case wasm.OpI64Shl:
		a, b := c.pop2_64()
		c.stack.Push(a << (b & 63))
	case wasm.OpI64ShrS:
		a, b := c.pop2_64()
		c.stack.Push(uint64(int64(a) >> (b & 63)))
	case wasm.OpI64ShrU:
		a, b := c.pop2_64()
		c.stack.Push(a >> (b & 63))
	case wasm.OpI64Rotl:
		a, b := c.pop2_64()
		c.stack.Push(bits.RotateLeft64(a, int(b&63)))
	case wasm.OpI64Rotr:
		a, b := c.pop2_64()
		c.stack.Push(bits.RotateLeft64(a, -int(b&63)))
	case wasm.OpI64Extend8S:
		v, _ := c.stack.Pop()
		c.stack.Push(uint64(int64(int8(v))))
	case wasm.OpI64Extend16S:
		v, _ := c.stack.Pop()
		c.stack.Push(uint64(int64(int16(v))))
	case wasm.OpI64Extend32S:
		v, _ := c.stack.Pop()
		c.stack.Push(uint64(int64(int32(v))))
	case wasm.OpI64ExtendI32S:
		v, _ := c.stack.Pop()
		c.stack.Push(uint64(int64(int32(v))))
	case wasm.OpI64ExtendI32U:
		v, _ := c.stack.Pop()
		c.stack.Push(uint64(uint32(v)))

	case wasm.OpF32Eq:
		a, b := c.pop2f32()
		c.pushBool(a == b)
	case wasm.OpF32Ne:
		a, b := c.pop2f32()
		c.pushBool(a != b)
	case wasm.OpF32Lt:
		a, b := c.pop2f32()
		c.pushBool(a < b)
	case wasm.OpF32Gt:
		a, b := c.pop2f32()
		c.pushBool(a > b)
	case wasm.OpF32Le:
		a, b := c.pop2f32()
		c.pushBool(a <= b)
	case wasm.OpF32Ge:
		a, b := c.pop2f32()
		c.pushBool(a >= b)
	case wasm.OpF32Abs:
		c.pushF32(float32(math.Abs(float64(c.popF32()))))
	case wasm.OpF32Neg:
		c.pushF32(-c.popF32())
	case wasm.OpF32Ceil:
		c.pushF32(float32(math.Ceil(float64(c.popF32()))))
	case wasm.OpF32Floor:
		c.pushF32(float32(math.Floor(float64(c.popF32()))))
	case wasm.OpF32Trunc:
		c.pushF32(float32(math.Trunc(float64(c.popF32()))))
	case wasm.OpF32Nearest:
		c.pushF32(moremath.WasmCompatNearestF32(c.popF32()))
	case wasm.OpF32Sqrt:
		c.pushF32(float32(math.Sqrt(float64(c.popF32()))))
	case wasm.OpF32Add:
		a, b := c.pop2f32()
		c.pushF32(a + b)
	case wasm.OpF32Sub:
		a, b := c.pop2f32()
		c.pushF32(a - b)
	case wasm.OpF32Mul:
		a, b := c.pop2f32()
		c.pushF32(a * b)
	case wasm.OpF32Div:
		a, b := c.pop2f32()
		c.pushF32(a / b)
	case wasm.OpF32Min:
		a, b := c.pop2f32()
		c.pushF32(float32(moremath.WasmCompatMin(float64(a), float64(b))))
	case wasm.OpF32Max:
		a, b := c.pop2f32()
		c.pushF32(float32(moremath.WasmCompatMax(float64(a), float64(b))))
	case wasm.OpF32Copysign:
		a, b := c.pop2f32()
		c.pushF32(float32(math.Copysign(float64(a), float64(b))))

	case wasm.OpF64Eq:
		a, b := c.pop2f64()
		c.pushBool(a == b)
	case wasm.OpF64Ne:
		a, b := c.pop2f64()
		c.pushBool(a != b)
	case wasm.OpF64Lt:
		a, b := c.pop2f64()
		c.pushBool(a < b)
	case wasm.OpF64Gt:
		a, b := c.pop2f64()
		c.pushBool(a > b)
	case wasm.OpF64Le:
		a, b := c.pop2f64()
		c.pushBool(a <= b)
	case wasm.OpF64Ge:
		a, b := c.pop2f64()
		c.pushBool(a >= b)
	case wasm.OpF64Abs:
		c.pushF64(math.Abs(c.popF64()))
	case wasm.OpF64Neg:
		c.pushF64(-c.popF64())
	case wasm.OpF64Ceil:
		c.pushF64(math.Ceil(c.popF64()))
	case wasm.OpF64Floor:
		c.pushF64(math.Floor(c.popF64()))
	case wasm.OpF64Trunc:
		c.pushF64(math.Trunc(c.popF64()))
	case wasm.OpF64Nearest:
		c.pushF64(moremath.WasmCompatNearestF64(c.popF64()))
	case wasm.OpF64Sqrt:
		c.pushF64(math.Sqrt(c.popF64()))
	case wasm.OpF64Add:
		a, b := c.pop2f64()
		c.pushF64(a + b)
	case wasm.OpF64Sub:
		a, b := c.pop2f64()
		c.pushF64(a - b)
	case wasm.OpF64Mul:
		a, b := c.pop2f64()
		c.pushF64(a * b)
	case wasm.OpF64Div:
		a, b := c.pop2f64()
		c.pushF64(a / b)
	case wasm.OpF64Min:
		a, b := c.pop2f64()
		c.pushF64(moremath.WasmCompatMin(a, b))
	case wasm.OpF64Max:
		a, b := c.pop2f64()
		c.pushF64(moremath.WasmCompatMax(a, b))
	case wasm.OpF64Copysign:
		a, b := c.pop2f64()
		c.pushF64(math.Copysign(a, b))

	case wasm.OpI32TruncF32S, wasm.OpI32TruncF32U, wasm.OpI32TruncF64S, wasm.OpI32TruncF64U,
		wasm.OpI64TruncF32S, wasm.OpI64TruncF32U, wasm.OpI64TruncF64S, wasm.OpI64TruncF64U:
		c.execTrunc(in.Op, false)
	case wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI32TruncSatF64S, wasm.OpI32TruncSatF64U,
		wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U, wasm.OpI64TruncSatF64S, wasm.OpI64TruncSatF64U:
		c.execTrunc(in.Op, true)
	case wasm.OpF32ConvertI32S:
		v, _ := c.stack.Pop()
		c.pushF32(float32(int32(v)))
	case wasm.OpF32ConvertI32U:
		v, _ := c.stack.Pop()
		c.pushF32(float32(uint32(v)))
	case wasm.OpF32ConvertI64S:
		v, _ := c.stack.Pop()
		c.pushF32(float32(int64(v)))
	case wasm.OpF32ConvertI64U:
		v, _ := c.stack.Pop()
		c.pushF32(float32(v))
	case wasm.OpF32DemoteF64:
		c.pushF32(float32(c.popF64()))
	case wasm.OpF64ConvertI32S:
		v, _ := c.stack.Pop()
		c.pushF64(float64(int32(v)))
	case wasm.OpF64ConvertI32U:
		v, _ := c.stack.Pop()
		c.pushF64(float64(uint32(v)))
	case wasm.OpF64ConvertI64S:
		v, _ := c.stack.Pop()
		c.pushF64(float64(int64(v)))
	case wasm.OpF64ConvertI64U:
		v, _ := c.stack.Pop()
		c.pushF64(float64(v))
	case wasm.OpF64PromoteF32:
		c.pushF64(float64(c.popF32()))
	case wasm.OpI32ReinterpretF32:
		v, _ := c.stack.Pop()
		c.push32(uint32(v))
	case wasm.OpI64ReinterpretF64:
		v, _ := c.stack.Pop()
		c.stack.Push(v)
	case wasm.OpF32ReinterpretI32:
		v, _ := c.stack.Pop()
		c.push32(uint32(v))
	case wasm.OpF64ReinterpretI64:
		v, _ := c.stack.Pop()
		c.stack.Push(v)
	default:
		trap(fmt.Errorf("BUG: unhandled numeric opcode 0x%x", in.Op))
	}
}

func (c *callEngine) execTrunc(op wasm.Opcode, saturating bool) {
	var f float64
	switch op {
	case wasm.OpI32TruncF32S, wasm.OpI32TruncF32U, wasm.OpI64TruncF32S, wasm.OpI64TruncF32U,
		wasm.OpI32TruncSatF32S, wasm.OpI32TruncSatF32U, wasm.OpI64TruncSatF32S, wasm.OpI64TruncSatF32U:
		f = float64(c.popF32())
	default:
		f = c.popF64()
	}

	is64 := op == wasm.OpI64TruncF32S || op == wasm.OpI64TruncF32U || op == wasm.OpI64TruncF64S || op == wasm.OpI64TruncF64U ||
		op == wasm.OpI64TruncSatF32S || op == wasm.OpI64TruncSatF32U || op == wasm.OpI64TruncSatF64S || op == wasm.OpI64TruncSatF64U
	signed := op == wasm.OpI32TruncF32S || op == wasm.OpI32TruncF64S || op == wasm.OpI64TruncF32S || op == wasm.OpI64TruncF64S ||
		op == wasm.OpI32TruncSatF32S || op == wasm.OpI32TruncSatF64S || op == wasm.OpI64TruncSatF32S || op == wasm.OpI64TruncSatF64S

	if math.IsNaN(f) {
		if saturating {
			c.pushTruncResult(0, is64)
			return
		}
		trap(wasmruntime.ErrRuntimeInvalidConversionToInteger)
	}

	trunc := math.Trunc(f)
	if is64 {
		if signed {
			if trunc < math.MinInt64 || trunc >= math.MaxInt64 {
				if !saturating {
					trap(wasmruntime.ErrRuntimeIntegerOverflow)
				}
				c.stack.Push(satI64(trunc, true))
				return
			}
			c.stack.Push(uint64(int64(trunc)))
			return
		}
		if trunc < 0 || trunc >= math.MaxUint64 {
			if !saturating {
				trap(wasmruntime.ErrRuntimeIntegerOverflow)
			}
			c.stack.Push(satI64(trunc, false))
			return
		}
		c.stack.Push(uint64(trunc))
		return
	}

	if signed {
		if trunc < math.MinInt32 || trunc > math.MaxInt32 {
			if !saturating {
				trap(wasmruntime.ErrRuntimeIntegerOverflow)
			}
			c.push32(satI32(trunc, true))
			return
		}
		c.push32(uint32(int32(trunc)))
		return
	}
	if trunc < 0 || trunc > math.MaxUint32 {
		if !saturating {
			trap(wasmruntime.ErrRuntimeIntegerOverflow)
		}
		c.push32(satI32(trunc, false))
		return
	}
	c.push32(uint32(trunc))
}

func satI32(f float64, signed bool) uint32 {
	if math.IsNaN(f) {
		return 0
	}
	if signed {
		if f < math.MinInt32 {
			return uint32(int32(math.MinInt32))
		}
		return uint32(int32(math.MaxInt32))
	}
	if f < 0 {
		return 0
	}
	return math.MaxUint32
}

func satI64(f float64, signed bool) uint64 {
	if math.IsNaN(f) {
		return 0
	}
	if signed {
		if f < math.MinInt64 {
			return uint64(int64(math.MinInt64))
		}
		return uint64(int64(math.MaxInt64))
	}
	if f < 0 {
		return 0
	}
	return math.MaxUint64
}

func (c *callEngine) pushTruncResult(v uint64, is64 bool) {
	if is64 {
		c.stack.Push(v)
	} else {
		c.push32(uint32(v))
	}
}

func (c *callEngine) push32(v uint32)   { c.stack.Push(uint64(v)) }
func (c *callEngine) pushBool(b bool) {
	if b {
		c.push32(1)
	} else {
		c.push32(0)
	}
}
func (c *callEngine) pop2_32() (uint32, uint32) {
	b, _ := c.stack.Pop()
	a, _ := c.stack.Pop()
	return uint32(a), uint32(b)
}
func (c *callEngine) pop2_64() (uint64, uint64) {
	b, _ := c.stack.Pop()
	a, _ := c.stack.Pop()
	return a, b
}
func (c *callEngine) pushF32(f float32) { c.stack.Push(uint64(math.Float32bits(f))) }
func (c *callEngine) popF32() float32 {
	v, _ := c.stack.Pop()
	return math.Float32frombits(uint32(v))
}
func (c *callEngine) pop2f32() (float32, float32) {
	b := c.popF32()
	a := c.popF32()
	return a, b
}
func (c *callEngine) pushF64(f float64) { c.stack.Push(math.Float64bits(f)) }
func (c *callEngine) popF64() float64 {
	v, _ := c.stack.Pop()
	return math.Float64frombits(v)
}
func (c *callEngine) pop2f64() (float64, float64) {
	b := c.popF64()
	a := c.popF64()
	return a, b
}

func (c *callEngine) pushV128(v [16]byte) {
	c.stack.Push(le64(v[0:8]))
	c.stack.Push(le64(v[8:16]))
}
func (c *callEngine) popV128() [16]byte {
	hi, _ := c.stack.Pop()
	lo, _ := c.stack.Pop()
	var v [16]byte
	putLe64(v[0:8], lo)
	putLe64(v[8:16], hi)
	return v
}
func (c *callEngine) pop2V128() (a, b [16]byte) {
	b = c.popV128()
	a = c.popV128()
	return
}

func v128BinI8(a, b [16]byte, f func(byte, byte) byte) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = f(a[i], b[i])
	}
	return out
}
func v128BinI16(a, b [16]byte, f func(uint16, uint16) uint16) [16]byte {
	var out [16]byte
	for i := 0; i < 8; i++ {
		putLe16(out[2*i:], f(le16(a[2*i:]), le16(b[2*i:])))
	}
	return out
}
func v128BinI32(a, b [16]byte, f func(uint32, uint32) uint32) [16]byte {
	var out [16]byte
	for i := 0; i < 4; i++ {
		putLe32(out[4*i:], f(le32(a[4*i:]), le32(b[4*i:])))
	}
	return out
}
func v128BinI64(a, b [16]byte, f func(uint64, uint64) uint64) [16]byte {
	var out [16]byte
	for i := 0; i < 2; i++ {
		putLe64(out[8*i:], f(le64(a[8*i:]), le64(b[8*i:])))
	}
	return out
}
func v128BinF32(a, b [16]byte, f func(float32, float32) float32) [16]byte {
	return v128BinI32(a, b, func(x, y uint32) uint32 {
		return math.Float32bits(f(math.Float32frombits(x), math.Float32frombits(y)))
	})
}
func v128BinF64(a, b [16]byte, f func(float64, float64) float64) [16]byte {
	return v128BinI64(a, b, func(x, y uint64) uint64 {
		return math.Float64bits(f(math.Float64frombits(x), math.Float64frombits(y)))
	})
}
