// Package engine names the contract an alternative function-call engine
// must satisfy to be pluggable into a Runtime in place of (or alongside)
// internal/engine/interpreter. No implementation of CodeCompiler ships from
// this module; the interpreter is the only engine wasm.RegisterEngine ever
// sees by default. This package exists so a host embedding pwasm can supply
// its own ahead-of-time compiler without the runtime needing to know about
// it in advance.
package engine

import "github.com/tetratelabs/pwasm/internal/wasm"

// CodeCompiler turns a validated function into CompiledCode capable of
// running it without this module's tree-walking interpreter.
type CodeCompiler interface {
	// Compile produces native code for the funcIdx'th function (in the
	// module's own function index space, imports included) of m.
	Compile(m *wasm.Module, funcIdx uint32) (CompiledCode, error)
}

// CompiledCode is one function's compiled form, ready to run against a
// Store.
type CompiledCode interface {
	// Invoke runs the compiled function with modOfs identifying its module
	// instance and funcOfs its function instance, both as Store-relative
	// offsets (mirroring Handle's own convention). A non-nil trap reports a
	// runtime trap the same way the interpreter's own panic/recover idiom
	// does, without requiring CompiledCode to use panic itself.
	Invoke(env *wasm.Store, modOfs, funcOfs uint32) (trap error)

	// Close releases any resources (e.g. mapped executable memory) backing
	// this compiled function.
	Close() error
}
