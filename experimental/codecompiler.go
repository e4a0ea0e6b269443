package experimental

import "github.com/tetratelabs/pwasm/internal/engine"

// Runtime is the minimal surface WithCodeCompiler needs: any pwasm.Runtime
// satisfies it already (SetCodeCompiler is part of that interface). It's
// declared separately here, rather than imported from package pwasm, so
// this package doesn't import its own importer.
type Runtime interface {
	SetCodeCompiler(c engine.CodeCompiler) error
}

// WithCodeCompiler passes c to rt.SetCodeCompiler. No CodeCompiler ships
// with this module, and pwasm's Runtime only records c: modules still run
// on the interpreter.
func WithCodeCompiler(rt Runtime, c engine.CodeCompiler) error {
	return rt.SetCodeCompiler(c)
}
