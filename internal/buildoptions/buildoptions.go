// Package buildoptions holds constants that affect code generation rather
// than runtime behavior, so they can be tuned without plumbing config
// through every call site.
package buildoptions

// IstTest is true if currently running unit tests. Used to gate "test-time"
// assertions as `if buildoptions.IstTest { ... }`, which the compiler
// eliminates from a release binary.
const IstTest = false

// CallStackCeiling is the maximum nesting depth of calls within a single
// invocation before the interpreter raises wasmruntime.ErrRuntimeCallStackOverflow.
// It bounds the depth of the Go call stack the interpreter itself uses to
// implement Wasm call/call_indirect, since each nested Wasm call recurses
// one Go stack frame deeper.
const CallStackCeiling = 2000
