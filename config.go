package pwasm

import (
	"context"

	"github.com/tetratelabs/pwasm/internal/wasm"
)

// RuntimeConfig controls Runtime behavior, with the default as
// NewRuntimeConfig.
type RuntimeConfig struct {
	enabledFeatures wasm.Features
	ctx             context.Context
	memoryMaxPages  uint32
	cache           *Cache
}

// NewRuntimeConfig returns a RuntimeConfig enabling WebAssembly 1.0
// (20191205) semantics plus the sign-extension-ops,
// saturating-float-to-int, bulk-memory-operations and SIMD proposals
// (multi-value stays off): leaving them off would only reject modules this
// engine is otherwise able to run.
func NewRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		enabledFeatures: wasm.FeatureSaturatingFloatToInt | wasm.FeatureSignExtensionOps |
			wasm.FeatureBulkMemoryOperations | wasm.FeatureSIMD,
		ctx:            context.Background(),
		memoryMaxPages: wasm.MemoryMaxPages,
	}
}

func (c *RuntimeConfig) clone() *RuntimeConfig {
	ret := *c
	return &ret
}

// WithContext records ctx in the config (context.Background when nil).
// Nothing in this package reads it back: start functions run without a
// context, and api.Function.Call uses only the context its caller passes.
// Defaults to context.Background.
func (c *RuntimeConfig) WithContext(ctx context.Context) *RuntimeConfig {
	if ctx == nil {
		ctx = context.Background()
	}
	ret := c.clone()
	ret.ctx = ctx
	return ret
}

// WithMemoryMaxPages reduces the maximum number of pages a module's memory
// can grow to from 65536 pages (4GiB) to a lower value. Any "memory.grow"
// that would result in a larger size fails (returns -1) instead of
// trapping.
func (c *RuntimeConfig) WithMemoryMaxPages(memoryMaxPages uint32) *RuntimeConfig {
	ret := c.clone()
	ret.memoryMaxPages = memoryMaxPages
	return ret
}

// WithCache installs a Cache so repeated CompileModule calls on
// byte-identical binaries reuse the decoded, validated wasm.Module instead
// of redoing that work.
func (c *RuntimeConfig) WithCache(ca *Cache) *RuntimeConfig {
	ret := c.clone()
	ret.cache = ca
	return ret
}

func (c *RuntimeConfig) withFeature(f wasm.Features, enabled bool) *RuntimeConfig {
	ret := c.clone()
	if enabled {
		ret.enabledFeatures = ret.enabledFeatures.Set(f)
	} else {
		ret.enabledFeatures = ret.enabledFeatures.Clear(f)
	}
	return ret
}

// WithFeatureSignExtensionOps toggles the sign-extension-ops proposal
// (i32.extend8_s and friends). Defaults to true.
func (c *RuntimeConfig) WithFeatureSignExtensionOps(enabled bool) *RuntimeConfig {
	return c.withFeature(wasm.FeatureSignExtensionOps, enabled)
}

// WithFeatureSaturatingFloatToInt toggles the 0xFC trunc_sat opcodes.
// Defaults to true.
func (c *RuntimeConfig) WithFeatureSaturatingFloatToInt(enabled bool) *RuntimeConfig {
	return c.withFeature(wasm.FeatureSaturatingFloatToInt, enabled)
}

// WithFeatureBulkMemoryOperations toggles memory.init/copy/fill,
// table.init/copy/grow/size/fill, elem.drop, data.drop, and passive
// segments. Defaults to true.
func (c *RuntimeConfig) WithFeatureBulkMemoryOperations(enabled bool) *RuntimeConfig {
	return c.withFeature(wasm.FeatureBulkMemoryOperations, enabled)
}

// WithFeatureSIMD toggles the 0xFD v128 opcode set and the v128 value
// type. Defaults to true.
//
// Note: only a subset of the SIMD proposal's instructions is supported (the
// ones listed in internal/wasm/opcode.go): the decoder rejects any other
// 0xFD opcode, and the interpreter executes every one it accepts.
func (c *RuntimeConfig) WithFeatureSIMD(enabled bool) *RuntimeConfig {
	return c.withFeature(wasm.FeatureSIMD, enabled)
}

// WithFeatureMultiValue toggles function and block types with more than
// one result. Defaults to false, matching WebAssembly 1.0 (20191205).
func (c *RuntimeConfig) WithFeatureMultiValue(enabled bool) *RuntimeConfig {
	return c.withFeature(wasm.FeatureMultiValue, enabled)
}

// ModuleConfig configures name assignment for an instantiated module.
//
// Note: unlike ModuleConfig in runtimes that also implement WASI, this
// runtime has no ambient operating-system surface (no stdio, filesystem,
// environment variables, or process args) to configure: WASI is out of
// scope here, so instantiation only needs a name.
type ModuleConfig struct {
	name string
}

// NewModuleConfig returns a ModuleConfig that defaults the module's name to
// whatever CompiledModule.Name reports.
func NewModuleConfig() *ModuleConfig {
	return &ModuleConfig{}
}

// WithName configures the module name, overriding one decoded from the
// name section (if any).
func (c *ModuleConfig) WithName(name string) *ModuleConfig {
	ret := *c
	ret.name = name
	return &ret
}
