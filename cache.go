package pwasm

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tetratelabs/pwasm/internal/wasm"
)

// Cache lets decoded-and-validated modules be reused across Runtime
// instances that share a RuntimeConfig, keyed by a module's content hash
// (wasm.ModuleID). Unlike an ahead-of-time compiler's cache, there is no
// machine code to persist here: this engine walks the decoded Module
// directly, so the only work worth memoizing across CompileModule calls is
// decode-plus-validate itself.
type Cache struct {
	modules *lru.Cache[wasm.ModuleID, *wasm.Module]
}

// NewCache returns a Cache that holds up to size decoded modules, for use
// with RuntimeConfig.WithCache. A non-positive size disables caching:
// every CompileModule call decodes and validates from scratch.
func NewCache(size int) *Cache {
	if size <= 0 {
		return &Cache{}
	}
	c, _ := lru.New[wasm.ModuleID, *wasm.Module](size)
	return &Cache{modules: c}
}

func (c *Cache) get(id wasm.ModuleID) (*wasm.Module, bool) {
	if c == nil || c.modules == nil {
		return nil, false
	}
	return c.modules.Get(id)
}

func (c *Cache) put(m *wasm.Module) {
	if c == nil || c.modules == nil {
		return
	}
	c.modules.Add(m.ID, m)
}
