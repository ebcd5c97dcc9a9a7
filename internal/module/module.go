// Package module implements the module system of spec.md §4.9: named
// code or native units, resolved at `import` time and cached per process
// so a module's top-level body runs at most once.
package module

import (
	"sync"

	"emerald/internal/code"
	"emerald/internal/heap"
	"emerald/internal/object"
)

// Registry is a process-local table of loaded modules, keyed by name. It
// is itself a heap.RootSource: a module stays live for the lifetime of the
// process that imported it even if nothing else on the heap still
// references it, matching the original source's ModuleRegistry.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*object.Object
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*object.Object)}
}

func (r *Registry) Add(m *object.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.ModuleName()] = m
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.modules[name]
	return ok
}

func (r *Registry) Get(name string) (*object.Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// Roots implements heap.RootSource.
func (r *Registry) Roots() []heap.Managed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]heap.Managed, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	return out
}

// NativeInit constructs a native module's Object given the heap it will
// live on and the process's bootstrapped prototypes, mirroring the
// original source's MODULE_INITIALIZATION_FUNC convention.
type NativeInit func(h *heap.Heap, protos *object.Prototypes) *object.Object

// initRegistry is the process-wide (not per-process) table mapping a
// module alias (e.g. "collections", "datetime") to its constructor. Native
// modules register themselves here from an init() func in their package,
// the same pattern the original source uses for
// NativeModuleInitRegistry::add_module_init.
var (
	initMu  sync.RWMutex
	inits   = make(map[string]NativeInit)
)

// RegisterNativeInit adds a native module constructor under alias. Calling
// it twice for the same alias overwrites the previous registration, which
// only a misconfigured build would ever do.
func RegisterNativeInit(alias string, init NativeInit) {
	initMu.Lock()
	defer initMu.Unlock()
	inits[alias] = init
}

// IsNativeModule reports whether alias has a registered native constructor.
func IsNativeModule(alias string) bool {
	initMu.RLock()
	defer initMu.RUnlock()
	_, ok := inits[alias]
	return ok
}

// InitNative constructs alias's module Object on h, or reports false if no
// native module is registered under that name.
func InitNative(alias string, h *heap.Heap, protos *object.Prototypes) (*object.Object, bool) {
	initMu.RLock()
	init, ok := inits[alias]
	initMu.RUnlock()
	if !ok {
		return nil, false
	}
	return init(h, protos), true
}

// Cache memoizes compiled Code by source module name across the process
// lifetime that compiled it, so a diamond-shaped import graph compiles
// each source-backed module at most once (original source's CodeCache).
// Unlike Registry, a Cache entry is immutable Code, not a live heap
// Object, so it is not itself a GC root source.
type Cache struct {
	mu   sync.RWMutex
	code map[string]*code.Code
}

func NewCache() *Cache {
	return &Cache{code: make(map[string]*code.Code)}
}

func (c *Cache) Get(name string) (*code.Code, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.code[name]
	return v, ok
}

func (c *Cache) Put(name string, code *code.Code) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.code[name] = code
}
