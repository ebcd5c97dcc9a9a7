// Package core exposes the bootstrapped built-in prototypes to script code
// under the "core" module, grounded on
// original_source/src/modules/core.cpp (which does exactly this:
// surfacing Object/Array/Boolean/Number/String as module properties so
// user code can extend them, e.g. `object X clones core.Number end`).
package core

import (
	"emerald/internal/heap"
	"emerald/internal/module"
	"emerald/internal/object"
)

func init() {
	module.RegisterNativeInit("core", New)
}

func New(h *heap.Heap, protos *object.Prototypes) *object.Object {
	mod := object.NewModule(h, protos.Module, "core", nil, true)
	_ = mod.SetProperty("Object", protos.Object)
	_ = mod.SetProperty("Array", protos.Array)
	_ = mod.SetProperty("Boolean", protos.Boolean)
	_ = mod.SetProperty("Number", protos.Number)
	_ = mod.SetProperty("String", protos.String)
	_ = mod.SetProperty("Function", protos.Function)
	_ = mod.SetProperty("Exception", protos.Exception)
	return mod
}
