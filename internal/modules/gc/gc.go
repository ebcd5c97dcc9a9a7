// Package gc exposes the per-process heap to script code, grounded
// directly on original_source/src/modules/gc.cpp and
// include/emerald/modules/gc.h's collect/total_allocated_objects/threshold
// trio (SPEC_FULL.md §3).
package gc

import (
	"emerald/internal/heap"
	"emerald/internal/module"
	"emerald/internal/nativefn"
	"emerald/internal/object"
)

func init() {
	module.RegisterNativeInit("gc", New)
}

// New constructs the gc module's exported Object. Each process gets its
// own fresh instance since it closes over nothing but ctx at call time.
func New(h *heap.Heap, protos *object.Prototypes) *object.Object {
	mod := object.NewModule(h, protos.Module, "gc", nil, true)

	nativefn.Def(h, protos, mod, "collect", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		ctx.Heap().Collect()
		return ctx.Protos().NullValue, nil
	})

	nativefn.Def(h, protos, mod, "object_count", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		return nativefn.NewNum(ctx, float64(ctx.Heap().Count())), nil
	})

	nativefn.Def(h, protos, mod, "threshold", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		return nativefn.NewNum(ctx, float64(ctx.Heap().Threshold())), nil
	})

	nativefn.Def(h, protos, mod, "stats", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		return nativefn.NewStr(ctx, ctx.Heap().Stats()), nil
	})

	return mod
}
