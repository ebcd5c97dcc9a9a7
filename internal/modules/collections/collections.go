// Package collections provides Stack, Queue and Set beyond the core
// Array, grounded on original_source/src/modules/collections.cpp's
// queue_*/set_*/stack_* native functions (SPEC_FULL.md §3). Each is built
// as an Array-kind prototype (parent Protos().Array) so it inherits
// Array's __eq__/__clone__/size for free via AncestorWithKind(KindArray),
// and only the operations that differ from a plain Array — enqueue/
// dequeue order, set uniqueness — are defined here.
package collections

import (
	"emerald/internal/heap"
	"emerald/internal/module"
	"emerald/internal/nativefn"
	"emerald/internal/object"
)

func init() {
	module.RegisterNativeInit("collections", New)
}

func elemsOf(o *object.Object) ([]*object.Object, *object.Object, bool) {
	anc, ok := o.AncestorWithKind(object.KindArray)
	return anc.Elems(), anc, ok
}

func self(args []*object.Object) *object.Object {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func New(h *heap.Heap, protos *object.Prototypes) *object.Object {
	mod := object.NewModule(h, protos.Module, "collections", nil, true)

	mod_ := func(name string, build func(proto *object.Object)) {
		proto := object.NewArray(h, protos.Array, nil)
		build(proto)
		_ = mod.SetProperty(name, proto)
	}

	mod_("Queue", func(proto *object.Object) {
		nativefn.Def(h, protos, proto, "enqueue", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			_, anc, ok := elemsOf(self(args))
			if !ok {
				return nil, ctx.Raise("type error", "enqueue: receiver is not a Queue")
			}
			if len(args) < 2 {
				return nil, ctx.Raise("arity error", "enqueue expects 1 argument")
			}
			anc.SetElems(append(anc.Elems(), args[1]))
			return nativefn.NewNum(ctx, float64(len(anc.Elems()))), nil
		})
		nativefn.Def(h, protos, proto, "dequeue", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, anc, ok := elemsOf(self(args))
			if !ok {
				return nil, ctx.Raise("type error", "dequeue: receiver is not a Queue")
			}
			if len(e) == 0 {
				return nil, ctx.Raise("domain error", "dequeue on empty Queue")
			}
			front := e[0]
			anc.SetElems(e[1:])
			return front, nil
		})
		nativefn.Def(h, protos, proto, "peek", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, _, ok := elemsOf(self(args))
			if !ok || len(e) == 0 {
				return nil, ctx.Raise("domain error", "peek on empty Queue")
			}
			return e[0], nil
		})
		nativefn.Def(h, protos, proto, "empty", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, _, _ := elemsOf(self(args))
			return nativefn.NewBool(ctx, len(e) == 0), nil
		})
	})

	mod_("Stack", func(proto *object.Object) {
		nativefn.Def(h, protos, proto, "push", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			_, anc, ok := elemsOf(self(args))
			if !ok {
				return nil, ctx.Raise("type error", "push: receiver is not a Stack")
			}
			if len(args) < 2 {
				return nil, ctx.Raise("arity error", "push expects 1 argument")
			}
			anc.SetElems(append(anc.Elems(), args[1]))
			return nativefn.NewNum(ctx, float64(len(anc.Elems()))), nil
		})
		nativefn.Def(h, protos, proto, "pop", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, anc, ok := elemsOf(self(args))
			if !ok {
				return nil, ctx.Raise("type error", "pop: receiver is not a Stack")
			}
			if len(e) == 0 {
				return nil, ctx.Raise("domain error", "pop on empty Stack")
			}
			top := e[len(e)-1]
			anc.SetElems(e[:len(e)-1])
			return top, nil
		})
		nativefn.Def(h, protos, proto, "peek", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, _, ok := elemsOf(self(args))
			if !ok || len(e) == 0 {
				return nil, ctx.Raise("domain error", "peek on empty Stack")
			}
			return e[len(e)-1], nil
		})
		nativefn.Def(h, protos, proto, "empty", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, _, _ := elemsOf(self(args))
			return nativefn.NewBool(ctx, len(e) == 0), nil
		})
	})

	mod_("Set", func(proto *object.Object) {
		eq := func(ctx object.NativeContext, a, b *object.Object) (bool, *object.Object) {
			method, ok := a.GetProperty(object.MagicMethods.Eq)
			if !ok {
				return a == b, nil
			}
			r, exc := ctx.Call(method, []*object.Object{a, b})
			if exc != nil {
				return false, exc
			}
			return r.DefaultAsBool(), nil
		}
		nativefn.Def(h, protos, proto, "add", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, anc, ok := elemsOf(self(args))
			if !ok {
				return nil, ctx.Raise("type error", "add: receiver is not a Set")
			}
			if len(args) < 2 {
				return nil, ctx.Raise("arity error", "add expects 1 argument")
			}
			for _, existing := range e {
				same, exc := eq(ctx, existing, args[1])
				if exc != nil {
					return nil, exc
				}
				if same {
					return nativefn.NewBool(ctx, false), nil
				}
			}
			anc.SetElems(append(e, args[1]))
			return nativefn.NewBool(ctx, true), nil
		})
		nativefn.Def(h, protos, proto, "contains", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, _, ok := elemsOf(self(args))
			if !ok {
				return nil, ctx.Raise("type error", "contains: receiver is not a Set")
			}
			if len(args) < 2 {
				return nil, ctx.Raise("arity error", "contains expects 1 argument")
			}
			for _, existing := range e {
				same, exc := eq(ctx, existing, args[1])
				if exc != nil {
					return nil, exc
				}
				if same {
					return nativefn.NewBool(ctx, true), nil
				}
			}
			return nativefn.NewBool(ctx, false), nil
		})
		nativefn.Def(h, protos, proto, "remove", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, anc, ok := elemsOf(self(args))
			if !ok {
				return nil, ctx.Raise("type error", "remove: receiver is not a Set")
			}
			if len(args) < 2 {
				return nil, ctx.Raise("arity error", "remove expects 1 argument")
			}
			for i, existing := range e {
				same, exc := eq(ctx, existing, args[1])
				if exc != nil {
					return nil, exc
				}
				if same {
					anc.SetElems(append(e[:i], e[i+1:]...))
					return nativefn.NewBool(ctx, true), nil
				}
			}
			return nativefn.NewBool(ctx, false), nil
		})
		nativefn.Def(h, protos, proto, "empty", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
			e, _, _ := elemsOf(self(args))
			return nativefn.NewBool(ctx, len(e) == 0), nil
		})
	})

	return mod
}
