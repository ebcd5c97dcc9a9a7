package process

import "emerald/internal/object"

// CloneForSend deep-clones msg onto dst's heap so that no pointer ever
// crosses a heap boundary (spec.md §5's "processes share no memory"
// invariant). cache preserves aliasing and breaks cycles within a single
// message graph, matching Object identity within one Send the way a
// structural clone of a cyclic graph must.
//
// Well-known prototypes (Number, String, Boolean's True/False, ...) are
// remapped by role rather than cloned, so a cloned value's prototype chain
// still terminates at the destination process's own bootstrapped
// prototypes and magic-method dispatch keeps working after delivery.
func CloneForSend(msg *object.Object, src, dst *Process) *object.Object {
	cache := make(map[*object.Object]*object.Object)
	return cloneRec(msg, src, dst, cache)
}

func cloneRec(o *object.Object, src, dst *Process, cache map[*object.Object]*object.Object) *object.Object {
	if o == nil {
		return nil
	}
	if remapped, ok := remapWellKnown(o, src, dst); ok {
		return remapped
	}
	if existing, ok := cache[o]; ok {
		return existing
	}

	var clone *object.Object
	switch o.Kind {
	case object.KindNumber:
		clone = object.NewNumber(dst.heap, nil, o.Num())
	case object.KindString:
		clone = object.NewString(dst.heap, nil, o.Str())
	case object.KindNull:
		clone = dst.protos.NullValue
		cache[o] = clone
		return clone
	case object.KindArray:
		clone = object.NewArray(dst.heap, nil, nil)
		cache[o] = clone
		elems := make([]*object.Object, len(o.Elems()))
		for i, e := range o.Elems() {
			elems[i] = cloneRec(e, src, dst, cache)
		}
		clone.SetElems(elems)
	case object.KindException:
		clone = object.NewException(dst.heap, nil, o.Message())
	case object.KindFunction, object.KindNativeFunction, object.KindModule:
		// Code, closures, and module handles are not sendable across a
		// heap boundary; deliver an Exception object in their place rather
		// than a torn cross-heap reference. The receiver gets it as an
		// ordinary value: nothing is raised on either side.
		clone = object.NewException(dst.heap, dst.protos.Exception, "cannot send non-data value across processes")
		cache[o] = clone
		return clone
	default:
		clone = object.New(dst.heap, nil)
	}
	cache[o] = clone

	clone.SetParent(cloneRec(o.Parent(), src, dst, cache))
	for k, v := range o.Properties() {
		_ = clone.SetProperty(k, cloneRec(v, src, dst, cache))
	}
	return clone
}

// remapWellKnown maps a value that is one of src's bootstrapped singleton
// prototypes or Booleans onto dst's equivalent, preserving prototype-chain
// and Boolean-singleton identity (invariant 5) across the clone.
func remapWellKnown(o *object.Object, src, dst *Process) (*object.Object, bool) {
	sp, dp := src.protos, dst.protos
	switch o {
	case sp.Object:
		return dp.Object, true
	case sp.Number:
		return dp.Number, true
	case sp.String:
		return dp.String, true
	case sp.Boolean:
		return dp.Boolean, true
	case sp.Null:
		return dp.Null, true
	case sp.Array:
		return dp.Array, true
	case sp.Function:
		return dp.Function, true
	case sp.NativeFunction:
		return dp.NativeFunction, true
	case sp.Module:
		return dp.Module, true
	case sp.Exception:
		return dp.Exception, true
	case sp.True:
		return dp.True, true
	case sp.False:
		return dp.False, true
	case sp.NullValue:
		return dp.NullValue, true
	default:
		return nil, false
	}
}
