// Package nativefn provides the argument-checking and result-building
// helpers every native module (internal/modules/...) is built on, so each
// module's functions read like the teacher's internal/stdlib helpers
// rather than repeating arity/type checks inline.
package nativefn

import (
	"fmt"

	"emerald/internal/errors"
	"emerald/internal/heap"
	"emerald/internal/object"
)

// Arity raises an ArityError unless len(args) is within [min, max] (max < 0
// means unbounded), for name being the qualified function name used in the
// message (e.g. "process.send").
func Arity(ctx object.NativeContext, name string, args []*object.Object, min, max int) *object.Object {
	n := len(args)
	if n < min || (max >= 0 && n > max) {
		return ctx.Raise(string(errors.ArityError), fmt.Sprintf("%s expects %s, got %d", name, arityDesc(min, max), n))
	}
	return nil
}

func arityDesc(min, max int) string {
	switch {
	case max < 0:
		return fmt.Sprintf("at least %d argument(s)", min)
	case min == max:
		return fmt.Sprintf("%d argument(s)", min)
	default:
		return fmt.Sprintf("between %d and %d argument(s)", min, max)
	}
}

// Num extracts a float64 from args[i], raising a TypeError if it is not a
// Number.
func Num(ctx object.NativeContext, args []*object.Object, i int, who string) (float64, *object.Object) {
	if i >= len(args) || args[i].Kind != object.KindNumber {
		return 0, ctx.Raise(string(errors.TypeError), fmt.Sprintf("%s: argument %d must be a Number", who, i))
	}
	return args[i].Num(), nil
}

// Str extracts a string from args[i], raising a TypeError if it is not a
// String.
func Str(ctx object.NativeContext, args []*object.Object, i int, who string) (string, *object.Object) {
	if i >= len(args) || args[i].Kind != object.KindString {
		return "", ctx.Raise(string(errors.TypeError), fmt.Sprintf("%s: argument %d must be a String", who, i))
	}
	return args[i].Str(), nil
}

// Arr extracts the element slice from args[i], raising a TypeError if it is
// not an Array.
func Arr(ctx object.NativeContext, args []*object.Object, i int, who string) ([]*object.Object, *object.Object) {
	if i >= len(args) || args[i].Kind != object.KindArray {
		return nil, ctx.Raise(string(errors.TypeError), fmt.Sprintf("%s: argument %d must be an Array", who, i))
	}
	return args[i].Elems(), nil
}

// NewStr builds a fresh String Object on ctx's heap.
func NewStr(ctx object.NativeContext, v string) *object.Object {
	return object.NewString(ctx.Heap(), ctx.Protos().String, v)
}

// NewNum builds a fresh Number Object on ctx's heap.
func NewNum(ctx object.NativeContext, v float64) *object.Object {
	return object.NewNumber(ctx.Heap(), ctx.Protos().Number, v)
}

// NewArr builds a fresh Array Object on ctx's heap.
func NewArr(ctx object.NativeContext, elems []*object.Object) *object.Object {
	return object.NewArray(ctx.Heap(), ctx.Protos().Array, elems)
}

// NewBool returns the canonical True/False singleton for v (invariant 5:
// Booleans are never cloned).
func NewBool(ctx object.NativeContext, v bool) *object.Object {
	if v {
		return ctx.Protos().True
	}
	return ctx.Protos().False
}

// Wrap translates a Go-level error returned by a driver (database/sql,
// bcrypt, the websocket dial, ...) into the DomainError exception a native
// module raises across the language boundary (spec.md §7, SPEC_FULL.md §1's
// database/net/crypto modules), so callers never propagate a bare Go error.
func Wrap(ctx object.NativeContext, err error) *object.Object {
	if err == nil {
		return nil
	}
	return ctx.Raise(string(errors.DomainError), err.Error())
}

// Def attaches a native function to target under name, for a module's
// NativeInit to populate its exported Module object at construction time
// (before any Process/NativeContext exists), mirroring object.Prototypes'
// own def/nf helpers.
func Def(h *heap.Heap, protos *object.Prototypes, target *object.Object, name string, fn object.NativeFunc) {
	_ = target.SetProperty(name, object.NewNativeFunction(h, protos.NativeFunction, name, fn))
}

// DefOn is Def's counterpart for native functions that build and populate
// an Object at call time (e.g. a database handle or websocket connection
// returned from an open/dial call), when a NativeContext is available
// instead of a bare heap/prototypes pair.
func DefOn(ctx object.NativeContext, target *object.Object, name string, fn object.NativeFunc) {
	Def(ctx.Heap(), ctx.Protos(), target, name, fn)
}
