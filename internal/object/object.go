// Package object implements the prototype-chained value model described
// in spec.md §3 and §4.2: every runtime value is an Object with an
// optional single parent, an own property map, and a type tag
// distinguishing the built-in variants.
//
// Rather than a class hierarchy (Number, String, ... each a distinct Go
// type implementing a common interface) this uses one tagged struct, in
// the spirit of the design note favoring a single variant over deep
// inheritance: exhaustive switches over Kind replace virtual dispatch,
// and every Object — builtin or user-defined — can carry arbitrary
// properties and participate in prototype chaining uniformly.
package object

import (
	"fmt"

	"emerald/internal/code"
	"emerald/internal/heap"
)

// Kind distinguishes the built-in variants named in spec.md §3.
type Kind uint8

const (
	KindObject Kind = iota
	KindNumber
	KindString
	KindBoolean
	KindNull
	KindArray
	KindFunction
	KindNativeFunction
	KindModule
	KindException
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "Object"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindBoolean:
		return "Boolean"
	case KindNull:
		return "Null"
	case KindArray:
		return "Array"
	case KindFunction:
		return "Function"
	case KindNativeFunction:
		return "NativeFunction"
	case KindModule:
		return "Module"
	case KindException:
		return "Exception"
	default:
		return "?"
	}
}

// NativeFunc is the uniform native calling convention from spec.md §6:
// for a method call (and for magic methods) args[0] is the receiver; a
// function reached through an imported module's name gets no receiver, so
// its first argument is args[0]. ctx grants heap/call access, and the
// function returns either a result or an exception Object (never both).
type NativeFunc func(args []*Object, ctx NativeContext) (*Object, *Object)

// NativeContext is the capability surface a native function receives. It
// is implemented by the owning Process (internal/process) so that object
// never imports process, avoiding an import cycle.
type NativeContext interface {
	Heap() *heap.Heap
	Protos() *Prototypes
	// Call invokes a callable Object (Function, NativeFunction, or an
	// object resolving __call__) with args, as the `call` opcode would.
	Call(callable *Object, args []*Object) (*Object, *Object)
	// Raise builds an Exception Object carrying message, tagged with kind
	// for diagnostics (spec.md §7's error taxonomy).
	Raise(kind string, message string) *Object
	// PushNativeFrame anchors args/locals as GC roots for the duration of
	// a native call (spec.md §4.5, §6); pop must be called exactly once.
	PushNativeFrame(args []*Object) (frame *NativeFrame, pop func())
}

// Object is every runtime value.
type Object struct {
	heap.Base

	Kind   Kind
	parent *Object
	props  map[string]*Object

	num     float64
	str     string
	boolean bool
	elems   []*Object

	fn        *code.Code
	fnGlobals *Object // captured globals Module

	native     NativeFunc
	nativeName string

	message string // Exception

	modName   string
	modCode   *code.Code
	modNative bool
}

// New allocates a plain Object with the given parent on h, registering it
// for GC. Most constructors below delegate here.
func New(h *heap.Heap, parent *Object) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindObject, parent: parent}
	h.Register(o)
	return o
}

func NewNumber(h *heap.Heap, parent *Object, v float64) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindNumber, parent: parent, num: v}
	h.Register(o)
	return o
}

func NewString(h *heap.Heap, parent *Object, v string) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindString, parent: parent, str: v}
	h.Register(o)
	return o
}

// NewBooleanInstance constructs a Boolean-kind Object. Callers outside this
// package should use Prototypes.True/Prototypes.False instead of calling
// this more than once per process, to uphold invariant 5 (singleton
// identity).
func NewBooleanInstance(h *heap.Heap, parent *Object, v bool) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindBoolean, parent: parent, boolean: v}
	h.Register(o)
	return o
}

func NewNull(h *heap.Heap, parent *Object) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindNull, parent: parent}
	h.Register(o)
	return o
}

func NewArray(h *heap.Heap, parent *Object, elems []*Object) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindArray, parent: parent, elems: elems}
	h.Register(o)
	return o
}

func NewFunction(h *heap.Heap, parent *Object, c *code.Code, globals *Object) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindFunction, parent: parent, fn: c, fnGlobals: globals}
	h.Register(o)
	return o
}

func NewNativeFunction(h *heap.Heap, parent *Object, name string, fn NativeFunc) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindNativeFunction, parent: parent, native: fn, nativeName: name}
	h.Register(o)
	return o
}

func NewModule(h *heap.Heap, parent *Object, name string, c *code.Code, native bool) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindModule, parent: parent, modName: name, modCode: c, modNative: native}
	h.Register(o)
	return o
}

func NewException(h *heap.Heap, parent *Object, message string) *Object {
	o := &Object{Base: heap.NewBase(h), Kind: KindException, parent: parent, message: message}
	h.Register(o)
	return o
}

// Reach implements heap.Managed: an object reaches its parent, its own
// property values, and any variant-specific payload references
// (spec.md §4.5 step 2).
func (o *Object) Reach() []heap.Managed {
	var out []heap.Managed
	if o.parent != nil {
		out = append(out, o.parent)
	}
	for _, v := range o.props {
		if v != nil {
			out = append(out, v)
		}
	}
	switch o.Kind {
	case KindArray:
		for _, e := range o.elems {
			if e != nil {
				out = append(out, e)
			}
		}
	case KindFunction:
		if o.fnGlobals != nil {
			out = append(out, o.fnGlobals)
		}
	}
	return out
}

// Parent returns the single prototype, or nil for the root Object
// prototype and for Null.
func (o *Object) Parent() *Object { return o.parent }

// SetParent rebinds the prototype (used by process.CloneForSend to link a
// copied object to its copied parent).
func (o *Object) SetParent(p *Object) { o.parent = p }

// GetProperty implements the chained lookup of spec.md §4.2 step 1-3.
func (o *Object) GetProperty(key string) (*Object, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		if cur.Kind == KindNull {
			return nil, false
		}
		if v, ok := cur.props[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// GetOwnProperty inspects only the immediate map.
func (o *Object) GetOwnProperty(key string) (*Object, bool) {
	v, ok := o.props[key]
	return v, ok
}

// HasProperty follows the same chain as GetProperty.
func (o *Object) HasProperty(key string) bool {
	_, ok := o.GetProperty(key)
	return ok
}

// HasOwnProperty inspects only the immediate map.
func (o *Object) HasOwnProperty(key string) bool {
	_, ok := o.props[key]
	return ok
}

// SetProperty always writes to the immediate map, never shadow-writing
// through the chain (spec.md §4.2). Null forbids property writes
// (invariant 7).
func (o *Object) SetProperty(key string, val *Object) error {
	if o.Kind == KindNull {
		return fmt.Errorf("cannot set property %q on null", key)
	}
	if o.props == nil {
		o.props = make(map[string]*Object)
	}
	o.props[key] = val
	return nil
}

// Properties exposes the immediate map for iteration (module exports,
// object literals); insertion order is not observable, matching spec.md §3.
func (o *Object) Properties() map[string]*Object { return o.props }

// Num, Str, Bool, Elems, FuncCode, FuncGlobals, Native, Message, ModuleName,
// ModuleCode and IsNativeModule expose variant payloads to the interpreter
// and native modules.
func (o *Object) Num() float64            { return o.num }
func (o *Object) SetNum(v float64)        { o.num = v }
func (o *Object) Str() string             { return o.str }
func (o *Object) Bool() bool              { return o.boolean }
func (o *Object) Elems() []*Object        { return o.elems }
func (o *Object) SetElems(e []*Object)    { o.elems = e }
func (o *Object) FuncCode() *code.Code    { return o.fn }
func (o *Object) FuncGlobals() *Object    { return o.fnGlobals }
func (o *Object) Native() NativeFunc      { return o.native }
func (o *Object) NativeName() string      { return o.nativeName }
func (o *Object) Message() string         { return o.message }
func (o *Object) ModuleName() string      { return o.modName }
func (o *Object) ModuleCode() *code.Code  { return o.modCode }
func (o *Object) IsNativeModule() bool    { return o.modNative }

// AncestorWithKind walks the prototype chain starting at o (inclusive)
// and returns the nearest ancestor tagged with kind. This lets a
// prototype's magic-method implementation (itself attached to, say,
// number_proto) act correctly when inherited by a user object whose
// chain passes through a concrete Number instance — e.g.
// `object Y clones someNumber end` — by reading the value off that
// concrete ancestor rather than off the immediate receiver.
func (o *Object) AncestorWithKind(kind Kind) (*Object, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		if cur.Kind == kind {
			return cur, true
		}
	}
	return nil, false
}

// DefaultAsBool implements the fallback truthiness rules of spec.md §4.3,
// used when no __boolean__ resolves (objects with no prototype chain, and
// Null, on which GetProperty never resolves) and by the Object prototype's
// own __boolean__.
func (o *Object) DefaultAsBool() bool {
	switch o.Kind {
	case KindBoolean:
		return o.boolean
	case KindNumber:
		return o.num != 0
	case KindString:
		return o.str != ""
	case KindArray:
		return len(o.elems) > 0
	case KindNull:
		return false
	default:
		return true
	}
}

// DefaultAsStr implements the fallback stringification of spec.md §4.3.
func (o *Object) DefaultAsStr() string {
	switch o.Kind {
	case KindNumber:
		return formatNumber(o.num)
	case KindString:
		return o.str
	case KindBoolean:
		if o.boolean {
			return "true"
		}
		return "false"
	case KindNull:
		return "null"
	case KindArray:
		s := "["
		for i, e := range o.elems {
			if i > 0 {
				s += ", "
			}
			if e != nil {
				s += e.DefaultAsStr()
			}
		}
		return s + "]"
	case KindFunction:
		return fmt.Sprintf("<function %s>", o.fn.Label)
	case KindNativeFunction:
		return fmt.Sprintf("<native function %s>", o.nativeName)
	case KindModule:
		return fmt.Sprintf("<module %s>", o.modName)
	case KindException:
		return "Exception: " + o.message
	default:
		return fmt.Sprintf("<object at %p>", o)
	}
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
