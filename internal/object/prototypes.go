package object

import (
	"emerald/internal/heap"
)

// MagicMethods is the fixed set of well-known property names the
// interpreter resolves for operators and protocols (spec.md §4.2).
var MagicMethods = struct {
	Add, Sub, Mul, Div, Mod                         string
	IAdd, ISub, IMul, IDiv, IMod                     string
	Neg                                              string
	Eq, Neq, Lt, Gt, Lte, Gte                        string
	BitNot, BitOr, BitXor, BitAnd, BitShl, BitShr    string
	Str, Boolean                                     string
	Call, Clone, Init                                string
	Iter, Cur, Done, Next                            string
}{
	Add: "__add__", Sub: "__sub__", Mul: "__mul__", Div: "__div__", Mod: "__mod__",
	IAdd: "__iadd__", ISub: "__isub__", IMul: "__imul__", IDiv: "__idiv__", IMod: "__imod__",
	Neg: "__neg__",
	Eq:  "__eq__", Neq: "__neq__", Lt: "__lt__", Gt: "__gt__", Lte: "__lte__", Gte: "__gte__",
	BitNot: "__bit_not__", BitOr: "__bit_or__", BitXor: "__bit_xor__", BitAnd: "__bit_and__",
	BitShl: "__bit_shl__", BitShr: "__bit_shr__",
	Str: "__str__", Boolean: "__boolean__",
	Call: "__call__", Clone: "__clone__", Init: "__init__",
	Iter: "__iter__", Cur: "__cur__", Done: "__done__", Next: "__next__",
}

// Prototypes holds the native prototype objects every process bootstraps
// its heap with, plus the canonical Boolean singletons (invariant 5).
// It is itself a heap.RootSource: none of its prototypes may ever be
// swept while the process is alive.
type Prototypes struct {
	Object         *Object
	Number         *Object
	String         *Object
	Boolean        *Object
	Null           *Object
	Array          *Object
	Function       *Object
	NativeFunction *Object
	Module         *Object
	Exception      *Object

	True  *Object
	False *Object

	NullValue *Object
}

// Roots implements heap.RootSource.
func (p *Prototypes) Roots() []heap.Managed {
	return []heap.Managed{
		p.Object, p.Number, p.String, p.Boolean, p.Null, p.Array,
		p.Function, p.NativeFunction, p.Module, p.Exception,
		p.True, p.False, p.NullValue,
	}
}

func nf(h *heap.Heap, parent *Object, name string, fn NativeFunc) *Object {
	return NewNativeFunction(h, parent, name, fn)
}

func def(h *heap.Heap, o *Object, name string, fn NativeFunc) {
	_ = o.SetProperty(name, nf(h, nil, name, fn))
}

// Bootstrap constructs a fresh prototype hierarchy on h, wiring every
// built-in magic method (spec.md §4.2, §4.3) as a NativeFunction
// attached to the appropriate prototype. Every process calls this once
// when its heap is created.
func Bootstrap(h *heap.Heap) *Prototypes {
	p := &Prototypes{}

	p.Object = New(h, nil)
	p.Number = New(h, p.Object)
	p.String = New(h, p.Object)
	p.Boolean = New(h, p.Object)
	p.Null = New(h, nil)
	p.Array = New(h, p.Object)
	p.Function = New(h, p.Object)
	p.NativeFunction = New(h, p.Object)
	p.Module = New(h, p.Object)
	p.Exception = New(h, p.Object)

	p.True = NewBooleanInstance(h, p.Boolean, true)
	p.False = NewBooleanInstance(h, p.Boolean, false)
	p.NullValue = &Object{Base: heap.NewBase(h), Kind: KindNull, parent: p.Null}
	h.Register(p.NullValue)

	bootstrapObject(h, p)
	bootstrapNumber(h, p)
	bootstrapString(h, p)
	bootstrapBoolean(h, p)
	bootstrapArray(h, p)
	bootstrapException(h, p)

	return p
}

func raiseType(ctx NativeContext, msg string) *Object { return ctx.Raise("type error", msg) }

func selfArg(args []*Object) *Object {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func bootstrapObject(h *heap.Heap, p *Prototypes) {
	o := p.Object
	def(h, o, MagicMethods.Eq, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		if len(args) < 2 {
			return ctx.Protos().False, nil
		}
		if args[0] == args[1] {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	def(h, o, MagicMethods.Neq, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		if len(args) < 2 || args[0] != args[1] {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	def(h, o, MagicMethods.Str, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		return NewString(ctx.Heap(), ctx.Protos().String, self.DefaultAsStr()), nil
	})
	def(h, o, MagicMethods.Boolean, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		if self.DefaultAsBool() {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	def(h, o, MagicMethods.Clone, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		child := New(ctx.Heap(), self)
		return child, nil
	})
}

func bootstrapNumber(h *heap.Heap, p *Prototypes) {
	n := p.Number
	numOf := func(o *Object) (float64, bool) {
		a, ok := o.AncestorWithKind(KindNumber)
		if !ok {
			return 0, false
		}
		return a.num, true
	}
	binop := func(name string, f func(a, b float64) float64) {
		def(h, n, name, func(args []*Object, ctx NativeContext) (*Object, *Object) {
			if len(args) < 2 {
				return nil, raiseType(ctx, name+": missing operand")
			}
			a, ok1 := numOf(args[0])
			b, ok2 := numOf(args[1])
			if !ok1 || !ok2 {
				return nil, raiseType(ctx, name+": operand is not a Number")
			}
			return NewNumber(ctx.Heap(), ctx.Protos().Number, f(a, b)), nil
		})
	}
	cmp := func(name string, f func(a, b float64) bool) {
		def(h, n, name, func(args []*Object, ctx NativeContext) (*Object, *Object) {
			if len(args) < 2 {
				return nil, raiseType(ctx, name+": missing operand")
			}
			a, ok1 := numOf(args[0])
			b, ok2 := numOf(args[1])
			if !ok1 || !ok2 {
				return nil, raiseType(ctx, name+": operand is not a Number")
			}
			if f(a, b) {
				return ctx.Protos().True, nil
			}
			return ctx.Protos().False, nil
		})
	}

	binop(MagicMethods.Add, func(a, b float64) float64 { return a + b })
	binop(MagicMethods.Sub, func(a, b float64) float64 { return a - b })
	binop(MagicMethods.Mul, func(a, b float64) float64 { return a * b })
	def(h, n, MagicMethods.Div, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, _ := numOf(args[0])
		b, ok := numOf(args[1])
		if !ok {
			return nil, raiseType(ctx, "__div__: operand is not a Number")
		}
		if b == 0 {
			return nil, ctx.Raise("domain error", "division by zero")
		}
		return NewNumber(ctx.Heap(), ctx.Protos().Number, a/b), nil
	})
	def(h, n, MagicMethods.Mod, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, _ := numOf(args[0])
		b, ok := numOf(args[1])
		if !ok {
			return nil, raiseType(ctx, "__mod__: operand is not a Number")
		}
		if b == 0 {
			return nil, ctx.Raise("domain error", "modulo by zero")
		}
		r := a - b*float64(int64(a/b))
		return NewNumber(ctx.Heap(), ctx.Protos().Number, r), nil
	})
	def(h, n, MagicMethods.Neg, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, ok := numOf(args[0])
		if !ok {
			return nil, raiseType(ctx, "__neg__: operand is not a Number")
		}
		return NewNumber(ctx.Heap(), ctx.Protos().Number, -a), nil
	})

	cmp(MagicMethods.Eq, func(a, b float64) bool { return a == b })
	cmp(MagicMethods.Neq, func(a, b float64) bool { return a != b })
	cmp(MagicMethods.Lt, func(a, b float64) bool { return a < b })
	cmp(MagicMethods.Gt, func(a, b float64) bool { return a > b })
	cmp(MagicMethods.Lte, func(a, b float64) bool { return a <= b })
	cmp(MagicMethods.Gte, func(a, b float64) bool { return a >= b })

	bitop := func(name string, f func(a, b int64) int64) {
		def(h, n, name, func(args []*Object, ctx NativeContext) (*Object, *Object) {
			a, ok1 := numOf(args[0])
			b, ok2 := numOf(args[1])
			if !ok1 || !ok2 {
				return nil, raiseType(ctx, name+": operand is not a Number")
			}
			return NewNumber(ctx.Heap(), ctx.Protos().Number, float64(f(int64(a), int64(b)))), nil
		})
	}
	bitop(MagicMethods.BitOr, func(a, b int64) int64 { return a | b })
	bitop(MagicMethods.BitXor, func(a, b int64) int64 { return a ^ b })
	bitop(MagicMethods.BitAnd, func(a, b int64) int64 { return a & b })
	bitop(MagicMethods.BitShl, func(a, b int64) int64 { return a << uint(b) })
	bitop(MagicMethods.BitShr, func(a, b int64) int64 { return a >> uint(b) })
	def(h, n, MagicMethods.BitNot, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, ok := numOf(args[0])
		if !ok {
			return nil, raiseType(ctx, "__bit_not__: operand is not a Number")
		}
		return NewNumber(ctx.Heap(), ctx.Protos().Number, float64(^int64(a))), nil
	})

	def(h, n, MagicMethods.Str, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, _ := numOf(args[0])
		return NewString(ctx.Heap(), ctx.Protos().String, formatNumber(a)), nil
	})
	def(h, n, MagicMethods.Boolean, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, _ := numOf(args[0])
		if a != 0 {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	def(h, n, MagicMethods.Clone, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		v, _ := numOf(self)
		return NewNumber(ctx.Heap(), self, v), nil
	})
}

func bootstrapString(h *heap.Heap, p *Prototypes) {
	s := p.String
	strOf := func(o *Object) (string, bool) {
		a, ok := o.AncestorWithKind(KindString)
		if !ok {
			return "", false
		}
		return a.str, true
	}
	def(h, s, MagicMethods.Add, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, ok1 := strOf(args[0])
		if !ok1 {
			return nil, raiseType(ctx, "__add__: operand is not a String")
		}
		var b string
		if len(args) > 1 && args[1] != nil {
			if sv, ok := strOf(args[1]); ok {
				b = sv
			} else {
				b = args[1].DefaultAsStr()
			}
		}
		return NewString(ctx.Heap(), ctx.Protos().String, a+b), nil
	})
	def(h, s, MagicMethods.Eq, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, ok1 := strOf(args[0])
		b, ok2 := strOf(args[1])
		if ok1 && ok2 && a == b {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	def(h, s, MagicMethods.Neq, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, ok1 := strOf(args[0])
		b, ok2 := strOf(args[1])
		if !ok1 || !ok2 || a != b {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	cmp := func(name string, f func(a, b string) bool) {
		def(h, s, name, func(args []*Object, ctx NativeContext) (*Object, *Object) {
			a, ok1 := strOf(args[0])
			b, ok2 := strOf(args[1])
			if !ok1 || !ok2 {
				return nil, raiseType(ctx, name+": operand is not a String")
			}
			if f(a, b) {
				return ctx.Protos().True, nil
			}
			return ctx.Protos().False, nil
		})
	}
	cmp(MagicMethods.Lt, func(a, b string) bool { return a < b })
	cmp(MagicMethods.Gt, func(a, b string) bool { return a > b })
	cmp(MagicMethods.Lte, func(a, b string) bool { return a <= b })
	cmp(MagicMethods.Gte, func(a, b string) bool { return a >= b })
	def(h, s, MagicMethods.Str, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, _ := strOf(args[0])
		return NewString(ctx.Heap(), ctx.Protos().String, a), nil
	})
	def(h, s, MagicMethods.Boolean, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, _ := strOf(args[0])
		if a != "" {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	def(h, s, MagicMethods.Clone, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		v, _ := strOf(self)
		return NewString(ctx.Heap(), self, v), nil
	})
}

func bootstrapBoolean(h *heap.Heap, p *Prototypes) {
	b := p.Boolean
	boolOf := func(o *Object) (bool, bool) {
		a, ok := o.AncestorWithKind(KindBoolean)
		if !ok {
			return false, false
		}
		return a.boolean, true
	}
	def(h, b, MagicMethods.Eq, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, ok1 := boolOf(args[0])
		c, ok2 := boolOf(args[1])
		if ok1 && ok2 && a == c {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	def(h, b, MagicMethods.Str, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, _ := boolOf(args[0])
		if a {
			return NewString(ctx.Heap(), ctx.Protos().String, "true"), nil
		}
		return NewString(ctx.Heap(), ctx.Protos().String, "false"), nil
	})
	def(h, b, MagicMethods.Boolean, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		a, _ := boolOf(args[0])
		if a {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	// Cloning true/false returns the canonical singleton unchanged
	// (invariant 5); cloning anything else that merely inherits from a
	// Boolean falls back to a generic parent-chained clone whose
	// __boolean__ still resolves, through the chain, to that ancestor.
	def(h, b, MagicMethods.Clone, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		if self == ctx.Protos().True || self == ctx.Protos().False {
			return self, nil
		}
		return New(ctx.Heap(), self), nil
	})
}

func bootstrapArray(h *heap.Heap, p *Prototypes) {
	a := p.Array
	elemsOf := func(o *Object) ([]*Object, bool) {
		anc, ok := o.AncestorWithKind(KindArray)
		if !ok {
			return nil, false
		}
		return anc.elems, true
	}
	def(h, a, MagicMethods.Eq, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		x, ok1 := elemsOf(args[0])
		y, ok2 := elemsOf(args[1])
		if !ok1 || !ok2 || len(x) != len(y) {
			return ctx.Protos().False, nil
		}
		for i := range x {
			r, exc := ctx.Call(resolveEq(x[i], ctx), []*Object{x[i], y[i]})
			if exc != nil {
				return nil, exc
			}
			if !r.DefaultAsBool() && r != ctx.Protos().True {
				return ctx.Protos().False, nil
			}
		}
		return ctx.Protos().True, nil
	})
	def(h, a, MagicMethods.Str, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		return NewString(ctx.Heap(), ctx.Protos().String, self.DefaultAsStr()), nil
	})
	def(h, a, MagicMethods.Boolean, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		e, _ := elemsOf(args[0])
		if len(e) > 0 {
			return ctx.Protos().True, nil
		}
		return ctx.Protos().False, nil
	})
	def(h, a, MagicMethods.Clone, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		e, _ := elemsOf(self)
		cp := make([]*Object, len(e))
		copy(cp, e)
		return NewArray(ctx.Heap(), self, cp), nil
	})
	def(h, a, "push", func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		anc, ok := self.AncestorWithKind(KindArray)
		if !ok {
			return nil, raiseType(ctx, "push: receiver is not an Array")
		}
		if len(args) < 2 {
			return nil, ctx.Raise("arity error", "push expects 1 argument")
		}
		anc.elems = append(anc.elems, args[1])
		return NewNumber(ctx.Heap(), ctx.Protos().Number, float64(len(anc.elems))), nil
	})
	def(h, a, "pop", func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		anc, ok := self.AncestorWithKind(KindArray)
		if !ok {
			return nil, raiseType(ctx, "pop: receiver is not an Array")
		}
		if len(anc.elems) == 0 {
			return nil, ctx.Raise("domain error", "pop on empty array")
		}
		last := anc.elems[len(anc.elems)-1]
		anc.elems = anc.elems[:len(anc.elems)-1]
		return last, nil
	})
	def(h, a, "size", func(args []*Object, ctx NativeContext) (*Object, *Object) {
		e, ok := elemsOf(selfArg(args))
		if !ok {
			return nil, raiseType(ctx, "size: receiver is not an Array")
		}
		return NewNumber(ctx.Heap(), ctx.Protos().Number, float64(len(e))), nil
	})
	def(h, a, "at", func(args []*Object, ctx NativeContext) (*Object, *Object) {
		e, ok := elemsOf(selfArg(args))
		if !ok {
			return nil, raiseType(ctx, "at: receiver is not an Array")
		}
		if len(args) < 2 {
			return nil, ctx.Raise("arity error", "at expects 1 argument")
		}
		i := int(args[1].Num())
		if i < 0 || i >= len(e) {
			return nil, ctx.Raise("domain error", "index out of range")
		}
		return e[i], nil
	})
}

func bootstrapException(h *heap.Heap, p *Prototypes) {
	e := p.Exception
	msgOf := func(o *Object) (string, bool) {
		a, ok := o.AncestorWithKind(KindException)
		if !ok {
			return "", false
		}
		return a.message, true
	}
	def(h, e, MagicMethods.Str, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		m, _ := msgOf(selfArg(args))
		return NewString(ctx.Heap(), ctx.Protos().String, "Exception: "+m), nil
	})
	def(h, e, MagicMethods.Clone, func(args []*Object, ctx NativeContext) (*Object, *Object) {
		self := selfArg(args)
		m, _ := msgOf(self)
		return NewException(ctx.Heap(), self, m), nil
	})
}

// resolveEq resolves __eq__ on o's chain, falling back to the receiver's
// own Object-proto identity check if absent (as for Null, on which
// GetProperty never resolves).
func resolveEq(o *Object, ctx NativeContext) *Object {
	if m, ok := o.GetProperty(MagicMethods.Eq); ok {
		return m
	}
	m, _ := ctx.Protos().Object.GetOwnProperty(MagicMethods.Eq)
	return m
}
