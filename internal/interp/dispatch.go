package interp

import (
	"fmt"

	"emerald/internal/code"
	"emerald/internal/frame"
	"emerald/internal/module"
	"emerald/internal/object"
	"emerald/internal/process"
)

// dispatch executes a single non-Ret instruction against f, returning an
// exception Object if evaluation raised one (Ret is handled by the caller
// since it changes control flow rather than data).
func (it *Interp) dispatch(p *process.Process, f *frame.Frame, instr code.Instruction) *object.Object {
	switch instr.Op {
	case code.Nop:
		return nil

	case code.Jmp:
		f.IP = int(instr.Args[0])
		return nil

	case code.JmpTrue, code.JmpFalse:
		cond := f.Pop()
		b, exc := it.asBool(p, cond)
		if exc != nil {
			return exc
		}
		if b == (instr.Op == code.JmpTrue) {
			f.IP = int(instr.Args[0])
		}
		return nil

	case code.Neg:
		return it.unop(p, f, object.MagicMethods.Neg)
	case code.BitNot:
		return it.unop(p, f, object.MagicMethods.BitNot)

	case code.Add:
		return it.binop(p, f, object.MagicMethods.Add, "")
	case code.Sub:
		return it.binop(p, f, object.MagicMethods.Sub, "")
	case code.Mul:
		return it.binop(p, f, object.MagicMethods.Mul, "")
	case code.Div:
		return it.binop(p, f, object.MagicMethods.Div, "")
	case code.Mod:
		return it.binop(p, f, object.MagicMethods.Mod, "")
	case code.IAdd:
		return it.binop(p, f, object.MagicMethods.IAdd, object.MagicMethods.Add)
	case code.ISub:
		return it.binop(p, f, object.MagicMethods.ISub, object.MagicMethods.Sub)
	case code.IMul:
		return it.binop(p, f, object.MagicMethods.IMul, object.MagicMethods.Mul)
	case code.IDiv:
		return it.binop(p, f, object.MagicMethods.IDiv, object.MagicMethods.Div)
	case code.IMod:
		return it.binop(p, f, object.MagicMethods.IMod, object.MagicMethods.Mod)
	case code.Eq:
		return it.binop(p, f, object.MagicMethods.Eq, "")
	case code.Neq:
		return it.binop(p, f, object.MagicMethods.Neq, "")
	case code.Lt:
		return it.binop(p, f, object.MagicMethods.Lt, "")
	case code.Gt:
		return it.binop(p, f, object.MagicMethods.Gt, "")
	case code.Lte:
		return it.binop(p, f, object.MagicMethods.Lte, "")
	case code.Gte:
		return it.binop(p, f, object.MagicMethods.Gte, "")
	case code.BitOr:
		return it.binop(p, f, object.MagicMethods.BitOr, "")
	case code.BitXor:
		return it.binop(p, f, object.MagicMethods.BitXor, "")
	case code.BitAnd:
		return it.binop(p, f, object.MagicMethods.BitAnd, "")
	case code.BitShl:
		return it.binop(p, f, object.MagicMethods.BitShl, "")
	case code.BitShr:
		return it.binop(p, f, object.MagicMethods.BitShr, "")

	case code.Str:
		v := f.Pop()
		s, exc := it.asStr(p, v)
		if exc != nil {
			return exc
		}
		f.Push(object.NewString(p.Heap(), p.Protos().String, s))
		return nil

	case code.Boolean:
		v := f.Pop()
		b, exc := it.asBool(p, v)
		if exc != nil {
			return exc
		}
		if b {
			f.Push(p.Protos().True)
		} else {
			f.Push(p.Protos().False)
		}
		return nil

	case code.Call:
		n := int(instr.Args[0])
		args := popN(f, n)
		callable := f.Pop()
		result, exc := it.invoke(p, callable, args)
		if exc != nil {
			return exc
		}
		f.Push(result)
		return nil

	case code.NewObj:
		return it.newObj(p, f, instr.Args[0] == 1, int(instr.Args[1]))

	case code.Init:
		n := int(instr.Args[0])
		args := popN(f, n)
		self := f.Pop()
		callArgs := append([]*object.Object{self}, args...)
		if method, ok := self.GetProperty(object.MagicMethods.Init); ok {
			if _, exc := it.invoke(p, method, callArgs); exc != nil {
				return exc
			}
		}
		f.Push(self)
		return nil

	case code.NewFunc:
		child := f.Code.Func(int(instr.Args[0]))
		f.Push(object.NewFunction(p.Heap(), p.Protos().Function, child, f.Globals))
		return nil

	case code.NewNum:
		f.Push(object.NewNumber(p.Heap(), p.Protos().Number, f.Code.NumConstant(int(instr.Args[0]))))
		return nil

	case code.NewStr:
		f.Push(object.NewString(p.Heap(), p.Protos().String, f.Code.StrConstant(int(instr.Args[0]))))
		return nil

	case code.NewBoolean:
		if instr.Args[0] == 1 {
			f.Push(p.Protos().True)
		} else {
			f.Push(p.Protos().False)
		}
		return nil

	case code.NewArr:
		n := int(instr.Args[0])
		elems := popN(f, n)
		f.Push(object.NewArray(p.Heap(), p.Protos().Array, elems))
		return nil

	case code.Null:
		f.Push(p.Protos().NullValue)
		return nil

	case code.GetProp:
		pushSelfBack := instr.Args[0] == 1
		key := f.Pop()
		obj := f.Pop()
		val, ok := obj.GetProperty(key.Str())
		if !ok {
			return p.Raise("name error", fmt.Sprintf("no such property: %s", key.Str()))
		}
		f.Push(val)
		if pushSelfBack {
			f.Push(obj)
		}
		return nil

	case code.HasProp:
		pushSelfBack := instr.Args[0] == 1
		key := f.Pop()
		obj := f.Pop()
		has := obj.HasProperty(key.Str())
		if pushSelfBack {
			f.Push(obj)
		}
		if has {
			f.Push(p.Protos().True)
		} else {
			f.Push(p.Protos().False)
		}
		return nil

	case code.SetProp:
		pushSelfBack := instr.Args[0] == 1
		obj := f.Pop()
		key := f.Pop()
		val := f.Pop()
		if err := obj.SetProperty(key.Str(), val); err != nil {
			return p.Raise("type error", err.Error())
		}
		if pushSelfBack {
			f.Push(obj)
		}
		return nil

	case code.GetParent:
		obj := f.Pop()
		if parent := obj.Parent(); parent != nil {
			f.Push(parent)
		} else {
			f.Push(p.Protos().NullValue)
		}
		return nil

	case code.Ldloc:
		v := f.Local(int(instr.Args[0]))
		if v == nil {
			v = p.Protos().NullValue
		}
		f.Push(v)
		return nil

	case code.Stloc:
		f.SetLocal(int(instr.Args[0]), f.Pop())
		return nil

	case code.Ldgbl:
		name := f.Code.GlobalName(int(instr.Args[0]))
		v, ok := f.Globals.GetOwnProperty(name)
		if !ok {
			return p.Raise("name error", fmt.Sprintf("undefined global: %s", name))
		}
		f.Push(v)
		return nil

	case code.Stgbl:
		name := f.Code.GlobalName(int(instr.Args[0]))
		_ = f.Globals.SetProperty(name, f.Pop())
		return nil

	case code.Print:
		v := f.Pop()
		s, exc := it.asStr(p, v)
		if exc != nil {
			return exc
		}
		fmt.Println(s)
		return nil

	case code.Import:
		name := f.Code.ImportName(int(instr.Args[0]))
		mod, exc := it.importModule(p, name)
		if exc != nil {
			return exc
		}
		f.Push(mod)
		return nil

	default:
		return p.Raise("internal error", fmt.Sprintf("unhandled opcode %s", instr.Op))
	}
}

func (it *Interp) unop(p *process.Process, f *frame.Frame, name string) *object.Object {
	v := f.Pop()
	method, ok := v.GetProperty(name)
	if !ok {
		return p.Raise("type error", fmt.Sprintf("%s has no method %s", v.Kind, name))
	}
	result, exc := it.invoke(p, method, []*object.Object{v})
	if exc != nil {
		return exc
	}
	f.Push(result)
	return nil
}

func (it *Interp) binop(p *process.Process, f *frame.Frame, primary, fallback string) *object.Object {
	rhs := f.Pop()
	lhs := f.Pop()
	method, ok := lhs.GetProperty(primary)
	if !ok && fallback != "" {
		method, ok = lhs.GetProperty(fallback)
	}
	if !ok {
		return p.Raise("type error", fmt.Sprintf("%s has no method %s", lhs.Kind, primary))
	}
	result, exc := it.invoke(p, method, []*object.Object{lhs, rhs})
	if exc != nil {
		return exc
	}
	f.Push(result)
	return nil
}

func (it *Interp) asBool(p *process.Process, o *object.Object) (bool, *object.Object) {
	method, ok := o.GetProperty(object.MagicMethods.Boolean)
	if !ok {
		return o.DefaultAsBool(), nil
	}
	result, exc := it.invoke(p, method, []*object.Object{o})
	if exc != nil {
		return false, exc
	}
	if result.Kind == object.KindBoolean {
		return result.Bool(), nil
	}
	return result.DefaultAsBool(), nil
}

func (it *Interp) asStr(p *process.Process, o *object.Object) (string, *object.Object) {
	method, ok := o.GetProperty(object.MagicMethods.Str)
	if !ok {
		return o.DefaultAsStr(), nil
	}
	result, exc := it.invoke(p, method, []*object.Object{o})
	if exc != nil {
		return "", exc
	}
	if result.Kind == object.KindString {
		return result.Str(), nil
	}
	return result.DefaultAsStr(), nil
}

// newObj implements the `new_obj` opcode (spec.md §4.2's object-literal
// construction, with an optional clone source). Properties are popped as
// numProps (key, value) pairs, the key popped first since it was pushed
// after its value (value, then key, per pair; see internal/compiler).
func (it *Interp) newObj(p *process.Process, f *frame.Frame, explicitParent bool, numProps int) *object.Object {
	type kv struct {
		key string
		val *object.Object
	}
	pairs := make([]kv, numProps)
	for i := numProps - 1; i >= 0; i-- {
		key := f.Pop()
		val := f.Pop()
		pairs[i] = kv{key: key.Str(), val: val}
	}

	var self *object.Object
	if explicitParent {
		parentExpr := f.Pop()
		method, ok := parentExpr.GetProperty(object.MagicMethods.Clone)
		if !ok {
			return p.Raise("type error", "clone source has no __clone__ method")
		}
		clone, exc := it.invoke(p, method, []*object.Object{parentExpr})
		if exc != nil {
			return exc
		}
		self = clone
	} else {
		self = object.New(p.Heap(), p.Protos().Object)
	}

	for _, kv := range pairs {
		if err := self.SetProperty(kv.key, kv.val); err != nil {
			return p.Raise("type error", err.Error())
		}
	}
	f.Push(self)
	return nil
}

// importModule resolves a module by name: native modules are constructed
// fresh per process (so their state is never shared across heaps), and
// source modules are compiled once per process and cached in p.Cache.
func (it *Interp) importModule(p *process.Process, name string) (*object.Object, *object.Object) {
	if mod, ok := p.Modules.Get(name); ok {
		return mod, nil
	}

	if mod, ok := module.InitNative(name, p.Heap(), p.Protos()); ok {
		p.Modules.Add(mod)
		return mod, nil
	}

	if p.Loader == nil {
		return nil, p.Raise("import error", fmt.Sprintf("no such module: %s", name))
	}

	src, ok := p.Cache.Get(name)
	if !ok {
		compiled, err := p.Loader(name)
		if err != nil {
			return nil, p.Raise("import error", fmt.Sprintf("%s: %v", name, err))
		}
		p.Cache.Put(name, compiled)
		src = compiled
	}

	mod := object.NewModule(p.Heap(), p.Protos().Module, name, src, false)
	p.Modules.Add(mod)

	entry := frame.NewFrame(src, mod)
	if !p.Stack.Push(entry) {
		return nil, p.Raise("stack overflow", "call stack exceeded maximum depth")
	}
	if _, exc := it.runFrame(p, entry); exc != nil {
		return nil, exc
	}
	return mod, nil
}
