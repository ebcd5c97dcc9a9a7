// Package interp implements the bytecode dispatch loop of spec.md §4.1 and
// §4.2: magic-method resolution drives every operator, property access,
// and call, uniformly for built-in and user-defined objects.
package interp

import (
	"fmt"

	"emerald/internal/code"
	"emerald/internal/frame"
	"emerald/internal/object"
	"emerald/internal/process"
)

// Interp has no mutable state of its own; every process carries its own
// heap, call stack, and mailbox, so a single Interp safely drives many
// processes concurrently across the scheduler's worker pool.
type Interp struct{}

func New() *Interp { return &Interp{} }

// Step implements scheduler.StepFunc: run p's entry frame for up to
// quantum top-level instructions, yielding true once the process's call
// stack has emptied (normal exit) or an uncaught exception terminated it.
//
// Nested calls triggered from the entry frame (the `call` opcode, magic
// method dispatch, `init`) run to completion synchronously via invoke
// before the next top-level instruction is counted against quantum: the
// quantum therefore meters the entry frame's own instructions precisely,
// and opaquely bounds the work done inside any call it makes. This trades
// fully uniform preemption for a recursive interpreter whose Go call
// stack mirrors the language's own call stack one-for-one, so every
// live frame is always exactly the set of frames on Process.Stack and
// needs no separate bookkeeping for GC roots.
func (it *Interp) Step(p *process.Process, quantum int) bool {
	for i := 0; i < quantum; i++ {
		f := p.Stack.Top()
		if f == nil {
			p.Terminate(process.NormalExit())
			return true
		}
		if !f.HasInstructionsLeft() {
			p.Stack.Pop()
			p.Terminate(process.NormalExit())
			return true
		}

		instr := f.NextInstruction()
		if instr.Op == code.Ret {
			f.Pop()
			p.Stack.Pop()
			p.Terminate(process.NormalExit())
			return true
		}

		exc := it.dispatch(p, f, instr)
		if exc != nil {
			p.Stack.Pop()
			p.Terminate(process.ErrorExit(exc.Message()))
			return true
		}
	}
	return false
}

// Invoke exposes invoke for wiring into Process.SetInvoker; it also backs
// object.NativeContext.Call indirectly through that wiring.
func (it *Interp) Invoke(p *process.Process, callable *object.Object, args []*object.Object) (*object.Object, *object.Object) {
	return it.invoke(p, callable, args)
}

// invoke runs callable with args, as the `call` opcode and every magic
// method dispatch do. It satisfies process.Invoker.
func (it *Interp) invoke(p *process.Process, callable *object.Object, args []*object.Object) (*object.Object, *object.Object) {
	if callable == nil {
		return nil, p.Raise("type error", "value is not callable")
	}
	switch callable.Kind {
	case object.KindNativeFunction:
		_, pop := p.PushNativeFrame(args)
		defer pop()
		return callable.Native()(args, p)

	case object.KindFunction:
		fn := frame.NewFrame(callable.FuncCode(), callable.FuncGlobals())
		for i, a := range args {
			fn.SetLocal(i, a)
		}
		if !p.Stack.Push(fn) {
			return nil, p.Raise("stack overflow", "call stack exceeded maximum depth")
		}
		return it.runFrame(p, fn)

	default:
		// A bare self reference whose __call__ resolves to itself would
		// recurse forever; only follow it if it actually names something
		// else (e.g. an object whose __call__ is a distinct NativeFunction).
		if method, ok := callable.GetProperty(object.MagicMethods.Call); ok && method != callable {
			return it.invoke(p, method, append([]*object.Object{callable}, args...))
		}
		return nil, p.Raise("type error", fmt.Sprintf("%s is not callable", callable.Kind))
	}
}

// runFrame executes fn's instructions (and any nested calls they make)
// until fn explicitly returns, falls off the end of its code, or an
// exception unwinds it. fn is popped from p.Stack exactly once, on every
// exit path.
func (it *Interp) runFrame(p *process.Process, fn *frame.Frame) (*object.Object, *object.Object) {
	for fn.HasInstructionsLeft() {
		instr := fn.NextInstruction()
		if instr.Op == code.Ret {
			val := fn.Pop()
			p.Stack.Pop()
			if val == nil {
				val = p.Protos().NullValue
			}
			return val, nil
		}
		if exc := it.dispatch(p, fn, instr); exc != nil {
			p.Stack.Pop()
			return nil, exc
		}
	}
	p.Stack.Pop()
	return p.Protos().NullValue, nil
}

// PushEntry sets up a freshly spawned process's entry point (process.create,
// SPEC_FULL.md §3): a Function callable gets a frame pushed onto p.Stack so
// the scheduler's Step drives it incrementally under quantum, exactly like
// any other call; a NativeFunction has no frame to drive, so it runs to
// completion immediately and the process terminates, normally if it
// returned (its result is discarded) or with an error exit if it raised.
// Any other kind is rejected with a TypeError.
func PushEntry(p *process.Process, callable *object.Object, args []*object.Object) *object.Object {
	switch callable.Kind {
	case object.KindFunction:
		fn := frame.NewFrame(callable.FuncCode(), callable.FuncGlobals())
		for i, a := range args {
			fn.SetLocal(i, a)
		}
		if !p.Stack.Push(fn) {
			return p.Raise("stack overflow", "call stack exceeded maximum depth")
		}
		return nil

	case object.KindNativeFunction:
		_, pop := p.PushNativeFrame(args)
		result, exc := callable.Native()(args, p)
		pop()
		if exc != nil {
			p.Terminate(process.ErrorExit(exc.Message()))
		} else {
			_ = result
			p.Terminate(process.NormalExit())
		}
		return nil

	default:
		return p.Raise("type error", fmt.Sprintf("%s is not callable", callable.Kind))
	}
}

func popN(f *frame.Frame, n int) []*object.Object {
	out := make([]*object.Object, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = f.Pop()
	}
	return out
}
