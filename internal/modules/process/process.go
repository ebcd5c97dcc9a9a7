// Package process (the native module, distinct from internal/process the
// runtime type) exposes process.create/id/send/receive/sleep/monitor to
// script code, grounded on
// original_source/src/modules/process.cpp's process_create/id/send/receive/
// sleep trio, plus the supplemented process.monitor (SPEC_FULL.md §3).
package process

import (
	"time"

	"emerald/internal/heap"
	"emerald/internal/interp"
	"emerald/internal/module"
	"emerald/internal/nativefn"
	"emerald/internal/object"
	rtprocess "emerald/internal/process"
)

func init() {
	module.RegisterNativeInit("process", New)
}

func New(h *heap.Heap, protos *object.Prototypes) *object.Object {
	mod := object.NewModule(h, protos.Module, "process", nil, true)

	nativefn.Def(h, protos, mod, "create", create)
	nativefn.Def(h, protos, mod, "id", id)
	nativefn.Def(h, protos, mod, "send", send)
	nativefn.Def(h, protos, mod, "receive", receive)
	nativefn.Def(h, protos, mod, "sleep", sleep)
	nativefn.Def(h, protos, mod, "monitor", monitor)

	return mod
}

func self(ctx object.NativeContext, who string) (*rtprocess.Process, *object.Object) {
	p, ok := ctx.(*rtprocess.Process)
	if !ok {
		return nil, ctx.Raise("internal error", who+" requires a process context")
	}
	return p, nil
}

// create spawns a new process running callable(args...), deep-cloning
// callable and every argument onto the child's own heap (spec.md §5: no
// cross-heap pointers) before enqueueing it, mirroring process_create's
// clone-then-execute shape.
func create(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
	if exc := nativefn.Arity(ctx, "process.create", args, 1, -1); exc != nil {
		return nil, exc
	}
	src, exc := self(ctx, "process.create")
	if exc != nil {
		return nil, exc
	}

	callable := args[0]
	extra := args[1:]

	pid, ok := src.Spawn(func(dst *rtprocess.Process) {
		clonedCallable := rtprocess.CloneForSend(callable, src, dst)
		clonedArgs := make([]*object.Object, len(extra))
		for i, a := range extra {
			clonedArgs[i] = rtprocess.CloneForSend(a, src, dst)
		}
		if entryExc := interp.PushEntry(dst, clonedCallable, clonedArgs); entryExc != nil {
			dst.Terminate(rtprocess.ErrorExit(entryExc.Message()))
		}
	})
	if !ok {
		return nil, ctx.Raise("internal error", "process.create: no scheduler wired")
	}
	return nativefn.NewNum(ctx, float64(pid)), nil
}

func id(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
	p, exc := self(ctx, "process.id")
	if exc != nil {
		return nil, exc
	}
	return nativefn.NewNum(ctx, float64(p.PID)), nil
}

func send(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
	if exc := nativefn.Arity(ctx, "process.send", args, 2, 2); exc != nil {
		return nil, exc
	}
	p, exc := self(ctx, "process.send")
	if exc != nil {
		return nil, exc
	}
	pidNum, exc := nativefn.Num(ctx, args, 0, "process.send")
	if exc != nil {
		return nil, exc
	}
	ok := p.Send(rtprocess.PID(uint32(pidNum)), args[1])
	return nativefn.NewBool(ctx, ok), nil
}

func receive(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
	p, exc := self(ctx, "process.receive")
	if exc != nil {
		return nil, exc
	}
	msg, ok := p.Receive()
	if !ok {
		return ctx.Protos().NullValue, nil
	}
	return msg, nil
}

func sleep(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
	if exc := nativefn.Arity(ctx, "process.sleep", args, 1, 1); exc != nil {
		return nil, exc
	}
	secs, exc := nativefn.Num(ctx, args, 0, "process.sleep")
	if exc != nil {
		return nil, exc
	}
	time.Sleep(time.Duration(secs * float64(time.Second)))
	return ctx.Protos().NullValue, nil
}

// monitor blocks until the target process terminates, returning an Object
// with a "normal" Boolean property and, on error exit, a "reason" String
// (SPEC_FULL.md §3's process.monitor supplemented feature).
func monitor(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
	if exc := nativefn.Arity(ctx, "process.monitor", args, 1, 1); exc != nil {
		return nil, exc
	}
	p, exc := self(ctx, "process.monitor")
	if exc != nil {
		return nil, exc
	}
	pidNum, exc := nativefn.Num(ctx, args, 0, "process.monitor")
	if exc != nil {
		return nil, exc
	}
	target, ok := p.Lookup(rtprocess.PID(uint32(pidNum)))
	if !ok {
		return nil, ctx.Raise("domain error", "process.monitor: no such process")
	}

	reason := <-target.Monitor(p.PID)
	result := object.New(ctx.Heap(), ctx.Protos().Object)
	_ = result.SetProperty("normal", nativefn.NewBool(ctx, reason.Normal))
	if !reason.Normal {
		_ = result.SetProperty("reason", nativefn.NewStr(ctx, reason.String()))
	}
	return result, nil
}
