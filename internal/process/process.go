// Package process implements the lightweight-process model of spec.md §4.7
// and §5: each Process owns a private heap (no cross-heap pointers), its
// own call stack, and a FIFO mailbox. Processes never share Objects;
// Send deep-clones the message onto the receiver's heap.
package process

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"emerald/internal/code"
	"emerald/internal/frame"
	"emerald/internal/heap"
	"emerald/internal/module"
	"emerald/internal/object"
)

// SourceLoader compiles a user-defined module named by import statements
// into Code, e.g. by reading and compiling a `.em` file from disk. It is
// nil in embedded/test contexts where only native modules are imported.
type SourceLoader func(name string) (*code.Code, error)

// Invoker executes a callable Object as the `call` opcode would, returning
// either a result or an exception. It is supplied by internal/interp after
// construction (via SetInvoker) so that this package never imports interp.
type Invoker func(p *Process, callable *object.Object, args []*object.Object) (*object.Object, *object.Object)

// Spawner starts a new sibling process, returning its PID once it has been
// enqueued as ready to run, and resolves a PID back to its Process for
// native modules that need the target itself (process.monitor). It is
// implemented by internal/scheduler.Scheduler and wired in per-process,
// giving native modules (process.create) a way to reach the scheduler
// without this package importing it.
type Spawner interface {
	Spawn(init func(*Process)) PID
	Lookup(pid PID) (*Process, bool)
}

// Process is one lightweight process: a private heap, call stack, mailbox,
// and scheduling state. It implements object.NativeContext.
type Process struct {
	PID     PID
	TraceID uuid.UUID

	Stack   *frame.CallStack
	Mailbox *Mailbox
	Globals *object.Object // the root Module this process was spawned to run
	Modules *module.Registry
	Cache   *module.Cache
	Loader  SourceLoader

	heap   *heap.Heap
	protos *object.Prototypes
	log    *log.Logger

	mu         sync.Mutex
	state      State
	exitReason ExitReason
	monitors   map[PID]chan ExitReason
	done       chan struct{}

	invoke  Invoker
	send    func(to PID, msg *object.Object) bool // wired by the scheduler
	spawner Spawner
}

// New constructs a process with a fresh heap and bootstrapped prototypes.
// The caller (the scheduler) assigns pid and wires Send/Invoker afterward.
func New(pid PID, logger *log.Logger) *Process {
	h := heap.New(logger)
	p := &Process{
		PID:      pid,
		TraceID:  uuid.New(),
		heap:     h,
		protos:   object.Bootstrap(h),
		Stack:    frame.NewCallStack(frame.DefaultMaxDepth),
		Mailbox:  NewMailbox(),
		Modules:  module.NewRegistry(),
		Cache:    module.NewCache(),
		log:      logger,
		state:    StateReady,
		monitors: make(map[PID]chan ExitReason),
		done:     make(chan struct{}),
	}
	h.AddRootSource(p.protos)
	h.AddRootSource(p.Stack)
	h.AddRootSource(p.Mailbox)
	h.AddRootSource(p.Modules)
	return p
}

// SetInvoker wires the call mechanics; called once by the interpreter that
// will run this process.
func (p *Process) SetInvoker(inv Invoker) { p.invoke = inv }

// SetSender wires cross-process delivery; called once by the scheduler.
func (p *Process) SetSender(send func(to PID, msg *object.Object) bool) { p.send = send }

// SetSpawner wires process.create; called once by the scheduler.
func (p *Process) SetSpawner(s Spawner) { p.spawner = s }

// Spawn starts a new sibling process via the wired Spawner, or reports
// false if this process was constructed without one (e.g. in unit tests).
func (p *Process) Spawn(init func(*Process)) (PID, bool) {
	if p.spawner == nil {
		return 0, false
	}
	return p.spawner.Spawn(init), true
}

// Lookup resolves a sibling process by PID via the wired Spawner, for
// process.monitor. Reports false if this process has no Spawner wired or
// no such PID is currently registered.
func (p *Process) Lookup(pid PID) (*Process, bool) {
	if p.spawner == nil {
		return nil, false
	}
	return p.spawner.Lookup(pid)
}

// State reports the current lifecycle state (spec.md §5).
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState transitions the process, logging the edge for diagnostics.
func (p *Process) SetState(s State) {
	p.mu.Lock()
	prev := p.state
	p.state = s
	p.mu.Unlock()
	if p.log != nil && prev != s {
		p.log.Printf("process %s (%s): %s -> %s", p.PID, p.TraceID, prev, s)
	}
}

// Done signals once the process has terminated (cmd/emerald waits on it
// for the main process).
func (p *Process) Done() <-chan struct{} { return p.done }

// Terminate marks the process terminated with reason, notifies monitors,
// and closes Done exactly once.
func (p *Process) Terminate(reason ExitReason) {
	p.mu.Lock()
	if p.state == StateTerminated {
		p.mu.Unlock()
		return
	}
	p.state = StateTerminated
	p.exitReason = reason
	monitors := p.monitors
	p.monitors = nil
	p.mu.Unlock()

	for _, ch := range monitors {
		ch <- reason
	}
	close(p.done)
	if p.log != nil {
		p.log.Printf("process %s (%s): terminated (%s)", p.PID, p.TraceID, reason)
	}
}

// ExitReason reports why a terminated process exited; valid only once
// State() == StateTerminated.
func (p *Process) ExitReason() ExitReason {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitReason
}

// Monitor registers watcher as an observer of this process's termination,
// implementing the process.monitor supplemented feature. The returned
// channel receives exactly one ExitReason, already populated if the
// process had already terminated by the time Monitor was called.
func (p *Process) Monitor(watcher PID) <-chan ExitReason {
	ch := make(chan ExitReason, 1)
	p.mu.Lock()
	if p.state == StateTerminated {
		reason := p.exitReason
		p.mu.Unlock()
		ch <- reason
		return ch
	}
	p.monitors[watcher] = ch
	p.mu.Unlock()
	return ch
}

// --- object.NativeContext ---

func (p *Process) Heap() *heap.Heap { return p.heap }

func (p *Process) Protos() *object.Prototypes { return p.protos }

func (p *Process) Call(callable *object.Object, args []*object.Object) (*object.Object, *object.Object) {
	if p.invoke == nil {
		return nil, p.Raise("internal error", "process has no invoker wired")
	}
	return p.invoke(p, callable, args)
}

func (p *Process) Raise(kind string, message string) *object.Object {
	return object.NewException(p.heap, p.protos.Exception, fmt.Sprintf("%s: %s", kind, message))
}

func (p *Process) PushNativeFrame(args []*object.Object) (*object.NativeFrame, func()) {
	nfr := object.NewNativeFrame(args)
	p.heap.AddRootSource(nfr)
	return nfr, func() { p.heap.RemoveRootSource(nfr) }
}

// Send delivers msg to the process identified by to, deep-cloning it onto
// the receiver's heap first (spec.md §5: no cross-heap pointers). Returns
// false if no such process is reachable (the scheduler has already exited
// or the PID is unknown); the process.send native returns that result to
// the script as a Boolean.
func (p *Process) Send(to PID, msg *object.Object) bool {
	if p.send == nil {
		return false
	}
	return p.send(to, msg)
}

// Receive blocks the calling goroutine (the worker running this process)
// until a message arrives or done fires because the process was killed
// externally while waiting.
func (p *Process) Receive() (*object.Object, bool) {
	p.SetState(StateWaiting)
	msg, ok := p.Mailbox.Pop(p.done)
	p.SetState(StateRunning)
	return msg, ok
}
