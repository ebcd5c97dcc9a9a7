package scheduler

import (
	"log"
	"runtime"
	"sync"

	"emerald/internal/object"
	"emerald/internal/process"
)

// Quantum is the fixed number of instructions a process runs per schedule
// slot before yielding back to the run queue (spec.md §5, original
// source's QUANTUM).
const Quantum = 2000

// StepFunc runs one process for up to quantum instructions, returning true
// once the process has terminated (its call stack emptied or it raised an
// uncaught exception). It is implemented by internal/interp and wired in
// with SetStepFunc so this package never imports interp.
type StepFunc func(p *process.Process, quantum int) (terminated bool)

// Scheduler drains a RunQueue with a fixed pool of worker goroutines,
// mirroring the teacher's WorkerPool shape in internal/concurrency but
// specialized to emerald's process/quantum model.
type Scheduler struct {
	procs *ProcessMap
	queue *RunQueue
	log   *log.Logger
	step  StepFunc

	invoke process.Invoker
	size   int
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New constructs a scheduler with size worker goroutines (runtime.NumCPU()
// if size <= 0, matching the teacher's WorkerPool default).
func New(size int, logger *log.Logger) *Scheduler {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Scheduler{
		procs: NewProcessMap(),
		queue: NewRunQueue(),
		log:   logger,
		size:  size,
	}
}

// SetStepFunc wires the interpreter's dispatch loop. Must be called before
// Start.
func (s *Scheduler) SetStepFunc(step StepFunc) { s.step = step }

// SetInvoker wires the interpreter's call mechanics, applied to every
// process this scheduler spawns from then on.
func (s *Scheduler) SetInvoker(invoke process.Invoker) { s.invoke = invoke }

// Processes exposes the PID registry, e.g. for process.monitor lookups from
// native modules.
func (s *Scheduler) Processes() *ProcessMap { return s.procs }

// Lookup implements process.Spawner, resolving a PID to its Process for
// process.monitor.
func (s *Scheduler) Lookup(pid process.PID) (*process.Process, bool) { return s.procs.Lookup(pid) }

// Spawn allocates a PID, constructs a Process, wires its Send/Invoke
// hooks through this scheduler, runs init to install the process's entry
// frame, then enqueues it as ready (spec.md §4.7's process.create).
func (s *Scheduler) Spawn(init func(p *process.Process)) process.PID {
	pid := s.procs.Allocate()
	p := process.New(pid, s.log)
	p.SetSender(func(to process.PID, msg *object.Object) bool {
		return s.sendFrom(p, to, msg)
	})
	p.SetSpawner(s)
	if s.invoke != nil {
		p.SetInvoker(s.invoke)
	}
	s.procs.Register(p)
	init(p)
	s.queue.Push(p)
	return pid
}

// sendFrom implements cross-process delivery for Process.Send: resolve the
// destination, deep-clone msg from src's heap onto its heap, and push it
// to its mailbox (spec.md §5, no cross-heap pointers).
func (s *Scheduler) sendFrom(src *process.Process, to process.PID, msg *object.Object) bool {
	dst, ok := s.procs.Lookup(to)
	if !ok || dst.State() == process.StateTerminated {
		return false
	}
	dst.Mailbox.Push(process.CloneForSend(msg, src, dst))
	return true
}

// Start launches the worker pool. SetStepFunc must have been called first.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	for i := 0; i < s.size; i++ {
		s.wg.Add(1)
		go s.runWorker(i)
	}
}

// Stop closes the run queue and waits for every worker to drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.queue.Close()
	s.wg.Wait()
}

func (s *Scheduler) runWorker(id int) {
	defer s.wg.Done()
	for {
		p, ok := s.queue.Pop()
		if !ok {
			return
		}

		p.SetState(process.StateRunning)
		terminated := s.step(p, Quantum)

		if terminated {
			if s.log != nil {
				s.log.Printf("scheduler: worker %d finished process %s", id, p.PID)
			}
			s.procs.Unregister(p.PID)
			continue
		}

		p.SetState(process.StateReady)
		s.queue.Push(p)
	}
}
