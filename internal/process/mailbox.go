package process

import (
	"sync"

	"emerald/internal/heap"
	"emerald/internal/object"
)

// Mailbox is a per-process FIFO message queue with blocking receive
// (spec.md §4.7). It is written by any sender (under its lock) and read
// only by its owner.
type Mailbox struct {
	mu   sync.Mutex
	cond *sync.Cond
	msgs []*object.Object
}

func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Push enqueues message, waking any blocked receiver. Pushes from a single
// sender to this mailbox preserve send order (spec.md §5).
func (m *Mailbox) Push(message *object.Object) {
	m.mu.Lock()
	m.msgs = append(m.msgs, message)
	m.mu.Unlock()
	m.cond.Signal()
}

// Pop blocks until a message is available, then dequeues the head. done,
// if non-nil, is checked under the lock so a concurrently terminated
// process can unblock Receive and return ok=false.
func (m *Mailbox) Pop(done <-chan struct{}) (*object.Object, bool) {
	stop := make(chan struct{})
	go func() {
		select {
		case <-done:
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		case <-stop:
		}
	}()
	m.mu.Lock()
	defer m.mu.Unlock()
	defer close(stop)
	for len(m.msgs) == 0 {
		select {
		case <-done:
			return nil, false
		default:
		}
		m.cond.Wait()
	}
	msg := m.msgs[0]
	m.msgs = m.msgs[1:]
	return msg, true
}

// Len reports the current queue length (non-blocking).
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

// Roots implements heap.RootSource: every queued message is a GC root
// until it is delivered (spec.md §4.5).
func (m *Mailbox) Roots() []heap.Managed {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]heap.Managed, 0, len(m.msgs))
	for _, msg := range m.msgs {
		if msg != nil {
			out = append(out, msg)
		}
	}
	return out
}
