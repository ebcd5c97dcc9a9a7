// Package heap implements the per-process mark-and-sweep allocator
// described in spec.md §4.5.
package heap

import (
	"log"

	"github.com/dustin/go-humanize"
)

// Managed is anything the heap can own and collect. Reach returns the set
// of other Managed values this one references directly, used during mark.
type Managed interface {
	mark()
	unmark()
	marked() bool
	Reach() []Managed
}

// Base is embedded by every heap-managed type; it provides the mark bit
// and back-pointer to the owning heap, mirroring the original source's
// HeapManaged base class.
type Base struct {
	heap   *Heap
	marked bool
}

// NewBase constructs the embeddable heap-managed header. Callers must
// pass the result to Heap.Register before the object is reachable.
func NewBase(h *Heap) Base { return Base{heap: h} }

func (b *Base) mark()        { b.marked = true }
func (b *Base) unmark()      { b.marked = false }
func (b *Base) marked() bool { return b.marked }

// Heap returns the owning heap.
func (b *Base) Heap() *Heap { return b.heap }

// RootSource supplies a snapshot of GC roots on demand (spec.md §4.5).
type RootSource interface {
	Roots() []Managed
}

const initialThreshold = 256

// Heap is a single process's mark-and-sweep managed object set plus its
// registered root sources. A Heap is single-writer: only the worker thread
// currently executing the owning process may call its methods (spec.md §5).
type Heap struct {
	live       map[Managed]struct{}
	roots      []RootSource
	threshold  int
	collections int
	log        *log.Logger
}

// New constructs an empty heap with the default growth threshold.
func New(logger *log.Logger) *Heap {
	return &Heap{
		live:      make(map[Managed]struct{}),
		threshold: initialThreshold,
		log:       logger,
	}
}

// AddRootSource registers a root source. Root sources are not themselves
// heap-managed; they are queried at the start of every collection.
func (h *Heap) AddRootSource(rs RootSource) {
	h.roots = append(h.roots, rs)
}

// RemoveRootSource unregisters a previously added root source.
func (h *Heap) RemoveRootSource(rs RootSource) {
	for i, r := range h.roots {
		if r == rs {
			h.roots = append(h.roots[:i], h.roots[i+1:]...)
			return
		}
	}
}

// Register inserts a freshly constructed Managed value into the live set,
// running a collection first if the live set has reached the growth
// threshold (spec.md §4.5 allocation rule). Every allocation site in the
// interpreter and every native function that allocates on this heap must
// route through Register.
func (h *Heap) Register(m Managed) {
	if len(h.live) >= h.threshold {
		h.Collect()
		h.threshold *= 2
	}
	h.live[m] = struct{}{}
}

// Count reports the number of live managed objects.
func (h *Heap) Count() int { return len(h.live) }

// Threshold reports the current growth threshold.
func (h *Heap) Threshold() int { return h.threshold }

// Stats renders a human-readable diagnostic line for collection logging.
func (h *Heap) Stats() string {
	return humanize.Comma(int64(len(h.live))) + " live / threshold " + humanize.Comma(int64(h.threshold))
}

// Collect runs one stop-the-world (for this process only) mark-and-sweep
// cycle: union the roots from every registered source, mark everything
// transitively reachable, then sweep unmarked objects (spec.md §4.5).
func (h *Heap) Collect() {
	before := len(h.live)

	var stack []Managed
	for _, rs := range h.roots {
		stack = append(stack, rs.Roots()...)
	}

	for len(stack) > 0 {
		n := len(stack) - 1
		m := stack[n]
		stack = stack[:n]
		if m == nil || m.marked() {
			continue
		}
		m.mark()
		stack = append(stack, m.Reach()...)
	}

	for m := range h.live {
		if !m.marked() {
			delete(h.live, m)
		} else {
			m.unmark()
		}
	}

	h.collections++
	if h.log != nil {
		h.log.Printf("gc: cycle %d collected %d objects, %s", h.collections, before-len(h.live), h.Stats())
	}
}
