package scheduler

import (
	"sync"

	"emerald/internal/process"
)

// ProcessMap is the scheduler's PID -> Process registry, consulted by
// Process.Send (spec.md §4.7) to resolve a destination and by
// process.monitor to look up a watched PID.
type ProcessMap struct {
	mu   sync.RWMutex
	next uint32
	m    map[process.PID]*process.Process
}

func NewProcessMap() *ProcessMap {
	return &ProcessMap{m: make(map[process.PID]*process.Process)}
}

// Allocate reserves the next PID without registering a process yet.
func (pm *ProcessMap) Allocate() process.PID {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.next++
	return process.PID(pm.next)
}

// Register inserts p under p.PID.
func (pm *ProcessMap) Register(p *process.Process) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.m[p.PID] = p
}

// Unregister removes pid, called once a process has terminated and its
// exit reason has been delivered to any monitors.
func (pm *ProcessMap) Unregister(pid process.PID) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.m, pid)
}

// Lookup resolves pid to its Process, if still registered.
func (pm *ProcessMap) Lookup(pid process.PID) (*process.Process, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	p, ok := pm.m[pid]
	return p, ok
}

// All snapshots every currently registered process (diagnostics, shutdown).
func (pm *ProcessMap) All() []*process.Process {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	out := make([]*process.Process, 0, len(pm.m))
	for _, p := range pm.m {
		out = append(out, p)
	}
	return out
}
