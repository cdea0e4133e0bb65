package failover

import (
	"sync"

	"github.com/clawops/fleetctl/domain/instance"
)

// Registry maps instance ID to its Machine, guarded by a writer lock for
// map mutation. Per-instance transitions are additionally serialized by a
// per-machine mutex so concurrent sweep ticks on different instances never
// block each other.
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*entry
}

type entry struct {
	mu sync.Mutex
	m  *Machine
}

// NewRegistry builds an empty failover machine registry.
func NewRegistry() *Registry {
	return &Registry{machines: make(map[string]*entry)}
}

// Ensure returns the machine for instanceID, creating it in Normal state
// with the given role if it doesn't yet exist.
func (r *Registry) Ensure(instanceID string, role instance.Role) *Machine {
	r.mu.RLock()
	e, ok := r.machines[instanceID]
	r.mu.RUnlock()
	if ok {
		return e.m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.machines[instanceID]; ok {
		return e.m
	}
	e = &entry{m: NewMachine(instanceID, role)}
	r.machines[instanceID] = e
	return e.m
}

// Tick looks up (or creates) the machine for instanceID and advances it,
// holding that instance's lock only -- concurrent ticks on other
// instances proceed unblocked.
func (r *Registry) Tick(instanceID string, role instance.Role, score int, standbyActive bool, criticalScore int) Transition {
	r.mu.RLock()
	e, ok := r.machines[instanceID]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if e, ok = r.machines[instanceID]; !ok {
			e = &entry{m: NewMachine(instanceID, role)}
			r.machines[instanceID] = e
		}
		r.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.Tick(score, standbyActive, criticalScore)
}

// Get returns the current state of an instance's machine, if tracked.
func (r *Registry) Get(instanceID string) (State, bool) {
	r.mu.RLock()
	e, ok := r.machines[instanceID]
	r.mu.RUnlock()
	if !ok {
		return State{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.m.State(), true
}

// Reset clears an instance's machine back to Normal.
func (r *Registry) Reset(instanceID string) {
	r.mu.RLock()
	e, ok := r.machines[instanceID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.m.Reset()
}
