package supervise

import (
	"sync"

	"github.com/pellmont/warden/internal/launch"
)

// Process is the handle surface the supervisor needs from a launched
// process. *launch.Handle satisfies it; tests substitute fakes.
type Process interface {
	Role() string
	PID() int
	Events() <-chan launch.Event
	Done() <-chan struct{}
	WriteStdin(p []byte) error
	Kill() error
}

// Entry records one process owned by the supervisor.
type Entry struct {
	Proc Process
	PID  int
	Role string
}

// Registry is the single source of truth for which processes the supervisor
// currently owns. Entries are held in launch order. A process appears here
// from the moment its launch succeeds until its termination sequence has
// executed; ownership of drained entries transfers to the shutdown routine.
type Registry struct {
	mu      sync.Mutex
	entries []Entry
}

// Append registers a newly launched process.
func (r *Registry) Append(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Drain atomically removes and returns all entries, leaving the registry
// empty. The caller becomes solely responsible for terminating them.
func (r *Registry) Drain() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries
	r.entries = nil
	return entries
}

// Len reports the number of registered processes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Snapshot returns a copy of the current entries without transferring
// ownership.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Roles returns the role labels of all registered processes in order.
func (r *Registry) Roles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		roles = append(roles, e.Role)
	}
	return roles
}
