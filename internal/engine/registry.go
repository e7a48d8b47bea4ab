package engine

import (
	"sync"
	"time"

	"github.com/complyops/sentinel/internal/models"
)

// Registry tracks the liveness of external detectors. Entries are created on
// first report and never deleted during a process lifetime.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*models.AgentStatus
	now    func() time.Time
}

// NewRegistry creates an empty agent status registry.
func NewRegistry(now func() time.Time) *Registry {
	return &Registry{
		agents: make(map[string]*models.AgentStatus),
		now:    now,
	}
}

// Update upserts an agent's status. The findings delta is added to the
// running findings-today counter rather than overwriting it, and the
// heartbeat is always refreshed.
func (r *Registry) Update(name string, isActive bool, findingsDelta int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.agents[name]
	if !ok {
		status = &models.AgentStatus{AgentName: name}
		r.agents[name] = status
	}
	status.IsActive = isActive
	status.FindingsToday += findingsDelta
	status.LastHeartbeat = r.now()
}

// RecordError increments an agent's error counter, creating the entry if the
// agent has never reported before.
func (r *Registry) RecordError(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.agents[name]
	if !ok {
		status = &models.AgentStatus{AgentName: name}
		r.agents[name] = status
	}
	status.ErrorCount++
	status.LastHeartbeat = r.now()
}

// Snapshot returns a copy of every agent's current status keyed by name.
func (r *Registry) Snapshot() map[string]models.AgentStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]models.AgentStatus, len(r.agents))
	for name, status := range r.agents {
		out[name] = *status
	}
	return out
}

// Count returns the number of agents that have ever reported in.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
