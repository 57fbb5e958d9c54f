package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

const defaultIdleTTL = 30 * time.Minute

// FlowRegistry keeps one LoginFlow per browser session. Pending credentials
// only live here; authenticated flows can always be rebuilt from the
// session store.
type FlowRegistry struct {
	deps    FlowDeps
	idleTTL time.Duration
	newID   func() (string, error)

	mu    sync.Mutex
	flows map[string]*LoginFlow
}

var _ ports.FlowRegistry = (*FlowRegistry)(nil)

// NewFlowRegistry creates an empty registry. idleTTL <= 0 selects 30 minutes.
func NewFlowRegistry(deps FlowDeps, idleTTL time.Duration) *FlowRegistry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &FlowRegistry{
		deps:    deps,
		idleTTL: idleTTL,
		newID:   newFlowID,
		flows:   make(map[string]*LoginFlow),
	}
}

func newFlowID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Create starts a fresh flow under a new random id.
func (r *FlowRegistry) Create(ctx context.Context) (ports.LoginFlow, error) {
	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("new flow id: %w", err)
	}

	f := NewLoginFlow(id, r.deps)
	f.Hydrate(ctx)

	r.mu.Lock()
	r.flows[id] = f
	r.mu.Unlock()
	return f, nil
}

// Lookup returns the live flow for id.
func (r *FlowRegistry) Lookup(id string) (ports.LoginFlow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[id]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return f, nil
}

// Restore returns the live flow for id or rebuilds it from the session
// store. Rebuilt flows are only kept when they turn out authenticated.
func (r *FlowRegistry) Restore(ctx context.Context, id string) ports.LoginFlow {
	r.mu.Lock()
	if f, ok := r.flows[id]; ok {
		r.mu.Unlock()
		return f
	}
	r.mu.Unlock()

	f := NewLoginFlow(id, r.deps)
	f.Hydrate(ctx)
	if !f.Session().IsAuthenticated {
		return f
	}

	r.mu.Lock()
	existing, ok := r.flows[id]
	if !ok {
		r.flows[id] = f
	}
	r.mu.Unlock()
	if ok {
		f.Close()
		return existing
	}
	return f
}

// Release drops the flow and stops its countdown.
func (r *FlowRegistry) Release(id string) {
	r.mu.Lock()
	f, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if ok {
		f.Close()
	}
}

// Len reports the number of live flows.
func (r *FlowRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// Run evicts idle flows periodically until ctx is cancelled.
func (r *FlowRegistry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.evictIdle(now)
		}
	}
}

// evictIdle unregisters flows idle for longer than idleTTL and reports how
// many were dropped. Flows are closed after the registry lock is released
// because Close waits for any operation still running on the flow.
func (r *FlowRegistry) evictIdle(now time.Time) int {
	var idle []*LoginFlow
	r.mu.Lock()
	for id, f := range r.flows {
		if now.Sub(f.LastSeen()) > r.idleTTL {
			idle = append(idle, f)
			delete(r.flows, id)
		}
	}
	r.mu.Unlock()

	for _, f := range idle {
		f.Close()
		r.deps.Log.Debug().Str("flow_id", f.ID()).Msg("idle login flow evicted")
	}
	return len(idle)
}
