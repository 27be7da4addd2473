package fake

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"autoheal/internal/heal"
)

var _ heal.Runtime = (*Runtime)(nil)

// Runtime is an in-memory container runtime. Containers are listed in the
// order they were first added.
type Runtime struct {
	CallRecorder
	mu         sync.Mutex
	order      []string
	containers map[string]heal.Observation

	ListContainersErr   func(ctx context.Context) error
	RestartContainerErr func(ctx context.Context, id string) error
	// OnRestart runs after a successful restart while the runtime is locked,
	// letting tests model a restart that brings the container back.
	OnRestart func(obs *heal.Observation)
}

// NewRuntime creates an empty Runtime.
func NewRuntime() *Runtime {
	return &Runtime{containers: make(map[string]heal.Observation)}
}

// Put adds or replaces a container, keyed by id.
func (r *Runtime) Put(obs heal.Observation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.containers[obs.ID]; !ok {
		r.order = append(r.order, obs.ID)
	}
	obs.Labels = maps.Clone(obs.Labels)
	r.containers[obs.ID] = obs
}

// SetState updates the status and health of an existing container.
func (r *Runtime) SetState(id string, status heal.Status, health heal.Health) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obs, ok := r.containers[id]
	if !ok {
		return
	}
	obs.Status = status
	obs.Health = health
	r.containers[id] = obs
}

// Remove deletes a container.
func (r *Runtime) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.containers, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Runtime) ListContainers(ctx context.Context) ([]heal.Observation, error) {
	r.record("ListContainers")
	if r.ListContainersErr != nil {
		if err := r.ListContainersErr(ctx); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]heal.Observation, 0, len(r.order))
	for _, id := range r.order {
		obs := r.containers[id]
		obs.Labels = maps.Clone(obs.Labels)
		out = append(out, obs)
	}
	return out, nil
}

func (r *Runtime) RestartContainer(ctx context.Context, id string) error {
	r.record("RestartContainer", id)
	if r.RestartContainerErr != nil {
		if err := r.RestartContainerErr(ctx, id); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	obs, ok := r.containers[id]
	if !ok {
		return fmt.Errorf("container %q not found", id)
	}
	if r.OnRestart != nil {
		r.OnRestart(&obs)
		r.containers[id] = obs
	}
	return nil
}

// Restarts returns the ids passed to RestartContainer, in call order.
func (r *Runtime) Restarts() []string {
	calls := r.Calls("RestartContainer")
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Args[0].(string))
	}
	return out
}
