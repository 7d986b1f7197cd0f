package operations

import (
	"fmt"
	"sync"
)

// Registry holds the pipeline's stages
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
	order []string // registration order
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[string]Step),
	}
}

// Register adds a step to the registry
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}

	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step with ID %s already registered", id)
	}

	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// GetDependencyOrder returns the steps topologically sorted (Kahn's
// algorithm). Steps that become ready together run in registration order.
func (r *Registry) GetDependencyOrder() ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dependents := make(map[string][]string, len(r.steps))
	inDegree := make(map[string]int, len(r.steps))

	for _, id := range r.order {
		for _, dep := range r.steps[id].GetDependencies() {
			if _, exists := r.steps[dep]; !exists {
				return nil, NewDependencyError(id, dep)
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	var queue []string
	for _, id := range r.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	ordered := make([]Step, 0, len(r.steps))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, r.steps[current])

		var ready []string
		for _, dependent := range dependents[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		// dependents were collected in registration order already
		queue = append(queue, ready...)
	}

	if len(ordered) != len(r.steps) {
		return nil, fmt.Errorf("circular dependency detected among %d stages", len(r.steps)-len(ordered))
	}

	return ordered, nil
}
