package registry

import (
	"context"
	"sync"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/plan"
)

// ActionFunc defines the signature for an action implementation.
// It receives the conversation and returns the events to apply to it.
type ActionFunc func(ctx context.Context, s plan.Session) ([]plan.Event, error)

// Registry manages the available actions. Names keep the position they were
// first declared at, which is the index plans resolve them to.
type Registry struct {
	mu       sync.RWMutex
	names    []string
	index    map[string]int
	handlers map[string]ActionFunc
}

// NewRegistry creates a registry holding the built-in actions
// (action_listen, activate_plan, deactivate_plan) followed by names.
func NewRegistry(names ...string) *Registry {
	r := &Registry{
		index:    make(map[string]int),
		handlers: make(map[string]ActionFunc),
	}
	r.Declare(domain.ActionListen, domain.ActionActivatePlan, domain.ActionDeactivatePlan)
	r.Declare(names...)
	return r
}

// FromCatalog creates a registry declaring every action the catalog's plans emit
// directly, plus extra (typically the actions invoked by code branches).
func FromCatalog(c *plan.Catalog, extra ...string) *Registry {
	r := NewRegistry()
	for _, name := range c.Names() {
		def, err := c.Definition(name)
		if err != nil {
			continue
		}
		r.Declare(def.Actions()...)
	}
	r.Declare(extra...)
	return r
}

// Declare adds names without handlers. Known names are ignored.
func (r *Registry) Declare(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.declare(name)
	}
}

func (r *Registry) declare(name string) {
	if _, ok := r.index[name]; ok || name == "" {
		return
	}
	r.index[name] = len(r.names)
	r.names = append(r.names, name)
}

// Register adds an action with a handler.
// If the action already has a handler, it is overwritten; its index is kept.
func (r *Registry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declare(name)
	r.handlers[name] = fn
}

// ActionIndex returns the position of name.
func (r *Registry) ActionIndex(name string) (int, error) {
	r.mu.RLock()
	idx, ok := r.index[name]
	r.mu.RUnlock()

	if !ok {
		return -1, &domain.UnknownActionError{Name: name}
	}
	return idx, nil
}

// Execute looks up an action by name and runs its handler.
// Actions without a handler produce no events. Unknown names fail with domain.ErrUnknownAction.
func (r *Registry) Execute(ctx context.Context, name string, s plan.Session) ([]plan.Event, error) {
	r.mu.RLock()
	_, known := r.index[name]
	fn := r.handlers[name]
	r.mu.RUnlock()

	if !known {
		return nil, &domain.UnknownActionError{Name: name}
	}
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, s)
}

// Names returns the declared actions in index order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of declared actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
