package plan

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/plotline/pkg/domain"
)

// Build constructs the plan variant def describes.
func Build(def domain.PlanDefinition, branches *BranchRegistry, opts ...Option) (Plan, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	switch def.Kind {
	case domain.KindTreePlan:
		return NewTreePlan(*def.Tree, branches, opts...)
	case domain.KindSimpleForm:
		return NewSimpleForm(*def.Form, opts...)
	}
	return nil, &domain.DefinitionError{Name: def.Name(), Field: "type", Reason: fmt.Sprintf("unsupported plan type %q", def.Kind)}
}

// Catalog holds plan definitions by name and builds a fresh plan per activation.
type Catalog struct {
	mu           sync.RWMutex
	defs         map[string]domain.PlanDefinition
	descriptions map[string]string
	branches     *BranchRegistry
	opts         []Option
}

// NewCatalog creates an empty catalog. Tree plans resolve their branches against
// branches; opts apply to every plan the catalog instantiates.
func NewCatalog(branches *BranchRegistry, opts ...Option) *Catalog {
	if branches == nil {
		branches = NewBranchRegistry()
	}
	return &Catalog{
		defs:         make(map[string]domain.PlanDefinition),
		descriptions: make(map[string]string),
		branches:     branches,
		opts:         opts,
	}
}

// Add registers def after building it once, so malformed definitions and
// unregistered branches fail here rather than on activation.
func (c *Catalog) Add(def domain.PlanDefinition) error {
	if _, err := Build(def, c.branches, c.opts...); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	name := def.Name()
	if _, exists := c.defs[name]; exists {
		return &domain.DefinitionError{Name: name, Field: "name", Reason: "duplicate plan"}
	}
	c.defs[name] = def
	return nil
}

// SetDescription attaches prose documentation to a plan.
func (c *Catalog) SetDescription(name, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptions[name] = text
}

// Description returns the prose attached to a plan, or "".
func (c *Catalog) Description(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.descriptions[name]
}

// Instantiate builds a fresh plan for name.
// It fails with domain.ErrUnknownPlan if name is not registered.
func (c *Catalog) Instantiate(name string, opts ...Option) (Plan, error) {
	def, err := c.Definition(name)
	if err != nil {
		return nil, err
	}
	return Build(def, c.branches, append(slices.Clone(c.opts), opts...)...)
}

// Resume instantiates the snapshot's plan and restores its runtime fields.
func (c *Catalog) Resume(snap domain.PlanSnapshot) (Plan, error) {
	p, err := c.Instantiate(snap.Name)
	if err != nil {
		return nil, err
	}
	if err := p.Restore(snap); err != nil {
		return nil, err
	}
	return p, nil
}

// Definition returns the definition registered under name.
func (c *Catalog) Definition(name string) (domain.PlanDefinition, error) {
	c.mu.RLock()
	def, ok := c.defs[name]
	c.mu.RUnlock()

	if !ok {
		return domain.PlanDefinition{}, fmt.Errorf("%w: %s", domain.ErrUnknownPlan, name)
	}
	return def, nil
}

// Names returns the registered plan names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.defs))
}

// Branches returns the registry tree plans are resolved against.
func (c *Catalog) Branches() *BranchRegistry { return c.branches }
