package plan

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/ports"
)

// Branch is a unit of tree plan logic. Produce returns the instructions the plan
// should run next; it is only called when the plan's queue is empty.
type Branch interface {
	Produce(t ports.Tracker) []domain.Instruction
}

// Stepper is implemented by branches whose only runtime state is a step counter,
// which lets a TreePlan snapshot and restore them.
type Stepper interface {
	Step() int
	Restore(step int)
}

// Steps is an embeddable step counter for Branch implementations.
// A fresh branch starts at step 0.
type Steps struct {
	n int
}

// Emit advances the counter and returns out.
func (s *Steps) Emit(out ...domain.Instruction) []domain.Instruction {
	s.n++
	return out
}

// Step returns how many times Emit has been called.
func (s *Steps) Step() int { return s.n }

// Restore sets the counter, e.g. when resuming a persisted session.
func (s *Steps) Restore(step int) { s.n = step }

// BranchFactory builds a fresh Branch instance.
type BranchFactory func() Branch

// StepFunc is a branch body keyed by step number.
type StepFunc func(step int, t ports.Tracker) []domain.Instruction

// Factory adapts fn into a BranchFactory whose instances count their own steps.
func (fn StepFunc) Factory() BranchFactory {
	return func() Branch { return &funcBranch{fn: fn} }
}

type funcBranch struct {
	Steps
	fn StepFunc
}

func (b *funcBranch) Produce(t ports.Tracker) []domain.Instruction {
	return b.Emit(b.fn(b.Step(), t)...)
}

// Sequence returns a factory whose branches emit stages[0] on the first call,
// stages[1] on the second, and nothing once the stages run out.
func Sequence(stages ...[]domain.Instruction) BranchFactory {
	return StepFunc(func(step int, _ ports.Tracker) []domain.Instruction {
		if step >= len(stages) {
			return nil
		}
		return slices.Clone(stages[step])
	}).Factory()
}

// BranchRegistry maps branch identifiers to factories.
// Plans resolve their branches against it when they are built.
type BranchRegistry struct {
	mu        sync.RWMutex
	factories map[string]BranchFactory
}

// NewBranchRegistry creates an empty registry.
func NewBranchRegistry() *BranchRegistry {
	return &BranchRegistry{
		factories: make(map[string]BranchFactory),
	}
}

// Register adds a factory under name.
// If a branch with the same name exists, it is overwritten.
func (r *BranchRegistry) Register(name string, factory BranchFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Lookup returns the factory registered under name.
func (r *BranchRegistry) Lookup(name string) (BranchFactory, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBranch, name)
	}
	return factory, nil
}

// Names returns the registered identifiers, sorted.
func (r *BranchRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
