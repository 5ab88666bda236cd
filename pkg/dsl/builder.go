package dsl

import (
	"fmt"
	"slices"

	"github.com/aretw0/plotline/pkg/adapters/memory"
	"github.com/aretw0/plotline/pkg/domain"
)

// Builder manages the bundle construction.
type Builder struct {
	forms        map[string]*FormBuilder
	trees        map[string]*TreeBuilder
	branches     map[string]*BranchBuilder
	order        []string
	branchOrder  []string
	actions      []string
	descriptions map[string]string
}

// New creates a new bundle builder.
func New() *Builder {
	return &Builder{
		forms:        make(map[string]*FormBuilder),
		trees:        make(map[string]*TreeBuilder),
		branches:     make(map[string]*BranchBuilder),
		descriptions: make(map[string]string),
	}
}

// Form starts a SimpleForm plan.
// If the form already exists, it returns the existing builder.
func (b *Builder) Form(name string) *FormBuilder {
	if fb, ok := b.forms[name]; ok {
		return fb
	}
	fb := &FormBuilder{def: domain.SimpleFormDefinition{Name: name}, builder: b}
	b.forms[name] = fb
	b.order = append(b.order, name)
	return fb
}

// Tree starts a TreePlan.
// If the plan already exists, it returns the existing builder.
func (b *Builder) Tree(name string) *TreeBuilder {
	if tb, ok := b.trees[name]; ok {
		return tb
	}
	tb := &TreeBuilder{def: domain.TreePlanDefinition{Name: name}, builder: b}
	b.trees[name] = tb
	b.order = append(b.order, name)
	return tb
}

// Branch starts a declarative branch.
// If the branch already exists, it returns the existing builder.
func (b *Builder) Branch(name string) *BranchBuilder {
	if bb, ok := b.branches[name]; ok {
		return bb
	}
	bb := &BranchBuilder{def: domain.BranchDefinition{Name: name}}
	b.branches[name] = bb
	b.branchOrder = append(b.branchOrder, name)
	return bb
}

// Actions declares extra action names, such as those run by handlers.
func (b *Builder) Actions(names ...string) *Builder {
	b.actions = append(b.actions, names...)
	return b
}

// Bundle validates and returns the definitions built so far, in declaration order.
func (b *Builder) Bundle() (*domain.Bundle, error) {
	bundle := &domain.Bundle{
		Actions:      slices.Clone(b.actions),
		Descriptions: make(map[string]string, len(b.descriptions)),
	}
	for _, name := range b.order {
		fb, isForm := b.forms[name]
		tb, isTree := b.trees[name]
		if isForm && isTree {
			return nil, fmt.Errorf("plan %q: %w: declared as both form and tree", name, domain.ErrInvalidDefinition)
		}
		var def domain.PlanDefinition
		if isForm {
			def = fb.Build()
		} else {
			def = tb.Build()
		}
		if err := def.Validate(); err != nil {
			return nil, err
		}
		bundle.Plans = append(bundle.Plans, def)
	}
	for _, name := range b.branchOrder {
		def := b.branches[name].def
		if err := def.Validate(); err != nil {
			return nil, err
		}
		bundle.Branches = append(bundle.Branches, def)
	}
	for name, desc := range b.descriptions {
		bundle.Descriptions[name] = desc
	}
	return bundle, nil
}

// Build compiles the definitions into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	bundle, err := b.Bundle()
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return memory.NewFromBundle(*bundle), nil
}
