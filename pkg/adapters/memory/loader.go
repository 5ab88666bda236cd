package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/plotline/pkg/domain"
)

// Loader implements ports.DefinitionLoader over definitions held in memory.
type Loader struct {
	bundle domain.Bundle
}

// NewLoader creates a loader serving the given plan definitions.
func NewLoader(plans ...domain.PlanDefinition) *Loader {
	return &Loader{bundle: domain.Bundle{Plans: slices.Clone(plans)}}
}

// NewFromBundle creates a loader serving a complete bundle.
func NewFromBundle(bundle domain.Bundle) *Loader {
	return &Loader{bundle: bundle}
}

// NewFromMaps decodes raw definitions (as produced by YAML or JSON decoding).
// This improves DX for tests and embedding hosts.
func NewFromMaps(raw ...map[string]any) (*Loader, error) {
	plans := make([]domain.PlanDefinition, 0, len(raw))
	for i, m := range raw {
		def, err := domain.DecodeDefinition(m)
		if err != nil {
			return nil, fmt.Errorf("definition %d: %w", i, err)
		}
		plans = append(plans, def)
	}
	return NewLoader(plans...), nil
}

// WithBranches adds declarative branches to the bundle.
func (l *Loader) WithBranches(branches ...domain.BranchDefinition) *Loader {
	l.bundle.Branches = append(l.bundle.Branches, branches...)
	return l
}

// WithActions declares extra action names.
func (l *Loader) WithActions(actions ...string) *Loader {
	l.bundle.Actions = append(l.bundle.Actions, actions...)
	return l
}

// Load returns a copy of the bundle.
func (l *Loader) Load(ctx context.Context) (*domain.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &domain.Bundle{
		Plans:        slices.Clone(l.bundle.Plans),
		Branches:     slices.Clone(l.bundle.Branches),
		Actions:      slices.Clone(l.bundle.Actions),
		Descriptions: maps.Clone(l.bundle.Descriptions),
	}, nil
}
