package ports

import (
	"context"

	"github.com/aretw0/plotline/pkg/domain"
)

// DefinitionLoader defines how the engine retrieves plan definitions.
// This allows the storage layer (Loam, YAML file, Memory) to be decoupled.
type DefinitionLoader interface {
	// Load returns every plan, declarative branch and action name the source declares.
	// Definitions are decoded but not validated; the catalog validates on Add.
	Load(ctx context.Context) (*domain.Bundle, error)
}

// Watchable is implemented by loaders that can report definition changes.
type Watchable interface {
	// Watch emits an identifier of every changed source until ctx is cancelled.
	Watch(ctx context.Context) (<-chan string, error)
}
