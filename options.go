package plotline

import (
	"log/slog"
	"time"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/observability"
	"github.com/aretw0/plotline/pkg/plan"
	"github.com/aretw0/plotline/pkg/ports"
	"github.com/aretw0/plotline/pkg/registry"
)

// DefaultMaxActionsPerTurn bounds the actions a single Turn may execute.
const DefaultMaxActionsPerTurn = 10

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCatalog uses a prebuilt catalog instead of loading definitions.
// Branches implemented in code must already be registered on the catalog's branch registry.
func WithCatalog(c *plan.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithLoader injects a custom DefinitionLoader.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithDefinitionsDir loads definitions from a Loam repository at path.
func WithDefinitionsDir(path string) Option {
	return func(e *Engine) {
		e.definitionsDir = path
	}
}

// WithDefinitionsFile loads definitions from a YAML or JSON bundle file (or directory of them).
func WithDefinitionsFile(path string) Option {
	return func(e *Engine) {
		e.definitionsFile = path
	}
}

// WithBranch registers a branch implemented in code. Declarative branches with
// the same name take precedence.
func WithBranch(name string, factory plan.BranchFactory) Option {
	return func(e *Engine) {
		e.codeBranches[name] = factory
	}
}

// WithActions declares extra action names, typically the actions invoked by code branches.
func WithActions(names ...string) Option {
	return func(e *Engine) {
		e.extraActions = append(e.extraActions, names...)
	}
}

// WithActionHandler registers a host action with a handler producing lifecycle events.
func WithActionHandler(name string, fn registry.ActionFunc) Option {
	return func(e *Engine) {
		e.handlers[name] = fn
	}
}

// WithStore sets the session store (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records decisions and lifecycle events into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
		e.hooks = e.hooks.Merge(m.Hooks())
	}
}

// WithHooks registers observability hooks. Repeated calls accumulate.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithChooser sets the chooser forms use to pick the next question.
func WithChooser(c plan.Chooser) Option {
	return func(e *Engine) {
		e.planOpts = append(e.planOpts, plan.WithChooser(c))
	}
}

// WithMaxTransitions bounds the branch switches of one tree plan decision.
func WithMaxTransitions(n int) Option {
	return func(e *Engine) {
		e.planOpts = append(e.planOpts, plan.WithMaxTransitions(n))
	}
}

// WithMaxActionsPerTurn bounds the actions a single Turn may execute.
func WithMaxActionsPerTurn(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxActions = n
		}
	}
}

// WithMaxInputSize bounds the byte length of the intent and of each string slot value.
// It overrides PLOTLINE_MAX_INPUT_SIZE.
func WithMaxInputSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxInputSize = n
		}
	}
}
