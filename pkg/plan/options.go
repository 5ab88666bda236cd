package plan

import (
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/plotline/internal/logging"
)

// DefaultMaxTransitions bounds the branch switches a TreePlan may take in one decision.
const DefaultMaxTransitions = 32

// Chooser picks an index in [0, n).
type Chooser interface {
	Intn(n int) int
}

// ChooserFunc adapts a function to Chooser.
type ChooserFunc func(n int) int

func (f ChooserFunc) Intn(n int) int { return f(n) }

// RandomChooser picks uniformly at random.
var RandomChooser Chooser = ChooserFunc(rand.IntN)

// Option configures a plan.
type Option func(*config)

type config struct {
	logger         *slog.Logger
	chooser        Chooser
	maxTransitions int
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:         logging.NewNop(),
		chooser:        RandomChooser,
		maxTransitions: DefaultMaxTransitions,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger used for non-fatal plan events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithChooser replaces the random source forms use to pick the next slot.
func WithChooser(chooser Chooser) Option {
	return func(c *config) {
		if chooser != nil {
			c.chooser = chooser
		}
	}
}

// WithMaxTransitions sets how many branch switches and completions a TreePlan
// may process within one decision before failing with domain.ErrCycleDetected.
func WithMaxTransitions(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxTransitions = n
		}
	}
}
