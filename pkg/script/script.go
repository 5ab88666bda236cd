// Package script builds tree plan branches from declarative definitions.
//
// Each branch is a list of steps. On every refill the branch emits the
// instructions of the first step whose "when" expression holds; a step without
// an expression always holds. Expressions are expr-lang programs evaluated over:
//
//	step         int             times the branch has produced instructions
//	slots        map[string]any  current slot values (unset slots are nil)
//	intent       string          latest intent, without the "plan_" prefix
//	last_action  string          most recently executed action
//
// Example:
//
//	name: collect
//	steps:
//	  - when: slots.city == nil
//	    do: [SLOT_city]
//	  - when: step < 3
//	    do: [PLAN_COMPLETE, ACTION_utter_confirm]
package script

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/aretw0/plotline/internal/logging"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/plan"
	"github.com/aretw0/plotline/pkg/ports"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is the environment step conditions are evaluated against.
type Env struct {
	Step       int            `expr:"step"`
	Slots      map[string]any `expr:"slots"`
	Intent     string         `expr:"intent"`
	LastAction string         `expr:"last_action"`
}

// Option configures compiled branches.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report condition evaluation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type step struct {
	source  string
	program *vm.Program // nil means always
	do      []domain.Instruction
}

// Compile validates def and compiles its conditions into a branch factory.
func Compile(def domain.BranchDefinition, opts ...Option) (plan.BranchFactory, error) {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	steps := make([]step, 0, len(def.Steps))
	for i, s := range def.Steps {
		compiled := step{source: s.When}
		for _, op := range s.Do {
			inst, err := domain.ParseInstruction(op)
			if err != nil {
				return nil, &domain.DefinitionError{Name: def.Name, Field: fmt.Sprintf("steps[%d].do", i), Reason: err.Error()}
			}
			compiled.do = append(compiled.do, inst)
		}
		if s.When != "" {
			program, err := expr.Compile(s.When, expr.Env(Env{}), expr.AsBool())
			if err != nil {
				return nil, &domain.DefinitionError{Name: def.Name, Field: fmt.Sprintf("steps[%d].when", i), Reason: err.Error()}
			}
			compiled.program = program
		}
		steps = append(steps, compiled)
	}

	name := def.Name
	return func() plan.Branch {
		return &branch{name: name, steps: steps, logger: o.logger}
	}, nil
}

// Register compiles defs and registers them under their names.
func Register(reg *plan.BranchRegistry, defs []domain.BranchDefinition, opts ...Option) error {
	for _, def := range defs {
		factory, err := Compile(def, opts...)
		if err != nil {
			return err
		}
		reg.Register(def.Name, factory)
	}
	return nil
}

// Actions lists the actions defs can make a plan emit, sorted:
// every invoked action plus the ask action of every asked slot.
func Actions(defs []domain.BranchDefinition) []string {
	set := make(map[string]struct{})
	for _, def := range defs {
		for _, inst := range def.Instructions() {
			switch inst.Kind {
			case domain.InvokeAction:
				set[inst.Name] = struct{}{}
			case domain.AskSlot:
				set[domain.AskAction(inst.Name)] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type branch struct {
	plan.Steps
	name   string
	steps  []step
	logger *slog.Logger
}

func (b *branch) Produce(t ports.Tracker) []domain.Instruction {
	env := Env{
		Step:       b.Step(),
		Slots:      t.SlotValues(),
		Intent:     domain.NormalizeIntent(t.LatestIntent()),
		LastAction: t.LatestActionName(),
	}

	for _, s := range b.steps {
		if s.program != nil {
			result, err := expr.Run(s.program, env)
			if err != nil {
				b.logger.Warn("branch condition failed", "branch", b.name, "when", s.source, "err", err)
				continue
			}
			if ok, _ := result.(bool); !ok {
				continue
			}
		}
		return b.Emit(slices.Clone(s.do)...)
	}
	return b.Emit()
}
