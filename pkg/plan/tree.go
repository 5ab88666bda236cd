package plan

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/ports"
)

var _ Plan = (*TreePlan)(nil)

// TreePlan interprets the instruction queues produced by a graph of branches.
type TreePlan struct {
	def       domain.TreePlanDefinition
	factories map[string]BranchFactory
	guards    interceptors
	cfg       config

	currentName  string
	current      Branch
	queue        []domain.Instruction
	lastQuestion string
	complete     bool
}

// NewTreePlan validates def and resolves every branch it lists against branches.
// An unregistered branch fails with domain.ErrUnknownBranch.
func NewTreePlan(def domain.TreePlanDefinition, branches *BranchRegistry, opts ...Option) (*TreePlan, error) {
	def = def.Normalize()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	def.Branches = slices.Clone(def.Branches)
	if branches == nil {
		branches = NewBranchRegistry()
	}

	factories := make(map[string]BranchFactory, len(def.Branches))
	for _, name := range def.Branches {
		factory, err := branches.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("plan %q: %w", def.Name, err)
		}
		factories[name] = factory
	}

	p := &TreePlan{
		def:       def,
		factories: factories,
		guards:    newInterceptors(def.ExitDict, def.ChitchatDict),
		cfg:       newConfig(opts),
	}
	if err := p.enter(def.StartCheckpoint); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *TreePlan) Name() string          { return p.def.Name }
func (p *TreePlan) Kind() domain.PlanKind { return domain.KindTreePlan }

// Decide runs the guards, then interprets queued instructions until one yields an action.
func (p *TreePlan) Decide(ctx context.Context, t ports.Tracker, actions ports.ActionIndex) (Decision, error) {
	if action, reason, ok := p.guards.check(t); ok {
		return resolve(p.def.Name, actions, action, reason)
	}

	for transitions := 0; ; transitions++ {
		if transitions > p.cfg.maxTransitions {
			return Decision{}, &domain.CycleError{Plan: p.def.Name, Branch: p.currentName, Limit: p.cfg.maxTransitions}
		}
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}

		if len(p.queue) == 0 {
			p.queue = slices.Clone(p.current.Produce(t))
		}

		if p.lastQuestion != "" {
			if !filled(t, p.lastQuestion) {
				return resolve(p.def.Name, actions, domain.AskAction(p.lastQuestion), ReasonReask)
			}
			p.lastQuestion = ""
		}

		if len(p.queue) == 0 {
			p.cfg.logger.Debug("branch produced no instructions, quitting plan",
				"plan", p.def.Name, "branch", p.currentName)
			return resolve(p.def.Name, actions, p.def.FinishAction, ReasonQuit)
		}

		next := p.queue[0]
		p.queue = p.queue[1:]

		switch next.Kind {
		case domain.EnterBranch:
			if err := p.enter(next.Name); err != nil {
				return Decision{}, err
			}
		case domain.InvokeAction:
			return resolve(p.def.Name, actions, next.Name, ReasonInvoke)
		case domain.AskSlot:
			p.lastQuestion = next.Name
			return resolve(p.def.Name, actions, domain.AskAction(next.Name), ReasonAsk)
		case domain.QuitPlan:
			p.queue = nil
			p.lastQuestion = ""
			return resolve(p.def.Name, actions, p.def.FinishAction, ReasonQuit)
		case domain.PlanComplete:
			p.complete = true
		default:
			return Decision{}, fmt.Errorf("plan %q: %w: instruction kind %d", p.def.Name, domain.ErrInvalidDefinition, int(next.Kind))
		}
	}
}

// enter replaces the current branch with a fresh instance and drops the queue.
func (p *TreePlan) enter(name string) error {
	factory, ok := p.factories[name]
	if !ok {
		return fmt.Errorf("plan %q: %w: %s", p.def.Name, domain.ErrUnknownBranch, name)
	}
	p.currentName = name
	p.current = factory()
	p.queue = nil
	return nil
}

// CheckComplete reports whether a PlanComplete instruction has been processed.
func (p *TreePlan) CheckComplete(ports.Tracker) bool { return p.complete }

// CurrentBranch returns the identifier of the branch being interpreted.
func (p *TreePlan) CurrentBranch() string { return p.currentName }

// Queue returns a copy of the pending instructions.
func (p *TreePlan) Queue() []domain.Instruction { return slices.Clone(p.queue) }

// LastQuestion returns the slot awaiting an answer, or "".
func (p *TreePlan) LastQuestion() string { return p.lastQuestion }

// Definition returns the declarative form of the plan.
func (p *TreePlan) Definition() domain.PlanDefinition {
	def := p.def
	def.Branches = slices.Clone(p.def.Branches)
	def.ExitDict = p.guards.exitDict()
	def.ChitchatDict = p.guards.chitchatDict()
	return domain.TreeDefinition(def)
}

func (p *TreePlan) Snapshot() domain.PlanSnapshot {
	snap := domain.PlanSnapshot{
		Name:          p.def.Name,
		Kind:          domain.KindTreePlan,
		CurrentBranch: p.currentName,
		Queue:         slices.Clone(p.queue),
		LastQuestion:  p.lastQuestion,
		Complete:      p.complete,
	}
	if s, ok := p.current.(Stepper); ok {
		snap.BranchStep = s.Step()
	}
	return snap
}

// Restore re-enters the snapshot's branch and fast-forwards its step counter.
// Branches that do not implement Stepper restart from step 0.
func (p *TreePlan) Restore(snap domain.PlanSnapshot) error {
	if snap.Kind != "" && snap.Kind != domain.KindTreePlan {
		return fmt.Errorf("plan %q: cannot restore %s snapshot", p.def.Name, snap.Kind)
	}
	branch := snap.CurrentBranch
	if branch == "" {
		branch = p.def.StartCheckpoint
	}
	if err := p.enter(branch); err != nil {
		return err
	}
	if s, ok := p.current.(Stepper); ok {
		s.Restore(snap.BranchStep)
	}
	p.queue = slices.Clone(snap.Queue)
	p.lastQuestion = snap.LastQuestion
	p.complete = snap.Complete
	return nil
}
