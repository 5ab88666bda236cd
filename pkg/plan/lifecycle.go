package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/plotline/internal/logging"
	"github.com/aretw0/plotline/pkg/domain"
)

// Event is a mutation of conversation state produced by an action.
type Event interface {
	Name() string
	ApplyTo(s Session)
}

// PlanActivated installs a plan on the conversation.
type PlanActivated struct {
	Plan Plan
}

func (e PlanActivated) Name() string { return string(domain.EventPlanActivated) }

func (e PlanActivated) ApplyTo(s Session) { s.ActivatePlan(e.Plan) }

// PlanDeactivated clears the conversation's active plan.
type PlanDeactivated struct{}

func (PlanDeactivated) Name() string { return string(domain.EventPlanDeactivated) }

func (PlanDeactivated) ApplyTo(s Session) { s.DeactivatePlan() }

// SlotSet writes a slot value.
type SlotSet struct {
	Slot  string
	Value any
}

func (e SlotSet) Name() string { return "slot" }

func (e SlotSet) ApplyTo(s Session) { s.SetSlot(e.Slot, e.Value) }

// Apply applies events to s in order.
func Apply(s Session, events ...Event) {
	for _, ev := range events {
		ev.ApplyTo(s)
	}
}

// Action is a built-in action whose effect is a list of events.
type Action interface {
	Name() string
	Run(ctx context.Context, s Session) ([]Event, error)
}

// ActivateAction starts the plan named by the requested_plan slot.
type ActivateAction struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewActivateAction creates the activation action for catalog.
func NewActivateAction(catalog *Catalog, logger *slog.Logger) *ActivateAction {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ActivateAction{catalog: catalog, logger: logger}
}

func (a *ActivateAction) Name() string { return domain.ActionActivatePlan }

// Run activates the plan named by the requested_plan slot.
func (a *ActivateAction) Run(ctx context.Context, s Session) ([]Event, error) {
	var name string
	if v, ok := s.SlotValue(domain.SlotRequestedPlan); ok && v != nil {
		name = fmt.Sprint(v)
	}
	return a.RunFor(ctx, s, name)
}

// RunFor activates the named plan. An unknown plan is logged and leaves the
// conversation without an active plan; it is not an error.
func (a *ActivateAction) RunFor(ctx context.Context, _ Session, name string) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := a.catalog.Instantiate(name)
	if err != nil {
		a.logger.Error("tried to activate a plan that is not in the catalog", "plan", name, "err", err)
		return []Event{SlotSet{Slot: domain.SlotActivePlan, Value: false}}, nil
	}

	return []Event{
		PlanActivated{Plan: p},
		SlotSet{Slot: domain.SlotActivePlan, Value: true},
	}, nil
}

// CompleteAction deactivates the active plan and records whether it finished.
type CompleteAction struct {
	logger *slog.Logger
}

// NewCompleteAction creates the deactivation action.
func NewCompleteAction(logger *slog.Logger) *CompleteAction {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CompleteAction{logger: logger}
}

func (a *CompleteAction) Name() string { return domain.ActionDeactivatePlan }

func (a *CompleteAction) Run(ctx context.Context, s Session) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	complete := false
	if p := s.ActivePlan(); p != nil {
		complete = p.CheckComplete(s)
	} else {
		a.logger.Warn("deactivating without an active plan")
	}

	return []Event{
		PlanDeactivated{},
		SlotSet{Slot: domain.SlotActivePlan, Value: false},
		SlotSet{Slot: domain.SlotPlanComplete, Value: complete},
	}, nil
}
