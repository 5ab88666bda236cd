package domain

import (
	"context"
	"time"
)

// EventType defines the category of an observability event.
type EventType string

const (
	EventDecision        EventType = "decision"
	EventPlanActivated   EventType = "plan_activated"
	EventPlanDeactivated EventType = "plan_deactivated"
	EventActionExecuted  EventType = "action_executed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// DecisionEvent reports one plan decision.
type DecisionEvent struct {
	EventBase
	Plan     string        `json:"plan,omitempty"`
	Action   string        `json:"action,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// PlanEvent reports plan activation or deactivation.
type PlanEvent struct {
	EventBase
	Plan     string `json:"plan"`
	Complete bool   `json:"complete,omitempty"`
}

// ActionEvent reports an action executed by the host loop.
type ActionEvent struct {
	EventBase
	Action string `json:"action"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnDecision        func(context.Context, *DecisionEvent)
	OnPlanActivated   func(context.Context, *PlanEvent)
	OnPlanDeactivated func(context.Context, *PlanEvent)
	OnActionExecuted  func(context.Context, *ActionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnDecision:        chain(h.OnDecision, other.OnDecision),
		OnPlanActivated:   chain(h.OnPlanActivated, other.OnPlanActivated),
		OnPlanDeactivated: chain(h.OnPlanDeactivated, other.OnPlanDeactivated),
		OnActionExecuted:  chain(h.OnActionExecuted, other.OnActionExecuted),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
