package plan

import (
	"context"
	"fmt"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/ports"
)

// Reason explains which rule produced a Decision.
type Reason string

const (
	ReasonListen   Reason = "listen"   // Waiting for the user after a question or an exit
	ReasonExit     Reason = "exit"     // Exit intent
	ReasonChitchat Reason = "chitchat" // Chitchat intent
	ReasonDetails  Reason = "details"  // Clarification requested
	ReasonFinish   Reason = "finish"   // Form has every required slot
	ReasonReask    Reason = "reask"    // Pending question still unanswered
	ReasonAsk      Reason = "ask"      // New question
	ReasonInvoke   Reason = "invoke"   // Branch action
	ReasonQuit     Reason = "quit"     // Tree plan quit (explicit or empty branch)
	ReasonIdle     Reason = "idle"     // No active plan
)

// Decision is the action a plan chose for the current turn.
type Decision struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
	Reason Reason `json:"reason"`
}

// Plan decides the next action for one conversation.
// Instances are stateful and must not be shared between sessions.
type Plan interface {
	Name() string
	Kind() domain.PlanKind

	// Decide returns the next action. It fails when the chosen action is not in
	// actions; the plan does not fall back to another action.
	Decide(ctx context.Context, t ports.Tracker, actions ports.ActionIndex) (Decision, error)

	// CheckComplete reports whether the plan finished successfully.
	CheckComplete(t ports.Tracker) bool

	// Definition returns the declarative form the plan was built from.
	Definition() domain.PlanDefinition

	// Snapshot captures the volatile runtime fields.
	Snapshot() domain.PlanSnapshot

	// Restore reinstates fields captured by Snapshot on a fresh instance.
	Restore(snap domain.PlanSnapshot) error
}

// Session is a conversation that lifecycle events can mutate.
type Session interface {
	ports.Tracker
	SetSlot(name string, value any)
	ActivatePlan(p Plan)
	DeactivatePlan()
	ActivePlan() Plan
}

func resolve(plan string, actions ports.ActionIndex, action string, reason Reason) (Decision, error) {
	idx, err := actions.ActionIndex(action)
	if err != nil {
		return Decision{}, fmt.Errorf("plan %q: %w", plan, err)
	}
	return Decision{Action: action, Index: idx, Reason: reason}, nil
}
