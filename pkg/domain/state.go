package domain

import "time"

// PlanSnapshot captures the volatile runtime fields of an active plan so a session
// can be resumed on another turn (or another replica).
type PlanSnapshot struct {
	Name          string        `json:"name"`
	Kind          PlanKind      `json:"kind"`
	CurrentBranch string        `json:"current_branch,omitempty"`
	BranchStep    int           `json:"branch_step,omitempty"`
	Queue         []Instruction `json:"queue,omitempty"`
	LastQuestion  string        `json:"last_question,omitempty"`
	Complete      bool          `json:"complete,omitempty"`
}

// ConversationSnapshot is the persisted form of a conversation tracker.
type ConversationSnapshot struct {
	SessionID    string         `json:"session_id"`
	Slots        map[string]any `json:"slots"`
	LatestIntent string         `json:"latest_intent,omitempty"`
	LatestAction string         `json:"latest_action,omitempty"`
	// Events lists the names of applied lifecycle events and executed actions, in order.
	Events     []string      `json:"events,omitempty"`
	ActivePlan *PlanSnapshot `json:"active_plan,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewConversationSnapshot creates an empty conversation for sessionID.
func NewConversationSnapshot(sessionID string) *ConversationSnapshot {
	return &ConversationSnapshot{
		SessionID:    sessionID,
		Slots:        make(map[string]any),
		LatestAction: ActionListen,
	}
}

// Clone returns a copy that shares no mutable collections with s.
func (s *ConversationSnapshot) Clone() *ConversationSnapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Slots = make(map[string]any, len(s.Slots))
	for k, v := range s.Slots {
		c.Slots[k] = v
	}
	c.Events = append([]string(nil), s.Events...)
	if s.ActivePlan != nil {
		p := *s.ActivePlan
		p.Queue = append([]Instruction(nil), s.ActivePlan.Queue...)
		c.ActivePlan = &p
	}
	return &c
}
