package domain

// TurnInput is what a host learned from one user message.
type TurnInput struct {
	// Intent is the recognized intent, possibly carrying the "plan_" prefix.
	Intent string `json:"intent"`
	// Slots are written before any decision; a nil value unsets the slot.
	Slots map[string]any `json:"slots,omitempty"`
	// Plan, if set, activates the named plan before deciding.
	Plan string `json:"plan,omitempty"`
}

// ExecutedAction is one action run during a turn.
type ExecutedAction struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
	Plan   string `json:"plan,omitempty"`
}

// TurnResult reports the actions a turn executed and the resulting conversation.
type TurnResult struct {
	SessionID string                `json:"session_id"`
	Actions   []ExecutedAction      `json:"actions"`
	State     *ConversationSnapshot `json:"state"`
	Diff      *StateDiff            `json:"diff,omitempty"`
}

// PlanInfo describes a registered plan for introspection surfaces.
type PlanInfo struct {
	Name        string         `json:"name"`
	Kind        PlanKind       `json:"kind"`
	Description string         `json:"description,omitempty"`
	Actions     []string       `json:"actions"`
	Definition  PlanDefinition `json:"definition"`
}
