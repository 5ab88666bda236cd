package domain

import (
	"reflect"
)

// StateDiff represents the changes between two conversation snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Slots contains only changed, added or deleted slots.
	// For deletions, the key is present with a nil value.
	Slots map[string]any `json:"slots,omitempty"`

	// LatestAction is set when the most recent action changed.
	LatestAction *string `json:"latest_action,omitempty"`

	// ActivePlan is set when the active plan changed. An empty string means the plan was cleared.
	ActivePlan *string `json:"active_plan,omitempty"`

	// Events contains events appended since the old snapshot.
	Events []string `json:"events,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState.
func Diff(oldState, newState *ConversationSnapshot) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.LatestAction != newState.LatestAction {
		diff.LatestAction = &newState.LatestAction
	}

	oldPlan, newPlan := planName(oldState), planName(newState)
	if oldState == nil && newPlan != "" || oldState != nil && oldPlan != newPlan {
		diff.ActivePlan = &newPlan
	}

	diff.Slots = diffSlots(oldState, newState)
	diff.Events = diffEvents(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func planName(s *ConversationSnapshot) string {
	if s == nil || s.ActivePlan == nil {
		return ""
	}
	return s.ActivePlan.Name
}

func diffSlots(old, new *ConversationSnapshot) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Slots {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.Slots {
		oldVal, exists := old.Slots[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old.Slots {
		if _, exists := new.Slots[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffEvents assumes the event log is append-only.
func diffEvents(old, new *ConversationSnapshot) []string {
	if len(new.Events) == 0 {
		return nil
	}
	if old == nil {
		return new.Events
	}
	if len(new.Events) > len(old.Events) {
		return new.Events[len(old.Events):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.LatestAction == nil &&
		d.ActivePlan == nil &&
		len(d.Slots) == 0 &&
		len(d.Events) == 0
}
