package domain

import "strings"

// Built-in action names.
const (
	// ActionListen stalls the plan until the next user message.
	ActionListen = "action_listen"
	// ActionActivatePlan installs the requested plan on the conversation.
	ActionActivatePlan = "activate_plan"
	// ActionDeactivatePlan removes the active plan and records whether it completed.
	ActionDeactivatePlan = "deactivate_plan"
)

// Naming conventions shared by plans and hosts.
const (
	// AskActionPrefix prefixes every "request slot value" action.
	AskActionPrefix = "utter_ask_"
	// ExplainActionPrefix prefixes every clarification action.
	ExplainActionPrefix = "utter_explain"
	// IntentPlanPrefix is stripped from intents before plan lookups.
	IntentPlanPrefix = "plan_"
)

// Slots written by the plan lifecycle.
const (
	SlotActivePlan    = "active_plan"
	SlotPlanComplete  = "plan_complete"
	SlotRequestedPlan = "requested_plan"
)

// AskAction returns the action that asks the user for slot.
func AskAction(slot string) string {
	return AskActionPrefix + slot
}

// ExplainAction returns the clarification action for slot within subject.
func ExplainAction(slot, subject string) string {
	return ExplainActionPrefix + "_" + slot + "_" + subject
}

// IsAskAction reports whether action requests a slot value.
func IsAskAction(action string) bool {
	return strings.Contains(action, AskActionPrefix)
}

// IsExplainAction reports whether action is a clarification response.
func IsExplainAction(action string) bool {
	return strings.Contains(action, ExplainActionPrefix)
}

// NormalizeIntent strips a single leading IntentPlanPrefix.
func NormalizeIntent(intent string) string {
	return strings.TrimPrefix(intent, IntentPlanPrefix)
}
