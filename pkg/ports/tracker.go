package ports

// Tracker is the read-only view of a conversation that plans decide on.
// Implementations must return an unset value as (nil, false).
type Tracker interface {
	// SlotValue returns the value of a slot and whether it is set.
	SlotValue(name string) (any, bool)

	// SlotValues returns every set slot. Callers must not mutate the result.
	SlotValues() map[string]any

	// LatestIntent returns the most recently recognized intent, or "".
	LatestIntent() string

	// LatestActionName returns the name of the most recently executed action.
	LatestActionName() string
}

// ActionIndex resolves action names against the host's action registry.
type ActionIndex interface {
	// ActionIndex returns the position of name.
	// It fails with domain.ErrUnknownAction if name is not registered.
	ActionIndex(name string) (int, error)
}
