package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned when an action name is not registered in the action index.
var ErrUnknownAction = errors.New("unknown action")

// ErrUnknownPlan is returned when a plan name cannot be resolved against the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// ErrUnknownBranch is returned when a branch identifier is not registered.
var ErrUnknownBranch = errors.New("unknown branch")

// ErrCycleDetected is returned when a tree plan exceeds its transition budget in a single decision.
var ErrCycleDetected = errors.New("cycle detected")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when creating a session whose ID is already taken.
var ErrSessionExists = errors.New("session already exists")

// ErrInvalidDefinition is returned when a plan or branch definition is malformed.
var ErrInvalidDefinition = errors.New("invalid definition")

// ErrTurnLimit is returned when a single turn executes more actions than allowed.
var ErrTurnLimit = errors.New("turn action limit exceeded")

// ErrInvalidInput is returned when a turn input is rejected by sanitization.
var ErrInvalidInput = errors.New("invalid input")

// UnknownActionError names the action that failed to resolve.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %s", e.Name)
}

func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }

// CycleError reports a tree plan that kept switching branches without producing an action.
type CycleError struct {
	Plan   string
	Branch string
	Limit  int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("plan %q: no action after %d transitions (last branch %q)", e.Plan, e.Limit, e.Branch)
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// DefinitionError reports a malformed field in a declarative definition.
type DefinitionError struct {
	Name   string // Plan or branch name, if known
	Field  string
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", e.Name, e.Field, e.Reason)
}

func (e *DefinitionError) Unwrap() error { return ErrInvalidDefinition }
