package workflows

import (
	"fmt"

	"givehub/portal-backend/pkg/apperr"
)

// StateMachine enforces status transitions for a single entity lifecycle
type StateMachine[S ~string] struct {
	name               string
	allowedTransitions map[S][]S
}

// NewStateMachine creates a state machine from an adjacency list of allowed transitions
func NewStateMachine[S ~string](name string, transitions map[S][]S) *StateMachine[S] {
	return &StateMachine[S]{name: name, allowedTransitions: transitions}
}

// CanTransition checks if a status transition is allowed
func (sm *StateMachine[S]) CanTransition(from, to S) bool {
	for _, allowedTo := range sm.allowedTransitions[from] {
		if allowedTo == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the allowed next statuses for a given status
func (sm *StateMachine[S]) AllowedTransitions(from S) []S {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []S{}
	}
	return allowed
}

// Transition returns an error wrapping apperr.ErrInvalidTransition when from -> to is not allowed
func (sm *StateMachine[S]) Transition(from, to S) error {
	if !sm.CanTransition(from, to) {
		return fmt.Errorf("%s cannot move from %q to %q: %w", sm.name, from, to, apperr.ErrInvalidTransition)
	}
	return nil
}

// IsTerminal reports whether no transition leaves the status
func (sm *StateMachine[S]) IsTerminal(status S) bool {
	return len(sm.allowedTransitions[status]) == 0
}
