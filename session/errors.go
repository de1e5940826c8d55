package session

import (
	"errors"
	"fmt"

	"inkline/relationship"
)

var (
	ErrAnonymous = errors.New("session: sign in required")
	ErrBusy      = errors.New("session: action already in progress for this entity")
	ErrForbidden = errors.New("session: not permitted to view this user")
	ErrSelf      = errors.New("session: that is the viewer's own profile")
	ErrNotFound  = errors.New("session: not found")
	ErrNoSession = errors.New("session: unknown or expired session")
)

// StaleError reports a friendship action the backend refused because the
// pair's state had moved on. Label is the relationship after refreshing.
type StaleError struct {
	Action relationship.Action
	Label  relationship.Label
	Err    error
}

func (e *StaleError) Error() string {
	return fmt.Sprintf("session: %s no longer applies (now %s): %v", e.Action, e.Label, e.Err)
}

func (e *StaleError) Unwrap() error {
	return e.Err
}
