package relationship

import (
	"errors"
	"fmt"
)

type Action int

const (
	SendRequest Action = iota
	Accept
	Reject
	Cancel
	Block
	Unblock
	Unfriend
)

var actionNames = [...]string{
	SendRequest: "send_request",
	Accept:      "accept",
	Reject:      "reject",
	Cancel:      "cancel",
	Block:       "block",
	Unblock:     "unblock",
	Unfriend:    "unfriend",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown relationship action %q", s)
}

var ErrPrecondition = errors.New("relationship: action not allowed")

// PreconditionError reports an action attempted from a label that does not
// permit it. It is raised before any backend call.
type PreconditionError struct {
	Action Action
	Label  Label
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("relationship: cannot %s when relationship is %s", e.Action, e.Label)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

// Actions lists the controls available for a label.
func Actions(l Label) []Action {
	switch l {
	case None:
		return []Action{SendRequest, Block}
	case PendingSent:
		return []Action{Cancel}
	case PendingIncoming:
		return []Action{Accept, Reject}
	case Friend:
		return []Action{Unfriend, Block}
	case BlockedByMe:
		return []Action{Unblock}
	case BlockedByThem:
		return nil
	}
	panic(fmt.Sprintf("relationship: unhandled label %d", int(l)))
}

func Allowed(l Label, a Action) bool {
	for _, candidate := range Actions(l) {
		if candidate == a {
			return true
		}
	}
	return false
}

func Check(l Label, a Action) error {
	if !Allowed(l, a) {
		return &PreconditionError{Action: a, Label: l}
	}
	return nil
}

// Effect describes what an allowed action does to the pair's record.
type Effect int

const (
	EffectCreate Effect = iota // new record, sender = viewer
	EffectUpdate               // status change on the existing record
	EffectDelete               // record removed
)

// Outcome is the label the viewer ends up with once an allowed action
// succeeds from label l, and what happens to the pair's record.
func Outcome(l Label, a Action) (Label, Effect) {
	switch a {
	case SendRequest:
		return PendingSent, EffectCreate
	case Accept:
		return Friend, EffectUpdate
	case Reject, Cancel, Unblock, Unfriend:
		return None, EffectDelete
	case Block:
		if l == None {
			return BlockedByMe, EffectCreate
		}
		return BlockedByMe, EffectUpdate
	}
	panic(fmt.Sprintf("relationship: unhandled action %d", int(a)))
}
