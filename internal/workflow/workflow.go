// Package workflow defines the lifecycle of a use case and the transitions
// allowed between its states. Every status change, whether requested through
// the gateway or executed by the agent, is checked against this table.
package workflow

import (
	"errors"
	"fmt"
)

// Status represents the lifecycle state of a use case.
type Status string

const (
	StatusNew        Status = "new"
	StatusInReview   Status = "in_review"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusArchived   Status = "archived"
)

var (
	// ErrPolicyViolation matches every *PolicyViolation via errors.Is.
	ErrPolicyViolation = errors.New("status transition not allowed")

	// ErrUnknownStatus indicates a value outside the status enumeration.
	ErrUnknownStatus = errors.New("unknown status")
)

// transitions is the only place the lifecycle graph is declared.
var transitions = map[Status][]Status{
	StatusNew:        {StatusInReview},
	StatusInReview:   {StatusApproved, StatusNew},
	StatusApproved:   {StatusInProgress, StatusInReview},
	StatusInProgress: {StatusCompleted, StatusApproved},
	StatusCompleted:  {StatusArchived},
	StatusArchived:   {},
}

// All returns every status in lifecycle order.
func All() []Status {
	return []Status{
		StatusNew,
		StatusInReview,
		StatusApproved,
		StatusInProgress,
		StatusCompleted,
		StatusArchived,
	}
}

// Parse converts a raw value into a Status.
func Parse(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Valid reports whether s is part of the enumeration.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no forward transition leaves s.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// AllowedNextStates returns the states reachable from current in one step.
// The result is a fresh slice; unknown states yield an empty one.
func AllowedNextStates(current Status) []Status {
	next := transitions[current]
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Validate returns a *PolicyViolation when from -> to is not allowed.
func Validate(from, to Status) error {
	if !CanTransition(from, to) {
		return &PolicyViolation{From: from, To: to, Allowed: AllowedNextStates(from)}
	}
	return nil
}

// ValidateRestore checks the out-of-band un-archive operation, which is not
// part of the transition table. It returns the state a restored use case
// re-enters.
func ValidateRestore(current Status) (Status, error) {
	if current != StatusArchived {
		return "", &PolicyViolation{From: current, To: StatusNew, Restore: true}
	}
	return StatusNew, nil
}

// PolicyViolation describes a rejected status transition.
type PolicyViolation struct {
	From    Status
	To      Status
	Allowed []Status
	Restore bool
}

func (e *PolicyViolation) Error() string {
	if e.Restore {
		return fmt.Sprintf("cannot restore use case in status %q: only archived use cases can be restored", e.From)
	}
	return fmt.Sprintf("invalid transition from %q to %q (allowed: %v)", e.From, e.To, e.Allowed)
}

// Is lets errors.Is(err, ErrPolicyViolation) match.
func (e *PolicyViolation) Is(target error) bool {
	return target == ErrPolicyViolation
}
