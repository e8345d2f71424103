package chat

import "errors"

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyMessage is returned when the trimmed message text is empty.
	ErrEmptyMessage = &ValidationError{Field: "message", Reason: "message is empty"}

	// ErrSendInFlight is returned when a send starts while another is running.
	ErrSendInFlight = errors.New("a message is already being sent")
)

// ValidationError rejects user input before any work starts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
