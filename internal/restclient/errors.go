package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	// ErrEmptyBody indicates a success response without the expected JSON body.
	ErrEmptyBody = errors.New("empty response body")

	// ErrMalformedResponse indicates a success response whose body does not
	// have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-success response from the backend.
type APIError struct {
	StatusCode int
	// Detail is the human-readable "detail" field of the body, if present.
	Detail string
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			apiErr.Detail = s
		} else {
			// validation errors carry a structured detail; keep it readable
			apiErr.Detail = string(payload.Detail)
		}
	}
	return apiErr
}

// Reason is the detail if the backend sent one, otherwise "HTTP <status>".
func (e *APIError) Reason() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *APIError) Error() string {
	return e.Reason()
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// Reason extracts a user-facing failure reason from any error. Transport
// failures get a fixed phrase so request URLs never reach the user.
func Reason(err error) string {
	var apiErr *APIError
	var urlErr *url.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Reason()
	case errors.Is(err, ErrEmptyBody), errors.Is(err, ErrMalformedResponse):
		return ErrMalformedResponse.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.As(err, &urlErr):
		return "service unreachable"
	}
	return err.Error()
}
