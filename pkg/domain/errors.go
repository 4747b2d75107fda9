package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a key cannot be found in the session store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnauthenticated is returned when a protected operation runs without stored credentials.
// Callers treat it as a redirect to the login flow, not as a failure.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrInvalidTransition is returned when a workflow operation is not valid in the current status.
var ErrInvalidTransition = errors.New("invalid workflow transition")

// ErrNoResults is returned when submitting a truth table that has no output rows.
var ErrNoResults = errors.New("no output rows to submit")

// ErrTooManyInputs is returned when an input count exceeds the configured maximum.
var ErrTooManyInputs = errors.New("too many inputs")

// ErrInvalidInputCount is returned for negative input or output counts.
var ErrInvalidInputCount = errors.New("invalid input count")

// ErrMalformedResponse is returned when a remote response lacks an expected field.
var ErrMalformedResponse = errors.New("malformed response")

// ErrInvalidLogin is returned when login fields fail client-side validation.
var ErrInvalidLogin = errors.New("invalid login")

// ErrUnknownSelection is returned when a module or experiment is not in the catalog.
var ErrUnknownSelection = errors.New("unknown module or experiment")

// ErrLeaseLost is returned when a device lease expired or was taken by another owner.
var ErrLeaseLost = errors.New("device lease lost")

// StatusError is returned when a remote endpoint answers with a non-2xx status.
type StatusError struct {
	Method  string
	URL     string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
}

// AlignmentError reports that the device output table does not match the input table shape.
type AlignmentError struct {
	InputRows   int
	OutputRows  int
	Outputs     int
	BadRowIndex int // -1 when only the row count differs
	BadRowWidth int
}

func (e *AlignmentError) Error() string {
	if e.BadRowIndex >= 0 {
		return fmt.Sprintf("output row %d has %d columns, expected %d", e.BadRowIndex, e.BadRowWidth, e.Outputs)
	}
	return fmt.Sprintf("device returned %d output rows for %d input rows", e.OutputRows, e.InputRows)
}
