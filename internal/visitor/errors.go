package visitor

import (
	"errors"
	"net/http"
)

// ServiceError carries an HTTP-mappable status alongside a caller-facing
// message. Handlers translate it without inspecting message text.
type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

// ErrBadRequest builds a validation failure. No state is mutated before one
// of these is returned.
func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

// ErrNotFound builds a missing-record failure.
func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Message: msg}
}

// ErrVisitorNotFound signals that a session-bound visitor id no longer maps
// to a persisted row.
var ErrVisitorNotFound = errors.New("visitor not found")

// ErrConflict signals a lost race on the unique student id key. The caller
// may resubmit; the now-existing row is then found by lookup.
var ErrConflict = errors.New("concurrent registration conflict")
