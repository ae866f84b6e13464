package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound     = errors.New("form session not found")
	ErrSessionMissing      = errors.New("form session not established")
	ErrUnknownField        = errors.New("unknown form field")
	ErrInvalidSubmission   = errors.New("submission failed validation")
	ErrSubmissionInFlight  = errors.New("a submission is already in flight")
	ErrSubmissionFailed    = errors.New("submission failed")
	ErrSessionConflict     = errors.New("form session modified concurrently")
	ErrBackendNotAvailable = errors.New("beta tester backend not available")
)

// BackendStatusError is a non-2xx answer from the beta-tester backend.
type BackendStatusError struct {
	Code       int
	StatusText string
}

func (e *BackendStatusError) Error() string {
	return fmt.Sprintf("backend responded %d %s", e.Code, e.StatusText)
}

// BackendTransportError means the request never completed.
type BackendTransportError struct {
	Err error
}

func (e *BackendTransportError) Error() string {
	return e.Err.Error()
}

func (e *BackendTransportError) Unwrap() error {
	return e.Err
}
