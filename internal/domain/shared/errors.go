package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain errors so the transport layer can map them
// to stable HTTP status codes without inspecting messages.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInvalidState      ErrorKind = "INVALID_STATE"
	KindNotAssigned       ErrorKind = "NOT_ASSIGNED"
	KindCapacityExhausted ErrorKind = "CAPACITY_EXHAUSTED"
	KindUpstream          ErrorKind = "UPSTREAM_ERROR"
	KindValidation        ErrorKind = "VALIDATION_ERROR"
)

// DomainError is the base error type for all domain errors
type DomainError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NewNotFoundError reports a missing entity by resource name and id
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// NewInvalidStateError reports a transition rejected by a state machine
func NewInvalidStateError(message string) *DomainError {
	return &DomainError{Kind: KindInvalidState, Message: message}
}

// NewNotAssignedError reports an actor lacking the assignment for an action
func NewNotAssignedError(message string) *DomainError {
	return &DomainError{Kind: KindNotAssigned, Message: message}
}

// NewCapacityExhaustedError reports that no hub, satellite, or courier is available
func NewCapacityExhaustedError(message string) *DomainError {
	return &DomainError{Kind: KindCapacityExhausted, Message: message}
}

// NewUpstreamError wraps a failure from an external collaborator
// (routing provider, notification sink, identity service).
func NewUpstreamError(message string, cause error) *DomainError {
	return &DomainError{Kind: KindUpstream, Message: message, Cause: cause}
}

// NewValidationError reports malformed input
func NewValidationError(field, message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: fmt.Sprintf("%s: %s", field, message)}
}

// KindOf returns the error's kind, or KindUpstream for unclassified errors
// wrapped around a DomainError, and empty string for plain errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
