package models

import "fmt"

// ValidationError represents malformed input rejected at a boundary:
// a bad event record, an out-of-taxonomy relationship type, or a
// confidence outside [0,1]. Validation failures never enter the cache
// or the graph.
type ValidationError struct {
	message string
}

// NewValidationError creates a new validation error
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		message: fmt.Sprintf(format, args...),
	}
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return e.message
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// ExternalServiceError represents a failure of an external collaborator
// (semantic classifier or embedding provider). Callers recover locally:
// the affected batch yields zero relationships and may be retried later.
type ExternalServiceError struct {
	Service   string
	Retryable bool
	cause     error
}

// NewExternalServiceError creates a new external service error
func NewExternalServiceError(service string, retryable bool, cause error) *ExternalServiceError {
	return &ExternalServiceError{
		Service:   service,
		Retryable: retryable,
		cause:     cause,
	}
}

// Error returns the error message
func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s service failed: %v", e.Service, e.cause)
}

// Unwrap returns the underlying cause
func (e *ExternalServiceError) Unwrap() error {
	return e.cause
}

// IsExternalServiceError checks if an error is an external service error
func IsExternalServiceError(err error) bool {
	_, ok := err.(*ExternalServiceError)
	return ok
}

// GraphConsistencyError represents an edge referencing an event id that
// is not present in the event store. The edge is parked pending rather
// than dropped, and resolved once the event appears.
type GraphConsistencyError struct {
	EventID string
}

// NewGraphConsistencyError creates a new graph consistency error
func NewGraphConsistencyError(eventID string) *GraphConsistencyError {
	return &GraphConsistencyError{EventID: eventID}
}

// Error returns the error message
func (e *GraphConsistencyError) Error() string {
	return fmt.Sprintf("edge references unknown event %q", e.EventID)
}

// IsGraphConsistencyError checks if an error is a graph consistency error
func IsGraphConsistencyError(err error) bool {
	_, ok := err.(*GraphConsistencyError)
	return ok
}
