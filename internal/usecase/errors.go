package usecase

import "fmt"

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aborts an operation before any write happens.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msg := "validation failed: "
	for i, v := range e {
		if i > 0 {
			msg += ", "
		}
		msg += v.Field + " (" + v.Message + ")"
	}
	return msg
}

func IsValidationError(err error) bool {
	switch err.(type) {
	case ValidationError, ValidationErrors, *ValidationError:
		return true
	}
	return false
}

// ConflictError means the operation is blocked by existing references and the
// caller should offer the archive alternative.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func IsConflictError(err error) bool {
	_, ok := err.(*ConflictError)
	return ok
}

// ExternalServiceError wraps webhook/network failures. The remote side effect
// may or may not have happened, so callers retry against idempotent ingestion.
type ExternalServiceError struct {
	Service string
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func IsExternalServiceError(err error) bool {
	_, ok := err.(*ExternalServiceError)
	return ok
}

// InconsistencyError records a tolerated partial failure (e.g. leads_count
// update failing after the campaign insert succeeded). Logged and counted,
// never fatal to the overall operation.
type InconsistencyError struct {
	Op      string
	Message string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("inconsistency in %s: %s", e.Op, e.Message)
}

func IsInconsistencyError(err error) bool {
	_, ok := err.(*InconsistencyError)
	return ok
}
