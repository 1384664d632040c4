package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a DomainError for transport mapping.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// DomainError is a caller-facing error with a stable code.
type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewValidationError reports caller-fixable input problems.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: ErrCodeValidation, Message: message}
}

// NewConflictError reports a state conflict (overlap, busy lock, already canceled, stale version).
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: ErrCodeConflict, Message: message}
}

// NewForbiddenError reports that the caller does not own the resource.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: ErrCodeForbidden, Message: message}
}

// NewUnauthorizedError reports missing or bad credentials.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Code: ErrCodeUnauthorized, Message: message}
}

// NewInternalError wraps an unexpected failure. The message is safe to show to clients.
func NewInternalError(message string, err error) *DomainError {
	return &DomainError{Code: ErrCodeInternal, Message: message, Err: err}
}

// CodeOf returns the code of the first DomainError in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool   { return err != nil && CodeOf(err) == ErrCodeNotFound }
func IsConflict(err error) bool   { return err != nil && CodeOf(err) == ErrCodeConflict }
func IsForbidden(err error) bool  { return err != nil && CodeOf(err) == ErrCodeForbidden }
func IsValidation(err error) bool { return err != nil && CodeOf(err) == ErrCodeValidation }
