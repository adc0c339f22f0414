package errors

import (
	"errors"
	"fmt"
)

var (
	// Store errors
	ErrBackendUnavailable     = errors.New("ledger store unavailable")
	ErrConcurrentModification = errors.New("concurrent modification")

	// Lookup errors
	ErrNotFound                = errors.New("not found")
	ErrCommissionNotFound      = fmt.Errorf("tournament commission %w", ErrNotFound)
	ErrRegistrationFeeNotFound = fmt.Errorf("registration fee %w", ErrNotFound)
	ErrRefundNotFound          = fmt.Errorf("refund request %w", ErrNotFound)

	// State machine errors
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidPaymentType     = errors.New("invalid payment type")
	ErrInvalidRefundKind      = errors.New("invalid refund kind")

	// Refund errors
	ErrActiveRefundExists = errors.New("an active refund request already exists for this subject")

	// Lock errors
	ErrLockAcquisitionFailed = errors.New("failed to acquire lock")
	ErrLockNotHeld           = errors.New("lock not held")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewTransitionError reports a status change that is not reachable from the current status.
func NewTransitionError(entity, from, to string) *DomainError {
	return NewDomainError(
		"invalid_transition",
		fmt.Sprintf("cannot transition %s from %s to %s", entity, from, to),
		ErrInvalidStateTransition,
	)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Unavailable marks err as a ledger store outage while keeping the cause in the chain.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}
