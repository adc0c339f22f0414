package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name: "with wrapped error",
			err: &DomainError{
				Code:    "verification_failed",
				Message: "payment verification failed",
				Err:     errors.New("store timeout"),
			},
			expected: "payment verification failed: store timeout",
		},
		{
			name: "without wrapped error",
			err: &DomainError{
				Code:    "invalid_state",
				Message: "cannot verify payment in current state",
			},
			expected: "cannot verify payment in current state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	domainErr := NewDomainError("test", "test message", originalErr)

	assert.Equal(t, originalErr, domainErr.Unwrap())
}

func TestNewTransitionError(t *testing.T) {
	err := NewTransitionError("refund request", "pending", "completed")

	assert.Equal(t, "invalid_transition", err.Code)
	assert.Contains(t, err.Error(), "from pending to completed")
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("percentage", "must be between 0 and 100")

	assert.Equal(t, "validation failed for field percentage: must be between 0 and 100", err.Error())
	assert.ErrorIs(t, err, ErrValidationFailed)

	var ve *ValidationError
	assert.True(t, errors.As(error(err), &ve))
	assert.Equal(t, "percentage", ve.Field)
}

func TestNotFoundFamily(t *testing.T) {
	for _, err := range []error{ErrCommissionNotFound, ErrRegistrationFeeNotFound, ErrRefundNotFound} {
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.NotErrorIs(t, ErrCommissionNotFound, ErrRefundNotFound)
}

func TestUnavailable(t *testing.T) {
	assert.Nil(t, Unavailable(nil))

	err := Unavailable(context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
