package refund

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create inserts a new request. Returns errors.ErrActiveRefundExists when
	// the subject already has an active request.
	Create(ctx context.Context, r *Request) error

	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// FindActive returns the non-terminal request for a subject key, or ErrRefundNotFound
	FindActive(ctx context.Context, subjectKey string) (*Request, error)

	// ListCompleted returns the completed requests for a subject key, oldest first.
	ListCompleted(ctx context.Context, subjectKey string) ([]*Request, error)

	List(ctx context.Context, filter ListFilter) ([]*Request, error)

	// UpdateStatus persists r only if the stored status still equals expected
	UpdateStatus(ctx context.Context, r *Request, expected Status) error
}

// ListFilter narrows refund listings.
type ListFilter struct {
	Status *Status
	Kind   *Kind
}

// Matches applies the filter to a request in memory.
func (f ListFilter) Matches(r *Request) bool {
	if f.Status != nil && *f.Status != r.Status {
		return false
	}
	if f.Kind != nil && *f.Kind != r.Kind {
		return false
	}
	return true
}
