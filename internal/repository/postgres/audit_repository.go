package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tourneyhub/settlement/internal/domain/audit"
)

// AuditRepository appends to audit_events. It implements audit.Trail.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, e *audit.Event) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	// Always the pool: an audit entry must not disappear with a rolled back transaction.
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_events (id, actor, action, entity_type, entity_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Actor, e.Action, e.EntityType, e.EntityID, details, e.CreatedAt,
	)
	return classify("insert audit event", err)
}
