package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

// VerificationRepository is the append-only payment_verifications table.
type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func (r *VerificationRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *VerificationRepository) Append(ctx context.Context, rec *settlement.VerificationRecord) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payment_verifications (id, payment_id, payment_type, verified_by, verified_at, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.PaymentID, string(rec.PaymentType), rec.VerifiedBy, rec.VerifiedAt, string(rec.Status), rec.Notes,
	)
	return classify("insert payment verification", err)
}

func (r *VerificationRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*settlement.VerificationRecord, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, payment_id, payment_type, verified_by, verified_at, status, notes
		 FROM payment_verifications WHERE payment_id = $1 ORDER BY verified_at ASC`, paymentID,
	)
	if err != nil {
		return nil, classify("list payment verifications", err)
	}
	defer rows.Close()

	var out []*settlement.VerificationRecord
	for rows.Next() {
		rec := &settlement.VerificationRecord{}
		var paymentType, status string
		if err := rows.Scan(&rec.ID, &rec.PaymentID, &paymentType, &rec.VerifiedBy, &rec.VerifiedAt, &status, &rec.Notes); err != nil {
			return nil, classify("scan payment verification", err)
		}
		rec.PaymentType = settlement.PaymentType(paymentType)
		rec.Status = settlement.Decision(status)
		out = append(out, rec)
	}
	return out, classify("list payment verifications", rows.Err())
}
