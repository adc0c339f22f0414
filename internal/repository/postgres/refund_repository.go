package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/refund"
)

const refundSelect = `SELECT id, kind, tournament_id, organizer_id, player_id, registration_id, payment_id,
        commission_id, commission_amount::text, refund_amount::text, reason, status,
        admin_notes, refund_method, refund_transaction_id, created_at, updated_at, completed_at
 FROM refund_requests`

// RefundRepository implements refund.Repository using PostgreSQL. A partial
// unique index on subject_key over active statuses backs the one-active-request rule.
type RefundRepository struct {
	pool *pgxpool.Pool
}

func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

func (r *RefundRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *RefundRepository) Create(ctx context.Context, req *refund.Request) error {
	var commissionAmount *string
	if req.Kind == refund.KindTournamentCommission {
		s := centsToNumericString(req.CommissionAmount)
		commissionAmount = &s
	}

	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO refund_requests
		 (id, kind, subject_key, tournament_id, organizer_id, player_id, registration_id, payment_id,
		  commission_id, commission_amount, refund_amount, reason, status,
		  admin_notes, refund_method, refund_transaction_id, created_at, updated_at, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		req.ID, string(req.Kind), req.Key(), req.TournamentID,
		nullIfEmpty(req.OrganizerID), nullIfEmpty(req.PlayerID), nullIfEmpty(req.RegistrationID), req.PaymentID,
		req.CommissionID, commissionAmount, centsToNumericString(req.RefundAmount), req.Reason, string(req.Status),
		req.AdminNotes, req.RefundMethod, req.RefundTransactionID, req.CreatedAt, req.UpdatedAt, req.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domainErrors.ErrActiveRefundExists
		}
		return classify("insert refund request", err)
	}
	return nil
}

func (r *RefundRepository) GetByID(ctx context.Context, id uuid.UUID) (*refund.Request, error) {
	return scanRefund(r.db(ctx).QueryRow(ctx, refundSelect+` WHERE id = $1`, id))
}

func (r *RefundRepository) FindActive(ctx context.Context, subjectKey string) (*refund.Request, error) {
	return scanRefund(r.db(ctx).QueryRow(ctx,
		refundSelect+` WHERE subject_key = $1 AND status IN ('pending', 'approved', 'processing')
		 ORDER BY created_at DESC LIMIT 1`, subjectKey))
}

func (r *RefundRepository) ListCompleted(ctx context.Context, subjectKey string) ([]*refund.Request, error) {
	rows, err := r.db(ctx).Query(ctx,
		refundSelect+` WHERE subject_key = $1 AND status = 'completed'
		 ORDER BY created_at ASC, id ASC`, subjectKey)
	if err != nil {
		return nil, classify("list completed refunds", err)
	}
	defer rows.Close()

	var out []*refund.Request
	for rows.Next() {
		req, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, classify("list completed refunds", rows.Err())
}

func (r *RefundRepository) List(ctx context.Context, f refund.ListFilter) ([]*refund.Request, error) {
	var status, kind *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	if f.Kind != nil {
		k := string(*f.Kind)
		kind = &k
	}

	rows, err := r.db(ctx).Query(ctx,
		refundSelect+` WHERE ($1::text IS NULL OR status = $1)
		   AND ($2::text IS NULL OR kind = $2)
		 ORDER BY created_at ASC, id ASC`, status, kind)
	if err != nil {
		return nil, classify("list refund requests", err)
	}
	defer rows.Close()

	var out []*refund.Request
	for rows.Next() {
		req, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, classify("list refund requests", rows.Err())
}

// UpdateStatus persists the workflow fields of req if the stored status still equals expected.
func (r *RefundRepository) UpdateStatus(ctx context.Context, req *refund.Request, expected refund.Status) error {
	db := r.db(ctx)
	tag, err := db.Exec(ctx,
		`UPDATE refund_requests SET
		  status=$1, admin_notes=$2, refund_method=$3, refund_transaction_id=$4,
		  updated_at=$5, completed_at=$6
		 WHERE id=$7 AND status=$8`,
		string(req.Status), req.AdminNotes, req.RefundMethod, req.RefundTransactionID,
		req.UpdatedAt, req.CompletedAt,
		req.ID, string(expected),
	)
	if err != nil {
		return classify("update refund request", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM refund_requests WHERE id=$1)`, req.ID).Scan(&exists); err != nil {
		return classify("check refund request", err)
	}
	if !exists {
		return domainErrors.ErrRefundNotFound
	}
	return domainErrors.ErrConcurrentModification
}

func scanRefund(s scanner) (*refund.Request, error) {
	req := &refund.Request{}
	var (
		kind, status, refundAmount      string
		organizer, player, registration *string
		commissionAmount                *string
	)
	err := s.Scan(
		&req.ID, &kind, &req.TournamentID, &organizer, &player, &registration, &req.PaymentID,
		&req.CommissionID, &commissionAmount, &refundAmount, &req.Reason, &status,
		&req.AdminNotes, &req.RefundMethod, &req.RefundTransactionID, &req.CreatedAt, &req.UpdatedAt, &req.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRefundNotFound
		}
		return nil, classify("scan refund request", err)
	}

	req.Kind = refund.Kind(kind)
	req.Status = refund.Status(status)
	req.OrganizerID = deref(organizer)
	req.PlayerID = deref(player)
	req.RegistrationID = deref(registration)

	if req.RefundAmount, err = numericStringToCents(refundAmount); err != nil {
		return nil, err
	}
	if commissionAmount != nil {
		if req.CommissionAmount, err = numericStringToCents(*commissionAmount); err != nil {
			return nil, err
		}
	}
	return req, nil
}
