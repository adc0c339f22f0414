package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

const feeTable = "player_registration_fees"

const feeSelect = `SELECT id, tournament_id, player_id, registration_id, registration_fee::text,
        commission_percentage::text, commission_amount::text, total_amount::text,
        ` + settlementColumns + `, created_at
 FROM player_registration_fees`

// FeeRepository implements settlement.FeeRepository using PostgreSQL.
type FeeRepository struct {
	pool *pgxpool.Pool
}

func NewFeeRepository(pool *pgxpool.Pool) *FeeRepository {
	return &FeeRepository{pool: pool}
}

func (r *FeeRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *FeeRepository) Create(ctx context.Context, f *settlement.PlayerRegistrationFee) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO player_registration_fees
		 (id, tournament_id, player_id, registration_id, registration_fee, commission_percentage,
		  commission_amount, total_amount, payment_status, payment_method, payment_date,
		  payment_proof_url, verified_by, verified_at, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		f.ID, f.TournamentID, f.PlayerID, f.RegistrationID,
		centsToNumericString(f.RegistrationFee), percentageString(f.CommissionPercentage),
		centsToNumericString(f.CommissionAmount), centsToNumericString(f.TotalAmount),
		string(f.Status), f.PaymentMethod, f.PaymentDate, f.ProofURL, f.VerifiedBy, f.VerifiedAt,
		f.CreatedAt, f.UpdatedAt,
	)
	return classify("insert registration fee", err)
}

func (r *FeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*settlement.PlayerRegistrationFee, error) {
	return scanFee(r.db(ctx).QueryRow(ctx, feeSelect+` WHERE id = $1`, id))
}

func (r *FeeRepository) List(ctx context.Context, f settlement.ListFilter) ([]*settlement.PlayerRegistrationFee, error) {
	rows, err := r.db(ctx).Query(ctx,
		feeSelect+` WHERE ($1::text IS NULL OR payment_status = $1)
		   AND ($2::text IS NULL OR tournament_id = $2)
		 ORDER BY created_at ASC, id ASC`, listArgs(f)...)
	if err != nil {
		return nil, classify("list registration fees", err)
	}
	defer rows.Close()

	var out []*settlement.PlayerRegistrationFee
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fee)
	}
	return out, classify("list registration fees", rows.Err())
}

func (r *FeeRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, expected settlement.PaymentStatus, s settlement.Settlement) error {
	return updateSettlement(ctx, r.db(ctx), feeTable, domainErrors.ErrRegistrationFeeNotFound, id, expected, s)
}

func scanFee(s scanner) (*settlement.PlayerRegistrationFee, error) {
	f := &settlement.PlayerRegistrationFee{}
	var fee, pct, commission, total, status string

	dest := []any{&f.ID, &f.TournamentID, &f.PlayerID, &f.RegistrationID, &fee, &pct, &commission, &total}
	dest = append(dest, settlementDest(&f.Settlement, &status)...)
	dest = append(dest, &f.CreatedAt)

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRegistrationFeeNotFound
		}
		return nil, classify("scan registration fee", err)
	}

	var err error
	if f.RegistrationFee, err = numericStringToCents(fee); err != nil {
		return nil, err
	}
	if f.CommissionAmount, err = numericStringToCents(commission); err != nil {
		return nil, err
	}
	if f.TotalAmount, err = numericStringToCents(total); err != nil {
		return nil, err
	}
	if f.CommissionPercentage, err = parsePercentage(pct); err != nil {
		return nil, err
	}
	f.Status = settlement.PaymentStatus(status)
	return f, nil
}
