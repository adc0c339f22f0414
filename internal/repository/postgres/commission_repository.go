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

const commissionTable = "tournament_commissions"

const commissionSelect = `SELECT id, tournament_id, organizer_id, total_amount::text, commission_percentage::text,
        commission_amount::text, ` + settlementColumns + `, created_at
 FROM tournament_commissions`

// CommissionRepository implements settlement.CommissionRepository using PostgreSQL.
type CommissionRepository struct {
	pool *pgxpool.Pool
}

// NewCommissionRepository creates a new CommissionRepository.
func NewCommissionRepository(pool *pgxpool.Pool) *CommissionRepository {
	return &CommissionRepository{pool: pool}
}

func (r *CommissionRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new commission. Duplicate rows per tournament are allowed.
func (r *CommissionRepository) Create(ctx context.Context, c *settlement.TournamentCommission) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO tournament_commissions
		 (id, tournament_id, organizer_id, total_amount, commission_percentage, commission_amount,
		  payment_status, payment_method, payment_date, payment_proof_url, verified_by, verified_at,
		  created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, c.TournamentID, c.OrganizerID,
		centsToNumericString(c.TotalAmount), percentageString(c.CommissionPercentage), centsToNumericString(c.CommissionAmount),
		string(c.Status), c.PaymentMethod, c.PaymentDate, c.ProofURL, c.VerifiedBy, c.VerifiedAt,
		c.CreatedAt, c.UpdatedAt,
	)
	return classify("insert tournament commission", err)
}

// GetByID retrieves a commission by its ID.
func (r *CommissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*settlement.TournamentCommission, error) {
	return scanCommission(r.db(ctx).QueryRow(ctx, commissionSelect+` WHERE id = $1`, id))
}

// GetLatestByTournament returns the most recently created row for a tournament.
func (r *CommissionRepository) GetLatestByTournament(ctx context.Context, tournamentID string) (*settlement.TournamentCommission, error) {
	return scanCommission(r.db(ctx).QueryRow(ctx,
		commissionSelect+` WHERE tournament_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, tournamentID))
}

// List returns commissions oldest first so that first-seen dedup is stable.
func (r *CommissionRepository) List(ctx context.Context, f settlement.ListFilter) ([]*settlement.TournamentCommission, error) {
	rows, err := r.db(ctx).Query(ctx,
		commissionSelect+` WHERE ($1::text IS NULL OR payment_status = $1)
		   AND ($2::text IS NULL OR tournament_id = $2)
		 ORDER BY created_at ASC, id ASC`, listArgs(f)...)
	if err != nil {
		return nil, classify("list tournament commissions", err)
	}
	defer rows.Close()

	var out []*settlement.TournamentCommission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, classify("list tournament commissions", rows.Err())
}

// UpdateSettlement writes the payment fields only if the stored status equals expected.
func (r *CommissionRepository) UpdateSettlement(ctx context.Context, id uuid.UUID, expected settlement.PaymentStatus, s settlement.Settlement) error {
	return updateSettlement(ctx, r.db(ctx), commissionTable, domainErrors.ErrCommissionNotFound, id, expected, s)
}

func scanCommission(s scanner) (*settlement.TournamentCommission, error) {
	c := &settlement.TournamentCommission{}
	var total, pct, amount, status string

	dest := []any{&c.ID, &c.TournamentID, &c.OrganizerID, &total, &pct, &amount}
	dest = append(dest, settlementDest(&c.Settlement, &status)...)
	dest = append(dest, &c.CreatedAt)

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrCommissionNotFound
		}
		return nil, classify("scan tournament commission", err)
	}

	var err error
	if c.TotalAmount, err = numericStringToCents(total); err != nil {
		return nil, err
	}
	if c.CommissionAmount, err = numericStringToCents(amount); err != nil {
		return nil, err
	}
	if c.CommissionPercentage, err = parsePercentage(pct); err != nil {
		return nil, err
	}
	c.Status = settlement.PaymentStatus(status)
	return c, nil
}
