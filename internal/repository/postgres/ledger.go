package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const settlementColumns = `payment_status, payment_method, payment_date, payment_proof_url, verified_by, verified_at, updated_at`

// settlementDest returns scan targets for settlementColumns.
func settlementDest(s *settlement.Settlement, status *string) []any {
	return []any{status, &s.PaymentMethod, &s.PaymentDate, &s.ProofURL, &s.VerifiedBy, &s.VerifiedAt, &s.UpdatedAt}
}

// updateSettlement is the compare-and-swap write shared by both ledger tables.
// table is always a package constant, never user input.
func updateSettlement(ctx context.Context, db DBTX, table string, notFound error, id uuid.UUID, expected settlement.PaymentStatus, s settlement.Settlement) error {
	updatedAt := s.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	tag, err := db.Exec(ctx,
		`UPDATE `+table+` SET
		  payment_status=$1, payment_method=$2, payment_date=$3, payment_proof_url=$4,
		  verified_by=$5, verified_at=$6, updated_at=$7
		 WHERE id=$8 AND payment_status=$9`,
		string(s.Status), s.PaymentMethod, s.PaymentDate, s.ProofURL,
		s.VerifiedBy, s.VerifiedAt, updatedAt,
		id, string(expected),
	)
	if err != nil {
		return classify("update "+table, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id=$1)`, id).Scan(&exists); err != nil {
		return classify("check "+table, err)
	}
	if !exists {
		return notFound
	}
	return domainErrors.ErrConcurrentModification
}

// listArgs maps a ListFilter onto the nullable $1/$2 placeholders used by list queries.
func listArgs(f settlement.ListFilter) []any {
	var status, tournament *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	if f.TournamentID != nil {
		tournament = f.TournamentID
	}
	return []any{status, tournament}
}
