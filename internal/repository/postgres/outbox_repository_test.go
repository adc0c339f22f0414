package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
)

// execErrTx is a pgx.Tx whose Exec always fails. Other methods are unused.
type execErrTx struct {
	pgx.Tx
	err error
}

func (tx execErrTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, tx.err
}

func withTx(tx pgx.Tx) context.Context {
	return context.WithValue(context.Background(), txKey, tx)
}

func TestOutboxRepository_MarkErrorsAreClassified(t *testing.T) {
	repo := NewOutboxRepository(nil)
	down := withTx(execErrTx{err: &pgconn.PgError{Code: "08006"}})

	err := repo.MarkPublished(down, uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrBackendUnavailable)

	err = repo.MarkFailed(down, uuid.New())
	assert.ErrorIs(t, err, domainErrors.ErrBackendUnavailable)

	plain := errors.New("syntax error")
	err = repo.MarkFailed(withTx(execErrTx{err: plain}), uuid.New())
	assert.ErrorIs(t, err, plain)
	assert.NotErrorIs(t, err, domainErrors.ErrBackendUnavailable)
}
