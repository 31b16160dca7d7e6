package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gitlab.com/eatsapp/accounts-backend/pkg/ctxs"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

var (
	ErrNoRowsAffected = errors.New("no rows affected")
	ErrNilFunc        = errors.New("update function cannot be nil")
)

// translate turns driver errors the application branches on into errorx
// values: missing rows become not-found and unique violations duplicate-entry.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errorx.NewNotFound().WithCause(errorx.Wrap(err, op))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errorx.NewDuplicateEntry().WithCause(errorx.Wrap(err, op))
	}

	return errorx.Wrap(err, op)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q returns the transaction carried by ctx, falling back to pool.
func q(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, ok := ctxs.Tx(ctx); ok {
		return tx
	}
	return pool
}
