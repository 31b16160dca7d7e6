package ctxs

import (
	"context"

	"github.com/jackc/pgx/v5"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
)

type ctxKey string

const (
	txKey      ctxKey = "pgxTx"
	accountKey ctxKey = "account"
)

func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

func Tx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok && tx != nil
}

// WithAccount attaches the authenticated account to the request context.
func WithAccount(ctx context.Context, a *account.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// AccountFromCtx returns the authenticated account, or false when the request is anonymous.
func AccountFromCtx(ctx context.Context) (*account.Account, bool) {
	a, ok := ctx.Value(accountKey).(*account.Account)
	return a, ok && a != nil
}
