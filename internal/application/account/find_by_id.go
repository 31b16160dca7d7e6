package accountapp

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

func (a *App) FindByID(ctx context.Context, id account.ID) (*account.Account, error) {
	ctx, span := a.tracer.Start(ctx, "App.FindByID",
		trace.WithAttributes(attribute.Int64("account.id", int64(id))),
	)
	defer span.End()

	if id <= 0 {
		otelx.RecordSpanError(span, account.ErrUserNotFound, "non-positive id")
		return nil, account.ErrUserNotFound
	}

	acc, err := a.accounts.GetAccountByID(ctx, id)
	if err != nil {
		if errorx.IsNotFound(err) {
			otelx.RecordSpanError(span, err, "user not found")
			return nil, account.ErrUserNotFound.WithCause(err)
		}
		otelx.RecordSpanError(span, err, "failed to load account")
		return nil, errorx.NewInternalError().WithCause(err)
	}

	return acc, nil
}
