package accountapp

import (
	"context"
	"errors"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

// VerifyEmail redeems code. Unknown codes yield verification.ErrNotFound.
func (a *App) VerifyEmail(ctx context.Context, code string) (*account.Account, error) {
	ctx, span := a.tracer.Start(ctx, "App.VerifyEmail")
	defer span.End()

	acc, err := a.verifications.Redeem(ctx, code)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to redeem code")
		if errors.Is(err, verification.ErrNotFound) {
			return nil, err
		}
		return nil, errorx.NewInternalError().WithCause(err)
	}

	return acc, nil
}
