package accountapp

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/logging"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
	"gitlab.com/eatsapp/accounts-backend/pkg/sanitizex"
)

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
}

// Login checks the password against the stored digest and issues a session
// token. Verification state does not gate login.
func (a *App) Login(ctx context.Context, cmd Login) (LoginResult, error) {
	ctx, span := a.tracer.Start(ctx, "App.Login")
	defer span.End()

	cmd.Email = sanitizex.CleanEmail(cmd.Email)
	span.SetAttributes(attribute.String("account.email", logging.RedactEmail(cmd.Email)))

	creds, err := a.accounts.GetCredentialsByEmail(ctx, cmd.Email)
	if err != nil {
		if errorx.IsNotFound(err) {
			otelx.RecordSpanError(span, err, "user not found")
			return LoginResult{}, account.ErrUserNotFound.WithCause(err)
		}
		otelx.RecordSpanError(span, err, "failed to load credentials")
		return LoginResult{}, errorx.NewInternalError().WithCause(err)
	}

	if !a.hasher.Compare(creds.PassHash, cmd.Password) {
		otelx.RecordSpanError(span, account.ErrWrongPassword, "wrong password")
		return LoginResult{}, account.ErrWrongPassword
	}

	token, err := a.tokens.Issue(ctx, creds.ID)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to issue token")
		return LoginResult{}, errorx.NewInternalError().WithCause(err)
	}

	span.SetAttributes(attribute.Int64("account.id", int64(creds.ID)))
	return LoginResult{Token: token}, nil
}
