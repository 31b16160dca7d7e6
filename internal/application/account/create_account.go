package accountapp

import (
	"context"
	"log/slog"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/logging"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
	"gitlab.com/eatsapp/accounts-backend/pkg/sanitizex"
	"gitlab.com/eatsapp/accounts-backend/pkg/validationx"
)

type CreateAccount struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     role.Role `json:"role"`
}

// CreateAccount stores a new unverified account, gives it a verification code
// and mails the code. A taken email yields account.ErrEmailTaken, bad input a
// validation.Errors, and anything else ErrAccountCreationFailed.
func (a *App) CreateAccount(ctx context.Context, cmd CreateAccount) (*account.Account, error) {
	ctx, span := a.tracer.Start(ctx, "App.CreateAccount")
	defer span.End()

	cmd.Email = sanitizex.CleanEmail(cmd.Email)
	span.SetAttributes(
		attribute.String("account.email", logging.RedactEmail(cmd.Email)),
		attribute.String("account.role", cmd.Role.String()),
	)

	err := validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Email, account.EmailRules(a.mode)...),
		validation.Field(&cmd.Password, validationx.PasswordRules...),
		validation.Field(&cmd.Role, validation.Required),
	)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid input")
		return nil, err
	}

	existing, err := a.accounts.GetAccountByEmail(ctx, cmd.Email)
	switch {
	case err == nil && existing != nil:
		otelx.RecordSpanError(span, account.ErrEmailTaken, "email taken")
		return nil, account.ErrEmailTaken
	case err != nil && !errorx.IsNotFound(err):
		otelx.RecordSpanError(span, err, "failed to look up email")
		return nil, ErrAccountCreationFailed.WithCause(err)
	}

	passHash, err := a.hasher.Hash(cmd.Password)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to hash password")
		return nil, ErrAccountCreationFailed.WithCause(err)
	}

	acc, err := account.NewAccount(account.NewAccountArgs{
		Email:    cmd.Email,
		PassHash: passHash,
		Role:     cmd.Role,
		Mode:     a.mode,
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to build account")
		return nil, err
	}

	if err := a.accounts.SaveAccount(ctx, acc); err != nil {
		if errorx.IsDuplicateEntry(err) {
			otelx.RecordSpanError(span, err, "email taken at save")
			return nil, account.ErrEmailTaken.WithCause(err)
		}
		otelx.RecordSpanError(span, err, "failed to save account")
		return nil, ErrAccountCreationFailed.WithCause(err)
	}
	span.SetAttributes(attribute.Int64("account.id", int64(acc.ID())))

	v, err := a.verifications.IssueFor(ctx, acc)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to issue verification")
		a.logger.ErrorContext(ctx, "account saved without verification code",
			slog.Int64("account.id", int64(acc.ID())),
			slog.Any("error", err),
		)
		return nil, ErrAccountCreationFailed.WithCause(err)
	}

	a.notify(ctx, acc, v)

	span.AddEvent("account created", trace.WithAttributes(attribute.Int64("account.id", int64(acc.ID()))))
	a.logger.InfoContext(ctx, "account created",
		slog.Int64("account.id", int64(acc.ID())),
		slog.String("account.role", acc.Role().String()),
	)

	return acc, nil
}
