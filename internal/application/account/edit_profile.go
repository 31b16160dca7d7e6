package accountapp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ARUMANDESU/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
	"gitlab.com/eatsapp/accounts-backend/pkg/sanitizex"
	"gitlab.com/eatsapp/accounts-backend/pkg/validationx"
)

// EditProfile carries optional replacements; nil fields are left alone.
type EditProfile struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// EditProfile applies every change in one save. A new email drops the
// verified flag, replaces the verification code and mails the new one.
//
// The account is saved before the code is issued, so a failure while issuing
// leaves the new email unverified with no live code; requesting the same
// change again does not help since the email is then unchanged.
func (a *App) EditProfile(ctx context.Context, id account.ID, cmd EditProfile) error {
	ctx, span := a.tracer.Start(ctx, "App.EditProfile",
		trace.WithAttributes(
			attribute.Int64("account.id", int64(id)),
			attribute.Bool("edit.email", cmd.Email != nil),
			attribute.Bool("edit.password", cmd.Password != nil),
		),
	)
	defer span.End()

	if cmd.Email != nil {
		cleaned := sanitizex.CleanEmail(*cmd.Email)
		cmd.Email = &cleaned
	}
	err := validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Email, validation.When(cmd.Email != nil, account.EmailRules(a.mode)...)),
		validation.Field(&cmd.Password, validation.When(cmd.Password != nil, validationx.PasswordRules...)),
	)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid input")
		return err
	}

	current, err := a.accounts.GetAccountByID(ctx, id)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to load account")
		return ErrProfileUpdateFailed.WithCause(err)
	}

	emailChange := cmd.Email != nil && *cmd.Email != current.Email()
	if emailChange {
		owner, err := a.accounts.GetAccountByEmail(ctx, *cmd.Email)
		switch {
		case err == nil && owner.ID() != id:
			otelx.RecordSpanError(span, account.ErrEmailTaken, "email taken")
			return account.ErrEmailTaken
		case err != nil && !errorx.IsNotFound(err):
			otelx.RecordSpanError(span, err, "failed to look up email")
			return ErrProfileUpdateFailed.WithCause(err)
		}
	}

	var passHash []byte
	if cmd.Password != nil {
		passHash, err = a.hasher.Hash(*cmd.Password)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to hash password")
			return ErrProfileUpdateFailed.WithCause(err)
		}
	}

	if !emailChange && passHash == nil {
		return nil
	}

	var updated *account.Account
	err = a.accounts.UpdateAccount(ctx, id, func(ctx context.Context, acc *account.Account) error {
		if emailChange {
			if _, err := acc.ChangeEmail(*cmd.Email, a.mode); err != nil {
				return err
			}
		}
		if passHash != nil {
			if err := acc.SetPassHash(passHash); err != nil {
				return err
			}
		}
		updated = acc
		return nil
	})
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to update account")

		var verrs validation.Errors
		switch {
		case errorx.IsDuplicateEntry(err):
			return account.ErrEmailTaken.WithCause(err)
		case errors.As(err, &verrs):
			return verrs
		default:
			return ErrProfileUpdateFailed.WithCause(err)
		}
	}

	if emailChange {
		v, err := a.verifications.IssueFor(ctx, updated)
		if err != nil {
			otelx.RecordSpanError(span, err, "failed to issue verification")
			a.logger.ErrorContext(ctx, "email changed without verification code",
				slog.Int64("account.id", int64(id)),
				slog.Any("error", err),
			)
			return ErrProfileUpdateFailed.WithCause(err)
		}
		a.notify(ctx, updated, v)
	}

	a.logger.InfoContext(ctx, "profile updated",
		slog.Int64("account.id", int64(id)),
		slog.Bool("email_changed", emailChange),
		slog.Bool("password_changed", passHash != nil),
	)
	return nil
}
