package account

import (
	"errors"

	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

var (
	ErrEmailTaken    = errorx.NewConflict().WithKey("email_taken")
	ErrUserNotFound  = errorx.NewNotFound().WithKey("user_not_found")
	ErrWrongPassword = errorx.NewUnauthorized().WithKey("wrong_password")

	ErrMissingPassHash = errorx.NewValidationFieldFailed("password_hash")
)

var (
	ErrNilAccount        = errors.New("account is nil")
	ErrInvalidID         = errors.New("account id must be a positive integer")
	ErrIDAlreadyAssigned = errors.New("account id is already assigned")
)
