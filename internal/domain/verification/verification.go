package verification

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

var (
	ErrNotFound = errorx.NewNotFound().WithKey("verification_not_found")

	ErrMissingAccountID = errors.New("verification must belong to an account")
)

type ID = uuid.UUID

// Verification binds a single-use code to exactly one account. A new record
// always gets a fresh random code; codes are never reused.
type Verification struct {
	id        ID
	code      string
	accountID account.ID
	createdAt time.Time
}

func New(accountID account.ID) (*Verification, error) {
	if accountID <= 0 {
		return nil, ErrMissingAccountID
	}

	return &Verification{
		id:        uuid.New(),
		code:      uuid.NewString(),
		accountID: accountID,
		createdAt: time.Now().UTC(),
	}, nil
}

type RehydrateArgs struct {
	ID        ID
	Code      string
	AccountID account.ID
	CreatedAt time.Time
}

func Rehydrate(args RehydrateArgs) *Verification {
	return &Verification{
		id:        args.ID,
		code:      args.Code,
		accountID: args.AccountID,
		createdAt: args.CreatedAt,
	}
}

func (v *Verification) ID() ID {
	if v == nil {
		return uuid.Nil
	}
	return v.id
}

func (v *Verification) Code() string {
	if v == nil {
		return ""
	}
	return v.code
}

func (v *Verification) AccountID() account.ID {
	if v == nil {
		return 0
	}
	return v.accountID
}

func (v *Verification) CreatedAt() time.Time {
	if v == nil {
		return time.Time{}
	}
	return v.createdAt
}
