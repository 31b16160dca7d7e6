package builders

import (
	"time"

	"github.com/google/uuid"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
)

type VerificationBuilder struct {
	id        verification.ID
	code      string
	accountID account.ID
	createdAt time.Time
}

func NewVerificationBuilder() *VerificationBuilder {
	return &VerificationBuilder{
		id:        uuid.New(),
		code:      uuid.NewString(),
		accountID: NextID(),
		createdAt: time.Now().UTC(),
	}
}

func (b *VerificationBuilder) WithCode(code string) *VerificationBuilder {
	b.code = code
	return b
}

func (b *VerificationBuilder) WithAccountID(id account.ID) *VerificationBuilder {
	b.accountID = id
	return b
}

func (b *VerificationBuilder) For(a *account.Account) *VerificationBuilder {
	b.accountID = a.ID()
	return b
}

func (b *VerificationBuilder) Build() *verification.Verification {
	return verification.Rehydrate(verification.RehydrateArgs{
		ID:        b.id,
		Code:      b.code,
		AccountID: b.accountID,
		CreatedAt: b.createdAt,
	})
}
