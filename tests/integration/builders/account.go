package builders

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/fixtures"
)

const TestPasswordCost = bcrypt.MinCost

var (
	lastID atomic.Int64

	defaultPassHash = sync.OnceValue(func() []byte {
		return MustHash(fixtures.Password)
	})
)

// NextID hands out account ids unique within the test binary.
func NextID() account.ID {
	return account.ID(lastID.Add(1))
}

func MustHash(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), TestPasswordCost)
	if err != nil {
		panic(fmt.Sprintf("failed to hash test password: %v", err))
	}
	return hash
}

type AccountBuilder struct {
	id        account.ID
	email     string
	passHash  []byte
	role      role.Role
	verified  bool
	createdAt time.Time
	updatedAt time.Time
}

// NewAccountBuilder starts from an unverified client with a unique id and
// email whose password is fixtures.Password.
func NewAccountBuilder() *AccountBuilder {
	id := NextID()
	now := time.Now().UTC()

	return &AccountBuilder{
		id:        id,
		email:     fmt.Sprintf("user%d@eats.com", id),
		passHash:  defaultPassHash(),
		role:      role.Client,
		verified:  false,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *AccountBuilder) WithID(id account.ID) *AccountBuilder {
	b.id = id
	return b
}

func (b *AccountBuilder) WithEmail(email string) *AccountBuilder {
	b.email = email
	return b
}

func (b *AccountBuilder) WithPassword(password string) *AccountBuilder {
	b.passHash = MustHash(password)
	return b
}

func (b *AccountBuilder) WithPassHash(hash []byte) *AccountBuilder {
	b.passHash = hash
	return b
}

func (b *AccountBuilder) WithRole(r role.Role) *AccountBuilder {
	b.role = r
	return b
}

func (b *AccountBuilder) WithVerified(verified bool) *AccountBuilder {
	b.verified = verified
	return b
}

func (b *AccountBuilder) WithCreatedAt(t time.Time) *AccountBuilder {
	b.createdAt = t
	b.updatedAt = t
	return b
}

func (b *AccountBuilder) RehydrateArgs() account.RehydrateAccountArgs {
	return account.RehydrateAccountArgs{
		ID:        b.id,
		Email:     b.email,
		PassHash:  b.passHash,
		Role:      b.role,
		Verified:  b.verified,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}
}

func (b *AccountBuilder) Build() *account.Account {
	return account.RehydrateAccount(b.RehydrateArgs())
}
