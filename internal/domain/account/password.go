package account

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"gitlab.com/eatsapp/accounts-backend/pkg/validationx"
)

const DefaultPasswordCost = 12

// PasswordHasher turns plaintext passwords into one-way salted digests.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	// Compare reports whether password produces digest. It runs in constant time.
	Compare(digest []byte, password string) bool
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost into the range bcrypt accepts.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(password string) ([]byte, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password hash from password: %w", err)
	}
	return digest, nil
}

// Compare rejects passwords longer than the 72 bytes bcrypt reads. bcrypt
// alone would accept any password sharing that prefix.
func (h *BcryptHasher) Compare(digest []byte, password string) bool {
	if len(password) > validationx.MaxPasswordLen {
		return false
	}
	return bcrypt.CompareHashAndPassword(digest, []byte(password)) == nil
}
