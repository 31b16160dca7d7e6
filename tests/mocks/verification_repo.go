package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

// VerificationRepo keeps verification records next to the accounts of the
// AccountRepo it was built from. Both share one lock, so redemption is atomic
// with respect to every account and verification operation.
type VerificationRepo struct {
	accounts *AccountRepo
	byCode   map[string]verification.RehydrateArgs
}

func NewVerificationRepo(accounts *AccountRepo) *VerificationRepo {
	return &VerificationRepo{
		accounts: accounts,
		byCode:   make(map[string]verification.RehydrateArgs),
	}
}

func (r *VerificationRepo) ReplaceVerification(ctx context.Context, v *verification.Verification) error {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()

	if err := r.accounts.enter("ReplaceVerification"); err != nil {
		return err
	}
	if _, ok := r.accounts.byID[v.AccountID()]; !ok {
		return errorx.NewNotFound()
	}

	r.deleteFor(v.AccountID())
	r.put(v)
	return nil
}

func (r *VerificationRepo) RedeemVerification(
	ctx context.Context,
	code string,
	fn func(ctx context.Context, a *account.Account) error,
) (*account.Account, error) {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()

	if err := r.accounts.enter("RedeemVerification"); err != nil {
		return nil, err
	}
	v, ok := r.byCode[code]
	if !ok {
		return nil, errorx.NewNotFound()
	}
	args, ok := r.accounts.byID[v.AccountID]
	if !ok {
		return nil, errorx.NewNotFound()
	}

	a := account.RehydrateAccount(args)
	if err := fn(ctx, a); err != nil {
		return nil, err
	}

	r.accounts.put(a)
	delete(r.byCode, code)
	return account.RehydrateAccount(r.accounts.byID[a.ID()]), nil
}

func (r *VerificationRepo) GetVerificationByAccountID(ctx context.Context, id account.ID) (*verification.Verification, error) {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()

	for _, v := range r.byCode {
		if v.AccountID == id {
			return verification.Rehydrate(v), nil
		}
	}
	return nil, errorx.NewNotFound()
}

// deleteFor and put must be called with the account lock held.
func (r *VerificationRepo) deleteFor(id account.ID) {
	for code, v := range r.byCode {
		if v.AccountID == id {
			delete(r.byCode, code)
		}
	}
}

func (r *VerificationRepo) put(v *verification.Verification) {
	r.byCode[v.Code()] = verification.RehydrateArgs{
		ID:        v.ID(),
		Code:      v.Code(),
		AccountID: v.AccountID(),
		CreatedAt: v.CreatedAt(),
	}
}

func (r *VerificationRepo) SeedVerification(t *testing.T, v *verification.Verification) {
	t.Helper()

	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()

	if _, exists := r.byCode[v.Code()]; exists {
		t.Fatalf("verification with code %s already exists", v.Code())
	}
	if _, ok := r.accounts.byID[v.AccountID()]; !ok {
		t.Fatalf("verification references unknown account %s", v.AccountID())
	}
	r.deleteFor(v.AccountID())
	r.put(v)
}

// CodeFor returns the live code of id, or "" when there is none.
func (r *VerificationRepo) CodeFor(id account.ID) string {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()

	for code, v := range r.byCode {
		if v.AccountID == id {
			return code
		}
	}
	return ""
}

func (r *VerificationRepo) Count() int {
	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()

	return len(r.byCode)
}

func (r *VerificationRepo) AssertCount(t *testing.T, want int) *VerificationRepo {
	t.Helper()
	assert.Equal(t, want, r.Count(), "stored verification count")
	return r
}

func (r *VerificationRepo) AssertCodeAbsent(t *testing.T, code string) *VerificationRepo {
	t.Helper()

	r.accounts.mu.Lock()
	defer r.accounts.mu.Unlock()

	_, ok := r.byCode[code]
	assert.False(t, ok, "verification code %s should not be stored", code)
	return r
}

func (r *VerificationRepo) AssertHasCode(t *testing.T, id account.ID) string {
	t.Helper()

	code := r.CodeFor(id)
	assert.NotEmpty(t, code, "account %s should have a live verification", id)
	return code
}
