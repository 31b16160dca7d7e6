package mocks

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

// AccountRepo is an in-memory account store with the same contract as the
// postgres repository: reads return detached copies, emails are unique, and
// ids are assigned on save.
type AccountRepo struct {
	mu       sync.Mutex
	byID     map[account.ID]account.RehydrateAccountArgs
	byEmail  map[string]account.ID
	lastID   account.ID
	failures map[string]error
	calls    map[string]int
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{
		byID:     make(map[account.ID]account.RehydrateAccountArgs),
		byEmail:  make(map[string]account.ID),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// FailOn makes every later call to method return err. A nil err clears it.
func (r *AccountRepo) FailOn(method string, err error) *AccountRepo {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		delete(r.failures, method)
	} else {
		r.failures[method] = err
	}
	return r
}

func (r *AccountRepo) enter(method string) error {
	r.calls[method]++
	return r.failures[method]
}

func (r *AccountRepo) SaveAccount(ctx context.Context, a *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("SaveAccount"); err != nil {
		return err
	}
	if _, taken := r.byEmail[a.Email()]; taken {
		return errorx.NewDuplicateEntry().WithCause(fmt.Errorf("email %q already stored", a.Email()))
	}

	id := r.lastID + 1
	if err := a.AssignID(id); err != nil {
		return err
	}
	r.lastID = id
	r.put(a)
	return nil
}

func (r *AccountRepo) GetAccountByID(ctx context.Context, id account.ID) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("GetAccountByID"); err != nil {
		return nil, err
	}
	args, ok := r.byID[id]
	if !ok {
		return nil, errorx.NewNotFound()
	}
	return account.RehydrateAccount(args), nil
}

func (r *AccountRepo) GetAccountByEmail(ctx context.Context, email string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("GetAccountByEmail"); err != nil {
		return nil, err
	}
	id, ok := r.byEmail[email]
	if !ok {
		return nil, errorx.NewNotFound()
	}
	return account.RehydrateAccount(r.byID[id]), nil
}

func (r *AccountRepo) GetCredentialsByEmail(ctx context.Context, email string) (account.Credentials, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("GetCredentialsByEmail"); err != nil {
		return account.Credentials{}, err
	}
	id, ok := r.byEmail[email]
	if !ok {
		return account.Credentials{}, errorx.NewNotFound()
	}
	return account.Credentials{ID: id, PassHash: r.byID[id].PassHash}, nil
}

func (r *AccountRepo) UpdateAccount(ctx context.Context, id account.ID, fn func(ctx context.Context, a *account.Account) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.enter("UpdateAccount"); err != nil {
		return err
	}
	args, ok := r.byID[id]
	if !ok {
		return errorx.NewNotFound()
	}

	a := account.RehydrateAccount(args)
	fnerr := fn(ctx, a)
	if fnerr != nil && !errorx.IsPersistable(fnerr) {
		return fnerr
	}

	if other, taken := r.byEmail[a.Email()]; taken && other != id {
		return errorx.NewDuplicateEntry().WithCause(fmt.Errorf("email %q already stored", a.Email()))
	}
	r.put(a)
	return fnerr
}

// put must be called with mu held.
func (r *AccountRepo) put(a *account.Account) {
	if old, ok := r.byID[a.ID()]; ok && old.Email != a.Email() {
		delete(r.byEmail, old.Email)
	}
	r.byID[a.ID()] = account.RehydrateAccountArgs{
		ID:        a.ID(),
		Email:     a.Email(),
		PassHash:  append([]byte(nil), a.PassHash()...),
		Role:      a.Role(),
		Verified:  a.Verified(),
		CreatedAt: a.CreatedAt(),
		UpdatedAt: a.UpdatedAt(),
	}
	r.byEmail[a.Email()] = a.ID()
}

func (r *AccountRepo) SeedAccount(t *testing.T, a *account.Account) {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID()]; exists {
		t.Fatalf("account with id %s already exists", a.ID())
	}
	if _, exists := r.byEmail[a.Email()]; exists {
		t.Fatalf("account with email %s already exists", a.Email())
	}

	r.put(a)
	r.lastID = max(r.lastID, a.ID())
}

// Get returns the stored state of id, failing the test when absent.
func (r *AccountRepo) Get(t *testing.T, id account.ID) *account.Account {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	args, ok := r.byID[id]
	require.True(t, ok, "account %s not found", id)
	return account.RehydrateAccount(args)
}

func (r *AccountRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byID)
}

func (r *AccountRepo) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.calls[method]
}

func (r *AccountRepo) AssertCount(t *testing.T, want int) *AccountRepo {
	t.Helper()
	assert.Equal(t, want, r.Count(), "stored account count")
	return r
}

func (r *AccountRepo) AssertVerified(t *testing.T, id account.ID, want bool) *AccountRepo {
	t.Helper()
	assert.Equal(t, want, r.Get(t, id).Verified(), "account %s verified flag", id)
	return r
}

func (r *AccountRepo) AssertEmail(t *testing.T, id account.ID, want string) *AccountRepo {
	t.Helper()
	assert.Equal(t, want, r.Get(t, id).Email(), "account %s email", id)
	return r
}

func (r *AccountRepo) AssertNoEmail(t *testing.T, email string) *AccountRepo {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byEmail[email]
	assert.False(t, ok, "email %s should not be stored", email)
	return r
}
