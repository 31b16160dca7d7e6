package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/adapters/repos/postgres"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
)

type Helper struct {
	pool          *pgxpool.Pool
	accounts      *postgres.AccountRepo
	verifications *postgres.VerificationRepo
}

type Args struct {
	Pool          *pgxpool.Pool
	Accounts      *postgres.AccountRepo
	Verifications *postgres.VerificationRepo
}

func NewHelper(args Args) *Helper {
	if args.Pool == nil {
		panic("pgxpool.Pool is required")
	}
	if args.Accounts == nil {
		args.Accounts = postgres.NewAccountRepo(args.Pool, nil, nil)
	}
	if args.Verifications == nil {
		args.Verifications = postgres.NewVerificationRepo(args.Pool, nil, nil)
	}

	return &Helper{
		pool:          args.Pool,
		accounts:      args.Accounts,
		verifications: args.Verifications,
	}
}

func (h *Helper) QueryOne(t *testing.T, query string, args ...any) pgx.Row {
	t.Helper()
	return h.pool.QueryRow(context.Background(), query, args...)
}

func (h *Helper) Exec(t *testing.T, query string, args ...any) pgconn.CommandTag {
	t.Helper()

	tag, err := h.pool.Exec(context.Background(), query, args...)
	require.NoError(t, err)

	return tag
}

func (h *Helper) TruncateAll(t *testing.T) {
	t.Helper()

	for _, table := range []string{"verifications", "accounts", "restaurants"} {
		_, err := h.pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		require.NoError(t, err, "failed to truncate table %s", table)
	}
}

// SeedAccount inserts a through the repository. The database assigns the id,
// so the builder's id is replaced; use the returned account afterwards.
func (h *Helper) SeedAccount(t *testing.T, a *account.Account) *account.Account {
	t.Helper()

	fresh := account.RehydrateAccount(account.RehydrateAccountArgs{
		Email:     a.Email(),
		PassHash:  a.PassHash(),
		Role:      a.Role(),
		Verified:  a.Verified(),
		CreatedAt: a.CreatedAt(),
		UpdatedAt: a.UpdatedAt(),
	})
	require.NoError(t, h.accounts.SaveAccount(t.Context(), fresh), "failed to seed account %s", a.Email())
	return fresh
}

func (h *Helper) SeedVerification(t *testing.T, v *verification.Verification) {
	t.Helper()
	require.NoError(t, h.verifications.ReplaceVerification(t.Context(), v), "failed to seed verification")
}

func (h *Helper) RequireAccountExists(t *testing.T, email string) *AccountAssertion {
	t.Helper()

	a, err := h.accounts.GetAccountByEmail(t.Context(), email)
	require.NoError(t, err, "account not found for email: %s", email)

	return &AccountAssertion{t: t, a: a}
}

func (h *Helper) RequireAccount(t *testing.T, id account.ID) *AccountAssertion {
	t.Helper()

	a, err := h.accounts.GetAccountByID(t.Context(), id)
	require.NoError(t, err, "account not found for id: %s", id)

	return &AccountAssertion{t: t, a: a}
}

func (h *Helper) RequireAccountNotExists(t *testing.T, email string) {
	t.Helper()

	var count int
	err := h.pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM accounts WHERE email = $1", email).Scan(&count)

	require.NoError(t, err)
	assert.Equal(t, 0, count, "expected no account for email %s", email)
}

func (h *Helper) RequireAccountCount(t *testing.T, expected int) {
	t.Helper()

	var count int
	err := h.pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM accounts").Scan(&count)

	require.NoError(t, err)
	assert.Equal(t, expected, count, "unexpected account count")
}

// RequireVerificationCode returns the live code of id, failing when there is none.
func (h *Helper) RequireVerificationCode(t *testing.T, id account.ID) string {
	t.Helper()

	v, err := h.verifications.GetVerificationByAccountID(t.Context(), id)
	require.NoError(t, err, "no verification for account %s", id)

	return v.Code()
}

func (h *Helper) RequireVerificationCount(t *testing.T, id account.ID, expected int) {
	t.Helper()

	var count int
	err := h.pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM verifications WHERE account_id = $1", int64(id)).Scan(&count)

	require.NoError(t, err)
	assert.Equal(t, expected, count, "unexpected verification count for account %s", id)
}

func (h *Helper) RequireCodeNotExists(t *testing.T, code string) {
	t.Helper()

	var exists bool
	err := h.pool.QueryRow(context.Background(),
		"SELECT EXISTS(SELECT 1 FROM verifications WHERE code = $1)", code).Scan(&exists)

	require.NoError(t, err)
	assert.False(t, exists, "expected code %s to be gone", code)
}

type AccountAssertion struct {
	t *testing.T
	a *account.Account
}

func (a *AccountAssertion) Account() *account.Account {
	return a.a
}

func (a *AccountAssertion) HasEmail(expected string) *AccountAssertion {
	a.t.Helper()
	assert.Equal(a.t, expected, a.a.Email(), "unexpected email")
	return a
}

func (a *AccountAssertion) HasRole(expected role.Role) *AccountAssertion {
	a.t.Helper()
	assert.Equal(a.t, expected, a.a.Role(), "unexpected role")
	return a
}

func (a *AccountAssertion) IsVerified(expected bool) *AccountAssertion {
	a.t.Helper()
	assert.Equal(a.t, expected, a.a.Verified(), "unexpected verified flag")
	return a
}

func (a *AccountAssertion) HasPassword(hasher account.PasswordHasher, password string) *AccountAssertion {
	a.t.Helper()
	assert.True(a.t, hasher.Compare(a.a.PassHash(), password), "stored digest does not match password")
	assert.NotEqual(a.t, []byte(password), a.a.PassHash(), "password stored in plain text")
	return a
}
