package verificationapp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/builders"
	"gitlab.com/eatsapp/accounts-backend/tests/mocks"
)

type ManagerSuite struct {
	Manager       *Manager
	Accounts      *mocks.AccountRepo
	Verifications *mocks.VerificationRepo
}

func NewManagerSuite() *ManagerSuite {
	accounts := mocks.NewAccountRepo()
	verifications := mocks.NewVerificationRepo(accounts)

	return &ManagerSuite{
		Manager:       NewManager(Args{Repo: verifications}),
		Accounts:      accounts,
		Verifications: verifications,
	}
}

func TestNewManager_NilRepo_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewManager(Args{}) })
}

func TestManager_IssueFor(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().Build()
	s.Accounts.SeedAccount(t, a)

	v, err := s.Manager.IssueFor(t.Context(), a)
	require.NoError(t, err)
	assert.Equal(t, a.ID(), v.AccountID())
	assert.NotEmpty(t, v.Code())

	s.Verifications.AssertCount(t, 1)
	assert.Equal(t, v.Code(), s.Verifications.CodeFor(a.ID()))
}

func TestManager_IssueFor_ReplacesPreviousCode(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().Build()
	s.Accounts.SeedAccount(t, a)

	first, err := s.Manager.IssueFor(t.Context(), a)
	require.NoError(t, err)
	second, err := s.Manager.IssueFor(t.Context(), a)
	require.NoError(t, err)

	assert.NotEqual(t, first.Code(), second.Code())
	s.Verifications.
		AssertCount(t, 1).
		AssertCodeAbsent(t, first.Code())
	assert.Equal(t, second.Code(), s.Verifications.CodeFor(a.ID()))
}

func TestManager_IssueFor_KeepsOtherAccountsCodes(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().Build()
	b := builders.NewAccountBuilder().Build()
	s.Accounts.SeedAccount(t, a)
	s.Accounts.SeedAccount(t, b)

	va, err := s.Manager.IssueFor(t.Context(), a)
	require.NoError(t, err)
	vb, err := s.Manager.IssueFor(t.Context(), b)
	require.NoError(t, err)

	s.Verifications.AssertCount(t, 2)
	assert.Equal(t, va.Code(), s.Verifications.CodeFor(a.ID()))
	assert.Equal(t, vb.Code(), s.Verifications.CodeFor(b.ID()))
}

func TestManager_IssueFor_UnsavedAccount(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().WithID(0).Build()

	_, err := s.Manager.IssueFor(t.Context(), a)
	require.ErrorIs(t, err, verification.ErrMissingAccountID)
	s.Verifications.AssertCount(t, 0)
}

func TestManager_IssueFor_StorageError(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().Build()
	s.Accounts.SeedAccount(t, a)
	boom := errors.New("connection reset")
	s.Accounts.FailOn("ReplaceVerification", boom)

	_, err := s.Manager.IssueFor(t.Context(), a)
	require.ErrorIs(t, err, boom)
	s.Verifications.AssertCount(t, 0)
}

func TestManager_Redeem(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().Build()
	s.Accounts.SeedAccount(t, a)
	v := builders.NewVerificationBuilder().For(a).Build()
	s.Verifications.SeedVerification(t, v)

	got, err := s.Manager.Redeem(t.Context(), v.Code())
	require.NoError(t, err)
	assert.Equal(t, a.ID(), got.ID())
	assert.True(t, got.Verified())

	s.Accounts.AssertVerified(t, a.ID(), true)
	s.Verifications.
		AssertCount(t, 0).
		AssertCodeAbsent(t, v.Code())
}

func TestManager_Redeem_IsSingleUse(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().Build()
	s.Accounts.SeedAccount(t, a)
	v := builders.NewVerificationBuilder().For(a).Build()
	s.Verifications.SeedVerification(t, v)

	_, err := s.Manager.Redeem(t.Context(), v.Code())
	require.NoError(t, err)

	_, err = s.Manager.Redeem(t.Context(), v.Code())
	require.ErrorIs(t, err, verification.ErrNotFound)
	s.Accounts.AssertVerified(t, a.ID(), true)
}

func TestManager_Redeem_ReplacedCodeIsDead(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().Build()
	s.Accounts.SeedAccount(t, a)

	old, err := s.Manager.IssueFor(t.Context(), a)
	require.NoError(t, err)
	_, err = s.Manager.IssueFor(t.Context(), a)
	require.NoError(t, err)

	_, err = s.Manager.Redeem(t.Context(), old.Code())
	require.ErrorIs(t, err, verification.ErrNotFound)
	s.Accounts.AssertVerified(t, a.ID(), false)
}

func TestManager_Redeem_UnknownCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code string
	}{
		{name: "empty", code: ""},
		{name: "blank", code: "   "},
		{name: "unknown", code: "6f1c2b1e-8d7a-4c1e-9a55-0b8f3c1d2e4f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewManagerSuite()
			a := builders.NewAccountBuilder().Build()
			s.Accounts.SeedAccount(t, a)
			s.Verifications.SeedVerification(t, builders.NewVerificationBuilder().For(a).Build())

			_, err := s.Manager.Redeem(t.Context(), tt.code)
			require.ErrorIs(t, err, verification.ErrNotFound)

			s.Accounts.AssertVerified(t, a.ID(), false)
			s.Verifications.AssertCount(t, 1)
		})
	}
}

func TestManager_Redeem_StorageError(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	boom := errors.New("connection reset")
	s.Accounts.FailOn("RedeemVerification", boom)

	_, err := s.Manager.Redeem(t.Context(), "some-code")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, verification.ErrNotFound)
}

func TestManager_Redeem_Concurrent_OnlyOneWins(t *testing.T) {
	t.Parallel()

	s := NewManagerSuite()
	a := builders.NewAccountBuilder().Build()
	s.Accounts.SeedAccount(t, a)
	v := builders.NewVerificationBuilder().For(a).Build()
	s.Verifications.SeedVerification(t, v)

	const attempts = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Manager.Redeem(context.Background(), v.Code())
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, verification.ErrNotFound)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	s.Accounts.AssertVerified(t, a.ID(), true)
}
