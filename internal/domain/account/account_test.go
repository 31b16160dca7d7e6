package account_test

import (
	"strings"
	"testing"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/pkg/env"
	"gitlab.com/eatsapp/accounts-backend/pkg/validationx"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/builders"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/fixtures"
)

func TestNewAccount(t *testing.T) {
	t.Parallel()

	hash := []byte(fixtures.ValidPassHash)

	tests := []struct {
		name    string
		args    account.NewAccountArgs
		wantErr validation.Errors
	}{
		{
			name: "valid",
			args: account.NewAccountArgs{Email: "a@x.com", PassHash: hash, Role: role.Client, Mode: env.Test},
		},
		{
			name: "local domain allowed outside deployed modes",
			args: account.NewAccountArgs{Email: "dev@localhost.test", PassHash: hash, Role: role.Owner, Mode: env.Local},
		},
		{
			name:    "local domain rejected in prod",
			args:    account.NewAccountArgs{Email: "dev@localhost.test", PassHash: hash, Role: role.Owner, Mode: env.Prod},
			wantErr: validation.Errors{"email": validationx.ErrNotRealDomain},
		},
		{
			name:    "bad email",
			args:    account.NewAccountArgs{Email: "not-an-email", PassHash: hash, Role: role.Delivery, Mode: env.Test},
			wantErr: validation.Errors{"email": is.ErrEmail},
		},
		{
			name:    "too long email",
			args:    account.NewAccountArgs{Email: strings.Repeat("a", 250) + "@x.com", PassHash: hash, Role: role.Client, Mode: env.Test},
			wantErr: validation.Errors{"email": validation.ErrLengthOutOfRange},
		},
		{
			name: "everything missing",
			args: account.NewAccountArgs{Mode: env.Test},
			wantErr: validation.Errors{
				"email":         validation.ErrRequired,
				"password_hash": validation.ErrRequired,
				"role":          validation.ErrRequired,
			},
		},
		{
			name:    "unknown role",
			args:    account.NewAccountArgs{Email: "a@x.com", PassHash: hash, Role: role.Role("Admin"), Mode: env.Test},
			wantErr: validation.Errors{"role": role.ErrInvalid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a, err := account.NewAccount(tt.args)
			if tt.wantErr != nil {
				validationx.AssertValidationErrors(t, err, tt.wantErr)
				assert.Nil(t, a)
				return
			}

			require.NoError(t, err)
			assert.True(t, a.ID().IsZero())
			assert.Equal(t, tt.args.Email, a.Email())
			assert.Equal(t, tt.args.PassHash, a.PassHash())
			assert.Equal(t, tt.args.Role, a.Role())
			assert.False(t, a.Verified())
			assert.False(t, a.CreatedAt().IsZero())
			assert.Equal(t, a.CreatedAt(), a.UpdatedAt())
		})
	}
}

func TestAccount_AssignID(t *testing.T) {
	t.Parallel()

	a := builders.NewAccountBuilder().WithID(0).Build()

	assert.ErrorIs(t, a.AssignID(0), account.ErrInvalidID)
	assert.ErrorIs(t, a.AssignID(-3), account.ErrInvalidID)

	require.NoError(t, a.AssignID(42))
	assert.Equal(t, account.ID(42), a.ID())

	assert.ErrorIs(t, a.AssignID(43), account.ErrIDAlreadyAssigned)
	assert.Equal(t, account.ID(42), a.ID())

	var nilAccount *account.Account
	assert.ErrorIs(t, nilAccount.AssignID(1), account.ErrNilAccount)
}

func TestAccount_ChangeEmail(t *testing.T) {
	t.Parallel()

	t.Run("new email resets verification", func(t *testing.T) {
		t.Parallel()
		a := builders.NewAccountBuilder().WithEmail("old@x.com").WithVerified(true).Build()
		before := a.UpdatedAt()

		changed, err := a.ChangeEmail("new@x.com", env.Test)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "new@x.com", a.Email())
		assert.False(t, a.Verified())
		assert.True(t, a.UpdatedAt().After(before) || a.UpdatedAt().Equal(before))
	})

	t.Run("same email is a no-op", func(t *testing.T) {
		t.Parallel()
		a := builders.NewAccountBuilder().WithEmail("same@x.com").WithVerified(true).Build()

		changed, err := a.ChangeEmail("same@x.com", env.Test)

		require.NoError(t, err)
		assert.False(t, changed)
		assert.True(t, a.Verified())
	})

	t.Run("email comparison is case sensitive", func(t *testing.T) {
		t.Parallel()
		a := builders.NewAccountBuilder().WithEmail("same@x.com").WithVerified(true).Build()

		changed, err := a.ChangeEmail("Same@x.com", env.Test)

		require.NoError(t, err)
		assert.True(t, changed)
		assert.False(t, a.Verified())
	})

	t.Run("invalid email leaves account untouched", func(t *testing.T) {
		t.Parallel()
		a := builders.NewAccountBuilder().WithEmail("keep@x.com").WithVerified(true).Build()

		changed, err := a.ChangeEmail("broken", env.Test)

		validationx.AssertValidationErrors(t, err, validation.Errors{"email": is.ErrEmail})
		assert.False(t, changed)
		assert.Equal(t, "keep@x.com", a.Email())
		assert.True(t, a.Verified())
	})
}

func TestAccount_SetPassHash(t *testing.T) {
	t.Parallel()

	a := builders.NewAccountBuilder().WithVerified(true).Build()

	assert.ErrorIs(t, a.SetPassHash(nil), account.ErrMissingPassHash)

	require.NoError(t, a.SetPassHash([]byte("digest")))
	assert.Equal(t, []byte("digest"), a.PassHash())
	assert.True(t, a.Verified(), "password changes must not touch verification")
}

func TestAccount_MarkVerified(t *testing.T) {
	t.Parallel()

	a := builders.NewAccountBuilder().Build()
	require.False(t, a.Verified())

	require.NoError(t, a.MarkVerified())
	assert.True(t, a.Verified())

	require.NoError(t, a.MarkVerified())
	assert.True(t, a.Verified())
}

func TestAccount_NilGetters(t *testing.T) {
	t.Parallel()

	var a *account.Account
	assert.Zero(t, a.ID())
	assert.Empty(t, a.Email())
	assert.Nil(t, a.PassHash())
	assert.Empty(t, a.Role())
	assert.False(t, a.Verified())
	assert.True(t, a.CreatedAt().IsZero())
	assert.True(t, a.UpdatedAt().IsZero())
}

func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := account.ParseID("17")
	require.NoError(t, err)
	assert.Equal(t, account.ID(17), id)
	assert.Equal(t, "17", id.String())

	for _, in := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := account.ParseID(in)
		assert.ErrorIs(t, err, account.ErrInvalidID, in)
	}
}
