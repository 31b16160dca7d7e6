package accountapp

import (
	"errors"
	"strings"
	"testing"

	"github.com/ARUMANDESU/validation"
	"github.com/ARUMANDESU/validation/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authapp "gitlab.com/eatsapp/accounts-backend/internal/application/auth"
	"gitlab.com/eatsapp/accounts-backend/internal/application/mail"
	verificationapp "gitlab.com/eatsapp/accounts-backend/internal/application/verification"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
	"gitlab.com/eatsapp/accounts-backend/pkg/env"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/validationx"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/builders"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/fixtures"
	"gitlab.com/eatsapp/accounts-backend/tests/mocks"
)

type AppSuite struct {
	App           *App
	Accounts      *mocks.AccountRepo
	Verifications *mocks.VerificationRepo
	Mail          *mocks.MailSender
	Tokens        *authapp.TokenService
}

func NewAppSuite() *AppSuite {
	accounts := mocks.NewAccountRepo()
	verifications := mocks.NewVerificationRepo(accounts)
	sender := mocks.NewMailSender()
	tokens := authapp.NewTokenService(authapp.TokenServiceArgs{Secret: fixtures.TokenSecret})

	app := NewApp(Args{
		Mode:          env.Test,
		Accounts:      accounts,
		Verifications: verificationapp.NewManager(verificationapp.Args{Repo: verifications}),
		Hasher:        account.NewBcryptHasher(builders.TestPasswordCost),
		Tokens:        tokens,
		Mailer:        mail.NewApp(mail.Args{Sender: sender}),
	})

	return &AppSuite{
		App:           app,
		Accounts:      accounts,
		Verifications: verifications,
		Mail:          sender,
		Tokens:        tokens,
	}
}

func (s *AppSuite) create(t *testing.T, email, password string) *account.Account {
	t.Helper()

	acc, err := s.App.CreateAccount(t.Context(), CreateAccount{Email: email, Password: password, Role: role.Client})
	require.NoError(t, err)
	return acc
}

func ptr[T any](v T) *T {
	return &v
}

func TestApp_ConcreteScenario(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()

	acc, err := s.App.CreateAccount(t.Context(), CreateAccount{
		Email:    fixtures.ClientEmail,
		Password: fixtures.Password,
		Role:     role.Client,
	})
	require.NoError(t, err)

	res, err := s.App.Login(t.Context(), Login{Email: fixtures.ClientEmail, Password: fixtures.Password})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := s.Tokens.Verify(t.Context(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID(), claims.AccountID)

	_, err = s.App.Login(t.Context(), Login{Email: fixtures.ClientEmail, Password: fixtures.WrongPassword})
	require.ErrorIs(t, err, account.ErrWrongPassword)

	code := s.Verifications.AssertHasCode(t, acc.ID())
	_, err = s.App.VerifyEmail(t.Context(), code)
	require.NoError(t, err)

	found, err := s.App.FindByID(t.Context(), acc.ID())
	require.NoError(t, err)
	assert.True(t, found.Verified())
}

func TestNewApp_PanicsOnMissingDependency(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewApp(Args{}) })
}

func TestApp_CreateAccount(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)

	require.False(t, acc.ID().IsZero())
	assert.False(t, acc.Verified())
	assert.NotEqual(t, []byte(fixtures.Password), acc.PassHash(), "password must never be stored as is")

	s.Accounts.
		AssertCount(t, 1).
		AssertEmail(t, acc.ID(), fixtures.ClientEmail).
		AssertVerified(t, acc.ID(), false)

	s.Verifications.AssertCount(t, 1)
	code := s.Verifications.AssertHasCode(t, acc.ID())

	s.Mail.AssertSentCount(t, 1)
	s.Mail.AssertLastSent(t, fixtures.ClientEmail, code)
}

func TestApp_CreateAccount_EachRole(t *testing.T) {
	t.Parallel()

	for _, r := range []role.Role{role.Owner, role.Client, role.Delivery} {
		t.Run(r.String(), func(t *testing.T) {
			t.Parallel()

			s := NewAppSuite()
			acc, err := s.App.CreateAccount(t.Context(), CreateAccount{Email: fixtures.OwnerEmail, Password: fixtures.Password, Role: r})
			require.NoError(t, err)
			assert.Equal(t, r, s.Accounts.Get(t, acc.ID()).Role())
		})
	}
}

func TestApp_CreateAccount_TrimsEmail(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, "  "+fixtures.ClientEmail+"\n", fixtures.Password)
	s.Accounts.AssertEmail(t, acc.ID(), fixtures.ClientEmail)
}

func TestApp_CreateAccount_EmailTaken(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	existing := builders.NewAccountBuilder().WithEmail(fixtures.ClientEmail).Build()
	s.Accounts.SeedAccount(t, existing)

	_, err := s.App.CreateAccount(t.Context(), CreateAccount{Email: fixtures.ClientEmail, Password: fixtures.Password, Role: role.Owner})
	require.ErrorIs(t, err, account.ErrEmailTaken)

	s.Accounts.AssertCount(t, 1)
	s.Verifications.AssertCount(t, 0)
	s.Mail.AssertSentCount(t, 0)
	assert.Zero(t, s.Accounts.Calls("SaveAccount"), "no write is attempted")
}

func TestApp_CreateAccount_EmailIsCaseSensitive(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	s.create(t, "Bob@x.com", fixtures.Password)
	s.create(t, "bob@x.com", fixtures.Password)

	s.Accounts.AssertCount(t, 2)
}

func TestApp_CreateAccount_LostRaceAtSave(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	s.Accounts.SeedAccount(t, builders.NewAccountBuilder().WithEmail(fixtures.ClientEmail).Build())
	// The preliminary check misses the row, as if another request inserted it in between.
	s.Accounts.FailOn("GetAccountByEmail", errorx.NewNotFound())

	_, err := s.App.CreateAccount(t.Context(), CreateAccount{Email: fixtures.ClientEmail, Password: fixtures.Password, Role: role.Client})
	require.ErrorIs(t, err, account.ErrEmailTaken)

	s.Accounts.AssertCount(t, 1)
	s.Mail.AssertSentCount(t, 0)
}

func TestApp_CreateAccount_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cmd  CreateAccount
		want validation.Errors
	}{
		{
			name: "empty",
			cmd:  CreateAccount{},
			want: validation.Errors{
				"email":    validation.ErrRequired,
				"password": validation.ErrRequired,
				"role":     validation.ErrRequired,
			},
		},
		{
			name: "bad email",
			cmd:  CreateAccount{Email: fixtures.InvalidEmail, Password: fixtures.Password, Role: role.Client},
			want: validation.Errors{"email": is.ErrEmail},
		},
		{
			name: "unknown role",
			cmd:  CreateAccount{Email: fixtures.ClientEmail, Password: fixtures.Password, Role: role.Role("Admin")},
			want: validation.Errors{"role": role.ErrInvalid},
		},
		{
			name: "password too long",
			cmd: CreateAccount{
				Email:    fixtures.ClientEmail,
				Password: string(make([]byte, validationx.MaxPasswordLen+1)),
				Role:     role.Client,
			},
			want: validation.Errors{"password": validationx.ErrPasswordTooLong},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewAppSuite()
			_, err := s.App.CreateAccount(t.Context(), tt.cmd)
			validationx.AssertValidationErrors(t, err, tt.want)

			s.Accounts.AssertCount(t, 0)
			s.Mail.AssertSentCount(t, 0)
		})
	}
}

func TestApp_CreateAccount_RealDomainRequiredWhenDeployed(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	s.App.mode = env.Prod

	_, err := s.App.CreateAccount(t.Context(), CreateAccount{Email: "user@example.invalid", Password: fixtures.Password, Role: role.Client})
	validationx.AssertValidationErrors(t, err, validation.Errors{"email": validationx.ErrNotRealDomain})
}

func TestApp_CreateAccount_StorageFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset by peer")

	for _, method := range []string{"GetAccountByEmail", "SaveAccount", "ReplaceVerification"} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			s := NewAppSuite()
			s.Accounts.FailOn(method, boom)

			_, err := s.App.CreateAccount(t.Context(), CreateAccount{Email: fixtures.ClientEmail, Password: fixtures.Password, Role: role.Client})
			require.ErrorIs(t, err, ErrAccountCreationFailed)
			assert.ErrorIs(t, err, boom)
			s.Mail.AssertSentCount(t, 0)
		})
	}
}

func TestApp_CreateAccount_MailFailureIsIgnored(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	s.Mail.Fail(errors.New("smtp down"))

	acc, err := s.App.CreateAccount(t.Context(), CreateAccount{Email: fixtures.ClientEmail, Password: fixtures.Password, Role: role.Client})
	require.NoError(t, err)

	s.Accounts.AssertCount(t, 1)
	s.Verifications.AssertHasCode(t, acc.ID())
}

func TestApp_Login_Unverified(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)

	res, err := s.App.Login(t.Context(), Login{Email: fixtures.ClientEmail, Password: fixtures.Password})
	require.NoError(t, err)

	claims, err := s.Tokens.Verify(t.Context(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID(), claims.AccountID)
	s.Accounts.AssertVerified(t, acc.ID(), false)
}

func TestApp_Login_LegacyDigest(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	s.Accounts.SeedAccount(t, builders.NewAccountBuilder().
		WithEmail(fixtures.OwnerEmail).
		WithPassHash([]byte(fixtures.LegacyPassHash)).
		Build())

	res, err := s.App.Login(t.Context(), Login{Email: fixtures.OwnerEmail, Password: fixtures.LegacyPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestApp_Login_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		login   Login
		wantErr error
	}{
		{
			name:    "wrong password",
			login:   Login{Email: fixtures.ClientEmail, Password: fixtures.WrongPassword},
			wantErr: account.ErrWrongPassword,
		},
		{
			name:    "empty password",
			login:   Login{Email: fixtures.ClientEmail, Password: ""},
			wantErr: account.ErrWrongPassword,
		},
		{
			name:    "unknown email",
			login:   Login{Email: fixtures.OtherEmail, Password: fixtures.Password},
			wantErr: account.ErrUserNotFound,
		},
		{
			name:    "different case",
			login:   Login{Email: "A@X.COM", Password: fixtures.Password},
			wantErr: account.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewAppSuite()
			s.create(t, fixtures.ClientEmail, fixtures.Password)

			res, err := s.App.Login(t.Context(), tt.login)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, res.Token)
		})
	}
}

func TestApp_Login_PasswordSharingFirst72Bytes(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	stored := strings.Repeat("a", 72)
	s.create(t, fixtures.ClientEmail, stored)

	_, err := s.App.Login(t.Context(), Login{Email: fixtures.ClientEmail, Password: stored + "DIFFERENT"})
	require.ErrorIs(t, err, account.ErrWrongPassword)

	res, err := s.App.Login(t.Context(), Login{Email: fixtures.ClientEmail, Password: stored})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestApp_Login_StorageFailure(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	s.Accounts.FailOn("GetCredentialsByEmail", errors.New("timeout"))

	_, err := s.App.Login(t.Context(), Login{Email: fixtures.ClientEmail, Password: fixtures.Password})
	assert.True(t, errorx.IsCode(err, errorx.CodeInternal))
}

func TestApp_FindByID(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	seeded := builders.NewAccountBuilder().WithRole(role.Delivery).WithVerified(true).Build()
	s.Accounts.SeedAccount(t, seeded)

	got, err := s.App.FindByID(t.Context(), seeded.ID())
	require.NoError(t, err)
	assert.Equal(t, seeded.Email(), got.Email())
	assert.Equal(t, role.Delivery, got.Role())
	assert.True(t, got.Verified())

	_, err = s.App.FindByID(t.Context(), seeded.ID()+1000)
	require.ErrorIs(t, err, account.ErrUserNotFound)

	_, err = s.App.FindByID(t.Context(), 0)
	require.ErrorIs(t, err, account.ErrUserNotFound)
}

func TestApp_EditProfile_ChangeEmail(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)
	oldCode := s.Verifications.AssertHasCode(t, acc.ID())
	_, err := s.App.VerifyEmail(t.Context(), oldCode)
	require.NoError(t, err)

	// A code issued after verification that the edit must replace.
	stale, err := verificationapp.NewManager(verificationapp.Args{Repo: s.Verifications}).IssueFor(t.Context(), acc)
	require.NoError(t, err)

	err = s.App.EditProfile(t.Context(), acc.ID(), EditProfile{Email: ptr(fixtures.OtherEmail)})
	require.NoError(t, err)

	s.Accounts.
		AssertEmail(t, acc.ID(), fixtures.OtherEmail).
		AssertVerified(t, acc.ID(), false).
		AssertNoEmail(t, fixtures.ClientEmail)

	s.Verifications.
		AssertCount(t, 1).
		AssertCodeAbsent(t, stale.Code())
	newCode := s.Verifications.AssertHasCode(t, acc.ID())

	s.Mail.AssertSentCount(t, 2)
	s.Mail.AssertLastSent(t, fixtures.OtherEmail, newCode)

	_, err = s.App.VerifyEmail(t.Context(), stale.Code())
	require.ErrorIs(t, err, verification.ErrNotFound)

	_, err = s.App.VerifyEmail(t.Context(), newCode)
	require.NoError(t, err)
	s.Accounts.AssertVerified(t, acc.ID(), true)
}

func TestApp_EditProfile_EmailTaken(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)
	other := builders.NewAccountBuilder().WithEmail(fixtures.OtherEmail).Build()
	s.Accounts.SeedAccount(t, other)
	code := s.Verifications.AssertHasCode(t, acc.ID())

	err := s.App.EditProfile(t.Context(), acc.ID(), EditProfile{Email: ptr(fixtures.OtherEmail)})
	require.ErrorIs(t, err, account.ErrEmailTaken)

	s.Accounts.AssertEmail(t, acc.ID(), fixtures.ClientEmail)
	assert.Equal(t, code, s.Verifications.CodeFor(acc.ID()), "code is untouched")
	s.Mail.AssertSentCount(t, 1)
}

func TestApp_EditProfile_EmailTakenAtSave(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)
	s.Accounts.SeedAccount(t, builders.NewAccountBuilder().WithEmail(fixtures.OtherEmail).Build())
	s.Accounts.FailOn("GetAccountByEmail", errorx.NewNotFound())

	err := s.App.EditProfile(t.Context(), acc.ID(), EditProfile{Email: ptr(fixtures.OtherEmail)})
	require.ErrorIs(t, err, account.ErrEmailTaken)
	s.Accounts.AssertEmail(t, acc.ID(), fixtures.ClientEmail)
}

func TestApp_EditProfile_SameEmailIsNoop(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := builders.NewAccountBuilder().WithEmail(fixtures.ClientEmail).WithVerified(true).Build()
	s.Accounts.SeedAccount(t, acc)

	err := s.App.EditProfile(t.Context(), acc.ID(), EditProfile{Email: ptr(fixtures.ClientEmail)})
	require.NoError(t, err)

	s.Accounts.AssertVerified(t, acc.ID(), true)
	s.Verifications.AssertCount(t, 0)
	s.Mail.AssertSentCount(t, 0)
	assert.Zero(t, s.Accounts.Calls("UpdateAccount"))
}

func TestApp_EditProfile_ChangePassword(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := builders.NewAccountBuilder().WithEmail(fixtures.ClientEmail).WithVerified(true).Build()
	s.Accounts.SeedAccount(t, acc)

	err := s.App.EditProfile(t.Context(), acc.ID(), EditProfile{Password: ptr("new-secret")})
	require.NoError(t, err)

	s.Accounts.AssertVerified(t, acc.ID(), true)
	s.Mail.AssertSentCount(t, 0)

	_, err = s.App.Login(t.Context(), Login{Email: fixtures.ClientEmail, Password: fixtures.Password})
	require.ErrorIs(t, err, account.ErrWrongPassword)
	_, err = s.App.Login(t.Context(), Login{Email: fixtures.ClientEmail, Password: "new-secret"})
	require.NoError(t, err)
}

func TestApp_EditProfile_EmailAndPasswordInOneSave(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)

	err := s.App.EditProfile(t.Context(), acc.ID(), EditProfile{
		Email:    ptr(fixtures.OtherEmail),
		Password: ptr("new-secret"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Accounts.Calls("UpdateAccount"))

	_, err = s.App.Login(t.Context(), Login{Email: fixtures.OtherEmail, Password: "new-secret"})
	require.NoError(t, err)
	s.Accounts.AssertVerified(t, acc.ID(), false)
}

func TestApp_EditProfile_InvalidInput(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)

	err := s.App.EditProfile(t.Context(), acc.ID(), EditProfile{Email: ptr(fixtures.InvalidEmail), Password: ptr("")})
	validationx.AssertValidationErrors(t, err, validation.Errors{
		"email":    is.ErrEmail,
		"password": validation.ErrRequired,
	})
	s.Accounts.AssertEmail(t, acc.ID(), fixtures.ClientEmail)
}

func TestApp_EditProfile_MissingAccount(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	err := s.App.EditProfile(t.Context(), builders.NextID(), EditProfile{Password: ptr("new-secret")})
	require.ErrorIs(t, err, ErrProfileUpdateFailed)
}

func TestApp_EditProfile_MailFailureIsIgnored(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)
	s.Mail.Fail(errors.New("smtp down"))

	err := s.App.EditProfile(t.Context(), acc.ID(), EditProfile{Email: ptr(fixtures.OtherEmail)})
	require.NoError(t, err)
	s.Accounts.AssertEmail(t, acc.ID(), fixtures.OtherEmail)
}

func TestApp_EditProfile_IssueFailure(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)
	s.Accounts.FailOn("ReplaceVerification", errors.New("deadlock detected"))

	err := s.App.EditProfile(t.Context(), acc.ID(), EditProfile{Email: ptr(fixtures.OtherEmail)})
	require.ErrorIs(t, err, ErrProfileUpdateFailed)
	s.Mail.AssertSentCount(t, 1)
}

func TestApp_VerifyEmail(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	acc := s.create(t, fixtures.ClientEmail, fixtures.Password)
	code := s.Verifications.AssertHasCode(t, acc.ID())

	got, err := s.App.VerifyEmail(t.Context(), code)
	require.NoError(t, err)
	assert.True(t, got.Verified())

	_, err = s.App.VerifyEmail(t.Context(), code)
	require.ErrorIs(t, err, verification.ErrNotFound)
	s.Verifications.AssertCount(t, 0)
}

func TestApp_VerifyEmail_UnknownCode(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	s.create(t, fixtures.ClientEmail, fixtures.Password)

	_, err := s.App.VerifyEmail(t.Context(), "not-a-code")
	require.ErrorIs(t, err, verification.ErrNotFound)
	s.Verifications.AssertCount(t, 1)
}

func TestApp_VerifyEmail_StorageFailure(t *testing.T) {
	t.Parallel()

	s := NewAppSuite()
	s.Accounts.FailOn("RedeemVerification", errors.New("timeout"))

	_, err := s.App.VerifyEmail(t.Context(), "some-code")
	assert.True(t, errorx.IsCode(err, errorx.CodeInternal))
	assert.NotErrorIs(t, err, verification.ErrNotFound)
}
