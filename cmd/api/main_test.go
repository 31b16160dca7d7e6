package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountapp "gitlab.com/eatsapp/accounts-backend/internal/application/account"
	"gitlab.com/eatsapp/accounts-backend/internal/config"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/role"
	"gitlab.com/eatsapp/accounts-backend/pkg/env"
	"gitlab.com/eatsapp/accounts-backend/pkg/logging"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/fixtures"
	"gitlab.com/eatsapp/accounts-backend/tests/mocks"
)

func newTestStorage() storage {
	accounts := mocks.NewAccountRepo()
	return storage{
		Accounts:      accounts,
		Verifications: mocks.NewVerificationRepo(accounts),
		Restaurants:   mocks.NewRestaurantRepo(),
		Outbox:        mocks.NewMailSender(),
	}
}

func loadConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()

	base := map[string]string{
		"MODE":          "test",
		"PG_DSN":        "postgres://u:p@localhost:5432/db",
		"TOKEN_SECRET":  fixtures.TokenSecret,
		"BCRYPT_COST":   "4",
		"OTEL_ENABLED":  "false",
		"MAIL_DELIVERY": "direct",
	}
	for k, v := range vars {
		base[k] = v
	}

	cfg, err := config.LoadFrom(base)
	require.NoError(t, err)
	return cfg
}

func TestNewApplication_MailFailureReachesProcessLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.Setup(logging.SetupArgs{Mode: env.Test, Output: &buf})

	cfg := loadConfig(t, map[string]string{
		"SMTP_HOST": "127.0.0.1",
		"SMTP_PORT": "1",
	})

	app, err := newApplication(cfg, logger, newTestStorage())
	require.NoError(t, err)

	_, err = app.Account.CreateAccount(t.Context(), accountapp.CreateAccount{
		Email:    fixtures.ClientEmail,
		Password: fixtures.Password,
		Role:     role.Client,
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "failed to send verification email")
}

func TestNewApplication_DryRunWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.Setup(logging.SetupArgs{Mode: env.Test, Output: &buf})

	app, err := newApplication(loadConfig(t, nil), logger, newTestStorage())
	require.NoError(t, err)
	assert.Nil(t, app.Mail.Event, "direct delivery has no outbox consumer")
	assert.Contains(t, buf.String(), "mails are logged instead of delivered")
}

func TestNewApplication_QueueUsesOutbox(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.Setup(logging.SetupArgs{Mode: env.Test, Output: &buf})

	store := newTestStorage()
	outbox := store.Outbox.(*mocks.MailSender)

	app, err := newApplication(loadConfig(t, map[string]string{"MAIL_DELIVERY": "queue"}), logger, store)
	require.NoError(t, err)
	require.NotNil(t, app.Mail.Event)

	_, err = app.Account.CreateAccount(t.Context(), accountapp.CreateAccount{
		Email:    fixtures.ClientEmail,
		Password: fixtures.Password,
		Role:     role.Client,
	})
	require.NoError(t, err)

	outbox.AssertSentCount(t, 1)
}
