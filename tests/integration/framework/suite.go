package framework

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	accounts "gitlab.com/eatsapp/accounts-backend"
	pgrepos "gitlab.com/eatsapp/accounts-backend/internal/adapters/repos/postgres"
	"gitlab.com/eatsapp/accounts-backend/internal/adapters/services/mailqueue"
	accountapp "gitlab.com/eatsapp/accounts-backend/internal/application/account"
	authapp "gitlab.com/eatsapp/accounts-backend/internal/application/auth"
	"gitlab.com/eatsapp/accounts-backend/internal/application/mail"
	restaurantapp "gitlab.com/eatsapp/accounts-backend/internal/application/restaurant"
	verificationapp "gitlab.com/eatsapp/accounts-backend/internal/application/verification"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
	httpport "gitlab.com/eatsapp/accounts-backend/internal/ports/http"
	watermillport "gitlab.com/eatsapp/accounts-backend/internal/ports/watermill"
	"gitlab.com/eatsapp/accounts-backend/pkg/env"
	"gitlab.com/eatsapp/accounts-backend/pkg/httpx"
	pgpkg "gitlab.com/eatsapp/accounts-backend/pkg/postgres"
	"gitlab.com/eatsapp/accounts-backend/pkg/watermillx"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/builders"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/fixtures"
	dbframework "gitlab.com/eatsapp/accounts-backend/tests/integration/framework/db"
	eventframework "gitlab.com/eatsapp/accounts-backend/tests/integration/framework/event"
	httpframework "gitlab.com/eatsapp/accounts-backend/tests/integration/framework/http"
	"gitlab.com/eatsapp/accounts-backend/tests/mocks"
)

const postgresImage = "postgres:17-alpine"

// IntegrationTestSuite runs the whole service against a throwaway PostgreSQL
// container. Mails go through the outbox and the watermill consumer into
// Mail, so tests observe delivery exactly as production does minus SMTP.
type IntegrationTestSuite struct {
	suite.Suite

	pgContainer *postgres.PostgresContainer
	Pool        *pgxpool.Pool

	router       *message.Router
	cancelRouter context.CancelFunc

	Handler  http.Handler
	Accounts *pgrepos.AccountRepo
	Tokens   *authapp.TokenService
	Hasher   account.PasswordHasher
	Mail     *mocks.MailSender

	HTTP  *httpframework.Helper
	DB    *dbframework.Helper
	Event *eventframework.Helper
}

func (s *IntegrationTestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("integration tests need docker, skipped in -short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("accounts_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.pgContainer = pgContainer

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(pgpkg.Migrate(connStr, accounts.Migrations, "migrations"))

	s.Pool, err = pgpkg.NewPgxPool(ctx, connStr, env.Test)
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wlogger := watermillx.NewSlogAdapter(logger, slog.LevelWarn)
	s.Require().NoError(watermillx.InitializeEventSchema(ctx, s.Pool, wlogger, mails.EventStreamName))

	s.Accounts = pgrepos.NewAccountRepo(s.Pool, nil, nil)
	verifications := pgrepos.NewVerificationRepo(s.Pool, nil, nil)
	s.Tokens = authapp.NewTokenService(authapp.TokenServiceArgs{Secret: fixtures.TokenSecret, TTL: time.Hour})
	s.Hasher = account.NewBcryptHasher(builders.TestPasswordCost)
	s.Mail = mocks.NewMailSender()

	mailApp := mail.NewApp(mail.Args{
		Sender:   mailqueue.NewPublisher(mailqueue.Args{Pool: s.Pool, WLogger: wlogger}),
		Delivery: s.Mail,
	})
	app := accountapp.NewApp(accountapp.Args{
		Mode:          env.Test,
		Accounts:      s.Accounts,
		Verifications: verificationapp.NewManager(verificationapp.Args{Repo: verifications}),
		Hasher:        s.Hasher,
		Tokens:        s.Tokens,
		Mailer:        mailApp,
	})

	s.router, err = message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, wlogger)
	s.Require().NoError(err)
	wmport, err := watermillport.NewPort(s.router, s.Pool, wlogger, watermillx.TestTuning)
	s.Require().NoError(err)
	s.Require().NoError(wmport.Run(watermillport.AppEventHandlers{Mail: mailApp.Event}))

	routerCtx, cancel := context.WithCancel(ctx)
	s.cancelRouter = cancel
	go func() {
		_ = s.router.Run(routerCtx)
	}()
	<-s.router.Running()

	locales, err := fs.Sub(accounts.Locales, "locales")
	s.Require().NoError(err)
	errhandler, err := httpx.NewErrorHandler(locales, logger)
	s.Require().NoError(err)

	s.Handler = httpport.NewPort(httpport.Args{
		Logger:     logger,
		AccountApp: app,
		LoginApp:   app,
		RestaurantApp: restaurantapp.NewApp(restaurantapp.Args{
			Restaurants: pgrepos.NewRestaurantRepo(s.Pool, nil, nil),
		}),
		Tokens:     s.Tokens,
		Errhandler: errhandler,
	}).Route(nil)

	s.HTTP = httpframework.NewHelper(s.Handler)
	s.DB = dbframework.NewHelper(dbframework.Args{Pool: s.Pool, Accounts: s.Accounts, Verifications: verifications})
	s.Event = eventframework.NewHelper(s.Pool)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.cancelRouter != nil {
		s.cancelRouter()
	}
	if s.router != nil {
		_ = s.router.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.pgContainer != nil {
		s.Require().NoError(testcontainers.TerminateContainer(s.pgContainer))
	}
}

func (s *IntegrationTestSuite) SetupTest() {
	s.DB.TruncateAll(s.T())
	s.Mail.Reset()
}
