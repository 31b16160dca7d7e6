package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgxpool"

	accounts "gitlab.com/eatsapp/accounts-backend"
	"gitlab.com/eatsapp/accounts-backend/internal/adapters/repos/postgres"
	"gitlab.com/eatsapp/accounts-backend/internal/adapters/services/mailqueue"
	"gitlab.com/eatsapp/accounts-backend/internal/adapters/services/smtp"
	accountapp "gitlab.com/eatsapp/accounts-backend/internal/application/account"
	authapp "gitlab.com/eatsapp/accounts-backend/internal/application/auth"
	"gitlab.com/eatsapp/accounts-backend/internal/application/mail"
	restaurantapp "gitlab.com/eatsapp/accounts-backend/internal/application/restaurant"
	verificationapp "gitlab.com/eatsapp/accounts-backend/internal/application/verification"
	"gitlab.com/eatsapp/accounts-backend/internal/config"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
	httpport "gitlab.com/eatsapp/accounts-backend/internal/ports/http"
	"gitlab.com/eatsapp/accounts-backend/internal/ports/http/middlewares"
	watermillport "gitlab.com/eatsapp/accounts-backend/internal/ports/watermill"
	"gitlab.com/eatsapp/accounts-backend/pkg/env"
	"gitlab.com/eatsapp/accounts-backend/pkg/httpx"
	"gitlab.com/eatsapp/accounts-backend/pkg/logging"
	pgpkg "gitlab.com/eatsapp/accounts-backend/pkg/postgres"
	"gitlab.com/eatsapp/accounts-backend/pkg/watermillx"
)

type Application struct {
	Account    *accountapp.App
	Restaurant *restaurantapp.App
	Mail       *mail.App
	Tokens     *authapp.TokenService
}

func main() {
	if err := run(); err != nil {
		slog.Error("accounts service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mode := cfg.RunMode()
	env.SetMode(mode)
	logger := logging.Setup(logging.SetupArgs{Mode: mode, OTel: cfg.OTelEnabled})
	slog.SetDefault(logger)

	if cfg.OTelEnabled {
		shutdownOTel, err := setupOTelSDK(ctx)
		if err != nil {
			return fmt.Errorf("failed to set up OpenTelemetry SDK: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOTel(shutdownCtx); err != nil {
				logger.Error("failed to shut down OpenTelemetry SDK", slog.Any("error", err))
			}
		}()
	}

	logger.InfoContext(ctx, "starting accounts service",
		slog.Int("port", cfg.Port),
		slog.String("mail_delivery", string(cfg.MailDelivery)),
	)

	pool, err := setupDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	wlogger := watermillx.NewSlogAdapter(logger, mode.SlogLevel())

	app, err := setupApplications(cfg, logger, pool, wlogger)
	if err != nil {
		return err
	}

	var router *message.Router
	if cfg.MailDelivery == config.DeliveryQueue {
		router, err = setupEventProcessing(ctx, pool, wlogger, app)
		if err != nil {
			return err
		}
		go func() {
			if err := router.Run(ctx); err != nil {
				logger.ErrorContext(ctx, "event router stopped", slog.Any("error", err))
				stop()
			}
		}()
	}

	server, err := setupHTTPServer(cfg, logger, app)
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := server.Shutdown(shutdownCtx); err != nil {
		shutdownErr = errors.Join(shutdownErr, fmt.Errorf("http server shutdown: %w", err))
	}
	if router != nil {
		if err := router.Close(); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("event router shutdown: %w", err))
		}
	}

	logger.Info("accounts service exited")
	return shutdownErr
}

func setupDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgpkg.NewPgxPool(ctx, cfg.PgDSN, cfg.RunMode())
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pgpkg.Migrate(cfg.PgDSN, accounts.Migrations, "migrations"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return pool, nil
}

// storage holds what the applications persist through. Outbox is only used
// when mails are queued.
type storage struct {
	Accounts      accountapp.Repo
	Verifications verificationapp.Repo
	Restaurants   restaurantapp.Repo
	Outbox        mail.Sender
}

func setupApplications(cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool, wlogger watermill.LoggerAdapter) (*Application, error) {
	return newApplication(cfg, logger, storage{
		Accounts:      postgres.NewAccountRepo(pool, nil, logger),
		Verifications: postgres.NewVerificationRepo(pool, nil, logger),
		Restaurants:   postgres.NewRestaurantRepo(pool, nil, logger),
		Outbox:        mailqueue.NewPublisher(mailqueue.Args{Logger: logger, Pool: pool, WLogger: wlogger}),
	})
}

// newApplication wires every application onto logger. The package loggers
// only reach the OpenTelemetry provider, which is absent unless OTEL_ENABLED is set.
func newApplication(cfg *config.Config, logger *slog.Logger, store storage) (*Application, error) {
	renderer, err := smtp.NewRenderer(accounts.MailTemplates, "templates/mail")
	if err != nil {
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}
	smtpSender := smtp.NewSender(smtp.Args{
		Logger: logger,
		Config: smtp.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		},
		Renderer: renderer,
	})
	if smtpSender.DryRun() {
		logger.Warn("SMTP_HOST is empty, mails are logged instead of delivered")
	}

	mailArgs := mail.Args{Logger: logger, Sender: smtpSender}
	if cfg.MailDelivery == config.DeliveryQueue {
		mailArgs.Sender = store.Outbox
		mailArgs.Delivery = smtpSender
	}
	mailApp := mail.NewApp(mailArgs)

	tokens := authapp.NewTokenService(authapp.TokenServiceArgs{
		Logger: logger,
		Secret: cfg.TokenSecret,
		TTL:    cfg.TokenTTL,
	})

	accountApp := accountapp.NewApp(accountapp.Args{
		Logger:   logger,
		Mode:     cfg.RunMode(),
		Accounts: store.Accounts,
		Verifications: verificationapp.NewManager(verificationapp.Args{
			Logger: logger,
			Repo:   store.Verifications,
		}),
		Hasher: account.NewBcryptHasher(cfg.BcryptCost),
		Tokens: tokens,
		Mailer: mailApp,
	})

	return &Application{
		Account: accountApp,
		Restaurant: restaurantapp.NewApp(restaurantapp.Args{
			Logger:      logger,
			Restaurants: store.Restaurants,
		}),
		Mail:   mailApp,
		Tokens: tokens,
	}, nil
}

func setupEventProcessing(ctx context.Context, pool *pgxpool.Pool, wlogger watermill.LoggerAdapter, app *Application) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wlogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	if err := watermillx.InitializeEventSchema(ctx, pool, wlogger, mails.EventStreamName); err != nil {
		return nil, fmt.Errorf("failed to initialize event schema: %w", err)
	}

	port, err := watermillport.NewPort(router, pool, wlogger, watermillx.DefaultTuning)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill port: %w", err)
	}
	if err := port.Run(watermillport.AppEventHandlers{Mail: app.Mail.Event}); err != nil {
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	return router, nil
}

func setupHTTPServer(cfg *config.Config, logger *slog.Logger, app *Application) (*http.Server, error) {
	locales, err := fs.Sub(accounts.Locales, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to open locales: %w", err)
	}
	errhandler, err := httpx.NewErrorHandler(locales, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load locales: %w", err)
	}

	port := httpport.NewPort(httpport.Args{
		Logger:        logger,
		AccountApp:    app.Account,
		LoginApp:      app.Account,
		RestaurantApp: app.Restaurant,
		Tokens:        app.Tokens,
		Errhandler:    errhandler,
	})

	return &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           middlewares.OTel(port.Route(nil)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}
