package accountapp

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
	"gitlab.com/eatsapp/accounts-backend/pkg/env"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
)

var (
	tracer = otel.Tracer("accounts/internal/application/account")
	logger = otelslog.NewLogger("accounts/internal/application/account")
)

var (
	ErrAccountCreationFailed = errorx.NewInternalError().WithKey("account_creation_failed")
	ErrProfileUpdateFailed   = errorx.NewInternalError().WithKey("profile_update_failed")
)

// Repo is the account store. Lookups of absent records return an errorx
// not-found error and email collisions an errorx duplicate-entry error.
type Repo interface {
	SaveAccount(ctx context.Context, a *account.Account) error
	GetAccountByID(ctx context.Context, id account.ID) (*account.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*account.Account, error)
	GetCredentialsByEmail(ctx context.Context, email string) (account.Credentials, error)
	UpdateAccount(ctx context.Context, id account.ID, fn func(ctx context.Context, a *account.Account) error) error
}

type Verifications interface {
	IssueFor(ctx context.Context, a *account.Account) (*verification.Verification, error)
	Redeem(ctx context.Context, code string) (*account.Account, error)
}

type TokenIssuer interface {
	Issue(ctx context.Context, id account.ID) (string, error)
}

type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, code string) error
}

// App is the account lifecycle: sign up, log in, profile reads and edits, and
// email verification.
type App struct {
	tracer        trace.Tracer
	logger        *slog.Logger
	mode          env.Mode
	accounts      Repo
	verifications Verifications
	hasher        account.PasswordHasher
	tokens        TokenIssuer
	mailer        Mailer
}

type Args struct {
	Tracer        trace.Tracer
	Logger        *slog.Logger
	Mode          env.Mode
	Accounts      Repo
	Verifications Verifications
	Hasher        account.PasswordHasher
	Tokens        TokenIssuer
	Mailer        Mailer
}

func NewApp(args Args) *App {
	switch {
	case args.Accounts == nil:
		panic("account repo cannot be nil")
	case args.Verifications == nil:
		panic("verification manager cannot be nil")
	case args.Hasher == nil:
		panic("password hasher cannot be nil")
	case args.Tokens == nil:
		panic("token issuer cannot be nil")
	case args.Mailer == nil:
		panic("mailer cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Mode == "" {
		args.Mode = env.Current()
	}

	return &App{
		tracer:        args.Tracer,
		logger:        args.Logger,
		mode:          args.Mode,
		accounts:      args.Accounts,
		verifications: args.Verifications,
		hasher:        args.Hasher,
		tokens:        args.Tokens,
		mailer:        args.Mailer,
	}
}

// notify sends the verification mail. Delivery problems are logged and never
// fail the calling operation.
func (a *App) notify(ctx context.Context, acc *account.Account, v *verification.Verification) {
	if err := a.mailer.SendVerificationEmail(ctx, acc.Email(), v.Code()); err != nil {
		trace.SpanFromContext(ctx).AddEvent("verification email not sent")
		a.logger.WarnContext(ctx, "failed to send verification email",
			slog.Int64("account.id", int64(acc.ID())),
			slog.Any("error", err),
		)
	}
}
