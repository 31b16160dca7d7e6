package verificationapp

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/verification"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

var (
	tracer = otel.Tracer("accounts/internal/application/verification")
	logger = otelslog.NewLogger("accounts/internal/application/verification")
)

type Repo interface {
	// ReplaceVerification deletes any record owned by v's account and stores v, atomically.
	ReplaceVerification(ctx context.Context, v *verification.Verification) error
	// RedeemVerification loads the record for code together with its account,
	// applies fn, saves the account and deletes the record, atomically.
	// A missing code yields an errorx not-found error.
	RedeemVerification(ctx context.Context, code string, fn func(ctx context.Context, a *account.Account) error) (*account.Account, error)
}

// Manager keeps at most one live verification code per account and redeems codes.
type Manager struct {
	tracer trace.Tracer
	logger *slog.Logger
	repo   Repo
}

type Args struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Repo   Repo
}

func NewManager(args Args) *Manager {
	if args.Repo == nil {
		panic("verification repo cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &Manager{
		tracer: args.Tracer,
		logger: args.Logger,
		repo:   args.Repo,
	}
}

// IssueFor replaces whatever record a has with a freshly generated one.
func (m *Manager) IssueFor(ctx context.Context, a *account.Account) (*verification.Verification, error) {
	const op = "verificationapp.Manager.IssueFor"
	ctx, span := m.tracer.Start(ctx, "Manager.IssueFor",
		trace.WithAttributes(attribute.Int64("account.id", int64(a.ID()))),
	)
	defer span.End()

	v, err := verification.New(a.ID())
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to create verification")
		return nil, errorx.Wrap(err, op)
	}

	if err := m.repo.ReplaceVerification(ctx, v); err != nil {
		otelx.RecordSpanError(span, err, "failed to store verification")
		return nil, errorx.Wrap(err, op)
	}

	span.SetAttributes(attribute.String("verification.id", v.ID().String()))
	m.logger.DebugContext(ctx, "verification issued",
		slog.Int64("account.id", int64(a.ID())),
		slog.String("verification.id", v.ID().String()),
	)

	return v, nil
}

// Redeem marks the owner of code verified and consumes the code.
// Unknown and blank codes yield verification.ErrNotFound.
func (m *Manager) Redeem(ctx context.Context, code string) (*account.Account, error) {
	const op = "verificationapp.Manager.Redeem"
	ctx, span := m.tracer.Start(ctx, "Manager.Redeem")
	defer span.End()

	if strings.TrimSpace(code) == "" {
		otelx.RecordSpanError(span, verification.ErrNotFound, "blank code")
		return nil, verification.ErrNotFound
	}

	a, err := m.repo.RedeemVerification(ctx, code, func(_ context.Context, a *account.Account) error {
		return a.MarkVerified()
	})
	if err != nil {
		if errorx.IsNotFound(err) {
			otelx.RecordSpanError(span, err, "verification not found")
			return nil, verification.ErrNotFound.WithCause(err)
		}
		otelx.RecordSpanError(span, err, "failed to redeem verification")
		return nil, errorx.Wrap(err, op)
	}

	span.SetAttributes(attribute.Int64("account.id", int64(a.ID())))
	m.logger.InfoContext(ctx, "email verified", slog.Int64("account.id", int64(a.ID())))

	return a, nil
}
