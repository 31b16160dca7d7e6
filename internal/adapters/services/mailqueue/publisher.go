// Package mailqueue hands mail payloads to the transactional outbox instead
// of delivering them inline. The mail consumer picks them up from there.
package mailqueue

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/logging"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
	"gitlab.com/eatsapp/accounts-backend/pkg/watermillx"
)

var (
	tracer = otel.Tracer("accounts/internal/adapters/services/mailqueue")
	logger = otelslog.NewLogger("accounts/internal/adapters/services/mailqueue")
)

type Publisher struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	pool    *pgxpool.Pool
	wlogger watermill.LoggerAdapter
}

type Args struct {
	Tracer  trace.Tracer
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	WLogger watermill.LoggerAdapter
}

func NewPublisher(args Args) *Publisher {
	if args.Pool == nil {
		panic("pgx pool cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.WLogger == nil {
		args.WLogger = watermillx.NewSlogAdapter(args.Logger, slog.LevelInfo)
	}

	return &Publisher{
		tracer:  args.Tracer,
		logger:  args.Logger,
		pool:    args.Pool,
		wlogger: args.WLogger,
	}
}

// SendMail stores a mails.Requested event in the outbox. When ctx carries a
// transaction the event commits or rolls back together with it.
func (p *Publisher) SendMail(ctx context.Context, payload mails.Payload) error {
	const op = "mailqueue.Publisher.SendMail"
	ctx, span := p.tracer.Start(ctx, "Publisher.SendMail",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("mail.to", logging.RedactEmail(payload.To)),
			attribute.String("mail.template", payload.Template),
		),
	)
	defer span.End()

	e := mails.NewRequested(payload)
	e.Propagate(ctx)

	if err := watermillx.PublishWithin(ctx, p.pool, p.wlogger, e); err != nil {
		otelx.RecordSpanError(span, err, "failed to publish mail requested event")
		return errorx.Wrap(err, op)
	}

	p.logger.DebugContext(ctx, "mail queued",
		slog.String("event_id", e.ID.String()),
		slog.String("to", logging.RedactEmail(payload.To)),
	)
	return nil
}
