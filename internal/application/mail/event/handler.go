package mailevent

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/logging"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

var (
	tracer = otel.Tracer("accounts/internal/application/mail/event")
	logger = otelslog.NewLogger("accounts/internal/application/mail/event")
)

type MailSender interface {
	SendMail(ctx context.Context, payload mails.Payload) error
}

type MailEventHandler struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	mailsender MailSender
}

type MailEventHandlerArgs struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Mailsender MailSender
}

func NewMailEventHandler(args MailEventHandlerArgs) *MailEventHandler {
	if args.Mailsender == nil {
		panic("mail sender cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &MailEventHandler{
		tracer:     args.Tracer,
		logger:     args.Logger,
		mailsender: args.Mailsender,
	}
}

// HandleMailRequested delivers a mail taken from the outbox. Invalid payloads
// are dropped, since retrying cannot fix them; delivery errors are returned so
// the subscriber redelivers the message.
func (h *MailEventHandler) HandleMailRequested(ctx context.Context, e *mails.Requested) error {
	if e == nil {
		return nil
	}
	const op = "mailevent.MailEventHandler.HandleMailRequested"

	l := h.logger.With(
		slog.String("event", "MailRequested"),
		slog.String("event.id", e.ID.String()),
		slog.String("mail.template", e.Payload.Template),
	)
	ctx, span := h.tracer.Start(
		ctx,
		"MailEventHandler.HandleMailRequested",
		trace.WithNewRoot(),
		trace.WithLinks(otelx.LinkFrom(&e.Otel)),
		trace.WithAttributes(
			attribute.String("event.id", e.ID.String()),
			attribute.String("mail.to", logging.RedactEmail(e.Payload.To)),
			attribute.String("mail.template", e.Payload.Template),
		),
	)
	defer span.End()

	if err := e.Payload.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "validation failed")
		l.ErrorContext(ctx, "dropping invalid mail request", slog.Any("error", err))
		return nil
	}

	if err := h.mailsender.SendMail(ctx, e.Payload); err != nil {
		otelx.RecordSpanError(span, err, "failed to send mail")
		l.ErrorContext(ctx, "failed to send mail", slog.Any("error", err))
		return errorx.Wrap(err, op)
	}

	l.InfoContext(ctx, "mail sent", slog.String("mail.to", logging.RedactEmail(e.Payload.To)))
	return nil
}
