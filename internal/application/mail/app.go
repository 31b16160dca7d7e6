package mail

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	mailevent "gitlab.com/eatsapp/accounts-backend/internal/application/mail/event"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/logging"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

var (
	tracer = otel.Tracer("accounts/internal/application/mail")
	logger = otelslog.NewLogger("accounts/internal/application/mail")
)

// Sender hands a payload over for delivery. A nil error means the transport
// accepted it: either the SMTP server took it or the outbox stored it.
type Sender interface {
	SendMail(ctx context.Context, payload mails.Payload) error
}

type App struct {
	tracer trace.Tracer
	logger *slog.Logger
	sender Sender

	Event *mailevent.MailEventHandler
}

type Args struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	// Sender is what the application uses directly, usually the outbox.
	Sender Sender
	// Delivery is what the outbox consumer uses; nil disables the consumer side.
	Delivery Sender
}

func NewApp(args Args) *App {
	if args.Sender == nil {
		panic("mail sender cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	app := &App{
		tracer: args.Tracer,
		logger: args.Logger,
		sender: args.Sender,
	}
	if args.Delivery != nil {
		app.Event = mailevent.NewMailEventHandler(mailevent.MailEventHandlerArgs{
			Tracer:     args.Tracer,
			Logger:     args.Logger,
			Mailsender: args.Delivery,
		})
	}

	return app
}

// SendVerificationEmail sends the "verify-email" template with code and the
// recipient's address as username.
func (a *App) SendVerificationEmail(ctx context.Context, email, code string) error {
	const op = "mail.App.SendVerificationEmail"
	ctx, span := a.tracer.Start(ctx, "App.SendVerificationEmail",
		trace.WithAttributes(attribute.String("mail.to", logging.RedactEmail(email))),
	)
	defer span.End()

	payload := mails.VerifyEmail(email, code)
	if err := payload.Validate(); err != nil {
		otelx.RecordSpanError(span, err, "invalid mail payload")
		return errorx.Wrap(err, op)
	}

	if err := a.sender.SendMail(ctx, payload); err != nil {
		otelx.RecordSpanError(span, err, "failed to send verification email")
		a.logger.WarnContext(ctx, "verification email not sent",
			slog.String("to", logging.RedactEmail(email)),
			slog.Any("error", err),
		)
		return errorx.Wrap(err, op)
	}

	a.logger.DebugContext(ctx, "verification email sent", slog.String("to", logging.RedactEmail(email)))
	return nil
}
