package smtp

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/gomail.v2"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/logging"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

var (
	tracer = otel.Tracer("accounts/internal/adapters/services/smtp")
	logger = otelslog.NewLogger("accounts/internal/adapters/services/smtp")
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers rendered payloads over SMTP. With an empty Host it runs
// dry: messages are built and logged but never leave the process.
type Sender struct {
	tracer   trace.Tracer
	logger   *slog.Logger
	dialer   *gomail.Dialer
	from     string
	renderer *Renderer
}

type Args struct {
	Tracer   trace.Tracer
	Logger   *slog.Logger
	Config   Config
	Renderer *Renderer
}

func NewSender(args Args) *Sender {
	if args.Renderer == nil {
		panic("mail renderer cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	s := &Sender{
		tracer:   args.Tracer,
		logger:   args.Logger,
		from:     args.Config.From,
		renderer: args.Renderer,
	}
	if args.Config.Host != "" {
		s.dialer = gomail.NewDialer(args.Config.Host, args.Config.Port, args.Config.Username, args.Config.Password)
	}
	return s
}

func (s *Sender) DryRun() bool {
	return s.dialer == nil
}

func (s *Sender) SendMail(ctx context.Context, p mails.Payload) error {
	const op = "smtp.Sender.SendMail"
	ctx, span := s.tracer.Start(ctx, "Sender.SendMail",
		trace.WithAttributes(
			attribute.String("mail.to", logging.RedactEmail(p.To)),
			attribute.String("mail.template", p.Template),
			attribute.Bool("mail.dry_run", s.DryRun()),
		),
	)
	defer span.End()

	msg, err := s.buildMessage(p)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to build message")
		return errorx.Wrap(err, op)
	}

	if s.DryRun() {
		s.logger.InfoContext(ctx, "dry run, mail not delivered",
			slog.String("to", logging.RedactEmail(p.To)),
			slog.String("subject", p.Subject),
			slog.String("template", p.Template),
		)
		return nil
	}

	if err := ctx.Err(); err != nil {
		otelx.RecordSpanError(span, err, "context done before dialing")
		return errorx.Wrap(err, op)
	}
	if err := s.dialer.DialAndSend(msg); err != nil {
		otelx.RecordSpanError(span, err, "failed to deliver mail")
		return errorx.Wrap(fmt.Errorf("smtp delivery to %s failed: %w", logging.RedactEmail(p.To), err), op)
	}

	return nil
}

func (s *Sender) buildMessage(p mails.Payload) (*gomail.Message, error) {
	body, err := s.renderer.Render(p)
	if err != nil {
		return nil, err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", p.To)
	msg.SetHeader("Subject", p.Subject)
	msg.SetBody("text/html", body)
	return msg, nil
}
