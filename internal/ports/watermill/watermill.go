package watermill

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgxpool"

	mailevent "gitlab.com/eatsapp/accounts-backend/internal/application/mail/event"
	"gitlab.com/eatsapp/accounts-backend/pkg/watermillx"
)

type Port struct {
	eventProcessor *cqrs.EventProcessor
}

type AppEventHandlers struct {
	Mail *mailevent.MailEventHandler
}

func NewPort(router *message.Router, conn *pgxpool.Pool, wmlogger watermill.LoggerAdapter, tuning watermillx.SubscriberTuning) (*Port, error) {
	eventProcessor, err := watermillx.NewEventProcessor(router, conn, wmlogger, tuning)
	if err != nil {
		return nil, fmt.Errorf("failed to create event processor: %w", err)
	}

	return &Port{eventProcessor: eventProcessor}, nil
}

// Run registers the consumers. Messages flow once the router is started.
func (p *Port) Run(handlers AppEventHandlers) error {
	if handlers.Mail == nil {
		return fmt.Errorf("mail event handler is required")
	}

	err := p.eventProcessor.AddHandlers(
		cqrs.NewEventHandler("MailOnMailRequested", handlers.Mail.HandleMailRequested),
	)
	if err != nil {
		return fmt.Errorf("failed to add event handlers: %w", err)
	}

	return nil
}
