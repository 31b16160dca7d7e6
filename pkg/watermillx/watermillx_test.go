package watermillx

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/event"
)

type streamEvent struct {
	event.Header
	stream string
}

func (e *streamEvent) GetStreamName() string { return e.stream }

func TestMessageTopic(t *testing.T) {
	t.Parallel()

	topic, err := MessageTopic(&streamEvent{stream: "mails"})
	require.NoError(t, err)
	assert.Equal(t, "mails", topic)

	_, err = MessageTopic(&streamEvent{})
	require.Error(t, err)
}

func TestSlogAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := NewSlogAdapter(base, slog.LevelInfo)

	l.Info("subscribed", watermill.LogFields{"topic": "mails"})
	l.Error("handler failed", errors.New("boom"), nil)
	l.Trace("polling", nil)

	out := buf.String()
	assert.Contains(t, out, "subscribed")
	assert.Contains(t, out, "topic=mails")
	assert.Contains(t, out, "component=watermill")
	assert.Contains(t, out, "error=boom")
	assert.NotContains(t, out, "polling", "trace records need a level below debug")

	buf.Reset()
	l.With(watermill.LogFields{"consumer_group": "MailOnMailRequested"}).Info("started", nil)
	assert.Contains(t, buf.String(), "consumer_group=MailOnMailRequested")
}
