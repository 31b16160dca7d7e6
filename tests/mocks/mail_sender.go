package mocks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
)

// MailSender records every payload it is asked to deliver.
type MailSender struct {
	mu   sync.Mutex
	sent []mails.Payload
	err  error
}

func NewMailSender() *MailSender {
	return &MailSender{}
}

// Fail makes later sends return err without recording. A nil err restores delivery.
func (m *MailSender) Fail(err error) *MailSender {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
	return m
}

func (m *MailSender) SendMail(ctx context.Context, payload mails.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, payload)
	return nil
}

func (m *MailSender) Sent() []mails.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]mails.Payload(nil), m.sent...)
}

func (m *MailSender) AssertSentCount(t *testing.T, want int) *MailSender {
	t.Helper()
	assert.Len(t, m.Sent(), want, "sent mail count")
	return m
}

// AssertLastSent checks the most recent mail's recipient and code variable.
func (m *MailSender) AssertLastSent(t *testing.T, to, code string) mails.Payload {
	t.Helper()

	sent := m.Sent()
	require.NotEmpty(t, sent, "no mail was sent")

	last := sent[len(sent)-1]
	assert.Equal(t, to, last.To)
	got, _ := last.Lookup(mails.VarCode)
	assert.Equal(t, code, got)
	return last
}

func (m *MailSender) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = nil
	m.err = nil
}

// WaitForSentTo polls until a mail addressed to `to` arrives and returns the
// latest one. Use it when delivery happens asynchronously through the outbox.
func (m *MailSender) WaitForSentTo(t *testing.T, to string, timeout time.Duration) mails.Payload {
	t.Helper()

	var got mails.Payload
	require.Eventually(t, func() bool {
		for _, p := range m.Sent() {
			if p.To == to {
				got = p
			}
		}
		return got.To == to
	}, timeout, 10*time.Millisecond, "no mail delivered to %s", to)
	return got
}

// WaitForCode polls until a mail to `to` carrying code arrives.
func (m *MailSender) WaitForCode(t *testing.T, to, code string, timeout time.Duration) mails.Payload {
	t.Helper()

	var got mails.Payload
	require.Eventually(t, func() bool {
		for _, p := range m.Sent() {
			if c, _ := p.Lookup(mails.VarCode); p.To == to && c == code {
				got = p
				return true
			}
		}
		return false
	}, timeout, 10*time.Millisecond, "no mail with code %s delivered to %s", code, to)
	return got
}
