package event

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/valueobject/mails"
)

const mailRequestedName = "mails.Requested"

type Helper struct {
	pool *pgxpool.Pool
}

func NewHelper(pool *pgxpool.Pool) *Helper {
	return &Helper{pool: pool}
}

func table(stream string) string {
	return "watermill_" + stream
}

// WaitForMailRequested waits until the outbox holds a mails.Requested event
// for recipient and returns the latest one.
func (h *Helper) WaitForMailRequested(t *testing.T, recipient string, timeout time.Duration) *mails.Requested {
	t.Helper()

	var got *mails.Requested
	require.Eventually(t, func() bool {
		got = h.lastMailRequested(recipient)
		return got != nil
	}, timeout, 20*time.Millisecond, "no %s event for %s", mailRequestedName, recipient)
	return got
}

func (h *Helper) lastMailRequested(recipient string) *mails.Requested {
	query := fmt.Sprintf(`
        SELECT payload FROM %s
        WHERE metadata->>'name' = $1 AND payload->'payload'->>'to' = $2
        ORDER BY "offset" DESC
        LIMIT 1
    `, table(mails.EventStreamName))

	var payload json.RawMessage
	if err := h.pool.QueryRow(context.Background(), query, mailRequestedName, recipient).Scan(&payload); err != nil {
		return nil
	}

	var e mails.Requested
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil
	}
	return &e
}

func (h *Helper) AssertMailRequestedCount(t *testing.T, recipient string, expected int) {
	t.Helper()

	query := fmt.Sprintf(`
        SELECT COUNT(*) FROM %s
        WHERE metadata->>'name' = $1 AND payload->'payload'->>'to' = $2
    `, table(mails.EventStreamName))

	var count int
	err := h.pool.QueryRow(context.Background(), query, mailRequestedName, recipient).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, expected, count, "unexpected %s count for %s", mailRequestedName, recipient)
}
