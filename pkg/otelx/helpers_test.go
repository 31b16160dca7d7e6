package otelx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type accountID int64

type role string

func (r role) String() string { return "role:" + string(r) }

func newRecorder() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	return exporter, sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
}

func TestSetSpanAttrs(t *testing.T) {
	t.Parallel()

	t.Run("nil span", func(t *testing.T) {
		t.Parallel()
		SetSpanAttrs(nil, map[string]any{"key": "value"})
	})

	t.Run("empty attrs", func(t *testing.T) {
		t.Parallel()
		exporter, provider := newRecorder()
		_, span := provider.Tracer("test").Start(context.Background(), "test")

		SetSpanAttrs(span, nil)
		SetSpanAttrs(span, map[string]any{})
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Empty(t, spans[0].Attributes)
	})

	t.Run("mixed values", func(t *testing.T) {
		t.Parallel()
		exporter, provider := newRecorder()
		_, span := provider.Tracer("test").Start(context.Background(), "test")

		id := uuid.MustParse("8b0f6f0e-9a43-4d63-9a3c-5d8f3f2b8e11")
		ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		var nilPtr *string
		email := "al****@example.com"

		SetSpanAttrs(span, map[string]any{
			"account.id":       accountID(42),
			"account.email":    &email,
			"account.verified": true,
			"account.role":     role("Client"),
			"verification.id":  id,
			"created_at":       ts,
			"ttl":              24 * time.Hour,
			"missing":          nilPtr,
			"ids":              []accountID{1, 2},
		})
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		got := make(map[attribute.Key]attribute.Value, len(spans[0].Attributes))
		for _, kv := range spans[0].Attributes {
			got[kv.Key] = kv.Value
		}

		assert.Equal(t, int64(42), got["account.id"].AsInt64())
		assert.Equal(t, email, got["account.email"].AsString())
		assert.True(t, got["account.verified"].AsBool())
		assert.Equal(t, "role:Client", got["account.role"].AsString())
		assert.Equal(t, id.String(), got["verification.id"].AsString())
		assert.Equal(t, "2025-01-02T03:04:05Z", got["created_at"].AsString())
		assert.Equal(t, "24h0m0s", got["ttl"].AsString())
		assert.Equal(t, "<nil>", got["missing"].AsString())
		assert.Equal(t, []string{"1", "2"}, got["ids"].AsStringSlice())
	})
}

func TestRecordSpanError(t *testing.T) {
	t.Parallel()

	RecordSpanError(nil, errors.New("ignored"), "")

	exporter, provider := newRecorder()
	_, span := provider.Tracer("test").Start(context.Background(), "test")

	RecordSpanError(span, nil, "no-op")
	RecordSpanError(span, errors.New("boom"), "")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "boom", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}
