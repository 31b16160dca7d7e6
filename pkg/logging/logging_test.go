package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/pkg/env"
)

func TestSetup(t *testing.T) {
	t.Parallel()

	t.Run("prod writes json at info", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := Setup(SetupArgs{Mode: env.Prod, Output: &buf})

		logger.Debug("hidden")
		logger.Info("account created", slog.Int64("account.id", 7))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "account created", rec["msg"])
		assert.Equal(t, "prod", rec["mode"])
		assert.EqualValues(t, 7, rec["account.id"])
		assert.NotContains(t, buf.String(), "hidden")
	})

	t.Run("local writes text at debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := Setup(SetupArgs{Mode: env.Local, Output: &buf})

		logger.Debug("token rejected")

		assert.Contains(t, buf.String(), "level=DEBUG")
		assert.Contains(t, buf.String(), `msg="token rejected"`)
		assert.Contains(t, buf.String(), "mode=local")
	})

	t.Run("otel fan-out still writes locally", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := Setup(SetupArgs{Mode: env.Test, Output: &buf, OTel: true})

		logger.With(slog.String("k", "v")).WithGroup("g").Info("hello", slog.Int("n", 1))

		assert.Contains(t, buf.String(), "msg=hello")
		assert.Contains(t, buf.String(), "k=v")
		assert.Contains(t, buf.String(), "g.n=1")
	})
}
