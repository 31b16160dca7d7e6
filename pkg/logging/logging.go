package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"gitlab.com/eatsapp/accounts-backend/pkg/env"
)

const serviceName = "accounts-backend"

type SetupArgs struct {
	Mode env.Mode
	// Output defaults to os.Stdout.
	Output io.Writer
	// OTel also forwards every record to the global OpenTelemetry logger provider.
	OTel bool
}

// Setup builds the process logger: JSON in prod, text elsewhere, level taken from the mode.
func Setup(args SetupArgs) *slog.Logger {
	if args.Output == nil {
		args.Output = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     args.Mode.SlogLevel(),
		AddSource: args.Mode == env.Prod,
	}

	var h slog.Handler
	if args.Mode == env.Prod {
		h = slog.NewJSONHandler(args.Output, opts)
	} else {
		h = slog.NewTextHandler(args.Output, opts)
	}

	if args.OTel {
		h = fanout{h, otelslog.NewHandler(serviceName)}
	}

	return slog.New(h).With(slog.String("mode", args.Mode.String()))
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
