package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	authapp "gitlab.com/eatsapp/accounts-backend/internal/application/auth"
	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/ctxs"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/httpx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

const (
	TokenHeader = "X-JWT"
	bearer      = "Bearer "
	// Longer tokens are not something this service ever issues.
	maxTokenLen = 1000
)

var (
	tracer = otel.Tracer("accounts/internal/ports/http/middlewares")
	logger = otelslog.NewLogger("accounts/internal/ports/http/middlewares")
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (authapp.Claims, error)
}

type AccountFinder interface {
	FindByID(ctx context.Context, id account.ID) (*account.Account, error)
}

// Authenticator resolves the caller's account from the session token. It
// never rejects a request: any failure leaves the request anonymous and
// RequireAccount decides whether that is acceptable.
type Authenticator struct {
	tracer     trace.Tracer
	logger     *slog.Logger
	tokens     TokenVerifier
	accounts   AccountFinder
	errhandler *httpx.ErrorHandler
}

type AuthenticatorArgs struct {
	Tracer     trace.Tracer
	Logger     *slog.Logger
	Tokens     TokenVerifier
	Accounts   AccountFinder
	Errhandler *httpx.ErrorHandler
}

func NewAuthenticator(args AuthenticatorArgs) *Authenticator {
	if args.Tokens == nil {
		panic("token verifier cannot be nil")
	}
	if args.Accounts == nil {
		panic("account finder cannot be nil")
	}
	if args.Errhandler == nil {
		panic("error handler cannot be nil")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}

	return &Authenticator{
		tracer:     args.Tracer,
		logger:     args.Logger,
		tokens:     args.Tokens,
		accounts:   args.Accounts,
		errhandler: args.Errhandler,
	}
}

func (m *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx, span := m.tracer.Start(r.Context(), "Authenticator.Authenticate")
		acc, err := m.resolve(ctx, token)
		if err != nil {
			otelx.RecordSpanError(span, err, "request stays anonymous")
			m.logger.DebugContext(ctx, "request stays anonymous", slog.Any("error", err))
			span.End()
			next.ServeHTTP(w, r)
			return
		}
		span.SetAttributes(attribute.Int64("account.id", int64(acc.ID())))
		span.End()

		next.ServeHTTP(w, r.WithContext(ctxs.WithAccount(r.Context(), acc)))
	})
}

func (m *Authenticator) resolve(ctx context.Context, token string) (*account.Account, error) {
	claims, err := m.tokens.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return m.accounts.FindByID(ctx, claims.AccountID)
}

// RequireAccount rejects anonymous requests with 401.
func (m *Authenticator) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ctxs.AccountFromCtx(r.Context()); !ok {
			m.errhandler.HandleError(w, r, errorx.NewUnauthorized())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromRequest reads X-JWT first and falls back to a bearer Authorization
// header. It returns "" when neither carries a usable token.
func TokenFromRequest(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get(TokenHeader))
	if token == "" {
		auth := r.Header.Get("Authorization")
		if len(auth) > len(bearer) && strings.EqualFold(auth[:len(bearer)], bearer) {
			token = strings.TrimSpace(auth[len(bearer):])
		}
	}
	if len(token) > maxTokenLen {
		return ""
	}
	return token
}
