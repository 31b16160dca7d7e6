package authapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/pkg/errorx"
	"gitlab.com/eatsapp/accounts-backend/pkg/otelx"
)

const claimAccountID = "id"

var (
	tracer = otel.Tracer("accounts/internal/application/auth")
	logger = otelslog.NewLogger("accounts/internal/application/auth")
)

var ErrInvalidToken = errorx.NewUnauthorized().WithKey("invalid_token")

// Claims is what a verified session token proves.
type Claims struct {
	AccountID account.ID
	IssuedAt  time.Time
	// ExpiresAt is zero for tokens issued without a TTL.
	ExpiresAt time.Time
}

// TokenService signs and verifies HS256 session tokens carrying an account id.
type TokenService struct {
	tracer trace.Tracer
	logger *slog.Logger
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	method *jwt.SigningMethodHMAC
}

type TokenServiceArgs struct {
	Tracer trace.Tracer
	Logger *slog.Logger
	Secret string
	// TTL of zero issues tokens without an exp claim.
	TTL time.Duration
	Now func() time.Time
}

// NewTokenService panics if the secret is empty.
func NewTokenService(args TokenServiceArgs) *TokenService {
	if args.Secret == "" {
		panic("token secret cannot be empty")
	}
	if args.Tracer == nil {
		args.Tracer = tracer
	}
	if args.Logger == nil {
		args.Logger = logger
	}
	if args.Now == nil {
		args.Now = time.Now
	}

	return &TokenService{
		tracer: args.Tracer,
		logger: args.Logger,
		secret: []byte(args.Secret),
		ttl:    args.TTL,
		now:    args.Now,
		method: jwt.SigningMethodHS256,
	}
}

func (s *TokenService) Issue(ctx context.Context, id account.ID) (string, error) {
	const op = "authapp.TokenService.Issue"
	_, span := s.tracer.Start(ctx, "TokenService.Issue",
		trace.WithAttributes(
			attribute.Int64("account.id", int64(id)),
			attribute.String("token.ttl", s.ttl.String()),
		),
	)
	defer span.End()

	if id <= 0 {
		otelx.RecordSpanError(span, account.ErrInvalidID, "refusing to issue token")
		return "", errorx.Wrap(account.ErrInvalidID, op)
	}

	now := s.now()
	claims := jwt.MapClaims{
		claimAccountID: int64(id),
		"iat":          now.Unix(),
	}
	if s.ttl > 0 {
		claims["exp"] = now.Add(s.ttl).Unix()
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		otelx.RecordSpanError(span, err, "failed to sign token")
		return "", errorx.Wrap(err, op)
	}

	return signed, nil
}

// Verify returns ErrInvalidToken for any token that does not carry a positive
// integral id under a valid HS256 signature, or that has expired.
func (s *TokenService) Verify(ctx context.Context, token string) (Claims, error) {
	ctx, span := s.tracer.Start(ctx, "TokenService.Verify")
	defer span.End()

	claims, err := s.parse(token)
	if err != nil {
		otelx.RecordSpanError(span, err, "invalid token")
		s.logger.DebugContext(ctx, "token rejected", slog.String("reason", err.Error()))
		return Claims{}, ErrInvalidToken.WithCause(err)
	}

	span.SetAttributes(attribute.Int64("account.id", int64(claims.AccountID)))
	return claims, nil
}

func (s *TokenService) parse(token string) (Claims, error) {
	if token == "" {
		return Claims{}, errors.New("empty token")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithJSONNumber(),
		jwt.WithTimeFunc(s.now),
	}
	if s.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	mc := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, err
	}

	rawID, ok := mc[claimAccountID]
	if !ok {
		return Claims{}, errors.New("missing id claim")
	}
	num, ok := rawID.(json.Number)
	if !ok {
		return Claims{}, fmt.Errorf("id claim has type %T", rawID)
	}
	id, err := num.Int64()
	if err != nil || id <= 0 {
		return Claims{}, fmt.Errorf("id claim %q is not a positive integer", num.String())
	}

	out := Claims{AccountID: account.ID(id)}
	if iat, _ := mc.GetIssuedAt(); iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, _ := mc.GetExpirationTime(); exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
