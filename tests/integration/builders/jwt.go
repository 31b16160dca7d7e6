package builders

import (
	"maps"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"gitlab.com/eatsapp/accounts-backend/internal/domain/account"
	"gitlab.com/eatsapp/accounts-backend/tests/integration/fixtures"
)

type JWTFactory struct{}

// SessionToken mirrors what the token service issues for id.
func (f JWTFactory) SessionToken(id account.ID) *JWTBuilder {
	return NewJWTBuilder().
		WithAccountID(id).
		WithIssuedAt(time.Now()).
		WithExpiration(time.Now().Add(24 * time.Hour))
}

// JWTBuilder crafts tokens the token service would never issue, for negative tests.
type JWTBuilder struct {
	secretKey     []byte
	signingMethod jwt.SigningMethod
	mapClaims     jwt.MapClaims
}

func NewJWTBuilder() *JWTBuilder {
	return &JWTBuilder{
		secretKey:     []byte(fixtures.TokenSecret),
		signingMethod: jwt.SigningMethodHS256,
		mapClaims:     jwt.MapClaims{},
	}
}

func (j *JWTBuilder) WithAccountID(id account.ID) *JWTBuilder {
	j.mapClaims["id"] = int64(id)
	return j
}

func (j *JWTBuilder) WithIssuedAt(issuedAt time.Time) *JWTBuilder {
	j.mapClaims["iat"] = jwt.NewNumericDate(issuedAt)
	return j
}

func (j *JWTBuilder) WithExpiration(expiration time.Time) *JWTBuilder {
	j.mapClaims["exp"] = jwt.NewNumericDate(expiration)
	return j
}

func (j *JWTBuilder) WithSecret(key []byte) *JWTBuilder {
	j.secretKey = key
	return j
}

func (j *JWTBuilder) WithSigningMethod(method jwt.SigningMethod) *JWTBuilder {
	j.signingMethod = method
	return j
}

func (j *JWTBuilder) WithClaim(key string, value any) *JWTBuilder {
	j.mapClaims[key] = value
	return j
}

func (j *JWTBuilder) WithoutClaim(key string) *JWTBuilder {
	delete(j.mapClaims, key)
	return j
}

func (j *JWTBuilder) WithClaims(mapClaims jwt.MapClaims) *JWTBuilder {
	maps.Copy(j.mapClaims, mapClaims)
	return j
}

func (j *JWTBuilder) Build() *jwt.Token {
	return jwt.NewWithClaims(j.signingMethod, j.mapClaims)
}

// BuildSignedString signs with the configured key; for jwt.SigningMethodNone
// the key is replaced by jwt.UnsafeAllowNoneSignatureType.
func (j *JWTBuilder) BuildSignedString() (string, error) {
	if j.signingMethod == jwt.SigningMethodNone {
		return j.Build().SignedString(jwt.UnsafeAllowNoneSignatureType)
	}
	return j.Build().SignedString(j.secretKey)
}

func (j *JWTBuilder) BuildSignedStringT(t *testing.T) string {
	t.Helper()
	token, err := j.BuildSignedString()
	require.NoError(t, err, "failed to build signed JWT string")
	return token
}
