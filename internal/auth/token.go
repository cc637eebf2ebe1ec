package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// MinSecretBytes is the minimum decoded length of the signing secret.
const MinSecretBytes = 32

// Claims describes the JWT payload.
type Claims struct {
	Type  domain.TokenType `json:"type"`
	Roles []string         `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies HS256 tokens. The key is immutable after
// construction, so a codec is safe for concurrent use.
type TokenCodec struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for minting and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec builds a codec from a base64 encoded secret.
func NewTokenCodec(secret string, accessTTL, refreshTTL time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	if accessTTL < time.Second || refreshTTL < time.Second {
		return nil, errors.New("token ttl must be at least one second")
	}
	c := &TokenCodec{key: key, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DecodeSecret decodes a base64 secret and enforces the minimum key size.
func DecodeSecret(secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decode jwt secret: %w", err)
	}
	if len(key) < MinSecretBytes {
		return nil, fmt.Errorf("jwt secret must decode to at least %d bytes, got %d", MinSecretBytes, len(key))
	}
	return key, nil
}

// Mint signs a token for subject. Roles are embedded only in access tokens.
func (tc *TokenCodec) Mint(subject string, tokenType domain.TokenType, roles []string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject required")
	}
	if ttl < time.Second {
		return "", errors.New("token ttl must be at least one second")
	}
	issuedAt := jwt.NewNumericDate(tc.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(ttl))

	claims := &Claims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}
	if tokenType == domain.TokenTypeAccess && len(roles) > 0 {
		claims.Roles = append([]string(nil), roles...)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tc.key)
}

// MintAccess issues an access token carrying the principal's authorities.
func (tc *TokenCodec) MintAccess(user *domain.User) (string, error) {
	return tc.Mint(user.Username, domain.TokenTypeAccess, AuthoritiesFor(user.Role), tc.accessTTL)
}

// MintRefresh issues a refresh token without authorities.
func (tc *TokenCodec) MintRefresh(user *domain.User) (string, error) {
	return tc.Mint(user.Username, domain.TokenTypeRefresh, nil, tc.refreshTTL)
}

// Verify checks signature and expiry. It does not look at the type claim;
// callers decide whether the token fits their purpose.
func (tc *TokenCodec) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tc.now),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tc.key, nil
	})
	if err != nil {
		return nil, apperrors.NewInvalidToken(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, apperrors.NewInvalidToken(errors.New("invalid token claims"))
	}
	return claims, nil
}

// IsValidFor reports whether the token verifies and belongs to user.
func (tc *TokenCodec) IsValidFor(tokenStr string, user *domain.User) bool {
	if user == nil {
		return false
	}
	claims, err := tc.Verify(tokenStr)
	if err != nil {
		return false
	}
	return claims.Subject == user.Username
}

// IsRefreshToken reports whether the token verifies and is tagged as refresh.
func (tc *TokenCodec) IsRefreshToken(tokenStr string) bool {
	claims, err := tc.Verify(tokenStr)
	if err != nil {
		return false
	}
	return claims.Type == domain.TokenTypeRefresh
}
