package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

func TestNewTokenCodecRejectsWeakConfig(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	_, err := NewTokenCodec(short, time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenCodec("***not base64***", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenCodec(testSecret, 0, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenCodec(testSecret, time.Minute, 500*time.Millisecond)
	assert.Error(t, err)
}

func TestMintVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	for _, typ := range []domain.TokenType{domain.TokenTypeAccess, domain.TokenTypeRefresh} {
		token, err := codec.Mint("alice", typ, []string{"ROLE_USER"}, time.Minute)
		require.NoError(t, err)
		assert.Len(t, strings.Split(token, "."), 3)

		claims, err := codec.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.Equal(t, typ, claims.Type)
		assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
	}
}

func TestRolesOnlyOnAccessTokens(t *testing.T) {
	codec := newTestCodec(t)
	user := &domain.User{Username: "alice", Role: domain.RoleUser, Status: domain.UserStatusActive}

	access, err := codec.MintAccess(user)
	require.NoError(t, err)
	claims, err := codec.Verify(access)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeAccess, claims.Type)
	assert.Equal(t, []string{"ROLE_USER", "USER_READ"}, claims.Roles)

	refresh, err := codec.MintRefresh(user)
	require.NoError(t, err)
	claims, err = codec.Verify(refresh)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenTypeRefresh, claims.Type)
	assert.Empty(t, claims.Roles)

	explicit, err := codec.Mint("alice", domain.TokenTypeRefresh, []string{"ROLE_ADMIN"}, time.Minute)
	require.NoError(t, err)
	claims, err = codec.Verify(explicit)
	require.NoError(t, err)
	assert.Nil(t, claims.Roles)
}

func TestVerifyExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	codec := newTestCodec(t, WithClock(clock.Now))
	issued := clock.Now()
	ttl := time.Minute

	token, err := codec.Mint("alice", domain.TokenTypeAccess, nil, ttl)
	require.NoError(t, err)

	clock.Set(issued.Add(ttl - time.Millisecond))
	_, err = codec.Verify(token)
	require.NoError(t, err)

	clock.Set(issued.Add(ttl))
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	clock.Set(issued.Add(ttl + time.Millisecond))
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	codec := newTestCodec(t)
	token, err := codec.Mint("alice", domain.TokenTypeAccess, nil, time.Minute)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	mid := len(sig) / 2
	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = codec.Verify(tampered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	assert.False(t, codec.IsValidFor(tampered, &domain.User{Username: "alice"}))
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	codec := newTestCodec(t)

	other, err := NewTokenCodec(base64.StdEncoding.EncodeToString([]byte("another-secret-another-secret-xx")), time.Minute, time.Hour)
	require.NoError(t, err)
	foreign, err := other.Mint("alice", domain.TokenTypeAccess, nil, time.Minute)
	require.NoError(t, err)
	_, err = codec.Verify(foreign)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	key, err := DecodeSecret(testSecret)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		Type: domain.TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(key)
	require.NoError(t, err)
	_, err = codec.Verify(hs512)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	for _, junk := range []string{"", "abc", "a.b.c"} {
		_, err = codec.Verify(junk)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, junk)
	}
}

func TestIsValidForAndIsRefreshToken(t *testing.T) {
	codec := newTestCodec(t)
	alice := &domain.User{Username: "alice", Role: domain.RoleUser}
	bob := &domain.User{Username: "bob", Role: domain.RoleUser}

	access, err := codec.MintAccess(alice)
	require.NoError(t, err)
	refresh, err := codec.MintRefresh(alice)
	require.NoError(t, err)

	assert.True(t, codec.IsValidFor(access, alice))
	assert.False(t, codec.IsValidFor(access, bob))
	assert.False(t, codec.IsValidFor(access, nil))
	assert.False(t, codec.IsValidFor("garbage", alice))

	assert.True(t, codec.IsRefreshToken(refresh))
	assert.False(t, codec.IsRefreshToken(access))
	assert.False(t, codec.IsRefreshToken("garbage"))
}
