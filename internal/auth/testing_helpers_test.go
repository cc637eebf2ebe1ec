package auth

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
)

var testSecret = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

type stubStore struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	lookups int
}

func newStubStore(users ...*domain.User) *stubStore {
	s := &stubStore{users: map[string]*domain.User{}}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *stubStore) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if u, ok := s.users[identifier]; ok {
		copied := *u
		return &copied, nil
	}
	for _, u := range s.users {
		if u.Email == identifier {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubStore) Lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

func newTestCodec(t *testing.T, opts ...CodecOption) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, 15*time.Minute, 24*time.Hour, opts...)
	require.NoError(t, err)
	return codec
}

func testUser(t *testing.T, username string, role domain.Role, status domain.UserStatus, password string) *domain.User {
	t.Helper()
	hash, err := HashPassword(password, 4)
	require.NoError(t, err)
	return &domain.User{
		ID:           username + "-id",
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	}
}
