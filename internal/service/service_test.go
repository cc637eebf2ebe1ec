package service

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
)

const testCost = 4

var testSecret = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	repo       *repository.MemoryUserRepository
	codec      *auth.TokenCodec
	dispatcher events.Dispatcher
	recorded   *recorder
	auth       *AuthService
	users      *UserService
}

func newFixture(t *testing.T, rotate bool) *fixture {
	t.Helper()
	repo := repository.NewMemoryUserRepository()
	codec, err := auth.NewTokenCodec(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	authn, err := auth.NewPasswordAuthenticator(repo, testCost)
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	for _, et := range events.AllEventTypes() {
		dispatcher.Subscribe(et, rec.handle)
	}

	cfg := config.AuthConfig{RotateRefreshTokens: rotate, BcryptCost: testCost}
	return &fixture{
		repo:       repo,
		codec:      codec,
		dispatcher: dispatcher,
		recorded:   rec,
		auth: NewAuthService(cfg, AuthDependencies{
			Authenticator: authn,
			Principals:    repo,
			Tokens:        codec,
			Dispatcher:    dispatcher,
		}),
		users: NewUserService(cfg, repo, dispatcher, nil),
	}
}

func (f *fixture) seed(t *testing.T, username, password string, role domain.Role, status domain.UserStatus) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, testCost)
	require.NoError(t, err)
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	}
	require.NoError(t, f.repo.Create(context.Background(), user))
	return user
}

func asIdentity(user *domain.User) context.Context {
	return auth.WithIdentity(context.Background(), auth.NewIdentity(user, "127.0.0.1", "req-1"))
}
