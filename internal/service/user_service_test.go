package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

func ptr[T any](v T) *T { return &v }

func TestUserServiceRequiresAdmin(t *testing.T) {
	f := newFixture(t, false)
	alice := f.seed(t, "alice", "pw", domain.RoleUser, domain.UserStatusActive)

	_, err := f.users.List(context.Background(), PageRequest{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	userCtx := asIdentity(alice)
	_, err = f.users.List(userCtx, PageRequest{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.users.Get(userCtx, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.users.Create(userCtx, CreateUserInput{Username: "x", Email: "x@example.com", Password: "pw", Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.ErrorIs(t, f.users.Delete(userCtx, alice.ID), apperrors.ErrForbidden)
}

func TestUserServiceCreate(t *testing.T) {
	f := newFixture(t, false)
	admin := f.seed(t, "root", "pw", domain.RoleAdmin, domain.UserStatusActive)
	ctx := asIdentity(admin)

	created, err := f.users.Create(ctx, CreateUserInput{
		Username: " bob ",
		Email:    "bob@example.com",
		Password: "bob-pw",
		Role:     domain.RoleUser,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "bob", created.Username)
	assert.Equal(t, domain.UserStatusActive, created.Status)
	assert.NoError(t, auth.ComparePassword(created.PasswordHash, "bob-pw"))

	_, err = f.users.Create(ctx, CreateUserInput{Username: "bob", Email: "b2@example.com", Password: "pw", Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	_, err = f.users.Create(ctx, CreateUserInput{Username: "bob2", Email: "bob@example.com", Password: "pw", Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.users.Create(ctx, CreateUserInput{Username: "dave", Email: "dave@example.com", Password: "pw", Role: domain.RoleUser, Status: domain.UserStatusInactive})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.users.Create(ctx, CreateUserInput{Username: "dave", Email: "dave@example.com", Password: "pw", Role: "GUEST"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.users.Create(ctx, CreateUserInput{Username: "dave", Email: "dave@example.com", Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Equal(t, []events.EventType{events.EventUserCreated}, f.recorded.types())
}

func TestUserServiceUpdate(t *testing.T) {
	f := newFixture(t, false)
	admin := f.seed(t, "root", "pw", domain.RoleAdmin, domain.UserStatusActive)
	bob := f.seed(t, "bob", "bob-pw", domain.RoleUser, domain.UserStatusActive)
	f.seed(t, "carol", "pw", domain.RoleUser, domain.UserStatusActive)
	ctx := asIdentity(admin)

	updated, err := f.users.Update(ctx, bob.ID, UpdateUserInput{
		Email:    ptr("robert@example.com"),
		Password: ptr("new-pw"),
		Status:   ptr(domain.UserStatusSuspended),
	})
	require.NoError(t, err)
	assert.Equal(t, "robert@example.com", updated.Email)
	assert.Equal(t, domain.UserStatusSuspended, updated.Status)
	assert.NoError(t, auth.ComparePassword(updated.PasswordHash, "new-pw"))

	_, err = f.users.Update(ctx, bob.ID, UpdateUserInput{Username: ptr("carol")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.users.Update(ctx, bob.ID, UpdateUserInput{Username: ptr("bob")})
	assert.NoError(t, err)

	_, err = f.users.Update(ctx, bob.ID, UpdateUserInput{Status: ptr(domain.UserStatusInactive)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.users.Update(ctx, "missing", UpdateUserInput{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	types := f.recorded.types()
	assert.Equal(t, events.EventUserUpdated, types[len(types)-1])
}

func TestUserServiceRejectsBlankIdentifiers(t *testing.T) {
	f := newFixture(t, false)
	admin := f.seed(t, "root", "pw", domain.RoleAdmin, domain.UserStatusActive)
	bob := f.seed(t, "bob", "bob-pw", domain.RoleUser, domain.UserStatusActive)
	ctx := asIdentity(admin)

	tests := []struct {
		name  string
		input UpdateUserInput
		field string
	}{
		{"whitespace username", UpdateUserInput{Username: ptr("   ")}, "username"},
		{"short username", UpdateUserInput{Username: ptr(" bo ")}, "username"},
		{"whitespace email", UpdateUserInput{Email: ptr("  ")}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Update(ctx, bob.ID, tt.input)
			require.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Contains(t, apperrors.ToDomainError(err).Details, tt.field)
		})
	}

	stored, err := f.repo.GetByID(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", stored.Username)
	assert.Equal(t, "bob@example.com", stored.Email)

	_, err = f.users.Create(ctx, CreateUserInput{Username: " ab ", Email: "ab@example.com", Password: "pw", Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUsernameCannotShadowAnotherEmail(t *testing.T) {
	f := newFixture(t, false)
	admin := f.seed(t, "root", "pw", domain.RoleAdmin, domain.UserStatusActive)
	f.seed(t, "alice", "alice-pw", domain.RoleUser, domain.UserStatusActive)
	bob := f.seed(t, "bob", "bob-pw", domain.RoleUser, domain.UserStatusActive)
	ctx := asIdentity(admin)

	_, err := f.users.Update(ctx, bob.ID, UpdateUserInput{Username: ptr("alice@example.com")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.users.Create(ctx, CreateUserInput{Username: "mallory", Email: "alice", Password: "pw", Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.users.Update(ctx, bob.ID, UpdateUserInput{Email: ptr("alice")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	pair, err := f.auth.Login(context.Background(), LoginRequest{Identifier: "alice@example.com", Password: "alice-pw"})
	require.NoError(t, err)
	claims, err := f.codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
}

func TestUserServiceSoftDelete(t *testing.T) {
	f := newFixture(t, false)
	admin := f.seed(t, "root", "pw", domain.RoleAdmin, domain.UserStatusActive)
	bob := f.seed(t, "bob", "bob-pw", domain.RoleUser, domain.UserStatusActive)
	ctx := asIdentity(admin)

	require.NoError(t, f.users.Delete(ctx, bob.ID))
	got, err := f.users.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStatusInactive, got.Status)

	_, err = f.auth.Login(context.Background(), LoginRequest{Identifier: "bob", Password: "bob-pw"})
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)

	assert.ErrorIs(t, f.users.Delete(ctx, "missing"), apperrors.ErrNotFound)
	assert.Contains(t, f.recorded.types(), events.EventUserDeactivated)
}

func TestUserServiceSearch(t *testing.T) {
	f := newFixture(t, false)
	admin := f.seed(t, "root", "pw", domain.RoleAdmin, domain.UserStatusActive)
	f.seed(t, "alice", "pw", domain.RoleUser, domain.UserStatusActive)
	f.seed(t, "albert", "pw", domain.RoleUser, domain.UserStatusSuspended)
	ctx := asIdentity(admin)

	page, err := f.users.List(ctx, PageRequest{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)

	page, err = f.users.Search(ctx, UserSearchCriteria{Search: ptr("AL"), Status: ptr(domain.UserStatusActive)}, PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice", page.Items[0].Username)
	assert.Equal(t, 20, page.Size)

	page, err = f.users.List(ctx, PageRequest{Size: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Size)

	_, err = f.users.List(ctx, PageRequest{Page: -1})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.users.Search(ctx, UserSearchCriteria{Role: ptr(domain.Role("GUEST"))}, PageRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUserServiceProfile(t *testing.T) {
	f := newFixture(t, false)
	alice := f.seed(t, "alice", "pw", domain.RoleUser, domain.UserStatusActive)
	admin := f.seed(t, "root", "pw", domain.RoleAdmin, domain.UserStatusActive)

	me, err := f.users.Profile(asIdentity(alice))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	me, err = f.users.Profile(asIdentity(admin))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, me.Role)

	_, err = f.users.Profile(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	created, err := f.users.EnsureAdmin(ctx, "admin", "admin@example.com", "admin-pw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.users.EnsureAdmin(ctx, "admin", "admin@example.com", "admin-pw")
	require.NoError(t, err)
	assert.False(t, created)

	pair, err := f.auth.Login(ctx, LoginRequest{Identifier: "admin", Password: "admin-pw"})
	require.NoError(t, err)
	claims, err := f.codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ROLE_ADMIN", claims.Roles[0])
}
