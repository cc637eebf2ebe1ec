package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// PrincipalStore resolves a username or email to a stored principal.
// Implementations return pgx.ErrNoRows when nothing matches.
type PrincipalStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
}

// Authenticator verifies raw credentials and returns the matching principal.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, password string) (*domain.User, error)
}

// PasswordAuthenticator checks raw credentials against stored bcrypt hashes.
type PasswordAuthenticator struct {
	store     PrincipalStore
	dummyHash string
}

// NewPasswordAuthenticator precomputes a hash at cost so unknown identifiers
// take as long to reject as wrong passwords.
func NewPasswordAuthenticator(store PrincipalStore, cost int) (*PasswordAuthenticator, error) {
	dummy, err := HashPassword("not-a-real-password", cost)
	if err != nil {
		return nil, err
	}
	return &PasswordAuthenticator{store: store, dummyHash: dummy}, nil
}

// Authenticate returns the principal for valid credentials. Unknown
// identifiers and wrong passwords both yield BAD_CREDENTIALS. A correct
// password on an account that is not ACTIVE yields ACCOUNT_DISABLED.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	if identifier == "" || password == "" {
		_ = ComparePassword(a.dummyHash, password)
		return nil, apperrors.NewBadCredentials()
	}

	user, err := a.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = ComparePassword(a.dummyHash, password)
			return nil, apperrors.NewBadCredentials()
		}
		return nil, apperrors.MapError(err)
	}

	if err := ComparePassword(user.PasswordHash, password); err != nil {
		if IsMismatch(err) {
			return nil, apperrors.NewBadCredentials()
		}
		return nil, apperrors.NewInternalError(err)
	}

	if !user.Enabled() {
		return nil, apperrors.NewAccountDisabled(string(user.Status))
	}
	return user, nil
}
