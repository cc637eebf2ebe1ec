package auth

import (
	"context"

	"github.com/spec-kit/auth-service/internal/domain"
)

type identityKey struct{}

// Identity is the authenticated caller attached to a single request.
type Identity struct {
	Principal   *domain.User
	Authorities []string
	RemoteAddr  string
	RequestID   string
}

// NewIdentity derives authorities from the principal's role.
func NewIdentity(principal *domain.User, remoteAddr, requestID string) *Identity {
	return &Identity{
		Principal:   principal,
		Authorities: AuthoritiesFor(principal.Role),
		RemoteAddr:  remoteAddr,
		RequestID:   requestID,
	}
}

// Username returns the principal's subject identifier.
func (i *Identity) Username() string {
	if i == nil || i.Principal == nil {
		return ""
	}
	return i.Principal.Username
}

// HasAuthority reports whether authority was granted.
func (i *Identity) HasAuthority(authority string) bool {
	if i == nil {
		return false
	}
	for _, a := range i.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// HasRole reports whether the identity carries the role authority.
func (i *Identity) HasRole(role domain.Role) bool {
	return i.HasAuthority(role.Authority())
}

// WithIdentity returns a child context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
