package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// rolePermissions is the static authorization table. Each role lists its full
// permission set; there is no inheritance between roles.
var rolePermissions = map[domain.Role][]domain.Permission{
	domain.RoleAdmin: {
		domain.PermissionAdminCreate,
		domain.PermissionAdminRead,
		domain.PermissionAdminUpdate,
		domain.PermissionAdminDelete,
	},
	domain.RoleUser: {
		domain.PermissionUserRead,
	},
}

// PermissionsFor returns a copy of the permissions granted to role.
func PermissionsFor(role domain.Role) []domain.Permission {
	perms := rolePermissions[role]
	out := make([]domain.Permission, len(perms))
	copy(out, perms)
	return out
}

// AuthoritiesFor returns the role authority followed by one authority per permission.
func AuthoritiesFor(role domain.Role) []string {
	if !role.Valid() {
		return nil
	}
	perms := rolePermissions[role]
	out := make([]string, 0, len(perms)+1)
	out = append(out, role.Authority())
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}

// Check is a predicate over an authenticated identity.
type Check func(*Identity) bool

// HasRole requires the ROLE_ authority for role.
func HasRole(role domain.Role) Check {
	return func(id *Identity) bool {
		return id.HasAuthority(role.Authority())
	}
}

// HasAuthority requires a specific authority string, usually a permission.
func HasAuthority(authority string) Check {
	return func(id *Identity) bool {
		return id.HasAuthority(authority)
	}
}

// AnyOf passes when at least one check passes.
func AnyOf(checks ...Check) Check {
	return func(id *Identity) bool {
		for _, check := range checks {
			if check(id) {
				return true
			}
		}
		return false
	}
}

// Authorize evaluates check against the identity stored in ctx.
func Authorize(ctx context.Context, check Check) (*Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	if check != nil && !check(id) {
		return nil, apperrors.ErrForbidden
	}
	return id, nil
}

// RequireAuthenticated rejects requests that reached it without an identity.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c.UserContext()); !ok {
			return apperrors.ErrUnauthenticated
		}
		return c.Next()
	}
}

// Require builds a route guard from check.
func Require(check Check) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := Authorize(c.UserContext(), check); err != nil {
			return err
		}
		return c.Next()
	}
}
