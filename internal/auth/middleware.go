package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const bearerPrefix = "Bearer "

// requestIDKey matches the Locals key used by fiber's requestid middleware.
const requestIDKey = "requestid"

// AuthMiddleware authenticates bearer tokens and installs the request Identity.
type AuthMiddleware struct {
	tokens     *TokenCodec
	principals PrincipalStore
	logger     *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenCodec, principals PrincipalStore, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, principals: principals, logger: logger}
}

// Handle runs once per request. Requests without a bearer token pass through
// anonymously; a bad or non-access token stops the chain with 401.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return c.Next()
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])

	claims, err := m.tokens.Verify(raw)
	if err != nil {
		m.logger.Debug("bearer token rejected", zap.Error(err))
		return err
	}
	if claims.Type != domain.TokenTypeAccess {
		m.logger.Debug("non-access token presented", zap.String("type", string(claims.Type)))
		return apperrors.NewInvalidToken(errors.New("token is not an access token"))
	}

	ctx := c.UserContext()
	if _, ok := IdentityFromContext(ctx); ok {
		return c.Next()
	}

	principal, err := m.principals.FindByIdentifier(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewPrincipalNotFound(claims.Subject)
		}
		return apperrors.MapError(err)
	}

	if !m.tokens.IsValidFor(raw, principal) {
		return c.Next()
	}
	if !principal.Enabled() {
		return apperrors.NewAccountDisabled(string(principal.Status))
	}

	requestID, _ := c.Locals(requestIDKey).(string)
	c.SetUserContext(WithIdentity(ctx, NewIdentity(principal, c.IP(), requestID)))
	return c.Next()
}
