package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

// LoginRequest carries raw credentials. Identifier is a username or email.
type LoginRequest struct {
	Identifier string
	Password   string
	RemoteAddr string
}

// AuthService coordinates login and refresh flows.
type AuthService struct {
	authenticator auth.Authenticator
	principals    auth.PrincipalStore
	tokens        *auth.TokenCodec
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	rotateRefresh bool
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Authenticator auth.Authenticator
	Principals    auth.PrincipalStore
	Tokens        *auth.TokenCodec
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		authenticator: deps.Authenticator,
		principals:    deps.Principals,
		tokens:        deps.Tokens,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		rotateRefresh: cfg.RotateRefreshTokens,
	}
}

// Login verifies credentials and mints an access/refresh pair for the principal.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.TokenPair, error) {
	principal, err := s.authenticator.Authenticate(ctx, req.Identifier, req.Password)
	if err != nil {
		s.publish(ctx, events.NewEvent(events.EventLoginFailed, req.Identifier, "", events.LoginPayload{
			RemoteAddr: req.RemoteAddr,
			Reason:     apperrors.ToDomainError(err).Code,
		}))
		return nil, err
	}

	access, err := s.tokens.MintAccess(principal)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, err := s.tokens.MintRefresh(principal)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventLoginSucceeded, principal.Username, principal.Username, events.LoginPayload{
		RemoteAddr: req.RemoteAddr,
	}))
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token. The principal is
// reloaded so role and status changes since login take effect. The refresh
// token is returned unchanged unless rotation is enabled.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if !s.tokens.IsRefreshToken(refreshToken) {
		return nil, apperrors.NewInvalidToken(errors.New("not a valid refresh token"))
	}
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	principal, err := s.principals.FindByIdentifier(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewPrincipalNotFound(claims.Subject)
		}
		return nil, apperrors.MapError(err)
	}
	if !principal.Enabled() {
		return nil, apperrors.NewAccountDisabled(string(principal.Status))
	}

	access, err := s.tokens.MintAccess(principal)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	// Rotation is off by default: a leaked refresh token stays usable until it expires.
	nextRefresh := refreshToken
	if s.rotateRefresh {
		if nextRefresh, err = s.tokens.MintRefresh(principal); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	s.publish(ctx, events.NewEvent(events.EventTokenRefreshed, principal.Username, principal.Username, events.TokenRefreshedPayload{
		Rotated: s.rotateRefresh,
	}))
	return &domain.TokenPair{AccessToken: access, RefreshToken: nextRefresh}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("audit dispatch failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
