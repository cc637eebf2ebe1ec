package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	minUsernameLength = 3
)

var (
	adminOnly     = auth.HasRole(domain.RoleAdmin)
	profileReader = auth.AnyOf(auth.HasAuthority(string(domain.PermissionUserRead)), auth.HasRole(domain.RoleAdmin))
)

// PageRequest is a 0-based page selector.
type PageRequest struct {
	Page int
	Size int
}

// UserPage is one page of search results.
type UserPage struct {
	Items      []domain.User
	Page       int
	Size       int
	Total      int
	TotalPages int
}

// UserSearchCriteria filters admin searches. Nil fields are ignored.
type UserSearchCriteria struct {
	Search *string
	Role   *domain.Role
	Status *domain.UserStatus
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
	Status   domain.UserStatus
}

// UpdateUserInput describes a partial update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	Role     *domain.Role
	Status   *domain.UserStatus
}

// UserService manages accounts. Every operation checks the caller's authorities first.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, dispatcher: dispatcher, logger: logger, bcryptCost: cfg.BcryptCost}
}

// List returns all accounts, newest first.
func (s *UserService) List(ctx context.Context, page PageRequest) (*UserPage, error) {
	return s.Search(ctx, UserSearchCriteria{}, page)
}

// Search filters accounts by free text, role and status.
func (s *UserService) Search(ctx context.Context, criteria UserSearchCriteria, page PageRequest) (*UserPage, error) {
	if _, err := auth.Authorize(ctx, adminOnly); err != nil {
		return nil, err
	}
	if criteria.Role != nil && !criteria.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *criteria.Role})
	}
	if criteria.Status != nil && !criteria.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *criteria.Status})
	}
	page, err := normalizePage(page)
	if err != nil {
		return nil, err
	}

	items, total, err := s.users.Search(ctx, repository.UserFilter{
		SearchTerm: criteria.Search,
		Role:       criteria.Role,
		Status:     criteria.Status,
		Limit:      page.Size,
		Offset:     page.Page * page.Size,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &UserPage{
		Items:      items,
		Page:       page.Page,
		Size:       page.Size,
		Total:      total,
		TotalPages: (total + page.Size - 1) / page.Size,
	}, nil
}

// Get returns a single account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if _, err := auth.Authorize(ctx, adminOnly); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Create registers a new account. New accounts cannot start INACTIVE.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	actor, err := auth.Authorize(ctx, adminOnly)
	if err != nil {
		return nil, err
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username, email and password are required", nil)
	}
	if err := validateIdentifiers(input.Username, input.Email); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = domain.UserStatusActive
	}
	if err := validateAccountFields(input.Role, input.Status); err != nil {
		return nil, err
	}
	if input.Status == domain.UserStatusInactive {
		return nil, apperrors.NewValidationError("new users cannot be INACTIVE", map[string]any{"status": input.Status})
	}
	if err := s.ensureUnique(ctx, input.Username, input.Email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Status:       input.Status,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapWriteError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventUserCreated, user.Username, actor.Username(), userPayload(user, nil)))
	return user, nil
}

// Update applies a partial change. Use Delete to deactivate an account.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*domain.User, error) {
	actor, err := auth.Authorize(ctx, adminOnly)
	if err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	username, email := user.Username, user.Email
	if input.Username != nil {
		username = strings.TrimSpace(*input.Username)
	}
	if input.Email != nil {
		email = strings.TrimSpace(*input.Email)
	}
	if err := validateIdentifiers(username, email); err != nil {
		return nil, err
	}

	var changed []string
	if input.Username != nil {
		if username != user.Username {
			if err := s.ensureUnique(ctx, username, ""); err != nil {
				return nil, err
			}
			user.Username = username
			changed = append(changed, "username")
		}
	}
	if input.Email != nil {
		if email != user.Email {
			if err := s.ensureUnique(ctx, "", email); err != nil {
				return nil, err
			}
			user.Email = email
			changed = append(changed, "email")
		}
	}
	if input.Role != nil {
		user.Role = *input.Role
		changed = append(changed, "role")
	}
	if input.Status != nil {
		if *input.Status == domain.UserStatusInactive {
			return nil, apperrors.NewValidationError("use delete to deactivate a user", map[string]any{"status": *input.Status})
		}
		user.Status = *input.Status
		changed = append(changed, "status")
	}
	if err := validateAccountFields(user.Role, user.Status); err != nil {
		return nil, err
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
		changed = append(changed, "password")
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapWriteError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventUserUpdated, user.Username, actor.Username(), userPayload(user, changed)))
	return user, nil
}

// Delete soft-deletes an account by marking it INACTIVE.
func (s *UserService) Delete(ctx context.Context, id string) error {
	actor, err := auth.Authorize(ctx, adminOnly)
	if err != nil {
		return err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if user.Status == domain.UserStatusInactive {
		return nil
	}

	user.Status = domain.UserStatusInactive
	if err := s.users.Update(ctx, user); err != nil {
		return mapWriteError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventUserDeactivated, user.Username, actor.Username(), userPayload(user, []string{"status"})))
	return nil
}

// Profile returns the caller's own account, freshly loaded.
func (s *UserService) Profile(ctx context.Context) (*domain.User, error) {
	id, err := auth.Authorize(ctx, profileReader)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByUsername(ctx, id.Username())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewPrincipalNotFound(id.Username())
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// EnsureAdmin creates an ACTIVE administrator unless the username is taken.
// It runs at startup without a caller identity.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return false, err
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("username", username))
	s.publish(ctx, events.NewEvent(events.EventUserCreated, username, "system", userPayload(user, nil)))
	return true, nil
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ensureUnique checks both columns for each value. Login resolves an
// identifier against username and email, so a username must never equal
// another account's email or the reverse.
func (s *UserService) ensureUnique(ctx context.Context, username, email string) error {
	if username != "" {
		taken, err := s.identifierTaken(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewConflict("username already exists", map[string]any{"username": username})
		}
	}
	if email != "" {
		taken, err := s.identifierTaken(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewConflict("email already exists", map[string]any{"email": email})
		}
	}
	return nil
}

func (s *UserService) identifierTaken(ctx context.Context, value string) (bool, error) {
	exists, err := s.users.ExistsByUsername(ctx, value)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	if exists {
		return true, nil
	}
	exists, err = s.users.ExistsByEmail(ctx, value)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return exists, nil
}

func validateIdentifiers(username, email string) error {
	details := map[string]any{}
	if utf8.RuneCountInString(username) < minUsernameLength {
		details["username"] = "min"
	} else if strings.Contains(username, "@") {
		details["username"] = "excludes"
	}
	if email == "" {
		details["email"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid username or email", details)
	}
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("audit dispatch failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateAccountFields(role domain.Role, status domain.UserStatus) error {
	if !role.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if !status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	return nil
}

func normalizePage(page PageRequest) (PageRequest, error) {
	if page.Page < 0 {
		return page, apperrors.NewValidationError("page must not be negative", map[string]any{"page": page.Page})
	}
	if page.Size <= 0 {
		page.Size = defaultPageSize
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}
	return page, nil
}

func mapWriteError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("username or email already exists", nil)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", nil)
	}
	return apperrors.MapError(err)
}

func userPayload(user *domain.User, fields []string) events.UserChangedPayload {
	return events.UserChangedPayload{
		UserID: user.ID,
		Role:   user.Role,
		Status: user.Status,
		Fields: fields,
	}
}
