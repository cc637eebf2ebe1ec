package dto

import (
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// CreateUserRequest payload for admin account creation.
type CreateUserRequest struct {
	Username string            `json:"username" validate:"required,min=3,max=50,excludes=@"`
	Email    string            `json:"email" validate:"required,email,max=255"`
	Password string            `json:"password" validate:"required,min=8,max=72"`
	Role     domain.Role       `json:"role" validate:"required,oneof=ADMIN USER"`
	Status   domain.UserStatus `json:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED INACTIVE"`
}

// UpdateUserRequest payload for partial updates. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Username *string            `json:"username" validate:"omitempty,min=3,max=50,excludes=@"`
	Email    *string            `json:"email" validate:"omitempty,email,max=255"`
	Password *string            `json:"password" validate:"omitempty,min=8,max=72"`
	Role     *domain.Role       `json:"role" validate:"omitempty,oneof=ADMIN USER"`
	Status   *domain.UserStatus `json:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED INACTIVE"`
}

// UserSearchQuery captures query filters for search.
type UserSearchQuery struct {
	Search *string
	Role   *domain.Role
	Status *domain.UserStatus
	Page   int
	Size   int
}

// UserResponse represents an account returned by admin endpoints.
type UserResponse struct {
	ID        string            `json:"id"`
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	Role      domain.Role       `json:"role"`
	Status    domain.UserStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// UserProfileResponse is the caller's own view of their account.
type UserProfileResponse struct {
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Role     domain.Role       `json:"role"`
	Status   domain.UserStatus `json:"status"`
}

// UserPageResponse wraps one page of users.
type UserPageResponse struct {
	Content       []UserResponse `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int            `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
}

// NewUserResponse maps a domain user. The password hash never leaves the service.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserProfileResponse maps the caller's account.
func NewUserProfileResponse(u *domain.User) UserProfileResponse {
	return UserProfileResponse{
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Status:   u.Status,
	}
}
