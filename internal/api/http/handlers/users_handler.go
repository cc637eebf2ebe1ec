package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-service/internal/api/dto"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/service"
)

// UsersHandler exposes account administration endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /api/v1/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, err := h.users.List(c.UserContext(), pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toPageResponse(page)})
}

// Search handles GET /api/v1/users/search.
func (h *UsersHandler) Search(c *fiber.Ctx) error {
	query := parseSearchQuery(c)
	page, err := h.users.Search(c.UserContext(), service.UserSearchCriteria{
		Search: query.Search,
		Role:   query.Role,
		Status: query.Status,
	}, service.PageRequest{Page: query.Page, Size: query.Size})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toPageResponse(page)})
}

// Profile handles GET /api/v1/users/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	user, err := h.users.Profile(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserProfileResponse(user)})
}

// Get handles GET /api/v1/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Create handles POST /api/v1/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	c.Location("/api/v1/users/" + user.ID)
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update handles PUT /api/v1/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.UserContext(), c.Params("id"), service.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Delete handles DELETE /api/v1/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func pageRequest(c *fiber.Ctx) service.PageRequest {
	return service.PageRequest{Page: c.QueryInt("page", 0), Size: c.QueryInt("size", 0)}
}

func parseSearchQuery(c *fiber.Ctx) dto.UserSearchQuery {
	page := pageRequest(c)
	query := dto.UserSearchQuery{Page: page.Page, Size: page.Size}
	if v := c.Query("search"); v != "" {
		query.Search = &v
	}
	if v := c.Query("role"); v != "" {
		role := domain.Role(v)
		query.Role = &role
	}
	if v := c.Query("status"); v != "" {
		status := domain.UserStatus(v)
		query.Status = &status
	}
	return query
}

func toPageResponse(page *service.UserPage) dto.UserPageResponse {
	content := make([]dto.UserResponse, 0, len(page.Items))
	for i := range page.Items {
		content = append(content, dto.NewUserResponse(&page.Items[i]))
	}
	return dto.UserPageResponse{
		Content:       content,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.Total,
		TotalPages:    page.TotalPages,
	}
}
