package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/directory-service/internal/api/dto"
	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/query"
	"github.com/spec-kit/directory-service/internal/service"
)

// UsersHandler exposes directory user management.
type UsersHandler struct {
	users           *service.UserService
	defaultPageSize int
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService, defaultPageSize int) *UsersHandler {
	return &UsersHandler{users: userService, defaultPageSize: defaultPageSize}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	req, err := listingRequest(c, h.defaultPageSize, query.FieldFirstName, query.FieldLastName, query.FieldCompanyName)
	if err != nil {
		return err
	}

	page, err := h.users.ListUsers(c.UserContext(), actor, req)
	if err != nil {
		return err
	}
	return c.JSON(dto.ListResponse[dto.UserResponse]{
		Meta: dto.ListMeta{
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalCount: page.TotalCount,
			Count:      len(page.Items),
		},
		Data: dto.NewUserResponses(page.Items),
	})
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, link, err := h.users.CreateUser(c.UserContext(), actor, service.CreateUserInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		CompanyName: req.CompanyName,
		Role:        domain.Role(req.UserType),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateUserResponse{
		User:      dto.NewUserResponse(user),
		ResetLink: link,
	})
}

// Update handles PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := service.UpdateUserInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		CompanyName: req.CompanyName,
	}
	if req.UserType != nil {
		role := domain.Role(*req.UserType)
		in.Role = &role
	}

	user, err := h.users.UpdateUser(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// Deactivate handles PATCH /users/:id/deactivate.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	user, err := h.users.DeactivateUser(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
