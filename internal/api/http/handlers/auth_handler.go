package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/directory-service/internal/api/dto"
	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/service"
)

// AuthHandler exposes registration, login and password reset endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		CompanyName: req.CompanyName,
		Role:        domain.Role(req.UserType),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		ID:        result.User.ID,
		Email:     result.User.Email,
		UserType:  string(result.User.Role),
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt,
	})
}

// CurrentUser handles GET /auth/currentUser.
func (h *AuthHandler) CurrentUser(c *fiber.Ctx) error {
	user, err := currentActor(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// ResetPassword handles PUT /auth/resetPassword/:token.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := h.auth.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "password updated"})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The
// response does not reveal whether the email is registered.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{
		Message: "if the account exists, a reset link has been sent",
	})
}
