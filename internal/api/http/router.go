package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/directory-service/internal/api/http/handlers"
	"github.com/spec-kit/directory-service/internal/auth"
	"github.com/spec-kit/directory-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Companies      *handlers.CompaniesHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Put("/resetPassword/:token", cfg.Auth.ResetPassword)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)

	protected := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAnyRole()}
	authGroup.Get("/currentUser", append(protected, cfg.Auth.CurrentUser)...)

	users := app.Group("/users", protected...)
	users.Get("/", cfg.Users.List)
	users.Post("/", cfg.Users.Create)
	users.Patch("/:id", cfg.Users.Update)
	users.Patch("/:id/deactivate", cfg.Users.Deactivate)

	companies := app.Group("/companies", protected...)
	companies.Get("/", cfg.Companies.List)
	companies.Post("/", cfg.Companies.Create)
	companies.Put("/:id", cfg.Companies.Update)
	companies.Delete("/:id", cfg.Companies.Delete)
	companies.Patch("/:id/status", cfg.Companies.SetStatus)
}
