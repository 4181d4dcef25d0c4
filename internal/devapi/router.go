// Package devapi is a development stand-in for the department API. It
// serves the login, signup and admin add-user endpoints with the same wire
// format the portal consumes.
package devapi

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Handler        *Handler
	AuthMiddleware *auth.AuthMiddleware
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewApp builds the fiber application with middlewares and routes.
func NewApp(cfg RouteConfig) *fiber.App {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true, Immutable: true})
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorMiddleware(cfg.Logger, cfg.Metrics))
	RegisterRoutes(app, cfg)
	return app
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/auth/login", cfg.Handler.Login)
	app.Post("/student/signup", cfg.Handler.SignupStudent)
	app.Post("/teacher/signup", cfg.Handler.SignupTeacher)
	app.Post("/admin/signup", cfg.Handler.SignupAdmin)

	admin := app.Group("/admin/add", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/student", cfg.Handler.AddStudent)
	admin.Post("/teacher", cfg.Handler.AddTeacher)
}
