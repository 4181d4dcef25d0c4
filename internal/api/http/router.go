package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/afiatamanna06/csedu-web-sub001/internal/api/http/handlers"
	"github.com/afiatamanna06/csedu-web-sub001/internal/api/http/websession"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
)

// NewApp creates the portal's fiber app. Request values are copied out of
// the fasthttp buffers because the session id and submitted emails outlive
// the request in the session store and the audit trail.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{AppName: name, Immutable: true})
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Admin     *handlers.AdminHandler
	Session   *websession.Middleware
	RateLimit fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	rateLimit := cfg.RateLimit
	if rateLimit == nil {
		rateLimit = func(c *fiber.Ctx) error { return c.Next() }
	}

	authGroup := app.Group("/auth", cfg.Session.Handle)
	authGroup.Get("/session", cfg.Auth.Session)
	authGroup.Post("/login", rateLimit, cfg.Auth.Login)
	authGroup.Post("/signup/:role", rateLimit, cfg.Auth.Signup)
	authGroup.Post("/logout", cfg.Auth.Logout)

	app.Get("/dashboard", cfg.Session.Handle, cfg.Dashboard.Home)
	app.Get("/dashboard/*", cfg.Session.Handle, cfg.Dashboard.Show)

	admin := app.Group("/admin", cfg.Session.Handle, websession.RequireRole(domain.RoleAdmin))
	admin.Post("/users/:kind", cfg.Admin.AddUser)
	admin.Get("/audit", cfg.Admin.Audit)
}
