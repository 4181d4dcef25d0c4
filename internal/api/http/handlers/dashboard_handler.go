package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/afiatamanna06/csedu-web-sub001/internal/api/dto"
	"github.com/afiatamanna06/csedu-web-sub001/internal/api/http/websession"
	"github.com/afiatamanna06/csedu-web-sub001/internal/navigation"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// LoginPath is where signed-out visitors are sent.
const LoginPath = "/login"

// DashboardHandler renders the dashboard shell for the role named in the URL.
type DashboardHandler struct{}

// NewDashboardHandler constructs handler.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Show handles GET /dashboard/*.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	role := navigation.ResolveRoleFromPath(c.Path())

	identity, ok := websession.Identity(c)
	if !ok {
		return c.Redirect(LoginPath+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
	if identity.Role != role {
		return apperrors.NewForbidden("This dashboard belongs to a different account type")
	}

	return c.JSON(fiber.Map{
		"data": dto.DashboardResponse{
			Title:    navigation.TitleForRole(role),
			Role:     role,
			Links:    navigation.LinksForRole(role),
			Identity: identity,
		},
	})
}

// Home handles GET /dashboard by redirecting to the caller's own dashboard.
func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	identity, ok := websession.Identity(c)
	if !ok {
		return c.Redirect(LoginPath, fiber.StatusFound)
	}
	return c.Redirect(dashboardPath(identity.Role), fiber.StatusFound)
}
