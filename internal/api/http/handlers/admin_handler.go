package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/afiatamanna06/csedu-web-sub001/internal/api/dto"
	"github.com/afiatamanna06/csedu-web-sub001/internal/api/http/websession"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/service"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// AdminHandler exposes admin-only account management.
type AdminHandler struct {
	audit *service.AuditService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(audit *service.AuditService) *AdminHandler {
	return &AdminHandler{audit: audit}
}

// AddUser handles POST /admin/users/:kind.
func (h *AdminHandler) AddUser(c *fiber.Ctx) error {
	kind, ok := domain.ParseManagedUserKind(c.Params("kind"))
	if !ok {
		return apperrors.NewValidationError("Unknown account kind", map[string]any{"kind": c.Params("kind")})
	}

	var req dto.ManagedUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	payload := req.ToDomain()
	if problems := payload.Validate(kind); len(problems) > 0 {
		return apperrors.NewFieldErrors(problems)
	}

	gw, err := websession.Gateway(c)
	if err != nil {
		return err
	}
	result, err := gw.AddManagedUser(c.UserContext(), kind, payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": result})
}

// Audit handles GET /admin/audit.
func (h *AdminHandler) Audit(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	return c.JSON(fiber.Map{"data": h.audit.Recent(limit)})
}
