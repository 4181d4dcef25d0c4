package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/afiatamanna06/csedu-web-sub001/internal/api/dto"
	"github.com/afiatamanna06/csedu-web-sub001/internal/api/http/websession"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// AuthHandler exposes login, signup and logout for the browser session.
type AuthHandler struct{}

// NewAuthHandler constructs handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Login handles POST /auth/login. Accepts a form or JSON body.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	if req.Role == "" {
		req.Role = domain.DefaultRole.String()
	}

	gw, err := websession.Gateway(c)
	if err != nil {
		return err
	}
	result, err := gw.Authenticate(c.UserContext(), req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}

	identity := result.Identity
	return c.JSON(fiber.Map{
		"data": dto.SessionResponse{
			Authenticated: true,
			Identity:      &identity,
			Redirect:      dashboardPath(identity.Role),
		},
	})
}

// Signup handles POST /auth/signup/:role.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	role, ok := domain.ParseRole(c.Params("role"))
	if !ok || role == domain.RoleAlumni {
		return apperrors.NewValidationError("Unknown account type", map[string]any{"role": c.Params("role")})
	}

	gw, err := websession.Gateway(c)
	if err != nil {
		return err
	}

	var result *domain.SignupResult
	switch role {
	case domain.RoleStudent:
		var req dto.StudentSignupRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		payload := req.ToDomain()
		if problems := payload.Validate(); len(problems) > 0 {
			return apperrors.NewFieldErrors(problems)
		}
		result, err = gw.RegisterStudent(c.UserContext(), payload)
	case domain.RoleFaculty:
		var req dto.FacultySignupRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		payload := req.ToDomain()
		if problems := payload.Validate(); len(problems) > 0 {
			return apperrors.NewFieldErrors(problems)
		}
		result, err = gw.RegisterFaculty(c.UserContext(), payload)
	case domain.RoleAdmin:
		var req dto.AdminSignupRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		payload := req.ToDomain()
		if problems := payload.Validate(); len(problems) > 0 {
			return apperrors.NewFieldErrors(problems)
		}
		result, err = gw.RegisterAdmin(c.UserContext(), payload)
	}
	if err != nil {
		return err
	}

	data := fiber.Map{
		"authenticated": result.Identity != nil,
		"identity":      result.Identity,
		"message":       result.Response.Message,
		"response":      result.Raw,
	}
	if result.Identity != nil {
		data["redirect"] = dashboardPath(result.Identity.Role)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	gw, err := websession.Gateway(c)
	if err != nil {
		return err
	}
	if err := gw.Logout(c.UserContext()); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{Authenticated: false}})
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	identity, ok := websession.Identity(c)
	if !ok {
		return c.JSON(fiber.Map{"data": dto.SessionResponse{Authenticated: false}})
	}
	return c.JSON(fiber.Map{
		"data": dto.SessionResponse{
			Authenticated: true,
			Identity:      &identity,
			Redirect:      dashboardPath(identity.Role),
		},
	})
}

func dashboardPath(role domain.Role) string {
	return "/dashboard/" + role.String()
}
