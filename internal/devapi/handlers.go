package devapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/service"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// Handler exposes the department API endpoints the portal consumes.
type Handler struct {
	auth *service.AuthService
}

// NewHandler constructs handler.
func NewHandler(authService *service.AuthService) *Handler {
	return &Handler{auth: authService}
}

// Login handles POST /auth/login (form encoded username, password, role).
func (h *Handler) Login(c *fiber.Ctx) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	missing := map[string]any{}
	if username == "" {
		missing["username"] = "required"
	}
	if password == "" {
		missing["password"] = "required"
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("Invalid request body", missing)
	}

	_, issued, err := h.auth.Login(c.UserContext(), username, password, c.FormValue("role"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"access_token": issued.AccessToken,
		"token_type":   "bearer",
	})
}

// SignupStudent handles POST /student/signup.
func (h *Handler) SignupStudent(c *fiber.Ctx) error {
	var req domain.StudentSignup
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	account, issued, err := h.auth.RegisterStudent(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":           account.ID,
		"access_token": issued.AccessToken,
		"token_type":   "bearer",
	})
}

// SignupTeacher handles POST /teacher/signup.
func (h *Handler) SignupTeacher(c *fiber.Ctx) error {
	var req domain.FacultySignup
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	account, issued, err := h.auth.RegisterFaculty(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":           account.ID,
		"access_token": issued.AccessToken,
		"token_type":   "bearer",
	})
}

// SignupAdmin handles POST /admin/signup. No token is returned.
func (h *Handler) SignupAdmin(c *fiber.Ctx) error {
	var req domain.AdminSignup
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	account, err := h.auth.RegisterAdmin(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      account.ID,
		"message": service.MsgAdminCreated,
	})
}

// AddStudent handles POST /admin/add/student.
func (h *Handler) AddStudent(c *fiber.Ctx) error {
	return h.addManagedUser(c, domain.ManagedStudent)
}

// AddTeacher handles POST /admin/add/teacher.
func (h *Handler) AddTeacher(c *fiber.Ctx) error {
	return h.addManagedUser(c, domain.ManagedTeacher)
}

func (h *Handler) addManagedUser(c *fiber.Ctx, kind domain.ManagedUserKind) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("Not authenticated")
	}
	var req domain.ManagedUser
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON body")
	}
	account, err := h.auth.AddManagedUser(c.UserContext(), kind, req)
	if err != nil {
		return err
	}
	label := "Student"
	if kind == domain.ManagedTeacher {
		label = "Teacher"
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      account.ID,
		"email":   account.Email,
		"message": label + " added successfully",
	})
}
