// Package websession binds each browser to its own session store through an
// HTTP-only cookie and exposes the bound gateway to handlers.
package websession

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/gateway"
	"github.com/afiatamanna06/csedu-web-sub001/internal/session"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

const (
	sessionIDKey = "websession_id"
	gatewayKey   = "websession_gateway"
)

// CookieConfig describes the browser session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Middleware opens the caller's session store on every request.
type Middleware struct {
	manager *session.Manager
	client  *gateway.Client
	cookie  CookieConfig
	logger  *zap.Logger
}

// NewMiddleware constructs middleware.
func NewMiddleware(manager *session.Manager, client *gateway.Client, cookie CookieConfig, logger *zap.Logger) *Middleware {
	if cookie.Name == "" {
		cookie.Name = "portal_sid"
	}
	if cookie.TTL <= 0 {
		cookie.TTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{manager: manager, client: client, cookie: cookie, logger: logger}
}

// Handle resolves the session id cookie, issuing a fresh one when it is
// missing or malformed, and stores the bound gateway in the context.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	sid := c.Cookies(m.cookie.Name)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cookie.Name,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(m.cookie.TTL),
		HTTPOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	store, err := m.manager.Open(c.UserContext(), sid)
	if err != nil {
		if store == nil {
			return apperrors.NewInternalError(err)
		}
		m.logger.Warn("session storage unavailable; continuing signed out", zap.String("session_id", sid), zap.Error(err))
	}

	c.Locals(sessionIDKey, sid)
	c.Locals(gatewayKey, m.client.For(store))
	return c.Next()
}

// ID returns the browser session id.
func ID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDKey).(string)
	return sid
}

// Gateway returns the gateway bound to the caller's session.
func Gateway(c *fiber.Ctx) (*gateway.Gateway, error) {
	gw, ok := c.Locals(gatewayKey).(*gateway.Gateway)
	if !ok || gw == nil {
		return nil, apperrors.NewInternalError(nil)
	}
	return gw, nil
}

// Identity returns the signed-in identity, if any.
func Identity(c *fiber.Ctx) (domain.Identity, bool) {
	gw, err := Gateway(c)
	if err != nil {
		return domain.Identity{}, false
	}
	return gw.Store().Current()
}

// RequireRole rejects callers that are not signed in with one of roles.
func RequireRole(roles ...domain.Role) fiber.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		identity, ok := Identity(c)
		if !ok {
			return apperrors.NewNotAuthenticated()
		}
		if _, permitted := allowed[identity.Role]; len(allowed) > 0 && !permitted {
			return apperrors.NewForbidden("Insufficient permissions")
		}
		return c.Next()
	}
}
