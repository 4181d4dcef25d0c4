package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/events"
	"github.com/afiatamanna06/csedu-web-sub001/internal/session"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

// Operation names used in logs, metrics and events.
const (
	OpLogin          = "login"
	OpSignupStudent  = "signup_student"
	OpSignupFaculty  = "signup_faculty"
	OpSignupAdmin    = "signup_admin"
	OpAddManagedUser = "add_managed_user"
)

const (
	fallbackLogin     = "Failed to login"
	fallbackSignup    = "Failed to sign up"
	fallbackAddPrefix = "Failed to add "
)

// Gateway performs credential exchange for one session store.
type Gateway struct {
	client *Client
	store  *session.Store
}

// Store returns the session store the gateway feeds.
func (g *Gateway) Store() *session.Store {
	return g.store
}

// Authenticate logs in and, when the token's role matches requestedRole,
// establishes the session. A role mismatch fails even though the
// credentials were accepted, and nothing is persisted.
func (g *Gateway) Authenticate(ctx context.Context, email, password, requestedRole string) (*domain.AuthResult, error) {
	start := time.Now()
	role, ok := domain.ParseRole(requestedRole)
	if !ok {
		return nil, apperrors.NewValidationError("Unknown account type", map[string]any{"role": requestedRole})
	}

	// Identical logins in flight share one request. The shared call is not
	// tied to the first caller's cancellation; the client timeout bounds it.
	v, err, shared := g.client.logins.Do(loginKey(email, password, role.APIName()), func() (interface{}, error) {
		return g.login(context.WithoutCancel(ctx), email, password, role)
	})
	if err != nil {
		return nil, g.fail(ctx, OpLogin, email, start, err)
	}
	loginResp := v.(domain.LoginResponse)

	claims, err := g.client.decoder.Decode(loginResp.AccessToken)
	if err != nil {
		return nil, g.fail(ctx, OpLogin, email, start, apperrors.NewInvalidResponse(err))
	}
	tokenRole, _ := domain.ParseRole(claims.Role)
	if tokenRole != role {
		g.client.logger.Warn("account type mismatch",
			zap.String("email", email),
			zap.String("requested_role", role.String()),
			zap.String("token_role", tokenRole.String()))
		return nil, g.fail(ctx, OpLogin, email, start, apperrors.NewRoleMismatch())
	}

	identity, err := g.store.Establish(ctx, loginResp.AccessToken)
	if err != nil {
		return nil, g.fail(ctx, OpLogin, email, start, establishError(err))
	}

	g.client.metrics.RecordUpstream(OpLogin, "ok", time.Since(start))
	g.client.logger.Debug("login succeeded", zap.String("user_id", identity.ID), zap.Bool("shared", shared))
	return &domain.AuthResult{Response: loginResp, Identity: identity}, nil
}

func (g *Gateway) login(ctx context.Context, email, password string, role domain.Role) (domain.LoginResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	form.Set("role", role.APIName())

	resp, err := g.client.postForm(ctx, "/auth/login", form)
	if err != nil {
		return domain.LoginResponse{}, apperrors.NewInvalidResponse(err)
	}
	if !isJSON(resp.body) {
		return domain.LoginResponse{}, apperrors.NewInvalidResponse(errors.New("login response is not JSON"))
	}
	if !resp.ok() {
		return domain.LoginResponse{}, rejection(resp, fallbackLogin)
	}

	var out domain.LoginResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return domain.LoginResponse{}, apperrors.NewInvalidResponse(err)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return domain.LoginResponse{}, apperrors.NewInvalidResponse(errors.New("login response has no access_token"))
	}
	return out, nil
}

// RegisterStudent creates a student account.
func (g *Gateway) RegisterStudent(ctx context.Context, req domain.StudentSignup) (*domain.SignupResult, error) {
	return g.signup(ctx, OpSignupStudent, "/student/signup", req.Email, req)
}

// RegisterFaculty creates a faculty account.
func (g *Gateway) RegisterFaculty(ctx context.Context, req domain.FacultySignup) (*domain.SignupResult, error) {
	return g.signup(ctx, OpSignupFaculty, "/teacher/signup", req.Email, req)
}

// RegisterAdmin creates an admin account.
func (g *Gateway) RegisterAdmin(ctx context.Context, req domain.AdminSignup) (*domain.SignupResult, error) {
	return g.signup(ctx, OpSignupAdmin, "/admin/signup", req.Email, req)
}

// signup posts the payload and establishes a session only when the API
// returned a token. Without a token the raw payload is handed back and the
// session is left alone.
func (g *Gateway) signup(ctx context.Context, op, path, email string, payload any) (*domain.SignupResult, error) {
	start := time.Now()

	resp, err := g.client.postJSON(ctx, path, payload, "")
	if err != nil {
		return nil, g.fail(ctx, op, email, start, apperrors.NewInvalidResponse(err))
	}
	if !isJSON(resp.body) {
		return nil, g.fail(ctx, op, email, start, apperrors.NewInvalidResponse(errors.New("signup response is not JSON")))
	}
	if !resp.ok() {
		return nil, g.fail(ctx, op, email, start, rejection(resp, fallbackSignup))
	}

	result := &domain.SignupResult{Raw: json.RawMessage(resp.body)}
	if err := json.Unmarshal(resp.body, &result.Response); err != nil {
		return nil, g.fail(ctx, op, email, start, apperrors.NewInvalidResponse(err))
	}

	if token := strings.TrimSpace(result.Response.AccessToken); token != "" {
		identity, err := g.store.Establish(ctx, token)
		if err != nil {
			return nil, g.fail(ctx, op, email, start, establishError(err))
		}
		result.Identity = &identity
	}

	g.client.metrics.RecordUpstream(op, "ok", time.Since(start))
	return result, nil
}

// AddManagedUser creates a student or teacher account on behalf of the
// signed-in admin. Without a usable token it fails before any request.
func (g *Gateway) AddManagedUser(ctx context.Context, kind domain.ManagedUserKind, payload domain.ManagedUser) (*domain.ManagedUserResult, error) {
	start := time.Now()

	var path string
	switch kind {
	case domain.ManagedStudent:
		path = "/admin/add/student"
	case domain.ManagedTeacher:
		path = "/admin/add/teacher"
	default:
		return nil, apperrors.NewValidationError("Unknown account kind", map[string]any{"kind": string(kind)})
	}

	token, err := g.store.BearerToken()
	if err != nil {
		return nil, g.fail(ctx, OpAddManagedUser, payload.Email, start, err)
	}

	resp, err := g.client.postJSON(ctx, path, payload, token)
	if err != nil {
		return nil, g.fail(ctx, OpAddManagedUser, payload.Email, start, apperrors.NewInvalidResponse(err))
	}
	if !isJSON(resp.body) {
		return nil, g.fail(ctx, OpAddManagedUser, payload.Email, start, apperrors.NewInvalidResponse(errors.New("add-user response is not JSON")))
	}
	if !resp.ok() {
		return nil, g.fail(ctx, OpAddManagedUser, payload.Email, start, rejection(resp, fallbackAddPrefix+string(kind)))
	}

	var result domain.ManagedUserResult
	if err := json.Unmarshal(resp.body, &result); err != nil {
		// Non-object replies are kept only as Raw.
		result = domain.ManagedUserResult{}
	}
	result.Raw = json.RawMessage(resp.body)

	g.client.metrics.RecordUpstream(OpAddManagedUser, "ok", time.Since(start))
	g.publish(ctx, events.EventManagedUserAdded, events.ManagedUserAddedPayload{Kind: kind, Email: payload.Email})
	return &result, nil
}

// Logout clears the session.
func (g *Gateway) Logout(ctx context.Context) error {
	return g.store.Clear(ctx)
}

// fail logs err at the gateway boundary, records it and returns it as a
// DomainError.
func (g *Gateway) fail(ctx context.Context, op, email string, start time.Time, err error) error {
	domainErr := apperrors.ToDomainError(err)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("code", domainErr.Code),
		zap.String("email", email),
		zap.Error(err),
	}
	if domainErr.Code == apperrors.CodeInvalidResponse || domainErr.Code == apperrors.CodeInternal {
		g.client.logger.Error("department api call failed", fields...)
	} else {
		g.client.logger.Warn("department api call rejected", fields...)
	}

	g.client.metrics.RecordUpstream(op, domainErr.Code, time.Since(start))
	g.publish(ctx, events.EventAuthFailed, events.AuthFailedPayload{Operation: op, Code: domainErr.Code, Email: email})
	return domainErr
}

func (g *Gateway) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	identity, _ := g.store.Current()
	err := g.client.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Identity:  identity,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		g.client.logger.Warn("publish gateway event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

// establishError maps a store failure: an undecodable token is the
// server's fault, a storage failure is ours.
func establishError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if _, ok := auth.IsDecodeError(err); ok {
		return apperrors.NewInvalidResponse(err)
	}
	return apperrors.NewInternalError(err)
}
