package devapi

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/config"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/gateway"
	"github.com/afiatamanna06/csedu-web-sub001/internal/repository"
	"github.com/afiatamanna06/csedu-web-sub001/internal/service"
	"github.com/afiatamanna06/csedu-web-sub001/internal/session"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

const (
	adminEmail    = "admin@cse.du.ac.bd"
	adminPassword = "admin-pass"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	accounts := repository.NewMemoryAccountRepository()
	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "dev", AccessTokenTTLMinutes: 60, BcryptCost: 4}, accounts, nil)
	if err := authService.SeedAdmin(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}
	return NewApp(RouteConfig{
		Handler:        NewHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), accounts),
	})
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("response is not a JSON object: %s", body)
	}
	return resp.StatusCode, out
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(path, body, bearer string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

func TestLoginEndpoint(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, formRequest("/auth/login", url.Values{"username": {adminEmail}, "password": {adminPassword}, "role": {"admin"}}))
	if status != http.StatusOK || body["access_token"] == "" || body["token_type"] != "bearer" {
		t.Fatalf("unexpected login response %d %v", status, body)
	}

	status, body = do(t, app, formRequest("/auth/login", url.Values{"username": {adminEmail}, "password": {"nope"}}))
	if status != http.StatusUnauthorized || body["detail"] != service.MsgIncorrectCredentials {
		t.Fatalf("unexpected failure response %d %v", status, body)
	}

	status, body = do(t, app, formRequest("/auth/login", url.Values{}))
	problems, ok := body["detail"].([]any)
	if status != http.StatusBadRequest || !ok || len(problems) != 2 {
		t.Fatalf("expected a validation list, got %d %v", status, body)
	}
}

func TestSignupEndpoints(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, jsonRequest("/student/signup",
		`{"full_name":"S","email":"s@cse.du.ac.bd","password":"secret1","registration_number":"1","session":"2020-21"}`, ""))
	if status != http.StatusCreated || body["access_token"] == nil {
		t.Fatalf("student signup: %d %v", status, body)
	}

	status, body = do(t, app, jsonRequest("/admin/signup", `{"full_name":"A","email":"a@cse.du.ac.bd","password":"secret1"}`, ""))
	if status != http.StatusCreated || body["access_token"] != nil || body["message"] != service.MsgAdminCreated {
		t.Fatalf("admin signup must not return a token: %d %v", status, body)
	}

	status, body = do(t, app, jsonRequest("/teacher/signup", `{"email":"t@cse.du.ac.bd","password":"secret1"}`, ""))
	problems, ok := body["detail"].([]any)
	if status != http.StatusBadRequest || !ok || len(problems) != 2 {
		t.Fatalf("expected designation and full_name problems, got %d %v", status, body)
	}
	first := problems[0].(map[string]any)
	if first["msg"] != "field required" {
		t.Fatalf("unexpected problem %v", first)
	}
}

func TestAddUserRequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, jsonRequest("/admin/add/student", `{}`, ""))
	if status != http.StatusUnauthorized || body["detail"] == nil {
		t.Fatalf("expected 401, got %d %v", status, body)
	}

	_, student := do(t, app, jsonRequest("/student/signup",
		`{"full_name":"S","email":"s@cse.du.ac.bd","password":"secret1","registration_number":"1","session":"2020-21"}`, ""))
	status, _ = do(t, app, jsonRequest("/admin/add/student", `{}`, student["access_token"].(string)))
	if status != http.StatusForbidden {
		t.Fatalf("students must not add users, got %d", status)
	}

	_, login := do(t, app, formRequest("/auth/login", url.Values{"username": {adminEmail}, "password": {adminPassword}}))
	status, body = do(t, app, jsonRequest("/admin/add/teacher",
		`{"full_name":"T","email":"t@cse.du.ac.bd","password":"secret1","designation":"Lecturer"}`, login["access_token"].(string)))
	if status != http.StatusCreated || body["email"] != "t@cse.du.ac.bd" {
		t.Fatalf("admin add teacher: %d %v", status, body)
	}
}

// TestGatewayAgainstDevAPI drives the real gateway over TCP.
func TestGatewayAgainstDevAPI(t *testing.T) {
	app := newTestApp(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	client := gateway.NewClient("http://" + ln.Addr().String())
	store := session.NewStore(session.NewMemoryStorage())
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	gw := client.For(store)
	ctx := context.Background()

	signup, err := gw.RegisterFaculty(ctx, domain.FacultySignup{FullName: "Dr. F", Email: "f@cse.du.ac.bd", Password: "secret1", Designation: "Professor"})
	if err != nil {
		t.Fatalf("RegisterFaculty: %v", err)
	}
	if signup.Identity == nil || signup.Identity.Role != domain.RoleFaculty {
		t.Fatalf("expected faculty session, got %+v", signup.Identity)
	}
	if err := gw.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err = gw.Authenticate(ctx, "f@cse.du.ac.bd", "secret1", "student")
	if !apperrors.HasCode(err, apperrors.CodeRoleMismatch) {
		t.Fatalf("expected role mismatch, got %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Fatalf("mismatch must leave the session empty")
	}

	if _, err := gw.AddManagedUser(ctx, domain.ManagedStudent, domain.ManagedUser{}); !apperrors.HasCode(err, apperrors.CodeNotAuthenticated) {
		t.Fatalf("expected NOT_AUTHENTICATED, got %v", err)
	}

	if _, err := gw.Authenticate(ctx, adminEmail, adminPassword, "admin"); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	added, err := gw.AddManagedUser(ctx, domain.ManagedStudent, domain.ManagedUser{
		FullName: "New", Email: "new@cse.du.ac.bd", Password: "secret1", RegistrationNumber: "2021-7",
	})
	if err != nil {
		t.Fatalf("AddManagedUser: %v", err)
	}
	if added.ID == "" || added.Email != "new@cse.du.ac.bd" {
		t.Fatalf("unexpected result %+v", added)
	}

	_, err = gw.AddManagedUser(ctx, domain.ManagedStudent, domain.ManagedUser{FullName: "New", Email: "new@cse.du.ac.bd", Password: "secret1", RegistrationNumber: "x"})
	if apperrors.Message(err) != service.MsgEmailRegistered {
		t.Fatalf("expected duplicate email message, got %v", err)
	}

	admin, err := gw.RegisterAdmin(ctx, domain.AdminSignup{FullName: "Pending", Email: "pending@cse.du.ac.bd", Password: "secret1"})
	if err != nil {
		t.Fatalf("RegisterAdmin: %v", err)
	}
	if admin.Identity != nil {
		t.Fatalf("admin signup must not establish a session")
	}
	if current, _ := store.Current(); current.Role != domain.RoleAdmin {
		t.Fatalf("existing admin session must be untouched, got %+v", current)
	}
}
