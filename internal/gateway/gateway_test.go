package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/afiatamanna06/csedu-web-sub001/internal/auth"
	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
	"github.com/afiatamanna06/csedu-web-sub001/internal/events"
	"github.com/afiatamanna06/csedu-web-sub001/internal/observability"
	"github.com/afiatamanna06/csedu-web-sub001/internal/session"
	apperrors "github.com/afiatamanna06/csedu-web-sub001/pkg/util"
)

type fakeAPI struct {
	server   *httptest.Server
	requests atomic.Int32
	tokens   *auth.TokenManager

	mu   sync.Mutex
	last recorded
}

type recorded struct {
	form map[string]string
	auth string
	path string
	body map[string]any
}

func (api *fakeAPI) lastRequest() recorded {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.last
}

func newFakeAPI(t *testing.T, handler func(api *fakeAPI, w http.ResponseWriter, r *http.Request)) *fakeAPI {
	t.Helper()
	api := &fakeAPI{tokens: auth.NewTokenManager("api-secret", time.Hour)}
	api.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.requests.Add(1)
		rec := recorded{path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
			_ = r.ParseForm()
			rec.form = map[string]string{
				"username": r.PostForm.Get("username"),
				"password": r.PostForm.Get("password"),
				"role":     r.PostForm.Get("role"),
			}
		} else {
			body, _ := io.ReadAll(r.Body)
			rec.body = map[string]any{}
			_ = json.Unmarshal(body, &rec.body)
		}
		api.mu.Lock()
		api.last = rec
		api.mu.Unlock()
		handler(api, w, r)
	}))
	t.Cleanup(api.server.Close)
	return api
}

// token runs on the server goroutine; HS256 signing with a fixed key does
// not fail.
func (api *fakeAPI) token(id, role string) string {
	token, _ := api.tokens.Issue(id, role, time.Now().Add(time.Hour))
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newGateway(api *fakeAPI, opts ...Option) (*Gateway, *session.MemoryStorage, *session.Store) {
	storage := session.NewMemoryStorage()
	store := session.NewStore(storage)
	_ = store.Initialize(context.Background())
	return NewClient(api.server.URL, opts...).For(store), storage, store
}

func TestAuthenticateEstablishesSession(t *testing.T) {
	issued, err := auth.NewTokenManager("api-secret", time.Hour).Issue("31", "teacher", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	api := newFakeAPI(t, func(_ *fakeAPI, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": issued, "token_type": "bearer"})
	})
	metrics := observability.NewMetrics()
	gw, storage, store := newGateway(api, WithMetrics(metrics))

	result, err := gw.Authenticate(context.Background(), "prof@cse.du.ac.bd", "pa55word", "Faculty")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if api.lastRequest().path != "/auth/login" {
		t.Fatalf("unexpected path %s", api.lastRequest().path)
	}
	if api.lastRequest().form["username"] != "prof@cse.du.ac.bd" || api.lastRequest().form["password"] != "pa55word" || api.lastRequest().form["role"] != "teacher" {
		t.Fatalf("unexpected form %v", api.lastRequest().form)
	}

	want := domain.Identity{ID: "31", Role: domain.RoleFaculty}
	if result.Identity != want || result.Response.AccessToken != issued || result.Response.TokenType != "bearer" {
		t.Fatalf("unexpected result %+v", result)
	}
	current, ok := store.Current()
	if !ok || current != want {
		t.Fatalf("store identity %+v, %v", current, ok)
	}
	persisted, found, _ := storage.Get(context.Background(), session.DefaultKey)
	if !found || persisted != issued {
		t.Fatalf("persisted token must equal the server token")
	}
	if metrics.Snapshot().Upstream["login|ok"] != 1 {
		t.Fatalf("expected login to be recorded")
	}
}

func TestAuthenticateRoleMismatch(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": api.token("5", "student")})
	})
	dispatcher := events.NewInMemoryDispatcher()
	var failures []events.AuthFailedPayload
	dispatcher.Subscribe(events.EventAuthFailed, func(_ context.Context, e events.Event) error {
		failures = append(failures, e.Payload.(events.AuthFailedPayload))
		return nil
	})
	gw, storage, store := newGateway(api, WithDispatcher(dispatcher))

	for _, role := range []string{"faculty", "admin"} {
		_, err := gw.Authenticate(context.Background(), "student@cse.du.ac.bd", "pw", role)
		if !apperrors.HasCode(err, apperrors.CodeRoleMismatch) {
			t.Fatalf("expected ROLE_MISMATCH for %s, got %v", role, err)
		}
		if apperrors.Message(err) != "Account type does not match selected role" {
			t.Fatalf("unexpected message %q", apperrors.Message(err))
		}
	}
	if _, ok := store.Current(); ok {
		t.Fatalf("role mismatch must not establish a session")
	}
	if _, found, _ := storage.Get(context.Background(), session.DefaultKey); found {
		t.Fatalf("role mismatch must not persist a token")
	}
	if len(failures) != 2 || failures[0].Code != apperrors.CodeRoleMismatch {
		t.Fatalf("expected auth failure events, got %+v", failures)
	}
}

func TestAuthenticateSharesIdenticalLogins(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, _ *http.Request) {
		entered <- struct{}{}
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"access_token": api.token("8", "student")})
	})
	client := NewClient(api.server.URL, WithTimeout(5*time.Second))

	first := session.NewStore(session.NewMemoryStorage())
	second := session.NewStore(session.NewMemoryStorage())
	_ = first.Initialize(context.Background())
	_ = second.Initialize(context.Background())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()

	errs := make(chan error, 2)
	go func() {
		_, err := client.For(first).Authenticate(firstCtx, "s@cse.du.ac.bd", "pw", "student")
		errs <- err
	}()
	<-entered
	go func() {
		_, err := client.For(second).Authenticate(context.Background(), "s@cse.du.ac.bd", "pw", "student")
		errs <- err
	}()
	// Let the second caller join the in-flight login, then drop the first
	// caller's request context before the API answers.
	time.Sleep(100 * time.Millisecond)
	cancelFirst()
	close(release)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
	}
	if n := api.requests.Load(); n != 1 {
		t.Fatalf("expected one shared request, got %d", n)
	}
	for name, store := range map[string]*session.Store{"first": first, "second": second} {
		if current, ok := store.Current(); !ok || current.ID != "8" {
			t.Fatalf("%s store not established: %+v %v", name, current, ok)
		}
		if token, err := store.BearerToken(); err != nil || token == "" {
			t.Fatalf("%s store has no token: %v", name, err)
		}
	}
}

func TestAuthenticateErrors(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{name: "detail string", status: http.StatusBadRequest, body: `{"detail":"Incorrect email or password"}`, wantCode: apperrors.CodeRequestRejected, wantMsg: "Incorrect email or password"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"detail":"Account disabled"}`, wantCode: apperrors.CodeUnauthorized, wantMsg: "Account disabled"},
		{name: "no detail", status: http.StatusInternalServerError, body: `{}`, wantCode: apperrors.CodeRequestRejected, wantMsg: "Failed to login"},
		{name: "validation list", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body","username"],"msg":"field required"},{"loc":["body"],"msg":"bad body"}]}`, wantCode: apperrors.CodeRequestRejected, wantMsg: "username: field required; bad body"},
		{name: "html error page", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantCode: apperrors.CodeInvalidResponse, wantMsg: "Invalid response from server"},
		{name: "ok but not json", status: http.StatusOK, body: `ok`, wantCode: apperrors.CodeInvalidResponse, wantMsg: "Invalid response from server"},
		{name: "ok without token", status: http.StatusOK, body: `{"token_type":"bearer"}`, wantCode: apperrors.CodeInvalidResponse, wantMsg: "Invalid response from server"},
		{name: "ok with garbage token", status: http.StatusOK, body: `{"access_token":"abc"}`, wantCode: apperrors.CodeInvalidResponse, wantMsg: "Invalid response from server"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newFakeAPI(t, func(_ *fakeAPI, w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})
			gw, _, store := newGateway(api)

			_, err := gw.Authenticate(context.Background(), "a@cse.du.ac.bd", "pw", "student")
			if !apperrors.HasCode(err, tc.wantCode) {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
			if got := apperrors.Message(err); got != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, got)
			}
			if _, ok := store.Current(); ok {
				t.Fatalf("failed login must not establish a session")
			}
		})
	}
}

func TestAuthenticateUnknownRoleSkipsNetwork(t *testing.T) {
	api := newFakeAPI(t, func(_ *fakeAPI, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gw, _, _ := newGateway(api)

	_, err := gw.Authenticate(context.Background(), "a@cse.du.ac.bd", "pw", "visitor")
	if !apperrors.HasCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if api.requests.Load() != 0 {
		t.Fatalf("unknown role must not reach the API")
	}
}

func TestTransportFailure(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, _ *http.Request) {})
	gw, _, _ := newGateway(api)
	api.server.Close()

	_, err := gw.Authenticate(context.Background(), "a@cse.du.ac.bd", "pw", "student")
	if !apperrors.HasCode(err, apperrors.CodeInvalidResponse) {
		t.Fatalf("expected INVALID_RESPONSE, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	api := newFakeAPI(t, func(_ *fakeAPI, w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	gw, _, _ := newGateway(api, WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := gw.Authenticate(context.Background(), "a@cse.du.ac.bd", "pw", "student")
	if !apperrors.HasCode(err, apperrors.CodeInvalidResponse) {
		t.Fatalf("expected INVALID_RESPONSE on timeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout was not enforced")
	}
}

func TestRegisterAdminWithoutToken(t *testing.T) {
	api := newFakeAPI(t, func(_ *fakeAPI, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 12, "message": "Admin account created; awaiting approval"})
	})
	gw, storage, store := newGateway(api)

	result, err := gw.RegisterAdmin(context.Background(), domain.AdminSignup{FullName: "Head", Email: "head@cse.du.ac.bd", Password: "secret1"})
	if err != nil {
		t.Fatalf("RegisterAdmin: %v", err)
	}
	if api.lastRequest().path != "/admin/signup" || api.lastRequest().body["email"] != "head@cse.du.ac.bd" {
		t.Fatalf("unexpected request %s %v", api.lastRequest().path, api.lastRequest().body)
	}
	if result.Identity != nil {
		t.Fatalf("no token means no identity")
	}
	if result.Response.ID != "12" || result.Response.Message == "" {
		t.Fatalf("unexpected parsed response %+v", result.Response)
	}
	var raw map[string]any
	if err := json.Unmarshal(result.Raw, &raw); err != nil || raw["message"] == nil {
		t.Fatalf("raw payload must be handed back: %s", result.Raw)
	}
	if _, ok := store.Current(); ok {
		t.Fatalf("session must stay unauthenticated")
	}
	if _, found, _ := storage.Get(context.Background(), session.DefaultKey); found {
		t.Fatalf("nothing must be persisted")
	}
}

func TestRegisterStudentWithToken(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": api.token("77", "student"), "id": "77"})
	})
	gw, _, store := newGateway(api)

	result, err := gw.RegisterStudent(context.Background(), domain.StudentSignup{
		FullName: "Rahim", Email: "rahim@cse.du.ac.bd", Password: "secret1", RegistrationNumber: "2019-415-001", Session: "2019-20",
	})
	if err != nil {
		t.Fatalf("RegisterStudent: %v", err)
	}
	if api.lastRequest().path != "/student/signup" || api.lastRequest().body["registration_number"] != "2019-415-001" {
		t.Fatalf("unexpected request %s %v", api.lastRequest().path, api.lastRequest().body)
	}
	if result.Identity == nil || *result.Identity != (domain.Identity{ID: "77", Role: domain.RoleStudent}) {
		t.Fatalf("expected identity from returned token, got %+v", result.Identity)
	}
	if current, ok := store.Current(); !ok || current.ID != "77" {
		t.Fatalf("expected session to be established")
	}
}

func TestRegisterFacultyRejected(t *testing.T) {
	api := newFakeAPI(t, func(_ *fakeAPI, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"detail": "Email already registered"})
	})
	gw, _, _ := newGateway(api)

	_, err := gw.RegisterFaculty(context.Background(), domain.FacultySignup{FullName: "X", Email: "x@cse.du.ac.bd", Password: "secret1", Designation: "Lecturer"})
	if apperrors.Message(err) != "Email already registered" {
		t.Fatalf("expected API detail, got %v", err)
	}
	if api.lastRequest().path != "/teacher/signup" {
		t.Fatalf("unexpected path %s", api.lastRequest().path)
	}
	if domainErr := apperrors.ToDomainError(err); domainErr.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected upstream status to be kept, got %d", domainErr.HTTPStatus)
	}
}

func TestAddManagedUserRequiresToken(t *testing.T) {
	api := newFakeAPI(t, func(_ *fakeAPI, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1})
	})
	gw, _, _ := newGateway(api)

	_, err := gw.AddManagedUser(context.Background(), domain.ManagedStudent, domain.ManagedUser{Email: "s@cse.du.ac.bd"})
	if !apperrors.HasCode(err, apperrors.CodeNotAuthenticated) {
		t.Fatalf("expected NOT_AUTHENTICATED, got %v", err)
	}
	if n := api.requests.Load(); n != 0 {
		t.Fatalf("expected zero network calls, got %d", n)
	}
}

func TestAddManagedUserForwardsBearer(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			writeJSON(w, http.StatusOK, map[string]any{"access_token": api.token("1", "admin")})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": 501, "email": "t@cse.du.ac.bd", "message": "Teacher added"})
	})
	gw, _, _ := newGateway(api)

	login, err := gw.Authenticate(context.Background(), "admin@cse.du.ac.bd", "pw", "admin")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	result, err := gw.AddManagedUser(context.Background(), domain.ManagedTeacher, domain.ManagedUser{
		FullName: "T", Email: "t@cse.du.ac.bd", Password: "secret1", Designation: "Professor",
	})
	if err != nil {
		t.Fatalf("AddManagedUser: %v", err)
	}
	if api.lastRequest().path != "/admin/add/teacher" {
		t.Fatalf("unexpected path %s", api.lastRequest().path)
	}
	if api.lastRequest().auth != "Bearer "+login.Response.AccessToken {
		t.Fatalf("bearer token not forwarded: %q", api.lastRequest().auth)
	}
	if _, present := api.lastRequest().body["registration_number"]; present {
		t.Fatalf("empty student-only fields must be omitted")
	}
	if result.ID != "501" || result.Message != "Teacher added" || len(result.Raw) == 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAddManagedUserRejectedToken(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/login" {
			writeJSON(w, http.StatusOK, map[string]any{"access_token": api.token("1", "admin")})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Could not validate credentials"})
	})
	gw, _, _ := newGateway(api)
	if _, err := gw.Authenticate(context.Background(), "admin@cse.du.ac.bd", "pw", "admin"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	_, err := gw.AddManagedUser(context.Background(), domain.ManagedStudent, domain.ManagedUser{Email: "s@cse.du.ac.bd"})
	if !apperrors.HasCode(err, apperrors.CodeUnauthorized) || apperrors.Message(err) != "Could not validate credentials" {
		t.Fatalf("expected UNAUTHORIZED with detail, got %v", err)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	api := newFakeAPI(t, func(api *fakeAPI, w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": api.token("3", "alumni")})
	})
	gw, storage, store := newGateway(api)
	if _, err := gw.Authenticate(context.Background(), "old@cse.du.ac.bd", "pw", "alumni"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := gw.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Fatalf("expected logout to clear the session")
	}
	if _, found, _ := storage.Get(context.Background(), session.DefaultKey); found {
		t.Fatalf("expected logout to remove the token")
	}
}
