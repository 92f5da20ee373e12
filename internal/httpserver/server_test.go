package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventboard/backend/internal/config"
	authdomain "eventboard/backend/internal/domain/auth"
	eventdomain "eventboard/backend/internal/domain/event"
	"eventboard/backend/internal/domain/validation"
	"eventboard/backend/internal/infrastructure/memory"
	"eventboard/backend/internal/infrastructure/password"
	"eventboard/backend/internal/infrastructure/token"
	authusecase "eventboard/backend/internal/usecase/auth"
	categoryusecase "eventboard/backend/internal/usecase/category"
	eventusecase "eventboard/backend/internal/usecase/event"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	server *Server
	auth   *authusecase.Service
}

func newTestEnv(t *testing.T, db Pinger) *testEnv {
	t.Helper()
	return newTestEnvWithOrigins(t, db, []string{"*"})
}

func newTestEnvWithOrigins(t *testing.T, db Pinger, origins []string) *testEnv {
	t.Helper()
	store := memory.NewStore()
	hasher, err := password.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens := token.NewJWTManager("test-secret", time.Hour, "eventboard")

	authService := authusecase.NewService(store.Users(), hasher, tokens)
	services := Services{
		Auth:       authService,
		Categories: categoryusecase.NewService(store.Categories()),
		Events:     eventusecase.NewService(store.Events()),
	}
	return &testEnv{
		server: NewServer(config.Config{HTTPPort: "0", AllowedOrigins: origins}, services, db, discardLogger()),
		auth:   authService,
	}
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, pw string) authdomain.Session {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "password": pw})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authdomain.Session](t, rec)
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	_, err := e.auth.EnsureAdmin(context.Background(), authdomain.Credentials{Email: "admin@x.com", Password: "admin-pass"})
	require.NoError(t, err)
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@x.com", "password": "admin-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[authdomain.Session](t, rec).Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestAuthRoutes_Scenario(t *testing.T) {
	env := newTestEnv(t, nil)

	session := env.register(t, "a@x.com", "secret1")
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, &authdomain.Identity{ID: 1, Email: "a@x.com", Role: authdomain.RoleUser}, session.User)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "a@x.com", "password": "another"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already registered", decode[errorResponse](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[authdomain.Session](t, rec)
	assert.Equal(t, int64(1), login.User.ID)

	for _, creds := range []map[string]string{
		{"email": "a@x.com", "password": "wrong!"},
		{"email": "nobody@x.com", "password": "secret1"},
	} {
		rec = env.do(t, http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"invalid email or password"}`, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":1,"email":"a@x.com","role":"user"}}`, rec.Body.String())
}

func TestAuthRoutes_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email", "password": "123"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[validationResponse](t, rec)
	fields := make([]string, 0, len(body.Errors))
	for _, f := range body.Errors {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"email", "password"}, fields)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "long@x.com", "password": strings.Repeat("a", 80)})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"errors":[{"field":"password","message":"password must be at most 72 bytes"}]}`, rec.Body.String())

	for _, payload := range []string{
		"{not json",
		`{"email":"a@x.com","password":"secret1"} {}`,
		`{"email":"a@x.com","password":"secret1"}{"email":"b@x.com"}`,
		`{"email":"a@x.com","password":"secret1"}}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(payload))
		raw := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(raw, req)
		assert.Equal(t, http.StatusBadRequest, raw.Code, payload)
		assert.JSONEq(t, `{"error":"invalid JSON payload"}`, raw.Body.String())
	}

	// A single value followed only by whitespace is fine.
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"ok@x.com","password":"secret1"}`+"\n\n"))
	raw := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(raw, req)
	assert.Equal(t, http.StatusCreated, raw.Code, raw.Body.String())
}

func TestRequireAuthenticated_Rejects(t *testing.T) {
	env := newTestEnv(t, nil)
	foreign, err := token.NewJWTManager("other-secret", time.Hour, "eventboard").Generate(1)
	require.NoError(t, err)
	env.register(t, "a@x.com", "secret1")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-token"},
		{"foreign secret", "Bearer " + foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			env.server.Handler().ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
		})
	}
}

type stubResolver struct {
	identity *authdomain.Identity
	err      error
}

func (s stubResolver) ResolveIdentity(context.Context, string) (*authdomain.Identity, error) {
	return s.identity, s.err
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, found := IdentityFromContext(r.Context())
		require.True(t, found)
		writeJSON(w, http.StatusOK, identity)
	})

	tests := []struct {
		name     string
		resolver stubResolver
		want     int
	}{
		{"admin admitted", stubResolver{identity: &authdomain.Identity{ID: 1, Role: authdomain.RoleAdmin}}, http.StatusOK},
		{"user forbidden", stubResolver{identity: &authdomain.Identity{ID: 2, Role: authdomain.RoleUser}}, http.StatusForbidden},
		{"unauthenticated", stubResolver{err: authdomain.ErrUnauthenticated}, http.StatusUnauthorized},
		{"storage failure", stubResolver{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAuthenticated(tt.resolver, discardLogger())(RequireRole(authdomain.RoleAdmin)(ok))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer token")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
			}
		})
	}
}

func TestRequireRole_WithoutIdentity(t *testing.T) {
	handler := RequireRole(authdomain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleIsReadFromStorage(t *testing.T) {
	env := newTestEnv(t, nil)
	session := env.register(t, "a@x.com", "secret1")

	rec := env.do(t, http.MethodPost, "/api/categories", session.Token, map[string]string{"name": "Music"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, err := env.auth.EnsureAdmin(context.Background(), authdomain.Credentials{Email: "a@x.com"})
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, "/api/categories", session.Token, map[string]string{"name": "Music"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCategoryRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/categories", "", map[string]string{"name": "Music"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Music"})
	require.Equal(t, http.StatusCreated, rec.Code)
	music := decode[eventdomain.Category](t, rec)

	rec = env.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Music"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []validation.FieldError{{Field: "name", Message: "name is required"}}, decode[validationResponse](t, rec).Errors)

	rec = env.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []eventdomain.Category{music}, decode[[]eventdomain.Category](t, rec))

	rec = env.do(t, http.MethodDelete, "/api/categories/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/categories/99", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/categories/1", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestEventRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)
	owner := env.register(t, "owner@x.com", "secret1")
	other := env.register(t, "other@x.com", "secret1")

	rec := env.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Music"})
	require.Equal(t, http.StatusCreated, rec.Code)

	payload := map[string]any{
		"title":       "Concert",
		"category_id": 1,
		"event_time":  "2026-06-01T18:00:00Z",
		"location":    "Hall",
	}
	rec = env.do(t, http.MethodPost, "/api/events", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/events", owner.Token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[eventdomain.Event](t, rec)
	assert.False(t, created.IsApproved)
	assert.Equal(t, owner.User.ID, created.UserID)

	rec = env.do(t, http.MethodPost, "/api/events", owner.Token, map[string]any{"title": "x", "category_id": 42, "event_time": "2026-06-01", "location": "y"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/events/public", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/events/1/approve", owner.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/events/7/approve", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/events/1/approve", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/events/public", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	public := decode[[]map[string]any](t, rec)
	require.Len(t, public, 1)
	assert.Equal(t, "Music", public[0]["category_name"])
	assert.NotContains(t, public[0], "user_email")
	assert.NotContains(t, public[0], "user_id")

	rec = env.do(t, http.MethodGet, "/api/events", other.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[[]eventdomain.Event](t, rec)
	require.Len(t, all, 1)
	assert.Equal(t, "owner@x.com", all[0].UserEmail)

	rec = env.do(t, http.MethodDelete, "/api/events/1", other.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/events/1", owner.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/events/1", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestSupportRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/", "", nil)
	assert.JSONEq(t, `{"message":"eventboard API"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/auth/login", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	pre := preflight(env, "http://app.test")
	assert.Less(t, pre.Code, 300)
	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Origin"))

	degraded := newTestEnv(t, failingPinger{})
	rec = degraded.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func preflight(env *testEnv, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	env := newTestEnvWithOrigins(t, nil, []string{"http://app.test"})

	rec := preflight(env, "http://app.test")
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	rec = preflight(env, "http://evil.test")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/api/", nil)
	req.Header.Set("Origin", "http://app.test")
	plain := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(plain, req)
	assert.Equal(t, http.StatusOK, plain.Code)
	assert.Equal(t, "http://app.test", plain.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, plain.Header().Get("Access-Control-Expose-Headers"), requestIDHeader)
}

func TestEventRoutes_CategoryIDForms(t *testing.T) {
	env := newTestEnv(t, nil)
	admin := env.adminToken(t)
	owner := env.register(t, "owner@x.com", "secret1")

	rec := env.do(t, http.MethodPost, "/api/categories", admin, map[string]string{"name": "Music"})
	require.Equal(t, http.StatusCreated, rec.Code)

	payload := func(categoryID any) map[string]any {
		return map[string]any{"title": "Concert", "category_id": categoryID, "event_time": "2026-06-01", "location": "Hall"}
	}

	rec = env.do(t, http.MethodPost, "/api/events", owner.Token, payload("1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), decode[eventdomain.Event](t, rec).CategoryID)

	for _, bad := range []any{"abc", "", 1.5, -1} {
		rec = env.do(t, http.MethodPost, "/api/events", owner.Token, payload(bad))
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"errors":[{"field":"category_id","message":"category_id must be a positive integer"}]}`, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/events", owner.Token, payload("99"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"errors":[{"field":"category_id","message":"category does not exist"}]}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.register(t, "a@x.com", "secret1")
	env.do(t, http.MethodGet, "/api/events", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `eventboard_http_requests_total{method="POST",route="/api/auth/register",status="201"} 1`)
	assert.Contains(t, body, `eventboard_auth_failures_total{reason="missing_token"} 1`)
	assert.Contains(t, body, "eventboard_http_request_duration_seconds")
}
