package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/directory-service/internal/api/http/handlers"
	"github.com/spec-kit/directory-service/internal/auth"
	"github.com/spec-kit/directory-service/internal/config"
	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/events"
	"github.com/spec-kit/directory-service/internal/observability"
	"github.com/spec-kit/directory-service/internal/repository"
	"github.com/spec-kit/directory-service/internal/service"
)

const goodPassword = "Sup3rSecret"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	app    *fiber.App
	users  repository.UserRepository
	tokens *auth.TokenManager
	clock  *clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		App: config.AppConfig{Name: "directory-test", Version: "test", PublicURL: "http://directory.test"},
		Auth: config.AuthConfig{
			JWTSecret:               "http-test-secret",
			AccessTokenTTLMinutes:   35,
			PasswordResetTTLMinutes: 60,
			BcryptCost:              bcrypt.MinCost,
			OpenRegistration:        true,
		},
		Directory: config.DirectoryConfig{DefaultPageSize: 20, MaxPageSize: 250, CompanyUsersMax: 100},
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	clk := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	store, err := repository.NewMemoryStore()
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager(auth.TokenConfig{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.AccessTokenTTL()}, auth.WithClock(clk.Now))
	require.NoError(t, err)
	dispatcher := events.NewInMemoryDispatcher(logger)

	authSvc, err := service.NewAuthService(cfg, service.AuthDependencies{
		Users: store.Users(), Tokens: tokens, Dispatcher: dispatcher, Logger: logger, Clock: clk.Now,
	})
	require.NoError(t, err)
	userSvc := service.NewUserService(cfg, service.UserDependencies{
		Users: store.Users(), Tokens: tokens, Dispatcher: dispatcher, Logger: logger, Clock: clk.Now,
	})
	companySvc := service.NewCompanyService(cfg, service.CompanyDependencies{
		Companies: store.Companies(), Users: store.Users(), Dispatcher: dispatcher, Logger: logger, Clock: clk.Now,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil, nil),
		Auth:           handlers.NewAuthHandler(authSvc),
		Users:          handlers.NewUsersHandler(userSvc, cfg.Directory.DefaultPageSize),
		Companies:      handlers.NewCompaniesHandler(companySvc, cfg.Directory.DefaultPageSize),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users(), logger, metrics),
		Metrics:        metrics,
	})

	return &testServer{app: app, users: store.Users(), tokens: tokens, clock: clk}
}

func (s *testServer) seed(t *testing.T, email string, role domain.Role, status domain.AccountStatus) (*domain.User, string) {
	t.Helper()
	hash, err := auth.HashPassword(goodPassword, bcrypt.MinCost)
	require.NoError(t, err)
	now := s.clock.Now()
	user := &domain.User{
		Username: email, Email: email, PasswordHash: hash,
		FirstName: "Test", LastName: strings.Split(email, "@")[0], CompanyName: "XYZ",
		Role: role, Status: status, DateJoined: now, LastLogin: now, UpdatedAt: now,
	}
	require.NoError(t, s.users.Create(context.Background(), user))
	session, err := s.tokens.IssueDefault(user.ID)
	require.NoError(t, err)
	return user, session.Token
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorField(body map[string]any, key string) any {
	errObj, _ := body["error"].(map[string]any)
	return errObj[key]
}

func TestRegisterThenDuplicate(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]any{
		"email":     "new@example.com",
		"password":  goodPassword,
		"firstName": "New",
		"lastName":  "User",
	}

	status, body := s.do(t, nethttp.MethodPost, "/auth/register", payload, "")
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "new@example.com", body["email"])
	assert.Equal(t, "CLIENT_USER", body["userType"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "passwordHash")

	status, body = s.do(t, nethttp.MethodPost, "/auth/register", payload, "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorField(body, "code"))
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, nethttp.MethodPost, "/auth/register", map[string]any{
		"email":    "weak@example.com",
		"password": "alllowercase1",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorField(body, "code"))
	assert.Contains(t, errorField(body, "message"), "uppercase")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	user, _ := s.seed(t, "login@example.com", domain.RoleClientUser, domain.AccountStatusActive)
	joined := user.LastLogin
	s.clock.Advance(10 * time.Minute)

	status, body := s.do(t, nethttp.MethodPost, "/auth/login", map[string]any{"email": "login@example.com", "password": "Wr0ngPassword"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid email and/or password", errorField(body, "message"))

	stored, err := s.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLogin.Equal(joined))

	status, body = s.do(t, nethttp.MethodPost, "/auth/login", map[string]any{"email": "login@example.com", "password": goodPassword}, "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, user.ID, body["id"])
	assert.Equal(t, "CLIENT_USER", body["userType"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	stored, err = s.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLogin.Equal(s.clock.Now()))

	status, body = s.do(t, nethttp.MethodGet, "/auth/currentUser", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "login@example.com", body["email"])
}

func TestBearerFailuresShareOnePayload(t *testing.T) {
	s := newTestServer(t)
	_, token := s.seed(t, "bearer@example.com", domain.RoleSales, domain.AccountStatusActive)

	status, body := s.do(t, nethttp.MethodGet, "/auth/currentUser", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorField(body, "code"))

	status, tampered := s.do(t, nethttp.MethodGet, "/auth/currentUser", nil, token+"x")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	s.clock.Advance(36 * time.Minute)
	status, expired := s.do(t, nethttp.MethodGet, "/auth/currentUser", nil, token)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	assert.Equal(t, tampered, expired)
	assert.Equal(t, "invalid or expired token", errorField(expired, "message"))
}

func TestCompanyRoutesRequireManagerRole(t *testing.T) {
	s := newTestServer(t)
	_, token := s.seed(t, "ca@example.com", domain.RoleClientAdmin, domain.AccountStatusActive)

	status, body := s.do(t, nethttp.MethodPost, "/companies", map[string]any{"companyName": "Acme", "email": "ca@example.com"}, token)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorField(body, "code"))
	assert.Contains(t, errorField(body, "message"), "SUPERUSER, SALES")

	details, _ := errorField(body, "details").(map[string]any)
	assert.Equal(t, []any{"SUPERUSER", "SALES"}, details["allowed_roles"])
	assert.Equal(t, "CLIENT_ADMIN", details["actual_role"])
}

func TestCompanyLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, token := s.seed(t, "sales@example.com", domain.RoleSales, domain.AccountStatusActive)
	admin, _ := s.seed(t, "boss@example.com", domain.RoleClientAdmin, domain.AccountStatusActive)

	status, body := s.do(t, nethttp.MethodPost, "/companies", map[string]any{
		"companyName":    "XYZ",
		"email":          "boss@example.com",
		"tokenAllotment": 5000,
	}, token)
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, admin.ID, body["adminId"])
	assert.Equal(t, true, body["isActive"])
	id, _ := body["companyId"].(string)

	status, _ = s.do(t, nethttp.MethodPost, "/companies", map[string]any{"companyName": "xyz", "email": "boss@example.com"}, token)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = s.do(t, nethttp.MethodPost, "/companies", map[string]any{"companyName": "Big", "email": "boss@example.com", "tokenAllotment": 10000000}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, nethttp.MethodGet, "/companies?orderBy=alphabetical_asc", nil, token)
	require.Equal(t, fiber.StatusOK, status, body)
	data, _ := body["data"].([]any)
	require.Len(t, data, 1)
	first, _ := data[0].(map[string]any)
	assert.Equal(t, "boss@example.com", first["email"])
	assert.Len(t, first["users"], 2)

	status, body = s.do(t, nethttp.MethodPatch, "/companies/"+id+"/status?isActive=false", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["isActive"])

	status, _ = s.do(t, nethttp.MethodPatch, "/companies/"+id+"/status?isActive=maybe", nil, token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = s.do(t, nethttp.MethodPatch, "/companies/"+id+"/status", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["isActive"])

	status, body = s.do(t, nethttp.MethodPut, "/companies/"+id, map[string]any{"companyName": "XYZ Corp"}, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "XYZ Corp", body["companyName"])

	status, _ = s.do(t, nethttp.MethodDelete, "/companies/"+id, nil, token)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, nethttp.MethodDelete, "/companies/"+id, nil, token)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUsersListingAndProvisioning(t *testing.T) {
	s := newTestServer(t)
	_, salesToken := s.seed(t, "sales@example.com", domain.RoleSales, domain.AccountStatusActive)
	_, clientToken := s.seed(t, "client@example.com", domain.RoleClientUser, domain.AccountStatusActive)

	status, _ := s.do(t, nethttp.MethodGet, "/users", nil, clientToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := s.do(t, nethttp.MethodPost, "/users", map[string]any{
		"email":    "fresh@example.com",
		"userType": "CLIENT_ADMIN",
	}, salesToken)
	require.Equal(t, fiber.StatusCreated, status, body)
	link, _ := body["resetLink"].(string)
	assert.True(t, strings.HasPrefix(link, "http://directory.test/auth/resetPassword/"))
	user, _ := body["user"].(map[string]any)
	assert.Equal(t, "PENDING", user["accountStatus"])

	status, body = s.do(t, nethttp.MethodGet, "/users?page=1&pageSize=2&orderBy=ALPHABETICAL_ASC", nil, salesToken)
	require.Equal(t, fiber.StatusOK, status, body)
	meta, _ := body["meta"].(map[string]any)
	assert.EqualValues(t, 1, meta["page"])
	assert.EqualValues(t, 2, meta["pageSize"])
	assert.EqualValues(t, 3, meta["totalCount"])
	assert.EqualValues(t, 2, meta["count"])

	status, body = s.do(t, nethttp.MethodGet, "/users?page=922337203685477580&pageSize=20", nil, salesToken)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Empty(t, body["data"])
	meta, _ = body["meta"].(map[string]any)
	assert.EqualValues(t, 3, meta["totalCount"])
	assert.EqualValues(t, 0, meta["count"])

	status, _ = s.do(t, nethttp.MethodGet, "/users?pageSize=251", nil, salesToken)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = s.do(t, nethttp.MethodGet, "/users?page=abc", nil, salesToken)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = s.do(t, nethttp.MethodGet, "/users?orderBy=RANDOM", nil, salesToken)
	assert.Equal(t, fiber.StatusBadRequest, status)

	token := strings.TrimPrefix(link, "http://directory.test/auth/resetPassword/")
	status, body = s.do(t, nethttp.MethodPut, "/auth/resetPassword/"+token, map[string]any{"password": "Fr3shPassword"}, "")
	require.Equal(t, fiber.StatusOK, status, body)

	status, _ = s.do(t, nethttp.MethodPost, "/auth/login", map[string]any{"email": "fresh@example.com", "password": "Fr3shPassword"}, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestResetPasswordFailures(t *testing.T) {
	s := newTestServer(t)
	user, _ := s.seed(t, "pending@example.com", domain.RoleClientUser, domain.AccountStatusPending)
	blocked, _ := s.seed(t, "blocked@example.com", domain.RoleClientUser, domain.AccountStatusDeactivated)

	short, err := s.tokens.Issue(user.ID, time.Minute)
	require.NoError(t, err)
	forBlocked, err := s.tokens.Issue(blocked.ID, time.Hour)
	require.NoError(t, err)

	s.clock.Advance(2 * time.Minute)
	status, body := s.do(t, nethttp.MethodPut, "/auth/resetPassword/"+short.Token, map[string]any{"password": "N3wPassword"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "invalid or expired token", errorField(body, "message"))

	status, _ = s.do(t, nethttp.MethodPut, "/auth/resetPassword/"+forBlocked.Token, map[string]any{"password": "N3wPassword"}, "")
	assert.Equal(t, fiber.StatusForbidden, status)

	req := httptest.NewRequest(nethttp.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `directory_auth_failures_total{kind="EXPIRED_TOKEN"} 1`)
}

func TestPasswordResetRequestIsAlwaysAccepted(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, "known@example.com", domain.RoleClientUser, domain.AccountStatusActive)

	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		status, body := s.do(t, nethttp.MethodPost, "/auth/password/reset/request", map[string]any{"email": email}, "")
		assert.Equal(t, fiber.StatusAccepted, status)
		assert.Equal(t, "if the account exists, a reset link has been sent", body["message"])
	}
}

func TestDeactivateAndInactiveActor(t *testing.T) {
	s := newTestServer(t)
	root, rootToken := s.seed(t, "root@example.com", domain.RoleSuperuser, domain.AccountStatusActive)
	target, targetToken := s.seed(t, "target@example.com", domain.RoleSales, domain.AccountStatusActive)

	status, _ := s.do(t, nethttp.MethodPatch, "/users/"+root.ID+"/deactivate", nil, rootToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body := s.do(t, nethttp.MethodPatch, "/users/"+target.ID+"/deactivate", nil, rootToken)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "DEACTIVATED", body["accountStatus"])

	status, _ = s.do(t, nethttp.MethodGet, "/users", nil, targetToken)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, nethttp.MethodPatch, "/users/missing/deactivate", nil, rootToken)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, nethttp.MethodGet, "/health/live", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, nethttp.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	deps, _ := body["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])

	status, body = s.do(t, nethttp.MethodGet, "/nope", nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorField(body, "code"))
}
