package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/directory-service/internal/auth"
	"github.com/spec-kit/directory-service/internal/config"
	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/events"
	"github.com/spec-kit/directory-service/internal/repository"
)

const (
	testPassword = "Sup3rSecret"
	testBaseURL  = "http://directory.test"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type stubThrottle struct {
	deny     bool
	failures int
	resets   int
}

func (s *stubThrottle) Allow(context.Context, string) bool    { return !s.deny }
func (s *stubThrottle) RecordFailure(context.Context, string) { s.failures++ }
func (s *stubThrottle) Reset(context.Context, string)         { s.resets++ }

type fixture struct {
	cfg       config.Config
	clock     *testClock
	users     repository.UserRepository
	companies repository.CompanyRepository
	tokens    *auth.TokenManager
	events    *recordingDispatcher
	throttle  *stubThrottle

	auth       *AuthService
	userSvc    *UserService
	companySvc *CompanyService
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{PublicURL: testBaseURL},
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			JWTIssuer:               "directory-test",
			AccessTokenTTLMinutes:   35,
			PasswordResetTTLMinutes: 60,
			BcryptCost:              bcrypt.MinCost,
			OpenRegistration:        true,
		},
		Directory: config.DirectoryConfig{DefaultPageSize: 20, MaxPageSize: 250, CompanyUsersMax: 100},
	}
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, testConfig())
}

func newFixtureWithConfig(t *testing.T, cfg config.Config) *fixture {
	t.Helper()
	store, err := repository.NewMemoryStore()
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.AccessTokenTTL(),
		Issuer: cfg.Auth.JWTIssuer,
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)

	f := &fixture{
		cfg:       cfg,
		clock:     clock,
		users:     store.Users(),
		companies: store.Companies(),
		tokens:    tokens,
		events:    &recordingDispatcher{},
		throttle:  &stubThrottle{},
	}
	logger := zap.NewNop()
	f.auth, err = NewAuthService(cfg, AuthDependencies{
		Users:      f.users,
		Tokens:     tokens,
		Throttle:   f.throttle,
		Dispatcher: f.events,
		Logger:     logger,
		Clock:      clock.Now,
	})
	require.NoError(t, err)
	f.userSvc = NewUserService(cfg, UserDependencies{
		Users:      f.users,
		Tokens:     tokens,
		Dispatcher: f.events,
		Logger:     logger,
		Clock:      clock.Now,
	})
	f.companySvc = NewCompanyService(cfg, CompanyDependencies{
		Companies:  f.companies,
		Users:      f.users,
		Dispatcher: f.events,
		Logger:     logger,
		Clock:      clock.Now,
	})
	return f
}

// seedUser stores an account whose password is testPassword.
func (f *fixture) seedUser(t *testing.T, email string, role domain.Role, status domain.AccountStatus) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	now := f.clock.Now()
	user := &domain.User{
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "First",
		LastName:     strings.Split(email, "@")[0],
		CompanyName:  "XYZ",
		Role:         role,
		Status:       status,
		DateJoined:   now,
		LastLogin:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	prefix := testBaseURL + "/auth/resetPassword/"
	require.True(t, strings.HasPrefix(link, prefix), link)
	return strings.TrimPrefix(link, prefix)
}
