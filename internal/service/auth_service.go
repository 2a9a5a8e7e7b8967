package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/directory-service/internal/auth"
	"github.com/spec-kit/directory-service/internal/config"
	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/events"
	"github.com/spec-kit/directory-service/internal/repository"
	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

const invalidCredentials = "invalid email and/or password"

// AuthService coordinates registration, login and password reset flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	throttle   auth.LoginThrottle
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	links            resetLinker
	bcryptCost       int
	openRegistration bool
	dummyHash        string
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Users      repository.UserRepository
	Tokens     *auth.TokenManager
	Throttle   auth.LoginThrottle
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// RegisterInput is a self-service sign-up request.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	CompanyName string
	Role        domain.Role
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User    *domain.User
	Session domain.Session
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) (*AuthService, error) {
	dummy, err := auth.RandomPasswordHash(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	s := &AuthService{
		users:            deps.Users,
		tokens:           deps.Tokens,
		throttle:         deps.Throttle,
		dispatcher:       deps.Dispatcher,
		logger:           deps.Logger,
		now:              deps.Clock,
		links:            newResetLinker(cfg, deps.Tokens),
		bcryptCost:       cfg.Auth.BcryptCost,
		openRegistration: cfg.Auth.OpenRegistration,
		dummyHash:        dummy,
	}
	if s.throttle == nil {
		s.throttle = auth.NoopLoginThrottle{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// TokenManager exposes the token authority used by the service.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates an ACTIVE account for a self-service sign-up.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if !s.openRegistration {
		return nil, apperrors.NewForbidden("self-service registration is disabled", nil)
	}
	email, err := auth.NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePasswordStrength(in.Password); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = domain.RoleClientUser
	}
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("userType: unknown role", map[string]any{"userType": string(role)})
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		CompanyName:  strings.TrimSpace(in.CompanyName),
		Role:         role,
		Status:       domain.AccountStatusActive,
		DateJoined:   now,
		LastLogin:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, translateUserWrite(err, email)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)))
	publish(ctx, s.dispatcher, events.NewEvent(events.EventUserRegistered, user.ID, user.ID, now, events.UserPayload{
		Email:       user.Email,
		Role:        user.Role,
		CompanyName: user.CompanyName,
	}))
	return user, nil
}

// Login verifies credentials and issues a session. Unknown emails and wrong
// passwords produce the same error and run the same bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, rawEmail, password string) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(rawEmail))
	if !s.throttle.Allow(ctx, email) {
		return nil, apperrors.NewTooManyRequests("too many failed login attempts, try again later")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
		auth.VerifyPassword(s.dummyHash, password)
		s.throttle.RecordFailure(ctx, email)
		s.logger.Info("login rejected", zap.String("reason", "unknown_email"))
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		s.throttle.RecordFailure(ctx, email)
		s.logger.Info("login rejected", zap.String("reason", "bad_password"), zap.String("user_id", user.ID))
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	s.throttle.Reset(ctx, email)

	session, err := s.tokens.IssueDefault(user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user.LastLogin = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("login succeeded", zap.String("user_id", user.ID))
	return &LoginResult{User: user, Session: session}, nil
}

// ResetPassword completes a reset-link flow: the token subject gets the new
// password and becomes ACTIVE.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) (*domain.User, error) {
	subjectID, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": subjectID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if _, err := auth.RequireActiveOrPending(user); err != nil {
		return nil, err
	}
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.now().UTC()
	user.PasswordHash = hash
	auth.Activate(user, now)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("password reset completed", zap.String("user_id", user.ID))
	publish(ctx, s.dispatcher, events.NewEvent(events.EventPasswordResetCompleted, user.ID, user.ID, now, events.UserPayload{
		Email: user.Email,
		Role:  user.Role,
	}))
	return user, nil
}

// RequestPasswordReset mints a reset link for an existing, non-deactivated
// account. Callers learn nothing about whether the email exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, rawEmail string) error {
	email := strings.ToLower(strings.TrimSpace(rawEmail))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("password reset lookup failed", zap.Error(err))
		}
		return nil
	}
	if user.Status == domain.AccountStatusDeactivated {
		return nil
	}

	link, session, err := s.links.mint(user.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	publish(ctx, s.dispatcher, events.NewEvent(events.EventPasswordResetRequested, user.ID, "", s.now().UTC(), events.PasswordResetPayload{
		Email:     user.Email,
		ResetLink: link,
		ExpiresAt: session.ExpiresAt,
	}))
	return nil
}

func translateUserWrite(err error, email string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("User with email "+email+" already exists", map[string]any{"email": email})
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("user", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
