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
	"github.com/spec-kit/directory-service/internal/query"
	"github.com/spec-kit/directory-service/internal/repository"
	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

// UserService manages accounts on behalf of an authenticated actor.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	links      resetLinker
	builder    *query.Builder
	bcryptCost int
}

// UserDependencies encapsulates collaborators of the user service.
type UserDependencies struct {
	Users      repository.UserRepository
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// CreateUserInput describes an account provisioned by an administrator.
type CreateUserInput struct {
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	CompanyName string
	Role        domain.Role
}

// UpdateUserInput is a partial update; nil fields are left untouched.
// Role and CompanyName are administrative fields.
type UpdateUserInput struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	CompanyName *string
	Role        *domain.Role
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	s := &UserService{
		users:      deps.Users,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
		links:      newResetLinker(cfg, deps.Tokens),
		builder:    query.NewBuilder(query.UserSchema, cfg.Directory.MaxPageSize),
		bcryptCost: cfg.Auth.BcryptCost,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateUser provisions a PENDING account the new owner activates through the
// returned reset link.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, in CreateUserInput) (*domain.User, string, error) {
	if _, err := auth.RequireActive(actor); err != nil {
		return nil, "", err
	}
	email, err := auth.NormalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	if !in.Role.IsValid() {
		return nil, "", apperrors.NewValidationError("userType: unknown role", map[string]any{"userType": string(in.Role)})
	}
	if err := auth.RequireCanCreate(actor.Role, in.Role); err != nil {
		return nil, "", err
	}

	hash, err := auth.RandomPasswordHash(s.bcryptCost)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
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
		Role:         in.Role,
		Status:       domain.AccountStatusPending,
		DateJoined:   now,
		LastLogin:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", translateUserWrite(err, email)
	}

	link, _, err := s.links.mint(user.ID)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("actor_id", actor.ID),
		zap.String("role", string(user.Role)))
	publish(ctx, s.dispatcher, events.NewEvent(events.EventUserCreated, user.ID, actor.ID, now, events.UserPayload{
		Email:       user.Email,
		Role:        user.Role,
		CompanyName: user.CompanyName,
	}))
	return user, link, nil
}

// ListUsers returns one page of the directory. Only directory readers may list.
func (s *UserService) ListUsers(ctx context.Context, actor *domain.User, req query.ListingRequest) (*Page[domain.User], error) {
	if _, err := auth.RequireActive(actor); err != nil {
		return nil, err
	}
	if err := auth.RequireRole(actor.Role, auth.DirectoryReaders...); err != nil {
		return nil, err
	}
	plan, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}
	users, total, err := s.users.List(ctx, plan)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Page[domain.User]{Items: users, Page: plan.Page(), PageSize: plan.PageSize(), TotalCount: total}, nil
}

// UpdateUser applies a partial update. Users may edit their own profile
// fields; anything else needs CanCreate over the target's current role and,
// for a role change, over the new role as well.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, id string, in UpdateUserInput) (*domain.User, error) {
	if _, err := auth.RequireActive(actor); err != nil {
		return nil, err
	}
	target, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	privileged := auth.CanCreate(actor.Role, target.Role)
	if actor.ID != target.ID && !privileged {
		return nil, auth.RequireCanCreate(actor.Role, target.Role)
	}
	if (in.Role != nil || in.CompanyName != nil) && !privileged {
		return nil, apperrors.NewForbidden("only profile fields may be changed on your own account", map[string]any{"actual_role": string(actor.Role)})
	}
	if in.Role != nil {
		if !in.Role.IsValid() {
			return nil, apperrors.NewValidationError("userType: unknown role", map[string]any{"userType": string(*in.Role)})
		}
		if err := auth.RequireCanCreate(actor.Role, *in.Role); err != nil {
			return nil, err
		}
		target.Role = *in.Role
	}
	if in.FirstName != nil {
		target.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		target.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.PhoneNumber != nil {
		target.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.CompanyName != nil {
		target.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	target.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, target); err != nil {
		return nil, translateUserWrite(err, target.Email)
	}
	s.logger.Info("user updated", zap.String("user_id", target.ID), zap.String("actor_id", actor.ID))
	return target, nil
}

// DeactivateUser blocks an account. Nobody may deactivate themselves.
func (s *UserService) DeactivateUser(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if _, err := auth.RequireActive(actor); err != nil {
		return nil, err
	}
	target, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireCanCreate(actor.Role, target.Role); err != nil {
		return nil, err
	}
	if actor.ID == target.ID {
		return nil, apperrors.NewForbidden("users cannot deactivate their own account", nil)
	}

	now := s.now().UTC()
	auth.Deactivate(target, now)
	if err := s.users.Update(ctx, target); err != nil {
		return nil, translateUserWrite(err, target.Email)
	}
	s.logger.Info("user deactivated", zap.String("user_id", target.ID), zap.String("actor_id", actor.ID))
	publish(ctx, s.dispatcher, events.NewEvent(events.EventUserDeactivated, target.ID, actor.ID, now, events.UserPayload{
		Email: target.Email,
		Role:  target.Role,
	}))
	return target, nil
}

func (s *UserService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
