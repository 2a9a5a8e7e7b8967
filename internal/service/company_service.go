package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/spec-kit/directory-service/internal/auth"
	"github.com/spec-kit/directory-service/internal/config"
	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/events"
	"github.com/spec-kit/directory-service/internal/query"
	"github.com/spec-kit/directory-service/internal/repository"
	apperrors "github.com/spec-kit/directory-service/pkg/util/errorutil"
)

// CompanyService manages tenants.
type CompanyService struct {
	companies  repository.CompanyRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	builder    *query.Builder
	usersMax   int
}

// CompanyDependencies encapsulates collaborators of the company service.
type CompanyDependencies struct {
	Companies  repository.CompanyRepository
	Users      repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// CreateCompanyInput names the company admin by email; the admin must
// already be registered.
type CreateCompanyInput struct {
	Name           string
	AdminEmail     string
	TokenUsage     int64
	TokenAllotment int64
	IsActive       bool
}

// UpdateCompanyInput is a partial update; nil fields are left untouched.
type UpdateCompanyInput struct {
	Name           *string
	AdminID        *string
	TokenUsage     *int64
	TokenAllotment *int64
	IsActive       *bool
}

// CompanyView is a company with its admin and the users whose company name
// matches. Admin is nil when the referenced user no longer exists.
type CompanyView struct {
	Company domain.Company
	Admin   *domain.User
	Users   []domain.User
}

// NewCompanyService builds the service.
func NewCompanyService(cfg config.Config, deps CompanyDependencies) *CompanyService {
	s := &CompanyService{
		companies:  deps.Companies,
		users:      deps.Users,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
		builder:    query.NewBuilder(query.CompanySchema, cfg.Directory.MaxPageSize),
		usersMax:   cfg.Directory.CompanyUsersMax,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.usersMax <= 0 {
		s.usersMax = 100
	}
	return s
}

func requireCompanyManager(actor *domain.User) error {
	if _, err := auth.RequireActive(actor); err != nil {
		return err
	}
	return auth.RequireRole(actor.Role, auth.CompanyManagers...)
}

// CreateCompany registers a tenant.
func (s *CompanyService) CreateCompany(ctx context.Context, actor *domain.User, in CreateCompanyInput) (*CompanyView, error) {
	if err := requireCompanyManager(actor); err != nil {
		return nil, err
	}
	email, err := auth.NormalizeEmail(in.AdminEmail)
	if err != nil {
		return nil, err
	}
	admin, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("admin user", map[string]any{"email": email})
		}
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now().UTC()
	company := &domain.Company{
		Name:           strings.TrimSpace(in.Name),
		AdminID:        admin.ID,
		TokenUsage:     in.TokenUsage,
		TokenAllotment: in.TokenAllotment,
		IsActive:       in.IsActive,
		DateCreated:    now,
		LastUpdated:    now,
	}
	if err := validateCompany(company); err != nil {
		return nil, err
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, translateCompanyWrite(err, company.Name)
	}

	s.logger.Info("company created", zap.String("company_id", company.ID), zap.String("actor_id", actor.ID))
	s.publishCompany(ctx, events.EventCompanyCreated, company, actor)
	return &CompanyView{Company: *company, Admin: admin}, nil
}

// ListCompanies returns one page of tenants enriched with admin and members.
func (s *CompanyService) ListCompanies(ctx context.Context, actor *domain.User, req query.ListingRequest) (*Page[CompanyView], error) {
	if _, err := auth.RequireActive(actor); err != nil {
		return nil, err
	}
	plan, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}
	companies, total, err := s.companies.List(ctx, plan)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	views := make([]CompanyView, 0, len(companies))
	for _, company := range companies {
		view := CompanyView{Company: company}
		admin, err := s.users.GetByID(ctx, company.AdminID)
		switch {
		case err == nil:
			view.Admin = admin
		case !errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewInternalError(err)
		default:
			s.logger.Warn("company admin missing", zap.String("company_id", company.ID), zap.String("admin_id", company.AdminID))
		}
		members, err := s.users.ListByCompanyName(ctx, company.Name, s.usersMax)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		view.Users = members
		views = append(views, view)
	}
	return &Page[CompanyView]{Items: views, Page: plan.Page(), PageSize: plan.PageSize(), TotalCount: total}, nil
}

// UpdateCompany applies a partial update. Renaming a company does not
// move users, whose membership is their CompanyName.
func (s *CompanyService) UpdateCompany(ctx context.Context, actor *domain.User, id string, in UpdateCompanyInput) (*domain.Company, error) {
	if err := requireCompanyManager(actor); err != nil {
		return nil, err
	}
	company, err := s.getCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		company.Name = strings.TrimSpace(*in.Name)
	}
	if in.TokenUsage != nil {
		company.TokenUsage = *in.TokenUsage
	}
	if in.TokenAllotment != nil {
		company.TokenAllotment = *in.TokenAllotment
	}
	if in.IsActive != nil {
		company.IsActive = *in.IsActive
	}
	if in.AdminID != nil {
		if _, err := s.users.GetByID(ctx, *in.AdminID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("admin user", map[string]any{"id": *in.AdminID})
			}
			return nil, apperrors.NewInternalError(err)
		}
		company.AdminID = *in.AdminID
	}
	if err := validateCompany(company); err != nil {
		return nil, err
	}
	company.LastUpdated = s.now().UTC()

	if err := s.companies.Update(ctx, company); err != nil {
		return nil, translateCompanyWrite(err, company.Name)
	}
	s.logger.Info("company updated", zap.String("company_id", company.ID), zap.String("actor_id", actor.ID))
	s.publishCompany(ctx, events.EventCompanyUpdated, company, actor)
	return company, nil
}

// DeleteCompany removes a tenant. Its users are kept.
func (s *CompanyService) DeleteCompany(ctx context.Context, actor *domain.User, id string) error {
	if err := requireCompanyManager(actor); err != nil {
		return err
	}
	company, err := s.getCompany(ctx, id)
	if err != nil {
		return err
	}
	if err := s.companies.Delete(ctx, id); err != nil {
		return translateCompanyWrite(err, company.Name)
	}
	company.LastUpdated = s.now().UTC()
	s.logger.Info("company deleted", zap.String("company_id", id), zap.String("actor_id", actor.ID))
	s.publishCompany(ctx, events.EventCompanyDeleted, company, actor)
	return nil
}

// SetCompanyStatus toggles IsActive.
func (s *CompanyService) SetCompanyStatus(ctx context.Context, actor *domain.User, id string, isActive bool) (*domain.Company, error) {
	if err := requireCompanyManager(actor); err != nil {
		return nil, err
	}
	company, err := s.getCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	company.IsActive = isActive
	company.LastUpdated = s.now().UTC()
	if err := s.companies.Update(ctx, company); err != nil {
		return nil, translateCompanyWrite(err, company.Name)
	}
	s.logger.Info("company status changed",
		zap.String("company_id", id),
		zap.Bool("is_active", isActive),
		zap.String("actor_id", actor.ID))
	s.publishCompany(ctx, events.EventCompanyStatusChanged, company, actor)
	return company, nil
}

func (s *CompanyService) getCompany(ctx context.Context, id string) (*domain.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("company", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return company, nil
}

func (s *CompanyService) publishCompany(ctx context.Context, eventType events.EventType, company *domain.Company, actor *domain.User) {
	publish(ctx, s.dispatcher, events.NewEvent(eventType, company.ID, actor.ID, company.LastUpdated, events.CompanyPayload{
		Name:     company.Name,
		AdminID:  company.AdminID,
		IsActive: company.IsActive,
	}))
}

func validateCompany(c *domain.Company) error {
	return apperrors.FromValidation(validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.TokenUsage, validation.Min(int64(0)).Error("must not be negative")),
		validation.Field(&c.TokenAllotment,
			validation.Min(int64(0)).Error("must not be negative"),
			validation.Max(int64(domain.MaxTokenAllotment-1)).Error("must be less than 10000000"),
		),
	))
}

func translateCompanyWrite(err error, name string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("Company with name "+name+" already exists", map[string]any{"companyName": name})
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("company", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
