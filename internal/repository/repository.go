package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/query"
)

var (
	// ErrNotFound is returned when no record matches the lookup or the
	// conditional write matched nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (email or company
	// name) is already taken.
	ErrDuplicate = errors.New("record already exists")
)

const uniqueViolation = "23505"

// UserRepository defines persistence access for directory users.
type UserRepository interface {
	// Create assigns an id when the user has none.
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, plan query.Plan) ([]domain.User, int, error)
	ListByCompanyName(ctx context.Context, companyName string, limit int) ([]domain.User, error)
}

// CompanyRepository defines persistence access for tenants.
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	Update(ctx context.Context, company *domain.Company) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	GetByName(ctx context.Context, name string) (*domain.Company, error)
	List(ctx context.Context, plan query.Plan) ([]domain.Company, int, error)
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
