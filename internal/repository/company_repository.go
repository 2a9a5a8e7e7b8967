package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/ids"
	"github.com/spec-kit/directory-service/internal/query"
)

const companyColumns = `id, company_name, admin_id, token_usage, token_allotment, is_active, date_created, last_updated`

var companyColumnMap = columnMap{
	query.FieldCompanyName: "company_name",
	query.FieldDateCreated: "date_created",
	query.FieldLastUpdated: "last_updated",
}

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository returns a Postgres-backed implementation.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	if company.ID == "" {
		company.ID = ids.New()
	}
	const stmt = `
        INSERT INTO companies (` + companyColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, stmt,
		company.ID,
		company.Name,
		company.AdminID,
		company.TokenUsage,
		company.TokenAllotment,
		company.IsActive,
		company.DateCreated,
		company.LastUpdated,
	)
	return translatePgError(err)
}

func (r *companyRepository) Update(ctx context.Context, company *domain.Company) error {
	const stmt = `
        UPDATE companies SET company_name=$1, admin_id=$2, token_usage=$3, token_allotment=$4,
            is_active=$5, last_updated=$6
        WHERE id=$7`

	cmd, err := r.pool.Exec(ctx, stmt,
		company.Name,
		company.AdminID,
		company.TokenUsage,
		company.TokenAllotment,
		company.IsActive,
		company.LastUpdated,
		company.ID,
	)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *companyRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	const stmt = `SELECT ` + companyColumns + ` FROM companies WHERE id=$1`
	return scanCompany(r.pool.QueryRow(ctx, stmt, id))
}

func (r *companyRepository) GetByName(ctx context.Context, name string) (*domain.Company, error) {
	const stmt = `SELECT ` + companyColumns + ` FROM companies WHERE LOWER(company_name)=LOWER($1)`
	return scanCompany(r.pool.QueryRow(ctx, stmt, name))
}

func (r *companyRepository) List(ctx context.Context, plan query.Plan) ([]domain.Company, int, error) {
	where, args, err := whereClause(plan.Match(), companyColumnMap)
	if err != nil {
		return nil, 0, err
	}
	order, err := orderClause(plan.Order(), companyColumnMap)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies`+where+order+pageClause(plan), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]domain.Company, 0)
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, *company)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var company domain.Company
	if err := row.Scan(
		&company.ID,
		&company.Name,
		&company.AdminID,
		&company.TokenUsage,
		&company.TokenAllotment,
		&company.IsActive,
		&company.DateCreated,
		&company.LastUpdated,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &company, nil
}
