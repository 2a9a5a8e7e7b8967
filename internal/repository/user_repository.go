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

const userColumns = `id, username, email, password_hash, first_name, last_name, phone_number,
        company_name, role, account_status, date_joined, last_login, updated_at`

var userColumnMap = columnMap{
	query.FieldFirstName:   "first_name",
	query.FieldLastName:    "last_name",
	query.FieldCompanyName: "company_name",
	query.FieldDateJoined:  "date_joined",
	query.FieldUpdatedAt:   "updated_at",
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = ids.New()
	}
	const stmt = `
        INSERT INTO users (` + userColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, stmt,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.CompanyName,
		user.Role,
		user.Status,
		user.DateJoined,
		user.LastLogin,
		user.UpdatedAt,
	)
	return translatePgError(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const stmt = `
        UPDATE users SET username=$1, email=$2, password_hash=$3, first_name=$4, last_name=$5,
            phone_number=$6, company_name=$7, role=$8, account_status=$9, last_login=$10, updated_at=$11
        WHERE id=$12`

	cmd, err := r.pool.Exec(ctx, stmt,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.CompanyName,
		user.Role,
		user.Status,
		user.LastLogin,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, stmt, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, stmt, email))
}

func (r *userRepository) List(ctx context.Context, plan query.Plan) ([]domain.User, int, error) {
	where, args, err := whereClause(plan.Match(), userColumnMap)
	if err != nil {
		return nil, 0, err
	}
	order, err := orderClause(plan.Order(), userColumnMap)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users`+where+order+pageClause(plan), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) ListByCompanyName(ctx context.Context, companyName string, limit int) ([]domain.User, error) {
	const stmt = `SELECT ` + userColumns + ` FROM users WHERE company_name=$1 ORDER BY id ASC LIMIT $2`
	rows, err := r.pool.Query(ctx, stmt, companyName, limit)
	if err != nil {
		return nil, fmt.Errorf("list company users: %w", err)
	}
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()
	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.PhoneNumber,
		&user.CompanyName,
		&user.Role,
		&user.Status,
		&user.DateJoined,
		&user.LastLogin,
		&user.UpdatedAt,
	); err != nil {
		return nil, translatePgError(err)
	}
	return &user, nil
}
