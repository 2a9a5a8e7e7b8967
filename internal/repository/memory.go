package repository

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/ids"
	"github.com/spec-kit/directory-service/internal/query"
)

const (
	usersTable     = "users"
	companiesTable = "companies"

	indexID      = "id"
	indexEmail   = "email"
	indexCompany = "company"
	indexName    = "name"
)

func memorySchema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			usersTable: {
				Name: usersTable,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					indexEmail: {
						Name:    indexEmail,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Email", Lowercase: true},
					},
					indexCompany: {
						Name:         indexCompany,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "CompanyName"},
					},
				},
			},
			companiesTable: {
				Name: companiesTable,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					indexName: {
						Name:    indexName,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name", Lowercase: true},
					},
				},
			},
		},
	}
}

// MemoryStore keeps users and companies in a go-memdb database. It backs
// tests and deployments without POSTGRES_DSN.
type MemoryStore struct {
	db *memdb.MemDB
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() (*MemoryStore, error) {
	db, err := memdb.NewMemDB(memorySchema())
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &MemoryStore{db: db}, nil
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() UserRepository {
	return &memoryUsers{db: s.db}
}

// Companies returns the company repository view of the store.
func (s *MemoryStore) Companies() CompanyRepository {
	return &memoryCompanies{db: s.db}
}

type memoryUsers struct {
	db *memdb.MemDB
}

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(usersTable, indexEmail, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicate
	}
	if user.ID == "" {
		user.ID = ids.New()
	}
	stored := *user
	if err := txn.Insert(usersTable, &stored); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *memoryUsers) Update(_ context.Context, user *domain.User) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	current, err := txn.First(usersTable, indexID, user.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	holder, err := txn.First(usersTable, indexEmail, user.Email)
	if err != nil {
		return err
	}
	if holder != nil && holder.(*domain.User).ID != user.ID {
		return ErrDuplicate
	}
	stored := *user
	if err := txn.Insert(usersTable, &stored); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return r.first(indexID, id)
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.first(indexEmail, email)
}

func (r *memoryUsers) first(index, value string) (*domain.User, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(usersTable, index, value)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	user := *raw.(*domain.User)
	return &user, nil
}

func (r *memoryUsers) List(_ context.Context, plan query.Plan) ([]domain.User, int, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(usersTable, indexID)
	if err != nil {
		return nil, 0, err
	}
	var all []domain.User
	for raw := it.Next(); raw != nil; raw = it.Next() {
		all = append(all, *raw.(*domain.User))
	}
	page, total := query.Execute(all, plan, UserRecord)
	return page, total, nil
}

func (r *memoryUsers) ListByCompanyName(_ context.Context, companyName string, limit int) ([]domain.User, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(usersTable, indexCompany, companyName)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0)
	for raw := it.Next(); raw != nil && len(users) < limit; raw = it.Next() {
		users = append(users, *raw.(*domain.User))
	}
	return users, nil
}

type memoryCompanies struct {
	db *memdb.MemDB
}

func (r *memoryCompanies) Create(_ context.Context, company *domain.Company) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(companiesTable, indexName, company.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicate
	}
	if company.ID == "" {
		company.ID = ids.New()
	}
	stored := *company
	if err := txn.Insert(companiesTable, &stored); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *memoryCompanies) Update(_ context.Context, company *domain.Company) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	current, err := txn.First(companiesTable, indexID, company.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	holder, err := txn.First(companiesTable, indexName, company.Name)
	if err != nil {
		return err
	}
	if holder != nil && holder.(*domain.Company).ID != company.ID {
		return ErrDuplicate
	}
	stored := *company
	if err := txn.Insert(companiesTable, &stored); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *memoryCompanies) Delete(_ context.Context, id string) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(companiesTable, indexID, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	if err := txn.Delete(companiesTable, raw); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (r *memoryCompanies) GetByID(_ context.Context, id string) (*domain.Company, error) {
	return r.first(indexID, id)
}

func (r *memoryCompanies) GetByName(_ context.Context, name string) (*domain.Company, error) {
	return r.first(indexName, name)
}

func (r *memoryCompanies) first(index, value string) (*domain.Company, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(companiesTable, index, value)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	company := *raw.(*domain.Company)
	return &company, nil
}

func (r *memoryCompanies) List(_ context.Context, plan query.Plan) ([]domain.Company, int, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(companiesTable, indexID)
	if err != nil {
		return nil, 0, err
	}
	var all []domain.Company
	for raw := it.Next(); raw != nil; raw = it.Next() {
		all = append(all, *raw.(*domain.Company))
	}
	page, total := query.Execute(all, plan, CompanyRecord)
	return page, total, nil
}
