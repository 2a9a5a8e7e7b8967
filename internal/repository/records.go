package repository

import (
	"time"

	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/query"
)

type userRecord struct{ u domain.User }

// UserRecord exposes a user to the query plan.
func UserRecord(u domain.User) query.Record { return userRecord{u: u} }

func (r userRecord) Text(f query.Field) string {
	switch f {
	case query.FieldFirstName:
		return r.u.FirstName
	case query.FieldLastName:
		return r.u.LastName
	case query.FieldCompanyName:
		return r.u.CompanyName
	}
	return ""
}

func (r userRecord) Time(f query.Field) time.Time {
	switch f {
	case query.FieldDateJoined:
		return r.u.DateJoined
	case query.FieldUpdatedAt:
		return r.u.UpdatedAt
	}
	return time.Time{}
}

func (r userRecord) Key() string { return r.u.ID }

type companyRecord struct{ c domain.Company }

// CompanyRecord exposes a company to the query plan.
func CompanyRecord(c domain.Company) query.Record { return companyRecord{c: c} }

func (r companyRecord) Text(f query.Field) string {
	if f == query.FieldCompanyName {
		return r.c.Name
	}
	return ""
}

func (r companyRecord) Time(f query.Field) time.Time {
	switch f {
	case query.FieldDateCreated:
		return r.c.DateCreated
	case query.FieldLastUpdated:
		return r.c.LastUpdated
	}
	return time.Time{}
}

func (r companyRecord) Key() string { return r.c.ID }
