package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/service"
)

// CreateCompanyRequest registers a tenant. Email names an existing user who
// becomes the company admin.
type CreateCompanyRequest struct {
	CompanyName    string `json:"companyName"`
	Email          string `json:"email"`
	TokenUsage     int64  `json:"tokenUsage"`
	TokenAllotment int64  `json:"tokenAllotment"`
	IsActive       *bool  `json:"isActive"`
}

func (r CreateCompanyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CompanyName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// UpdateCompanyRequest is a partial update; absent fields are left untouched.
type UpdateCompanyRequest struct {
	CompanyName    *string `json:"companyName"`
	AdminID        *string `json:"adminId"`
	TokenUsage     *int64  `json:"tokenUsage"`
	TokenAllotment *int64  `json:"tokenAllotment"`
	IsActive       *bool   `json:"isActive"`
}

func (r UpdateCompanyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CompanyName, validation.Length(1, 200)),
	)
}

// CompanyResponse is a company joined with its admin's contact fields.
type CompanyResponse struct {
	CompanyID      string         `json:"companyId"`
	CompanyName    string         `json:"companyName"`
	TokenUsage     int64          `json:"tokenUsage"`
	TokenAllotment int64          `json:"tokenAllotment"`
	IsActive       bool           `json:"isActive"`
	AdminID        string         `json:"adminId"`
	Email          string         `json:"email,omitempty"`
	FirstName      string         `json:"firstName,omitempty"`
	LastName       string         `json:"lastName,omitempty"`
	DateCreated    time.Time      `json:"dateCreated"`
	LastUpdated    time.Time      `json:"lastUpdated"`
	Users          []UserResponse `json:"users,omitempty"`
}

// NewCompanyResponse maps a company without enrichment.
func NewCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		CompanyID:      c.ID,
		CompanyName:    c.Name,
		TokenUsage:     c.TokenUsage,
		TokenAllotment: c.TokenAllotment,
		IsActive:       c.IsActive,
		AdminID:        c.AdminID,
		DateCreated:    c.DateCreated,
		LastUpdated:    c.LastUpdated,
	}
}

// NewCompanyViewResponse maps an enriched company.
func NewCompanyViewResponse(v service.CompanyView) CompanyResponse {
	resp := NewCompanyResponse(&v.Company)
	if v.Admin != nil {
		resp.Email = v.Admin.Email
		resp.FirstName = v.Admin.FirstName
		resp.LastName = v.Admin.LastName
	}
	if v.Users != nil {
		resp.Users = NewUserResponses(v.Users)
	}
	return resp
}
