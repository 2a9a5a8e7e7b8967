package dto

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/directory-service/internal/domain"
)

func roleNames() []interface{} {
	roles := domain.AllRoles()
	names := make([]interface{}, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return names
}

// UserResponse is the outward view of an account. It never carries the
// password hash.
type UserResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	PhoneNumber   string    `json:"phoneNumber"`
	CompanyName   string    `json:"companyName"`
	UserType      string    `json:"userType"`
	AccountStatus string    `json:"accountStatus"`
	DateJoined    time.Time `json:"dateJoined"`
	LastLogin     time.Time `json:"lastLogin"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhoneNumber:   u.PhoneNumber,
		CompanyName:   u.CompanyName,
		UserType:      string(u.Role),
		AccountStatus: string(u.Status),
		DateJoined:    u.DateJoined,
		LastLogin:     u.LastLogin,
		UpdatedAt:     u.UpdatedAt,
	}
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}

// CreateUserRequest provisions an account for someone else.
type CreateUserRequest struct {
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	CompanyName string `json:"companyName"`
	UserType    string `json:"userType"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.PhoneNumber, validation.Length(0, 32)),
		validation.Field(&r.CompanyName, validation.Length(0, 200)),
		validation.Field(&r.UserType, validation.Required, validation.In(roleNames()...)),
	)
}

// CreateUserResponse returns the new account and the link its owner uses
// to set a password.
type CreateUserResponse struct {
	User      UserResponse `json:"user"`
	ResetLink string       `json:"resetLink"`
}

// UpdateUserRequest is a partial update; absent fields are left untouched.
type UpdateUserRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
	CompanyName *string `json:"companyName"`
	UserType    *string `json:"userType"`
}

func (r UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.PhoneNumber, validation.Length(0, 32)),
		validation.Field(&r.CompanyName, validation.Length(0, 200)),
		validation.Field(&r.UserType, validation.In(roleNames()...)),
	)
}

// ListMeta describes the window returned by a listing.
type ListMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	Count      int `json:"count"`
}

// ListResponse wraps one page of a listing.
type ListResponse[T any] struct {
	Meta ListMeta `json:"meta"`
	Data []T      `json:"data"`
}
