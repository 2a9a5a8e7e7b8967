package domain

import "time"

// AccountStatus represents lifecycle states for an identity.
type AccountStatus string

const (
	AccountStatusPending     AccountStatus = "PENDING"
	AccountStatusActive      AccountStatus = "ACTIVE"
	AccountStatusDeactivated AccountStatus = "DEACTIVATED"
)

// User is the identity record of the directory.
// CompanyName links the user to a tenant by name, not by id.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  string
	CompanyName  string
	Role         Role
	Status       AccountStatus
	DateJoined   time.Time
	LastLogin    time.Time
	UpdatedAt    time.Time
}
