package domain

import "time"

// MaxTokenAllotment is the exclusive upper bound for Company.TokenAllotment.
const MaxTokenAllotment = 10_000_000

// Company is a tenant. AdminID refers to an existing User.
type Company struct {
	ID             string
	Name           string
	AdminID        string
	TokenUsage     int64
	TokenAllotment int64
	IsActive       bool
	DateCreated    time.Time
	LastUpdated    time.Time
}
