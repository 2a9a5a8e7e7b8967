package domain

import "time"

// Session describes an issued bearer token. Sessions are never persisted.
type Session struct {
	Token     string
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
