package events

import (
	"time"

	"github.com/spec-kit/directory-service/internal/domain"
	"github.com/spec-kit/directory-service/internal/ids"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventUserCreated            EventType = "user_created"
	EventUserDeactivated        EventType = "user_deactivated"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
	EventCompanyCreated         EventType = "company_created"
	EventCompanyUpdated         EventType = "company_updated"
	EventCompanyDeleted         EventType = "company_deleted"
	EventCompanyStatusChanged   EventType = "company_status_changed"
)

// Event represents a domain event emitted by services. SubjectID is the user
// or company the event is about; ActorID is empty for anonymous flows.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(eventType EventType, subjectID, actorID string, at time.Time, payload interface{}) Event {
	return Event{
		ID:        ids.New(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: at,
		Payload:   payload,
	}
}

// UserPayload describes a registered, created or deactivated account.
type UserPayload struct {
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	CompanyName string      `json:"company_name,omitempty"`
}

// PasswordResetPayload carries the link a notifier delivers to the account
// owner. ResetLink embeds a bearer credential and is excluded from JSON.
type PasswordResetPayload struct {
	Email     string    `json:"email"`
	ResetLink string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CompanyPayload describes a company change.
type CompanyPayload struct {
	Name     string `json:"name"`
	AdminID  string `json:"admin_id,omitempty"`
	IsActive bool   `json:"is_active"`
}
