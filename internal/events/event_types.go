package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded  EventType = "login_succeeded"
	EventLoginFailed     EventType = "login_failed"
	EventTokenRefreshed  EventType = "token_refreshed"
	EventUserCreated     EventType = "user_created"
	EventUserUpdated     EventType = "user_updated"
	EventUserDeactivated EventType = "user_deactivated"
)

// AllEventTypes lists every type in a stable order.
func AllEventTypes() []EventType {
	return []EventType{
		EventLoginSucceeded,
		EventLoginFailed,
		EventTokenRefreshed,
		EventUserCreated,
		EventUserUpdated,
		EventUserDeactivated,
	}
}

// Event represents an audit event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current UTC time.
func NewEvent(eventType EventType, subject, actor string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// LoginPayload describes a login attempt. Reason is the error code on failure.
type LoginPayload struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// TokenRefreshedPayload notes whether the refresh token was rotated.
type TokenRefreshedPayload struct {
	Rotated bool `json:"rotated"`
}

// UserChangedPayload describes a user lifecycle change.
type UserChangedPayload struct {
	UserID string            `json:"user_id"`
	Role   domain.Role       `json:"role"`
	Status domain.UserStatus `json:"status"`
	Fields []string          `json:"fields,omitempty"`
}
