package events

import (
	"time"

	"github.com/afiatamanna06/csedu-web-sub001/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionEstablished EventType = "session_established"
	EventSessionCleared     EventType = "session_cleared"
	EventSessionDiscarded   EventType = "session_discarded"
	EventAuthFailed         EventType = "auth_failed"
	EventManagedUserAdded   EventType = "managed_user_added"
)

// Event represents a session lifecycle change.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Identity  domain.Identity `json:"identity"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   interface{}     `json:"payload,omitempty"`
}

// DiscardedPayload explains why a persisted token was dropped.
type DiscardedPayload struct {
	Reason string `json:"reason"`
}

// AuthFailedPayload describes a rejected login, signup or add-user call.
type AuthFailedPayload struct {
	Operation string `json:"operation"`
	Code      string `json:"code"`
	Email     string `json:"email,omitempty"`
}

// ManagedUserAddedPayload describes an account created by an admin.
type ManagedUserAddedPayload struct {
	Kind  domain.ManagedUserKind `json:"kind"`
	Email string                 `json:"email"`
}
