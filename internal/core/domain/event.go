package domain

import "time"

// AuthEventKind names an auditable step of the account lifecycle.
type AuthEventKind string

const (
	EventRegistered     AuthEventKind = "registered"
	EventLoginSucceeded AuthEventKind = "login_succeeded"
	EventLoginFailed    AuthEventKind = "login_failed"
	EventLogout         AuthEventKind = "logout"
	EventUserDeleted    AuthEventKind = "user_deleted"
)

// AuthEvent is one audit record. UserID is zero when the account is unknown,
// as with a failed login for an unregistered email.
type AuthEvent struct {
	ID         int64         `json:"id"`
	Kind       AuthEventKind `json:"kind"`
	UserID     int64         `json:"user_id,omitempty"`
	Email      string        `json:"email"`
	ActorID    int64         `json:"actor_id,omitempty"`
	RemoteIP   string        `json:"remote_ip,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
