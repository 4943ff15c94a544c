package reservation

import "fmt"

// SessionError is a typed error surfaced by session operations.
type SessionError struct {
	Code    string
	Message string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	// ErrNoActiveSession means a slice update was attempted with no base
	// reservation and recovery could not manufacture one.
	ErrNoActiveSession = &SessionError{
		Code:    "noActiveSession",
		Message: "no active reservation session, please restart the booking flow",
	}

	// ErrSessionExpired means a write was attempted after the TTL elapsed.
	// The session is purged and the expiration listeners fire.
	ErrSessionExpired = &SessionError{
		Code:    "sessionExpired",
		Message: "reservation session has expired",
	}
)

// ValidationError carries a field-level failure from a strict write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
