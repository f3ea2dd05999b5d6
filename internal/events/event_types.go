package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported audit event identifiers.
type EventType string

const (
	EventTokenIssued    EventType = "token_issued"
	EventTokenRefreshed EventType = "token_refreshed"
	EventLoggedOut      EventType = "logged_out"
	EventAuthDenied     EventType = "auth_denied"
)

// Event represents an audit event emitted by the auth pipeline.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Subject   string      `json:"subject,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// AuthDeniedPayload records a denied request.
type AuthDeniedPayload struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Code   string `json:"code"`
}

// TokenRefreshedPayload records a completed refresh rotation.
type TokenRefreshedPayload struct {
	OldTokenID string `json:"old_token_id"`
	NewTokenID string `json:"new_token_id"`
}

// LoggedOutPayload records which entries were dropped on logout.
type LoggedOutPayload struct {
	AccessTokenID  string `json:"access_token_id"`
	RefreshTokenID string `json:"refresh_token_id,omitempty"`
}

func newEvent(eventType EventType, subject string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// NewAuthDenied builds an auth_denied event.
func NewAuthDenied(subject, method, path, code string) Event {
	return newEvent(EventAuthDenied, subject, AuthDeniedPayload{Method: method, Path: path, Code: code})
}

// NewTokenIssued builds a token_issued event.
func NewTokenIssued(subject string) Event {
	return newEvent(EventTokenIssued, subject, nil)
}

// NewTokenRefreshed builds a token_refreshed event.
func NewTokenRefreshed(subject, oldTokenID, newTokenID string) Event {
	return newEvent(EventTokenRefreshed, subject, TokenRefreshedPayload{OldTokenID: oldTokenID, NewTokenID: newTokenID})
}

// NewLoggedOut builds a logged_out event.
func NewLoggedOut(subject, accessTokenID, refreshTokenID string) Event {
	return newEvent(EventLoggedOut, subject, LoggedOutPayload{AccessTokenID: accessTokenID, RefreshTokenID: refreshTokenID})
}
