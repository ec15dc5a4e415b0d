package codereview

import (
	"context"
	"errors"
	"time"
)

// Session is an authenticated identity issued by the external auth backend.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at,omitzero"`
}

// Expired reports whether the session has an expiry before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionAccessor reads the current session on demand. Current returns
// ErrNoSession when nobody is signed in and ErrSessionExpired when the stored
// session is no longer valid.
type SessionAccessor interface {
	Current(ctx context.Context) (*Session, error)
}

// IdentityFrom returns the identity to attribute requests to. Any failure to
// read a session degrades to AnonymousIdentity; the error is returned
// alongside so callers can log it, but it never blocks the request.
func IdentityFrom(ctx context.Context, accessor SessionAccessor) (string, error) {
	if accessor == nil {
		return AnonymousIdentity, nil
	}
	s, err := accessor.Current(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			err = nil
		}
		return AnonymousIdentity, err
	}
	if s == nil || s.UserID == "" {
		return AnonymousIdentity, nil
	}
	return s.UserID, nil
}

// RequireSession returns the current session for protected views. A missing
// or expired session means the user must sign in.
func RequireSession(ctx context.Context, accessor SessionAccessor) (*Session, error) {
	if accessor == nil {
		return nil, ErrNoSession
	}
	s, err := accessor.Current(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil || s.UserID == "" {
		return nil, ErrNoSession
	}
	return s, nil
}

// NeedsSignIn reports whether err means the user must sign in again.
func NeedsSignIn(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrSessionExpired)
}
