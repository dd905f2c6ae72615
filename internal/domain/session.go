package domain

import "time"

// Session is the verified identity of a caller. It is produced by the token
// verifier at the API boundary and passed explicitly into every core call.
type Session struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// Valid reports whether the session names a user and has not expired at now.
// A zero ExpiresAt means the session does not expire.
func (s Session) Valid(now time.Time) bool {
	if s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
