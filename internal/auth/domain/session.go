package domain

import "time"

// Session is the server-side proof of a live login. The token itself is
// self-contained; the session row is what lets us revoke it before its
// embedded expiry. Multiple concurrent sessions per user are allowed.
type Session struct {
	ID        string
	UserID    string
	TokenHash string // sha256 fingerprint of the exact issued token
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Valid reports whether the session is still live at the given instant.
func (s Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
