package session

import "time"

// Session is the local presence flag for an unlocked workspace. The token is
// never transmitted; it only distinguishes one session generation from the
// next.
type Session struct {
	Token     string
	CreatedAt time.Time
	// ExpiresAt is zero for sessions that never expire.
	ExpiresAt time.Time
}

// Expiring reports whether the session carries an expiry.
func (s *Session) Expiring() bool {
	return !s.ExpiresAt.IsZero()
}

// ValidAt reports whether the session is still usable at now.
func (s *Session) ValidAt(now time.Time) bool {
	return s.ExpiresAt.IsZero() || s.ExpiresAt.After(now)
}
