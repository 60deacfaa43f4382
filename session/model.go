package session

import "time"

// Session is the server-side record behind an authenticated client.
//
// The transport credential only carries ID; every other field is read back from the
// [Store] and is authoritative.
type Session struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	Expiration time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.Expiration.After(now)
}

// Remaining returns the lifetime left at now. It is negative for expired sessions.
func (s *Session) Remaining(now time.Time) time.Duration {
	return s.Expiration.Sub(now)
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
