package entity

import "time"

// Session is a persisted login. ID is the opaque token handed to the client.
type Session struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// ExpiredAt reports whether the session is no longer valid at now.
// Expiry is inclusive: a session whose expiry equals now is expired.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
