package transport

import "time"

// Codec signs and verifies the credential that names a session.
// *jwt.Manager satisfies it.
type Codec interface {
	Issue(sessionID string, expiresAt time.Time) (string, error)
	ParseSessionID(token string) (string, error)
}
