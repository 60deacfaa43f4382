package session

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by [Store] reads and updates for unknown ids.
	ErrNotFound = errors.New("session not found")
	// ErrIDConflict is returned when Add targets an id that already exists.
	ErrIDConflict = errors.New("session id already exists")
	// ErrStorage wraps backend failures.
	ErrStorage = errors.New("session storage unavailable")
)

// Store persists sessions. Mutations may be deferred until [Committer.Commit].
type Store interface {
	Add(ctx context.Context, sess *Session) error
	ReadByID(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

// Committer flushes pending [Store] mutations.
type Committer interface {
	Commit(ctx context.Context) error
}

// Transport moves the session credential between client and server.
//
// ExtractID returns false when no valid credential accompanies the request.
// RemoveCurrent instructs the client to drop its credential.
type Transport interface {
	ExtractID() (string, bool)
	Deliver(sess *Session) error
	RemoveCurrent()
}
