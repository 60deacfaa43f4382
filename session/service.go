package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrNotAuthenticated collapses every reason a request carries no valid session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrAuthUnavailable is returned when a session cannot be issued.
	ErrAuthUnavailable = errors.New("authentication is currently unavailable")
)

// Deps groups the collaborators of a [Service].
type Deps struct {
	Store     Store
	Committer Committer
	Transport Transport
	Timer     Timer
	IDs       IDGenerator
	Hooks     Hooks
	Logger    zerolog.Logger
}

// Hooks receives lifecycle notifications after the store commit succeeded.
// Nil fields are skipped.
type Hooks struct {
	Issued  func(*Session)
	Renewed func(*Session)
	Ended   func(sessionID string)
}

// Service runs the session lifecycle for a single request. It caches the
// validated session, so a new Service is required per request.
type Service struct {
	store     Store
	committer Committer
	transport Transport
	timer     Timer
	ids       IDGenerator
	hooks     Hooks
	log       zerolog.Logger

	mu     sync.Mutex
	cached *Session
}

// NewService returns a request-scoped service. IDs defaults to
// [RandomIDGenerator].
func NewService(d Deps) *Service {
	ids := d.IDs
	if ids == nil {
		ids = RandomIDGenerator{}
	}
	return &Service{
		store:     d.Store,
		committer: d.Committer,
		transport: d.Transport,
		timer:     d.Timer,
		ids:       ids,
		hooks:     d.Hooks,
		log:       d.Logger.With().Str("component", "session").Logger(),
	}
}

// IssueSession creates and persists a session for userID, then hands the
// credential to the transport. Nothing is delivered unless the commit succeeded.
func (s *Service) IssueSession(ctx context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug().Str("user_id", userID).Msg("issue session: started")

	id, err := s.ids.Generate()
	if err != nil {
		s.log.Error().Err(err).Msg("issue session: id generation failed")
		return nil, ErrAuthUnavailable
	}

	now := s.timer.CurrentTime()
	sess := &Session{
		ID:         id,
		UserID:     userID,
		CreatedAt:  now,
		Expiration: s.timer.Expiration(),
	}

	if err := s.store.Add(ctx, sess); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("issue session: add failed")
		return nil, ErrAuthUnavailable
	}
	if err := s.committer.Commit(ctx); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("issue session: commit failed")
		return nil, ErrAuthUnavailable
	}

	if err := s.transport.Deliver(sess); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("issue session: delivery failed")
		s.discard(ctx, sess.ID)
		return nil, ErrAuthUnavailable
	}

	s.cached = sess
	if s.hooks.Issued != nil {
		s.hooks.Issued(sess.clone())
	}
	s.log.Debug().Str("user_id", userID).Str("session_id", sess.ID).Msg("issue session: done")
	return sess.clone(), nil
}

// discard removes a session whose credential never reached the client. Failure
// leaves it to expire with its TTL.
func (s *Service) discard(ctx context.Context, sessionID string) {
	err := s.store.Delete(ctx, sessionID)
	if err == nil {
		err = s.committer.Commit(ctx)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("issue session: undelivered session left to expire")
	}
}

// GetAuthenticatedUserID resolves the request's session and returns its owner.
// The store is consulted at most once per request. A session inside the refresh
// window is extended on a best-effort basis.
func (s *Service) GetAuthenticatedUserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached.UserID, nil
	}

	sess, err := s.currentSession(ctx)
	if err != nil {
		return "", err
	}

	sess, err = s.validateAndExtend(ctx, sess)
	if err != nil {
		return "", err
	}

	s.cached = sess
	return sess.UserID, nil
}

// Current returns a copy of the cached session, if any.
func (s *Service) Current() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		return nil, false
	}
	return s.cached.clone(), true
}

func (s *Service) currentSession(ctx context.Context) (*Session, error) {
	id, ok := s.transport.ExtractID()
	if !ok {
		s.log.Debug().Msg("session credential not found")
		return nil, ErrNotAuthenticated
	}

	sess, err := s.store.ReadByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Debug().Str("session_id", id).Msg("session not found")
		} else {
			s.log.Error().Err(err).Str("session_id", id).Msg("session extraction failed")
		}
		return nil, ErrNotAuthenticated
	}
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	return sess, nil
}

func (s *Service) validateAndExtend(ctx context.Context, sess *Session) (*Session, error) {
	now := s.timer.CurrentTime()
	if sess.Expired(now) {
		s.log.Debug().Str("session_id", sess.ID).Msg("session expired")
		return nil, ErrNotAuthenticated
	}

	if sess.Remaining(now) > s.timer.RefreshTriggerInterval() {
		return sess, nil
	}

	original := sess.Expiration
	sess.Expiration = s.timer.Expiration()

	err := s.store.Update(ctx, sess)
	if err == nil {
		err = s.committer.Commit(ctx)
	}
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("session extension failed")
		sess.Expiration = original
		return sess, nil
	}

	if err := s.transport.Deliver(sess); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("renewed session delivery failed")
	}
	if s.hooks.Renewed != nil {
		s.hooks.Renewed(sess.clone())
	}

	s.log.Debug().
		Str("session_id", sess.ID).
		Time("expiration", sess.Expiration).
		Msg("session extended")
	return sess, nil
}

// TerminateCurrentSession logs the request's session out. The client credential
// is removed before the store delete, and storage failures are only logged.
func (s *Service) TerminateCurrentSession(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.cached = nil }()

	var id string
	if s.cached != nil {
		id = s.cached.ID
	} else {
		extracted, ok := s.transport.ExtractID()
		if !ok {
			s.log.Warn().Msg("terminate session: no session credential, nothing to delete")
			return
		}
		id = extracted
	}

	s.transport.RemoveCurrent()

	err := s.store.Delete(ctx, id)
	if err == nil {
		err = s.committer.Commit(ctx)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("terminate session: transport cleared, storage delete failed")
		return
	}

	if s.hooks.Ended != nil {
		s.hooks.Ended(id)
	}
	s.log.Debug().Str("session_id", id).Msg("terminate session: done")
}

// TerminateAllSessionsForUser revokes every session of userID. Storage errors
// are returned to the caller. If the request itself is authenticated as userID,
// its credential and cache are cleared too.
func (s *Service) TerminateAllSessionsForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}
	if err := s.committer.Commit(ctx); err != nil {
		return err
	}

	if s.cached != nil && s.cached.UserID == userID {
		s.transport.RemoveCurrent()
		s.cached = nil
	}

	s.log.Debug().Str("user_id", userID).Msg("terminate all sessions: done")
	return nil
}
