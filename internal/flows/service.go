package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccounts/permission"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/google/uuid"
)

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	deps.normalize()
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired.
func (s Service) Initialized() bool {
	return s.deps.Users != nil && s.deps.Accounts != nil && s.deps.Hasher != nil && s.deps.Policy != nil
}

// CurrentUser loads the account behind the request session. A session whose
// account disappeared or was deactivated is terminated.
func (s Service) CurrentUser(ctx context.Context, sessions Sessions) (*user.User, error) {
	rawID, err := sessions.GetAuthenticatedUserID(ctx)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		s.deps.Logger.Warn().Str("user_id", rawID).Msg("session bound to malformed user id")
		sessions.TerminateCurrentSession(ctx)
		return nil, session.ErrNotAuthenticated
	}

	u, err := s.deps.Users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			sessions.TerminateCurrentSession(ctx)
			return nil, session.ErrNotAuthenticated
		}
		return nil, dataAccess(err)
	}
	if !u.IsActive {
		sessions.TerminateCurrentSession(ctx)
		return nil, ErrAccountInactive
	}
	return u, nil
}

// authorize resolves the caller and checks perm against the role policy.
func (s Service) authorize(ctx context.Context, sessions Sessions, perm string) (*user.User, error) {
	u, err := s.CurrentUser(ctx, sessions)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Policy.Authorize(u.Role, perm); err != nil {
		s.denied(ctx, u, perm)
		return nil, err
	}
	return u, nil
}

// authorizeRole is authorize plus the rank check against target.
func (s Service) authorizeRole(ctx context.Context, sessions Sessions, perm string, target permission.Role) (*user.User, error) {
	u, err := s.authorize(ctx, sessions, perm)
	if err != nil {
		return nil, err
	}
	if !permission.CanManageRole(u.Role, target) {
		s.denied(ctx, u, perm)
		return nil, permission.ErrForbidden
	}
	return u, nil
}

func (s Service) denied(ctx context.Context, actor *user.User, perm string) {
	s.deps.Record(ctx, Event{
		Type:     EventAccessDenied,
		ActorID:  actor.ID.String(),
		Err:      permission.ErrForbidden,
		Metadata: map[string]string{"permission": perm, "role": actor.Role.String()},
	})
}

// target loads the account addressed by rawID.
func (s Service) target(ctx context.Context, rawID string) (*user.User, error) {
	if err := user.ValidateID(rawID); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	u, err := s.deps.Users.ByID(ctx, id)
	if err != nil {
		return nil, dataAccess(err)
	}
	return u, nil
}

// revokeAll terminates every session of userID and reports the outcome.
func (s Service) revokeAll(ctx context.Context, sessions Sessions, actorID, userID string) error {
	err := sessions.TerminateAllSessionsForUser(ctx, userID)
	s.deps.Record(ctx, Event{
		Type:     EventSessionsRevoked,
		Success:  err == nil,
		ActorID:  actorID,
		TargetID: userID,
		Err:      err,
	})
	if err != nil {
		s.deps.Logger.Error().Err(err).Str("user_id", userID).Msg("revoking sessions failed")
		return dataAccess(err)
	}
	return nil
}
