package flows

import (
	"context"

	"github.com/MrEthical07/goAccounts/permission"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/google/uuid"
)

// CreateUser creates an account with the given role on behalf of the caller.
func (s Service) CreateUser(ctx context.Context, sessions Sessions, username, rawPassword, rawRole string) (uuid.UUID, error) {
	log := s.deps.Logger.With().Str("flow", "create_user").Logger()
	log.Info().Str("username", username).Str("role", rawRole).Msg("create user: started")

	actor, err := s.authorize(ctx, sessions, permission.PermUsersCreate)
	if err != nil {
		return uuid.Nil, err
	}
	role, err := user.ValidateRole(rawRole)
	if err != nil {
		return uuid.Nil, err
	}
	if !role.IsAssignable() {
		return uuid.Nil, user.ErrRoleAssignmentNotPermitted
	}
	if !permission.CanManageRole(actor.Role, role) {
		s.denied(ctx, actor, permission.PermUsersCreate)
		return uuid.Nil, permission.ErrForbidden
	}

	u, err := s.deps.Accounts.Create(ctx, username, rawPassword, role)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.deps.Users.Create(ctx, u); err != nil {
		return uuid.Nil, dataAccess(err)
	}

	s.deps.Record(ctx, Event{
		Type:     EventUserCreated,
		Success:  true,
		ActorID:  actor.ID.String(),
		TargetID: u.ID.String(),
		Metadata: map[string]string{"role": role.String()},
	})
	log.Info().Str("user_id", u.ID.String()).Msg("create user: done")
	return u.ID, nil
}

// ListUsers returns one page of accounts and the total count.
func (s Service) ListUsers(ctx context.Context, sessions Sessions, params user.ListParams) ([]*user.User, int, error) {
	if _, err := s.authorizeRole(ctx, sessions, permission.PermUsersList, permission.RoleUser); err != nil {
		return nil, 0, err
	}

	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, 0, err
	}

	users, total, err := s.deps.Users.List(ctx, params)
	if err != nil {
		return nil, 0, dataAccess(err)
	}
	return users, total, nil
}

// subordinate resolves the caller and a target account the caller outranks.
func (s Service) subordinate(ctx context.Context, sessions Sessions, perm, rawID string) (*user.User, *user.User, error) {
	actor, err := s.authorizeRole(ctx, sessions, perm, permission.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.target(ctx, rawID)
	if err != nil {
		return nil, nil, err
	}
	if !permission.CanManageSubordinate(actor.Role, target.Role) {
		s.denied(ctx, actor, perm)
		return nil, nil, permission.ErrForbidden
	}
	return actor, target, nil
}

// SetUserPassword replaces a subordinate's password and revokes their sessions.
func (s Service) SetUserPassword(ctx context.Context, sessions Sessions, rawID, rawPassword string) error {
	actor, target, err := s.subordinate(ctx, sessions, permission.PermUsersSetPassword, rawID)
	if err != nil {
		return err
	}

	if err := s.deps.Accounts.ChangePassword(ctx, target, rawPassword); err != nil {
		return err
	}
	if err := s.deps.Users.Update(ctx, target); err != nil {
		return dataAccess(err)
	}
	s.deps.Record(ctx, Event{
		Type:     EventUserPasswordSet,
		Success:  true,
		ActorID:  actor.ID.String(),
		TargetID: target.ID.String(),
	})

	return s.revokeAll(ctx, sessions, actor.ID.String(), target.ID.String())
}

// SetAdmin grants or revokes the admin role. The super admin role never changes.
func (s Service) SetAdmin(ctx context.Context, sessions Sessions, rawID string, admin bool) error {
	actor, err := s.authorizeRole(ctx, sessions, permission.PermUsersRoles, permission.RoleAdmin)
	if err != nil {
		return err
	}
	target, err := s.target(ctx, rawID)
	if err != nil {
		return err
	}

	changed, err := s.deps.Accounts.ToggleAdminRole(target, admin)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.deps.Users.Update(ctx, target); err != nil {
		return dataAccess(err)
	}

	event := EventAdminRevoked
	if admin {
		event = EventAdminGranted
	}
	s.deps.Record(ctx, Event{Type: event, Success: true, ActorID: actor.ID.String(), TargetID: target.ID.String()})
	s.deps.Logger.Info().Str("user_id", target.ID.String()).Bool("admin", admin).Msg("admin role changed")
	return nil
}

// SetActive activates or deactivates a subordinate. Deactivation revokes all
// of the target's sessions, also when the account was already inactive.
func (s Service) SetActive(ctx context.Context, sessions Sessions, rawID string, active bool) error {
	actor, target, err := s.subordinate(ctx, sessions, permission.PermUsersActivation, rawID)
	if err != nil {
		return err
	}

	changed, err := s.deps.Accounts.ToggleActivation(target, active)
	if err != nil {
		return err
	}
	if changed {
		if err := s.deps.Users.Update(ctx, target); err != nil {
			return dataAccess(err)
		}
		event := EventUserDeactivated
		if active {
			event = EventUserActivated
		}
		s.deps.Record(ctx, Event{Type: event, Success: true, ActorID: actor.ID.String(), TargetID: target.ID.String()})
	}

	if active {
		return nil
	}
	return s.revokeAll(ctx, sessions, actor.ID.String(), target.ID.String())
}
