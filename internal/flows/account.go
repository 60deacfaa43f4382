package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccounts/internal/rate"
	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/permission"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/google/uuid"
)

// ensureAnonymous rejects requests that already carry a valid session.
func (s Service) ensureAnonymous(ctx context.Context, sessions Sessions) error {
	if _, err := sessions.GetAuthenticatedUserID(ctx); err == nil {
		return ErrAlreadyAuthenticated
	}
	return nil
}

// SignUp registers a regular user. It does not log the new user in.
func (s Service) SignUp(ctx context.Context, sessions Sessions, username, rawPassword string) (uuid.UUID, error) {
	log := s.deps.Logger.With().Str("flow", "sign_up").Logger()
	log.Info().Str("username", username).Msg("sign up: started")

	if err := s.ensureAnonymous(ctx, sessions); err != nil {
		return uuid.Nil, err
	}

	u, err := s.deps.Accounts.Create(ctx, username, rawPassword, permission.RoleUser)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.deps.Users.Create(ctx, u); err != nil {
		s.deps.Record(ctx, Event{Type: EventSignUp, Err: err, Metadata: map[string]string{"username": username}})
		return uuid.Nil, dataAccess(err)
	}

	s.deps.Record(ctx, Event{Type: EventSignUp, Success: true, TargetID: u.ID.String()})
	log.Info().Str("user_id", u.ID.String()).Msg("sign up: done")
	return u.ID, nil
}

// LogIn verifies credentials and issues a session. Unknown usernames and wrong
// passwords are indistinguishable to the caller.
func (s Service) LogIn(ctx context.Context, sessions Sessions, username, rawPassword string) error {
	log := s.deps.Logger.With().Str("flow", "log_in").Logger()
	log.Info().Str("username", username).Msg("log in: started")

	if err := s.ensureAnonymous(ctx, sessions); err != nil {
		return err
	}
	if err := user.ValidateUsername(username); err != nil {
		return err
	}
	if err := user.ValidatePassword(rawPassword); err != nil {
		return err
	}

	ip := s.deps.ClientIP(ctx)
	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.CheckLogin(ctx, username, ip); err != nil {
			return s.limiterError(ctx, username, err)
		}
	}

	u, err := s.deps.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return s.loginFailed(ctx, username, ip, "", "unknown_username")
		}
		return dataAccess(err)
	}

	ok, err := s.deps.Accounts.IsPasswordValid(ctx, u, rawPassword)
	if err != nil {
		if errors.Is(err, password.ErrBusy) || errors.Is(err, password.ErrClosed) || ctx.Err() != nil {
			return err
		}
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("stored password hash is unusable")
		return s.loginFailed(ctx, username, ip, u.ID.String(), "unusable_hash")
	}
	if !ok {
		return s.loginFailed(ctx, username, ip, u.ID.String(), "wrong_password")
	}
	if !u.IsActive {
		s.deps.Record(ctx, Event{Type: EventLoginFailure, TargetID: u.ID.String(), Err: ErrAccountInactive})
		return ErrAccountInactive
	}

	if s.deps.Options.UpgradeOnLogin && s.deps.Hasher.NeedsUpgrade(u.PasswordHash) {
		s.upgradeHash(ctx, u, rawPassword)
	}
	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.ResetLogin(ctx, username, ip); err != nil {
			log.Warn().Err(err).Msg("resetting login attempts failed")
		}
	}

	sess, err := sessions.IssueSession(ctx, u.ID.String())
	if err != nil {
		s.deps.Record(ctx, Event{Type: EventLoginFailure, TargetID: u.ID.String(), Err: err})
		return err
	}

	s.deps.Record(ctx, Event{Type: EventLoginSuccess, Success: true, ActorID: u.ID.String()})
	log.Info().Str("user_id", u.ID.String()).Str("session_id", sess.ID).Msg("log in: done")
	return nil
}

func (s Service) loginFailed(ctx context.Context, username, ip, userID, reason string) error {
	s.deps.Record(ctx, Event{
		Type:     EventLoginFailure,
		TargetID: userID,
		Err:      ErrInvalidCredentials,
		Metadata: map[string]string{"username": username, "reason": reason},
	})
	if s.deps.Limiter != nil {
		if err := s.deps.Limiter.IncrementLogin(ctx, username, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				return s.limiterError(ctx, username, err)
			}
			s.deps.Logger.Warn().Err(err).Str("username", username).Msg("recording failed login failed")
		}
	}
	return ErrInvalidCredentials
}

func (s Service) limiterError(ctx context.Context, username string, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		s.deps.Record(ctx, Event{
			Type:     EventLoginRateLimited,
			Err:      ErrLoginRateLimited,
			Metadata: map[string]string{"username": username},
		})
		return ErrLoginRateLimited
	}
	return dataAccess(err)
}

// upgradeHash rehashes with the current algorithm. Failures are logged only.
func (s Service) upgradeHash(ctx context.Context, u *user.User, rawPassword string) {
	if err := s.deps.Accounts.ChangePassword(ctx, u, rawPassword); err != nil {
		s.deps.Logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("password upgrade skipped")
		return
	}
	if err := s.deps.Users.Update(ctx, u); err != nil {
		s.deps.Logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("password upgrade not persisted")
		return
	}
	s.deps.Record(ctx, Event{Type: EventPasswordUpgraded, Success: true, ActorID: u.ID.String()})
}

// LogOut ends the current session. Only an unauthenticated request fails.
func (s Service) LogOut(ctx context.Context, sessions Sessions) error {
	userID, err := sessions.GetAuthenticatedUserID(ctx)
	if err != nil {
		return err
	}
	sessions.TerminateCurrentSession(ctx)
	s.deps.Record(ctx, Event{Type: EventLogout, Success: true, ActorID: userID})
	s.deps.Logger.Info().Str("user_id", userID).Msg("log out: done")
	return nil
}

// ChangePassword replaces the caller's password after re-verifying the
// current one.
func (s Service) ChangePassword(ctx context.Context, sessions Sessions, current, next string) error {
	log := s.deps.Logger.With().Str("flow", "change_password").Logger()
	log.Info().Msg("change password: started")

	u, err := s.authorize(ctx, sessions, permission.PermAccountPassword)
	if err != nil {
		return err
	}
	actorID := u.ID.String()

	if err := user.ValidatePassword(current); err != nil {
		return err
	}
	if err := user.ValidatePassword(next); err != nil {
		return err
	}
	if current == next {
		return ErrPasswordUnchanged
	}

	ok, err := s.deps.Accounts.IsPasswordValid(ctx, u, current)
	if err != nil {
		return err
	}
	if !ok {
		s.deps.Record(ctx, Event{Type: EventPasswordChangeFailed, ActorID: actorID, Err: ErrReauthenticationFailed})
		return ErrReauthenticationFailed
	}

	if err := s.deps.Accounts.ChangePassword(ctx, u, next); err != nil {
		return err
	}
	if err := s.deps.Users.Update(ctx, u); err != nil {
		return dataAccess(err)
	}
	s.deps.Record(ctx, Event{Type: EventPasswordChange, Success: true, ActorID: actorID})

	if s.deps.Options.RevokeOnPasswordChange {
		if err := s.revokeAll(ctx, sessions, actorID, actorID); err != nil {
			return err
		}
		if s.deps.Options.ReissueOnPasswordChange {
			if _, err := sessions.IssueSession(ctx, actorID); err != nil {
				return err
			}
		}
	}

	log.Info().Str("user_id", actorID).Msg("change password: done")
	return nil
}

// Me returns the caller's own account.
func (s Service) Me(ctx context.Context, sessions Sessions) (*user.User, error) {
	return s.authorize(ctx, sessions, permission.PermAccountRead)
}
