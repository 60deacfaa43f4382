package goAccounts

import (
	"context"
	"time"

	"github.com/MrEthical07/goAccounts/session"
	"github.com/google/uuid"
)

// Request runs account operations for one HTTP request. It owns the
// request's session cache, so the store is read at most once no matter how
// many operations run. A Request is not reusable across requests.
type Request struct {
	engine   *Engine
	sessions *session.Service
}

func (r *Request) ready() error {
	if r == nil || r.engine == nil || r.sessions == nil || !r.engine.flows.Initialized() {
		return ErrEngineNotReady
	}
	return nil
}

// Sessions exposes the underlying session lifecycle.
func (r *Request) Sessions() *session.Service {
	return r.sessions
}

// UserID returns the authenticated user id, renewing the session when it is
// inside the refresh window.
func (r *Request) UserID(ctx context.Context) (string, error) {
	if err := r.ready(); err != nil {
		return "", err
	}
	return r.sessions.GetAuthenticatedUserID(ctx)
}

// SignUp registers a regular user without logging them in.
func (r *Request) SignUp(ctx context.Context, username, password string) (id uuid.UUID, err error) {
	if err := r.ready(); err != nil {
		return uuid.Nil, err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.SignUp(ctx, r.sessions, username, password)
}

// LogIn verifies credentials and issues a session through the transport.
func (r *Request) LogIn(ctx context.Context, username, password string) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.LogIn(ctx, r.sessions, username, password)
}

// LogOut ends the current session. It fails only when the request is not
// authenticated.
func (r *Request) LogOut(ctx context.Context) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.LogOut(ctx, r.sessions)
}

// ChangePassword replaces the caller's password after checking current.
// Depending on the account config, every session of the caller is then revoked
// and a fresh one issued for this request.
func (r *Request) ChangePassword(ctx context.Context, current, next string) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.ChangePassword(ctx, r.sessions, current, next)
}

// CurrentUser returns the authenticated user's record.
func (r *Request) CurrentUser(ctx context.Context) (u *User, err error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.Me(ctx, r.sessions)
}

// CreateUser creates an account with role on behalf of the caller.
func (r *Request) CreateUser(ctx context.Context, username, password, role string) (id uuid.UUID, err error) {
	if err := r.ready(); err != nil {
		return uuid.Nil, err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.CreateUser(ctx, r.sessions, username, password, role)
}

// ListUsers returns one page of accounts. Admins and the super admin only.
func (r *Request) ListUsers(ctx context.Context, params ListParams) (page UserPage, err error) {
	if err := r.ready(); err != nil {
		return UserPage{}, err
	}
	defer r.finish(time.Now(), &err)

	params = params.Normalize()
	users, total, err := r.engine.flows.ListUsers(ctx, r.sessions, params)
	if err != nil {
		return UserPage{}, err
	}
	if users == nil {
		users = []*User{}
	}
	return UserPage{Users: users, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

// SetUserPassword replaces a subordinate's password and logs them out everywhere.
func (r *Request) SetUserPassword(ctx context.Context, userID, password string) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.SetUserPassword(ctx, r.sessions, userID, password)
}

// GrantAdmin promotes a user to admin. Super admin only.
func (r *Request) GrantAdmin(ctx context.Context, userID string) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.SetAdmin(ctx, r.sessions, userID, true)
}

// RevokeAdmin demotes an admin to user. Super admin only.
func (r *Request) RevokeAdmin(ctx context.Context, userID string) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.SetAdmin(ctx, r.sessions, userID, false)
}

// ActivateUser re-enables a subordinate account.
func (r *Request) ActivateUser(ctx context.Context, userID string) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.SetActive(ctx, r.sessions, userID, true)
}

// DeactivateUser disables a subordinate and revokes all of their sessions.
func (r *Request) DeactivateUser(ctx context.Context, userID string) (err error) {
	if err := r.ready(); err != nil {
		return err
	}
	defer r.finish(time.Now(), &err)
	return r.engine.flows.SetActive(ctx, r.sessions, userID, false)
}

func (r *Request) finish(start time.Time, err *error) {
	r.engine.observe(start, *err)
}
