package flows

import (
	"context"

	"github.com/MrEthical07/goAccounts/permission"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/rs/zerolog"
)

// Sessions is the request-scoped session lifecycle. *session.Service
// satisfies it.
type Sessions interface {
	IssueSession(ctx context.Context, userID string) (*session.Session, error)
	GetAuthenticatedUserID(ctx context.Context) (string, error)
	TerminateCurrentSession(ctx context.Context)
	TerminateAllSessionsForUser(ctx context.Context, userID string) error
}

// Hasher is the password hashing gate.
type Hasher interface {
	user.Hasher
	NeedsUpgrade(encodedHash string) bool
}

// LoginLimiter throttles failed logins per username and client IP.
type LoginLimiter interface {
	CheckLogin(ctx context.Context, username, ip string) error
	IncrementLogin(ctx context.Context, username, ip string) error
	ResetLogin(ctx context.Context, username, ip string) error
}

// Options toggles optional flow behavior.
type Options struct {
	UpgradeOnLogin          bool
	RevokeOnPasswordChange  bool
	ReissueOnPasswordChange bool
}

// Deps captures the process-wide flow dependencies. Limiter, ClientIP and
// Record are optional.
type Deps struct {
	Users    user.Repository
	Accounts *user.Service
	Hasher   Hasher
	Policy   *permission.Policy
	Limiter  LoginLimiter
	Options  Options

	ClientIP func(context.Context) string
	Record   func(context.Context, Event)
	Logger   zerolog.Logger
}

func (d *Deps) normalize() {
	if d.ClientIP == nil {
		d.ClientIP = func(context.Context) string { return "" }
	}
	if d.Record == nil {
		d.Record = func(context.Context, Event) {}
	}
}
