package goAccounts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	internalaudit "github.com/MrEthical07/goAccounts/internal/audit"
	"github.com/MrEthical07/goAccounts/internal/flows"
	"github.com/MrEthical07/goAccounts/internal/rate"
	"github.com/MrEthical07/goAccounts/jwt"
	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/permission"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/MrEthical07/goAccounts/transport"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Engine holds the process-wide collaborators: Redis, the user repository, the
// hashing gate and the credential codec. It is safe for concurrent use.
// Per-request work goes through a [Request] obtained from NewRequest.
type Engine struct {
	config   Config
	logger   zerolog.Logger
	redis    redis.UniversalClient
	store    *session.RedisStore
	timer    session.Timer
	ids      session.IDGenerator
	codec    *jwt.Manager
	hasher   *password.Gate
	users    user.Repository
	accounts *user.Service
	policy   *permission.Policy
	limiter  *rate.Limiter
	flows    flows.Service
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
}

// Close stops the hashing workers and drains the audit buffer. Requests in
// flight afterwards fail with [ErrHasherBusy] when they need to hash.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.hasher != nil {
		e.hasher.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events lost to a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the current counters and histograms. A nil engine or
// disabled metrics yield empty maps.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Policy returns the frozen role policy.
func (e *Engine) Policy() *permission.Policy {
	return e.policy
}

// HasherAlgorithm names the algorithm new password hashes are produced with.
func (e *Engine) HasherAlgorithm() string {
	return e.hasher.Algorithm()
}

// Health is the result of [Engine.Health].
type Health struct {
	Redis        bool          `json:"redis"`
	RedisLatency time.Duration `json:"redis_latency_ns"`
	Users        bool          `json:"users"`
}

// OK reports whether every backend answered.
func (h Health) OK() bool {
	return h.Redis && h.Users
}

// Health pings Redis and runs a cheap query against the user repository.
func (e *Engine) Health(ctx context.Context) Health {
	var h Health
	if e == nil {
		return h
	}
	latency, err := e.store.Ping(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("health: redis ping failed")
	} else {
		h.Redis = true
		h.RedisLatency = latency
	}
	if _, err := e.users.CountByRole(ctx, permission.RoleSuperAdmin); err != nil {
		e.logger.Warn().Err(err).Msg("health: user repository unavailable")
	} else {
		h.Users = true
	}
	return h
}

// NewRequest starts request-scoped session handling over t. Every Request
// gets its own store unit of work and session cache; never share one across
// requests.
func (e *Engine) NewRequest(t session.Transport) *Request {
	if e == nil {
		return &Request{}
	}
	uow := e.store.Begin()
	return &Request{
		engine: e,
		sessions: session.NewService(session.Deps{
			Store:     uow,
			Committer: uow,
			Transport: t,
			Timer:     e.timer,
			IDs:       e.ids,
			Hooks:     e.sessionHooks(),
			Logger:    e.logger,
		}),
	}
}

// NewCookieRequest carries the credential in the configured HttpOnly cookie.
func (e *Engine) NewCookieRequest(w http.ResponseWriter, r *http.Request) *Request {
	if e == nil {
		return &Request{}
	}
	return e.NewRequest(transport.NewCookie(w, r, e.codec, e.CookieOptions(), e.logger))
}

// NewBearerRequest reads the credential from the Authorization header and
// returns new ones in the X-Session-Token response header.
func (e *Engine) NewBearerRequest(w http.ResponseWriter, r *http.Request) *Request {
	if e == nil {
		return &Request{}
	}
	return e.NewRequest(transport.NewBearer(w, r, e.codec, e.logger))
}

// CookieOptions returns the cookie attributes used by cookie requests.
func (e *Engine) CookieOptions() transport.CookieOptions {
	return transport.CookieOptions{
		Name:     e.config.Cookie.Name,
		Path:     e.config.Cookie.Path,
		Domain:   e.config.Cookie.Domain,
		Secure:   e.config.Cookie.Secure,
		SameSite: e.config.Cookie.SameSite,
	}
}

// ErrSuperAdminExists is returned by [Engine.BootstrapSuperAdmin] when a super
// admin is already present.
var ErrSuperAdminExists = errors.New("super admin already exists")

// BootstrapSuperAdmin creates the single super admin account. The count and
// insert run in one transaction so concurrent bootstraps create at most one.
func (e *Engine) BootstrapSuperAdmin(ctx context.Context, username, rawPassword string) (uuid.UUID, error) {
	if e == nil || !e.flows.Initialized() {
		return uuid.Nil, ErrEngineNotReady
	}

	var id uuid.UUID
	err := e.users.RunInTx(ctx, func(ctx context.Context, repo user.Repository) error {
		n, err := repo.CountByRole(ctx, permission.RoleSuperAdmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrSuperAdminExists
		}

		u, err := e.accounts.Create(ctx, username, rawPassword, permission.RoleAdmin)
		if err != nil {
			return err
		}
		u.Role = permission.RoleSuperAdmin
		if err := repo.Create(ctx, u); err != nil {
			return err
		}
		id = u.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, user.ErrStorage) {
			return uuid.Nil, fmt.Errorf("%w: %w", ErrDataAccess, err)
		}
		return uuid.Nil, err
	}

	e.record(ctx, flows.Event{
		Type:     flows.EventUserCreated,
		Success:  true,
		TargetID: id.String(),
		Metadata: map[string]string{"role": permission.RoleSuperAdmin.String(), "bootstrap": "true"},
	})
	e.logger.Info().Str("user_id", id.String()).Msg("super admin bootstrapped")
	return id, nil
}

// observe records latency and error class of one request operation.
func (e *Engine) observe(start time.Time, err error) {
	e.metrics.Observe(MetricOperationLatency, time.Since(start))
	e.countError(err)
}
