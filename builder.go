package goAccounts

import (
	"errors"
	"fmt"
	"strings"

	internalaudit "github.com/MrEthical07/goAccounts/internal/audit"
	"github.com/MrEthical07/goAccounts/internal/flows"
	"github.com/MrEthical07/goAccounts/internal/rate"
	"github.com/MrEthical07/goAccounts/jwt"
	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/permission"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Builder assembles an [Engine]. It is single-use.
//
//	engine, err := goAccounts.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithDB(db).
//		WithLogger(logger).
//		Build()
type Builder struct {
	config Config
	redis  redis.UniversalClient
	db     *bun.DB
	users  user.Repository
	policy *permission.Policy
	ids    session.IDGenerator
	logger zerolog.Logger

	auditSink AuditSink

	built bool
}

// New returns a builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the default configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the session and rate limiter backend. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDB stores users in db through bun. Ignored when a repository is set
// with WithUserRepository.
func (b *Builder) WithDB(db *bun.DB) *Builder {
	b.db = db
	return b
}

// WithUserRepository overrides the bun repository built from WithDB.
func (b *Builder) WithUserRepository(repo user.Repository) *Builder {
	b.users = repo
	return b
}

// WithPolicy replaces [permission.DefaultPolicy]. The policy is frozen by Build.
func (b *Builder) WithPolicy(p *permission.Policy) *Builder {
	b.policy = p
	return b
}

// WithIDGenerator replaces the random session id generator.
func (b *Builder) WithIDGenerator(ids session.IDGenerator) *Builder {
	b.ids = ids
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit destination. Audit.Enabled must be true for
// events to be delivered.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled overrides Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms overrides Config.Metrics.EnableLatencyHistograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	users := b.users
	if users == nil {
		if b.db == nil {
			return nil, errors.New("user repository or bun.DB required")
		}
		users = user.NewBunRepository(b.db)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(strings.ToLower(cfg.JWT.SigningMethod)),
		PrivateKey:    cfg.JWT.PrivateKey,
		PublicKey:     cfg.JWT.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		RequireIAT:    true,
		KeyID:         cfg.JWT.KeyID,
		VerifyKeys:    cfg.JWT.VerifyKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: %w", err)
	}

	gate, err := buildHasher(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("password: %w", err)
	}

	timer, err := session.NewUTCTimer(cfg.Session.TTL, cfg.Session.RefreshThreshold)
	if err != nil {
		gate.Close()
		return nil, err
	}

	policy := b.policy
	if policy == nil {
		policy = permission.DefaultPolicy()
	}
	policy.Freeze()

	logger := b.logger.With().Str("component", "goaccounts").Logger()

	e := &Engine{
		config:   cfg,
		logger:   logger,
		redis:    b.redis,
		store:    session.NewRedisStore(b.redis, cfg.Session.RedisPrefix),
		timer:    timer,
		ids:      b.ids,
		codec:    codec,
		hasher:   gate,
		users:    users,
		policy:   policy,
		metrics:  NewMetrics(cfg.Metrics),
		audit:    internalaudit.NewDispatcher(internalaudit.Config(cfg.Audit), b.auditSink),
		accounts: user.NewService(gate),
	}

	deps := flows.Deps{
		Users:    users,
		Accounts: e.accounts,
		Hasher:   gate,
		Policy:   policy,
		Options: flows.Options{
			UpgradeOnLogin:          cfg.Password.UpgradeOnLogin,
			RevokeOnPasswordChange:  cfg.Account.RevokeSessionsOnPasswordChange,
			ReissueOnPasswordChange: cfg.Account.ReissueOnPasswordChange,
		},
		ClientIP: clientIPFromContext,
		Record:   e.record,
		Logger:   logger,
	}
	if cfg.Security.EnableLoginThrottle {
		e.limiter = rate.New(b.redis, rate.Config{
			Prefix:                cfg.Session.RedisPrefix,
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
		deps.Limiter = e.limiter
	}
	e.flows = flows.New(deps)

	for _, w := range cfg.Lint() {
		logger.Warn().Str("code", w.Code).Str("severity", w.Severity.String()).Msg(w.Message)
	}

	b.built = true
	return e, nil
}

// buildHasher returns a gate hashing with the configured algorithm. Hashes
// of the other algorithm still verify and are upgraded on login.
func buildHasher(cfg PasswordConfig) (*password.Gate, error) {
	bcrypt, err := password.NewBcrypt(cfg.WorkFactor)
	if err != nil && strings.ToLower(cfg.Algorithm) == "bcrypt" {
		return nil, err
	}
	if err != nil {
		bcrypt, _ = password.NewBcrypt(password.DefaultBcryptCost)
	}
	argon, err := password.NewArgon2(password.Argon2Config{
		Memory:      cfg.Memory,
		Time:        cfg.Time,
		Parallelism: cfg.Parallelism,
		SaltLength:  cfg.SaltLength,
		KeyLength:   cfg.KeyLength,
	})
	if err != nil && strings.ToLower(cfg.Algorithm) == "argon2id" {
		return nil, err
	}
	if err != nil {
		argon, _ = password.NewArgon2(password.DefaultArgon2Config())
	}

	gateCfg := password.GateConfig{
		Pepper:        cfg.Pepper,
		Workers:       cfg.Workers,
		PermitTimeout: cfg.PermitTimeout,
	}
	if strings.ToLower(cfg.Algorithm) == "argon2id" {
		return password.NewGate(argon, gateCfg, bcrypt)
	}
	return password.NewGate(bcrypt, gateCfg, argon)
}
