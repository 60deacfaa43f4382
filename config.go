package goAccounts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goAccounts/jwt"
	"github.com/MrEthical07/goAccounts/password"
)

// Config holds every engine setting. Build a value with [DefaultConfig],
// adjust it, and hand it to [Builder.WithConfig]. The engine keeps a private
// copy.
type Config struct {
	Session  SessionConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Password PasswordConfig
	Security SecurityConfig
	Account  AccountConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls server-side session lifetime and renewal.
//
// A session is renewed to now+TTL once less than TTL*RefreshThreshold of its
// lifetime remains.
type SessionConfig struct {
	TTL              time.Duration
	RefreshThreshold float64
	RedisPrefix      string
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls the signed credential that carries the session id.
type JWTConfig struct {
	SigningMethod string // "hs256" (default), "hs384", "hs512" or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig shapes the cookie used by cookie transports.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig controls hashing. Pepper is mixed into every password with
// HMAC-SHA384 before the algorithm runs.
type PasswordConfig struct {
	Pepper        []byte
	Algorithm     string // "bcrypt" (default) or "argon2id"
	WorkFactor    int    // bcrypt cost
	Workers       int
	PermitTimeout time.Duration

	Memory      uint32 // argon2id, in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	UpgradeOnLogin bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds login throttling and production guards.
type SecurityConfig struct {
	ProductionMode        bool
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// AccountConfig toggles side effects of account operations.
type AccountConfig struct {
	RevokeSessionsOnPasswordChange bool
	ReissueOnPasswordChange        bool
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns development defaults. Keys and the pepper are empty
// and must be supplied.
func DefaultConfig() Config {
	argon := password.DefaultArgon2Config()
	return Config{
		Session: SessionConfig{
			TTL:              30 * time.Minute,
			RefreshThreshold: 0.5,
			RedisPrefix:      "gas",
		},
		JWT: JWTConfig{
			SigningMethod: string(jwt.MethodHS256),
			Leeway:        5 * time.Second,
		},
		Cookie: CookieConfig{
			Name:     "access_token",
			Path:     "/",
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		},
		Password: PasswordConfig{
			Algorithm:      "bcrypt",
			WorkFactor:     password.DefaultBcryptCost,
			Workers:        4,
			PermitTimeout:  time.Second,
			Memory:         argon.Memory,
			Time:           argon.Time,
			Parallelism:    argon.Parallelism,
			SaltLength:     argon.SaltLength,
			KeyLength:      argon.KeyLength,
			UpgradeOnLogin: true,
		},
		Security: SecurityConfig{
			ProductionMode:        false,
			EnableLoginThrottle:   true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Account: AccountConfig{
			RevokeSessionsOnPasswordChange: true,
			ReissueOnPasswordChange:        true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Password.Pepper = cloneBytes(cfg.Password.Pepper)
	if cfg.JWT.VerifyKeys != nil {
		out.JWT.VerifyKeys = make(map[string][]byte, len(cfg.JWT.VerifyKeys))
		for kid, key := range cfg.JWT.VerifyKeys {
			out.JWT.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c *Config) isHMAC() bool {
	switch jwt.SigningMethod(strings.ToLower(c.JWT.SigningMethod)) {
	case jwt.MethodHS256, jwt.MethodHS384, jwt.MethodHS512:
		return true
	}
	return false
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first setting that would make the engine unsafe or
// unusable.
func (c *Config) Validate() error {
	// Session
	if c.Session.TTL < time.Minute {
		return errors.New("Session TTL must be >= 1m")
	}
	if c.Session.RefreshThreshold <= 0 || c.Session.RefreshThreshold >= 1 {
		return errors.New("Session RefreshThreshold must be between 0 and 1 (exclusive)")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix is required")
	}

	// JWT
	switch jwt.SigningMethod(strings.ToLower(c.JWT.SigningMethod)) {
	case jwt.MethodHS256, jwt.MethodHS384, jwt.MethodHS512:
		if len(c.JWT.PrivateKey) < jwt.MinHMACKeyBytes {
			return fmt.Errorf("JWT secret must be at least %d bytes", jwt.MinHMACKeyBytes)
		}
	case jwt.MethodEd25519:
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 && len(c.JWT.VerifyKeys) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if len(c.JWT.VerifyKeys) > 0 && c.JWT.KeyID == "" {
		return errors.New("JWT KeyID is required when VerifyKeys is set")
	}

	// Cookie
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Password
	if len(c.Password.Pepper) < password.MinPepperBytes {
		return fmt.Errorf("Password Pepper must be at least %d bytes", password.MinPepperBytes)
	}
	switch strings.ToLower(c.Password.Algorithm) {
	case "bcrypt":
		if c.Password.WorkFactor < password.MinBcryptCost {
			return fmt.Errorf("Password WorkFactor must be >= %d", password.MinBcryptCost)
		}
	case "argon2id":
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	default:
		return errors.New("Password Algorithm must be 'bcrypt' or 'argon2id'")
	}
	if c.Password.Workers < 1 {
		return errors.New("Password Workers must be >= 1")
	}
	if c.Password.PermitTimeout <= 0 {
		return errors.New("Password PermitTimeout must be > 0")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("MaxLoginAttempts must be > 0")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("LoginCooldownDuration must be > 0")
		}
	}

	// Account
	if c.Account.ReissueOnPasswordChange && !c.Account.RevokeSessionsOnPasswordChange {
		return errors.New("Account ReissueOnPasswordChange requires RevokeSessionsOnPasswordChange")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Security.ProductionMode {
		if !c.Cookie.Secure {
			return errors.New("ProductionMode requires secure cookies")
		}
		if !c.Security.EnableLoginThrottle {
			return errors.New("ProductionMode requires login throttling")
		}
		if c.Session.TTL > 24*time.Hour {
			return errors.New("ProductionMode requires Session TTL <= 24h")
		}
		if strings.ToLower(c.Password.Algorithm) == "argon2id" && c.Password.Memory < 64*1024 {
			return errors.New("ProductionMode requires Password Memory >= 65536 KB")
		}
	}

	return nil
}
