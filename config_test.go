package goAccounts

import (
	"net/http"
	"testing"
	"time"
)

func TestDefaultConfigNeedsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without keys to be rejected")
	}
	cfg = testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected test config to validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{"ttl one minute", func(c *Config) { c.Session.TTL = time.Minute }, true},
		{"ttl below one minute", func(c *Config) { c.Session.TTL = 59 * time.Second }, false},
		{"threshold zero", func(c *Config) { c.Session.RefreshThreshold = 0 }, false},
		{"threshold one", func(c *Config) { c.Session.RefreshThreshold = 1 }, false},
		{"threshold 0.99", func(c *Config) { c.Session.RefreshThreshold = 0.99 }, true},
		{"prefix empty", func(c *Config) { c.Session.RedisPrefix = "" }, false},
		{"hs512", func(c *Config) { c.JWT.SigningMethod = "HS512" }, true},
		{"rs256 unsupported", func(c *Config) { c.JWT.SigningMethod = "rs256" }, false},
		{"short hmac secret", func(c *Config) { c.JWT.PrivateKey = []byte("short") }, false},
		{"ed25519 without keys", func(c *Config) { c.JWT.SigningMethod = "ed25519"; c.JWT.PrivateKey = nil }, false},
		{"leeway 2m", func(c *Config) { c.JWT.Leeway = 2 * time.Minute }, true},
		{"leeway 3m", func(c *Config) { c.JWT.Leeway = 3 * time.Minute }, false},
		{"negative leeway", func(c *Config) { c.JWT.Leeway = -time.Second }, false},
		{"verify keys without kid", func(c *Config) { c.JWT.VerifyKeys = map[string][]byte{"k1": c.JWT.PrivateKey} }, false},
		{"samesite none insecure", func(c *Config) { c.Cookie.SameSite = http.SameSiteNoneMode; c.Cookie.Secure = false }, false},
		{"samesite none secure", func(c *Config) { c.Cookie.SameSite = http.SameSiteNoneMode; c.Cookie.Secure = true }, true},
		{"short pepper", func(c *Config) { c.Password.Pepper = []byte("pepper") }, false},
		{"bcrypt cost 9", func(c *Config) { c.Password.WorkFactor = 9 }, false},
		{"unknown algorithm", func(c *Config) { c.Password.Algorithm = "scrypt" }, false},
		{"argon2id", func(c *Config) { c.Password.Algorithm = "argon2id" }, true},
		{"argon2id tiny memory", func(c *Config) { c.Password.Algorithm = "argon2id"; c.Password.Memory = 1024 }, false},
		{"argon2id ignores bcrypt cost", func(c *Config) { c.Password.Algorithm = "argon2id"; c.Password.WorkFactor = 0 }, true},
		{"zero workers", func(c *Config) { c.Password.Workers = 0 }, false},
		{"zero permit timeout", func(c *Config) { c.Password.PermitTimeout = 0 }, false},
		{"throttle zero attempts", func(c *Config) { c.Security.MaxLoginAttempts = 0 }, false},
		{"throttle off ignores attempts", func(c *Config) { c.Security.EnableLoginThrottle = false; c.Security.MaxLoginAttempts = 0 }, true},
		{"throttle zero cooldown", func(c *Config) { c.Security.LoginCooldownDuration = 0 }, false},
		{"reissue without revoke", func(c *Config) { c.Account.RevokeSessionsOnPasswordChange = false }, false},
		{"keep sessions on change", func(c *Config) {
			c.Account.RevokeSessionsOnPasswordChange = false
			c.Account.ReissueOnPasswordChange = false
		}, true},
		{"audit zero buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
