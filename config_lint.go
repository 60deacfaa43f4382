package goAccounts

import (
	"fmt"
	"time"
)

// LintSeverity ranks a [LintWarning].
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a setting that is valid but probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered output of [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// AtLeast filters warnings at or above min.
func (r LintResult) AtLeast(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint inspects a config that already passes [Config.Validate] and returns
// advisory warnings. It never fails; callers decide whether to log or abort.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if c.Session.TTL > 12*time.Hour {
		add("session_ttl_long", LintWarn, "Session TTL is %s; stolen credentials stay valid that long without activity", c.Session.TTL)
	}
	if c.Session.RefreshThreshold > 0.9 {
		add("refresh_threshold_high", LintInfo, "RefreshThreshold %.2f renews on almost every request", c.Session.RefreshThreshold)
	}
	if c.Session.RefreshThreshold < 0.1 {
		add("refresh_threshold_low", LintInfo, "RefreshThreshold %.2f lets active sessions expire mid-use", c.Session.RefreshThreshold)
	}
	if c.JWT.Leeway > 30*time.Second {
		add("leeway_large", LintWarn, "JWT Leeway is %s", c.JWT.Leeway)
	}
	if c.isHMAC() && len(c.JWT.PrivateKey) < 64 && c.Security.ProductionMode {
		add("hmac_secret_short", LintInfo, "JWT secret is %d bytes; 64 is recommended for %s", len(c.JWT.PrivateKey), c.JWT.SigningMethod)
	}
	if !c.Cookie.Secure {
		add("cookie_insecure", LintHigh, "session cookies are sent over plain HTTP")
	}
	if !c.Security.EnableLoginThrottle {
		add("login_throttle_disabled", LintHigh, "failed logins are not throttled")
	} else if !c.Security.EnableIPThrottle {
		add("ip_throttle_disabled", LintInfo, "failed logins are throttled per username only")
	}
	if c.Password.PermitTimeout > 5*time.Second {
		add("hasher_timeout_long", LintWarn, "requests may wait %s for a hashing permit", c.Password.PermitTimeout)
	}
	if c.Password.Algorithm == "bcrypt" && c.Password.WorkFactor > 14 {
		add("bcrypt_cost_high", LintWarn, "bcrypt cost %d takes seconds per login", c.Password.WorkFactor)
	}
	if !c.Password.UpgradeOnLogin {
		add("upgrade_on_login_disabled", LintInfo, "outdated password hashes are never rehashed")
	}
	if !c.Account.RevokeSessionsOnPasswordChange {
		add("password_change_keeps_sessions", LintWarn, "other sessions survive a password change")
	}
	if c.Audit.Enabled && !c.Audit.DropIfFull {
		add("audit_blocking", LintWarn, "a slow audit sink blocks requests")
	}

	return ws
}
