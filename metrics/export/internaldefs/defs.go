package internaldefs

import (
	goAccounts "github.com/MrEthical07/goAccounts"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goAccounts.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   goAccounts.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in snapshot order.
var CounterDefs = []CounterDef{
	{ID: goAccounts.MetricSignUp, Name: "goaccounts_sign_up_total", Help: "Accounts registered through sign up."},
	{ID: goAccounts.MetricLoginSuccess, Name: "goaccounts_login_success_total", Help: "Successful login attempts."},
	{ID: goAccounts.MetricLoginFailure, Name: "goaccounts_login_failure_total", Help: "Failed login attempts."},
	{ID: goAccounts.MetricLoginRateLimited, Name: "goaccounts_login_rate_limited_total", Help: "Login attempts rejected by the throttle."},
	{ID: goAccounts.MetricPasswordUpgraded, Name: "goaccounts_password_upgraded_total", Help: "Password hashes rewritten on login."},
	{ID: goAccounts.MetricSessionCreated, Name: "goaccounts_session_created_total", Help: "Issued sessions."},
	{ID: goAccounts.MetricSessionRenewed, Name: "goaccounts_session_renewed_total", Help: "Sessions renewed inside the refresh window."},
	{ID: goAccounts.MetricLogout, Name: "goaccounts_logout_total", Help: "Logout operations."},
	{ID: goAccounts.MetricSessionsRevoked, Name: "goaccounts_sessions_revoked_total", Help: "Bulk session revocations."},
	{ID: goAccounts.MetricPasswordChangeSuccess, Name: "goaccounts_password_change_success_total", Help: "Successful password changes."},
	{ID: goAccounts.MetricPasswordChangeFailure, Name: "goaccounts_password_change_failure_total", Help: "Password changes rejected on reauthentication."},
	{ID: goAccounts.MetricUserCreated, Name: "goaccounts_user_created_total", Help: "Accounts created by administrators."},
	{ID: goAccounts.MetricUserPasswordSet, Name: "goaccounts_user_password_set_total", Help: "Passwords set by administrators."},
	{ID: goAccounts.MetricAdminGranted, Name: "goaccounts_admin_granted_total", Help: "Admin role grants."},
	{ID: goAccounts.MetricAdminRevoked, Name: "goaccounts_admin_revoked_total", Help: "Admin role revocations."},
	{ID: goAccounts.MetricUserActivated, Name: "goaccounts_user_activated_total", Help: "Account activations."},
	{ID: goAccounts.MetricUserDeactivated, Name: "goaccounts_user_deactivated_total", Help: "Account deactivations."},
	{ID: goAccounts.MetricAccessDenied, Name: "goaccounts_access_denied_total", Help: "Operations denied by the role policy."},
	{ID: goAccounts.MetricHasherBusy, Name: "goaccounts_hasher_busy_total", Help: "Operations rejected because no hashing permit was free."},
	{ID: goAccounts.MetricDataAccessError, Name: "goaccounts_data_access_error_total", Help: "Operations failed by a storage backend."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAccounts.MetricOperationLatency, Name: "goaccounts_operation_latency_seconds", Help: "Latency of request operations."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's buckets.
var HistogramBounds = []string{
	"0.01",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside names.
var HistogramBoundSuffix = []string{
	"0_01",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero filling.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into the running totals
// Prometheus expects.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
