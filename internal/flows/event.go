package flows

// Event types reported through Deps.Record. The root package maps them to
// metric counters and audit records.
const (
	EventSignUp               = "sign_up"
	EventLoginSuccess         = "login_success"
	EventLoginFailure         = "login_failure"
	EventLoginRateLimited     = "login_rate_limited"
	EventPasswordUpgraded     = "password_upgraded"
	EventLogout               = "logout"
	EventPasswordChange       = "password_change"
	EventPasswordChangeFailed = "password_change_failure"
	EventUserCreated          = "user_created"
	EventUserPasswordSet      = "user_password_set"
	EventAdminGranted         = "admin_granted"
	EventAdminRevoked         = "admin_revoked"
	EventUserActivated        = "user_activated"
	EventUserDeactivated      = "user_deactivated"
	EventSessionsRevoked      = "sessions_revoked"
	EventAccessDenied         = "access_denied"
)

// Event is one flow outcome. ActorID is the authenticated caller, TargetID the
// account acted upon; either may be empty.
type Event struct {
	Type     string
	Success  bool
	ActorID  string
	TargetID string
	Err      error
	Metadata map[string]string
}
