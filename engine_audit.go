package goAccounts

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccounts/internal/flows"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/MrEthical07/goAccounts/user"
)

// Audit event types.
const (
	AuditEventSignUp               = flows.EventSignUp
	AuditEventLoginSuccess         = flows.EventLoginSuccess
	AuditEventLoginFailure         = flows.EventLoginFailure
	AuditEventLoginRateLimited     = flows.EventLoginRateLimited
	AuditEventPasswordUpgraded     = flows.EventPasswordUpgraded
	AuditEventLogout               = flows.EventLogout
	AuditEventPasswordChange       = flows.EventPasswordChange
	AuditEventPasswordChangeFailed = flows.EventPasswordChangeFailed
	AuditEventUserCreated          = flows.EventUserCreated
	AuditEventUserPasswordSet      = flows.EventUserPasswordSet
	AuditEventAdminGranted         = flows.EventAdminGranted
	AuditEventAdminRevoked         = flows.EventAdminRevoked
	AuditEventUserActivated        = flows.EventUserActivated
	AuditEventUserDeactivated      = flows.EventUserDeactivated
	AuditEventSessionsRevoked      = flows.EventSessionsRevoked
	AuditEventAccessDenied         = flows.EventAccessDenied
)

// AuditErrorCode is the stable, message-free form of an error carried in
// [AuditEvent.Error].
type AuditErrorCode string

const (
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrAccountInactive    AuditErrorCode = "account_inactive"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrReauthentication   AuditErrorCode = "reauthentication_failed"
	auditErrPasswordUnchanged  AuditErrorCode = "password_unchanged"
	auditErrHasherBusy         AuditErrorCode = "hasher_busy"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

var eventMetrics = map[string]MetricID{
	flows.EventSignUp:           MetricSignUp,
	flows.EventLoginSuccess:     MetricLoginSuccess,
	flows.EventLoginFailure:     MetricLoginFailure,
	flows.EventLoginRateLimited: MetricLoginRateLimited,
	flows.EventPasswordUpgraded: MetricPasswordUpgraded,
	flows.EventLogout:           MetricLogout,
	flows.EventSessionsRevoked:  MetricSessionsRevoked,
	flows.EventPasswordChange:   MetricPasswordChangeSuccess,
	flows.EventUserCreated:      MetricUserCreated,
	flows.EventUserPasswordSet:  MetricUserPasswordSet,
	flows.EventAdminGranted:     MetricAdminGranted,
	flows.EventAdminRevoked:     MetricAdminRevoked,
	flows.EventUserActivated:    MetricUserActivated,
	flows.EventUserDeactivated:  MetricUserDeactivated,
	flows.EventAccessDenied:     MetricAccessDenied,
}

// record is the flows.Deps.Record callback.
func (e *Engine) record(ctx context.Context, ev flows.Event) {
	switch {
	case ev.Type == flows.EventPasswordChangeFailed:
		e.metrics.Inc(MetricPasswordChangeFailure)
	case ev.Success || ev.Type == flows.EventLoginFailure || ev.Type == flows.EventLoginRateLimited || ev.Type == flows.EventAccessDenied:
		if id, ok := eventMetrics[ev.Type]; ok {
			e.metrics.Inc(id)
		}
	}

	if e.audit == nil {
		return
	}
	userID := ev.TargetID
	actorID := ev.ActorID
	if userID == "" {
		userID = actorID
	}
	if actorID == userID {
		actorID = ""
	}
	e.audit.Emit(ctx, AuditEvent{
		EventType: ev.Type,
		UserID:    userID,
		ActorID:   actorID,
		IP:        clientIPFromContext(ctx),
		Success:   ev.Success,
		Error:     string(auditErrorCode(ev.Err)),
		Metadata:  ev.Metadata,
	})
}

// countError classifies an operation's returned error.
func (e *Engine) countError(err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrHasherBusy):
		e.metrics.Inc(MetricHasherBusy)
	case errors.Is(err, ErrDataAccess), errors.Is(err, session.ErrStorage):
		e.metrics.Inc(MetricDataAccessError)
	}
}

func (e *Engine) sessionHooks() session.Hooks {
	return session.Hooks{
		Issued:  func(*session.Session) { e.metrics.Inc(MetricSessionCreated) },
		Renewed: func(*session.Session) { e.metrics.Inc(MetricSessionRenewed) },
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrRoleChangeNotPermitted),
		errors.Is(err, ErrActivationChangeNotPermitted),
		errors.Is(err, ErrRoleAssignmentNotPermitted):
		return auditErrForbidden
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrUsernameTaken):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrReauthenticationFailed):
		return auditErrReauthentication
	case errors.Is(err, ErrPasswordUnchanged):
		return auditErrPasswordUnchanged
	case errors.Is(err, ErrHasherBusy):
		return auditErrHasherBusy
	case errors.Is(err, ErrDataAccess),
		errors.Is(err, ErrAuthUnavailable),
		errors.Is(err, session.ErrStorage),
		errors.Is(err, user.ErrStorage):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
