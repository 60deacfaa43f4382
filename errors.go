package goAccounts

import (
	"errors"

	"github.com/MrEthical07/goAccounts/internal/flows"
	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/permission"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/MrEthical07/goAccounts/user"
)

var (
	// ErrNotAuthenticated is returned when the request carries no valid session.
	ErrNotAuthenticated = session.ErrNotAuthenticated
	// ErrAuthUnavailable is returned when a session could not be issued.
	ErrAuthUnavailable = session.ErrAuthUnavailable
	// ErrHasherBusy is returned when the password hasher is saturated.
	ErrHasherBusy = password.ErrBusy
	// ErrDataAccess wraps storage failures of the user or session backends.
	ErrDataAccess = flows.ErrDataAccess

	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = flows.ErrInvalidCredentials
	// ErrAlreadyAuthenticated is returned by sign-up and login on an authenticated request.
	ErrAlreadyAuthenticated = flows.ErrAlreadyAuthenticated
	// ErrAccountInactive is returned for deactivated accounts.
	ErrAccountInactive = flows.ErrAccountInactive
	// ErrLoginRateLimited is returned while failed logins are throttled.
	ErrLoginRateLimited = flows.ErrLoginRateLimited
	// ErrPasswordUnchanged is returned when a new password equals the current one.
	ErrPasswordUnchanged = flows.ErrPasswordUnchanged
	// ErrReauthenticationFailed is returned when the current password does not verify.
	ErrReauthenticationFailed = flows.ErrReauthenticationFailed

	// ErrForbidden is returned when the role policy denies an operation.
	ErrForbidden = permission.ErrForbidden

	ErrUserNotFound                 = user.ErrNotFound
	ErrUsernameTaken                = user.ErrUsernameTaken
	ErrRoleAssignmentNotPermitted   = user.ErrRoleAssignmentNotPermitted
	ErrRoleChangeNotPermitted       = user.ErrRoleChangeNotPermitted
	ErrActivationChangeNotPermitted = user.ErrActivationChangeNotPermitted
	ErrInvalidInput                 = user.ErrInvalidInput

	// ErrEngineNotReady is returned by requests on a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
