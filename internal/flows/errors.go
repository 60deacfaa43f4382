package flows

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccounts/internal/rate"
	"github.com/MrEthical07/goAccounts/session"
	"github.com/MrEthical07/goAccounts/user"
)

var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyAuthenticated rejects sign up and login on an authenticated request.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	// ErrAccountInactive is returned for deactivated accounts.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrPasswordUnchanged rejects a change to the same password.
	ErrPasswordUnchanged = errors.New("new password must differ from current password")
	// ErrReauthenticationFailed means the current password did not verify.
	ErrReauthenticationFailed = errors.New("current password is invalid")
	// ErrLoginRateLimited is returned while the login throttle is tripped.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrDataAccess wraps failures of the user repository, session store or limiter.
	ErrDataAccess = errors.New("data access failed")
)

// dataAccess tags storage failures from the user repository, the session store
// or the limiter backend with ErrDataAccess and passes every other error through.
func dataAccess(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDataAccess) {
		return err
	}
	if errors.Is(err, user.ErrStorage) || errors.Is(err, session.ErrStorage) || errors.Is(err, rate.ErrRedisUnavailable) {
		return fmt.Errorf("%w: %w", ErrDataAccess, err)
	}
	return err
}
