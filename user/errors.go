package user

import "errors"

var (
	ErrNotFound                     = errors.New("user not found")
	ErrUsernameTaken                = errors.New("username already exists")
	ErrRoleAssignmentNotPermitted   = errors.New("role assignment not permitted")
	ErrRoleChangeNotPermitted       = errors.New("role change not permitted")
	ErrActivationChangeNotPermitted = errors.New("activation change not permitted")
	ErrInvalidInput                 = errors.New("invalid input")
	ErrStorage                      = errors.New("user storage unavailable")
)
