package api

import (
	"errors"
	"net/http"

	goAccounts "github.com/MrEthical07/goAccounts"
	"github.com/MrEthical07/goAccounts/user"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type errorRule struct {
	err     error
	status  int
	message string
}

// errorTable is checked in order; the first match wins.
var errorTable = []errorRule{
	{goAccounts.ErrEngineNotReady, http.StatusServiceUnavailable, "service unavailable"},
	{goAccounts.ErrHasherBusy, http.StatusServiceUnavailable, "service unavailable"},
	{goAccounts.ErrDataAccess, http.StatusServiceUnavailable, "service unavailable"},
	{goAccounts.ErrAuthUnavailable, http.StatusServiceUnavailable, "service unavailable"},
	{goAccounts.ErrNotAuthenticated, http.StatusUnauthorized, "not authenticated"},
	{goAccounts.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{goAccounts.ErrLoginRateLimited, http.StatusTooManyRequests, "too many login attempts"},
	{goAccounts.ErrAlreadyAuthenticated, http.StatusForbidden, "already authenticated"},
	{goAccounts.ErrAccountInactive, http.StatusForbidden, "account inactive"},
	{goAccounts.ErrReauthenticationFailed, http.StatusForbidden, "current password is incorrect"},
	{goAccounts.ErrRoleAssignmentNotPermitted, http.StatusUnprocessableEntity, "role cannot be assigned"},
	{goAccounts.ErrRoleChangeNotPermitted, http.StatusForbidden, "role cannot be changed"},
	{goAccounts.ErrActivationChangeNotPermitted, http.StatusForbidden, "activation cannot be changed"},
	{goAccounts.ErrForbidden, http.StatusForbidden, "forbidden"},
	{goAccounts.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{goAccounts.ErrUsernameTaken, http.StatusConflict, "username already exists"},
	{goAccounts.ErrPasswordUnchanged, http.StatusBadRequest, "new password must differ"},
	{goAccounts.ErrInvalidInput, http.StatusBadRequest, "invalid input"},
}

// statusFor maps err to a status code and public message.
func statusFor(err error) (int, string) {
	for _, rule := range errorTable {
		if errors.Is(err, rule.err) {
			return rule.status, rule.message
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}
	return http.StatusInternalServerError, "internal error"
}

func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := statusFor(err)
		ev := logger.Info()
		if status >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		ev.Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Int("status", status).
			Msg("request failed")

		body := errorResponse{Error: msg}
		var invalid *user.InvalidInputError
		if errors.As(err, &invalid) && len(invalid.Fields) > 0 {
			body.Fields = make(map[string]string, len(invalid.Fields))
			for field, ferr := range invalid.Fields {
				body.Fields[field] = ferr.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error().Err(err).Msg("writing error response failed")
		}
	}
}
