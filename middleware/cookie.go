package middleware

import (
	"net/http"

	goAccounts "github.com/MrEthical07/goAccounts"
)

// RequireCookie is Guard with [ModeCookie].
func RequireCookie(engine *goAccounts.Engine) func(http.Handler) http.Handler {
	return Guard(engine, ModeCookie)
}
