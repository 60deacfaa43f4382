package middleware

import (
	"net/http"

	goAccounts "github.com/MrEthical07/goAccounts"
)

// RequireBearer is Guard with [ModeBearer], for API clients that cannot
// hold cookies.
func RequireBearer(engine *goAccounts.Engine) func(http.Handler) http.Handler {
	return Guard(engine, ModeBearer)
}
