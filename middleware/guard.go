package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	goAccounts "github.com/MrEthical07/goAccounts"
)

// Mode selects where the credential travels.
type Mode int

const (
	// ModeCookie reads and renews the HttpOnly session cookie.
	ModeCookie Mode = iota
	// ModeBearer reads the Authorization header and returns renewed
	// credentials in the X-Session-Token header.
	ModeBearer
)

type requestContextKey struct{}

type userIDContextKey struct{}

// RequestFromContext returns the Request a Guard attached.
func RequestFromContext(ctx context.Context) (*goAccounts.Request, bool) {
	req, ok := ctx.Value(requestContextKey{}).(*goAccounts.Request)
	return req, ok
}

// UserIDFromContext returns the authenticated user id a Guard attached.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey{}).(string)
	return id, ok && id != ""
}

// Guard returns middleware that admits only requests carrying a valid session
// in the transport selected by mode. Anonymous requests get 401 and an engine
// that is not ready gets 503. Admitted requests carry their [goAccounts.Request]
// and user id in the context, so handlers reuse the already resolved session.
func Guard(engine *goAccounts.Engine, mode Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := goAccounts.WithClientIP(r.Context(), ClientIP(r))
			r = r.WithContext(ctx)

			var req *goAccounts.Request
			switch mode {
			case ModeBearer:
				req = engine.NewBearerRequest(w, r)
			default:
				req = engine.NewCookieRequest(w, r)
			}

			userID, err := req.UserID(ctx)
			if err != nil {
				if errors.Is(err, goAccounts.ErrEngineNotReady) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, requestContextKey{}, req)
			ctx = context.WithValue(ctx, userIDContextKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are
// not trusted; put a proxy-aware handler in front when needed.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
