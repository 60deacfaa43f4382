package transport

import (
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goAccounts/session"
	"github.com/rs/zerolog"
)

const (
	// HeaderSessionToken carries a newly issued or renewed credential.
	HeaderSessionToken = "X-Session-Token"
	// HeaderSessionExpires carries the RFC 3339 expiration of that credential.
	HeaderSessionExpires = "X-Session-Expires"
)

// Bearer reads the credential from "Authorization: Bearer" and returns new
// credentials in response headers. Clients that use it are expected to replace
// their stored token whenever HeaderSessionToken is present and drop it when
// the header is present but empty.
type Bearer struct {
	w     http.ResponseWriter
	r     *http.Request
	codec Codec
	log   zerolog.Logger
}

var _ session.Transport = (*Bearer)(nil)

// NewBearer binds a header transport to one request.
func NewBearer(w http.ResponseWriter, r *http.Request, codec Codec, logger zerolog.Logger) *Bearer {
	return &Bearer{w: w, r: r, codec: codec, log: logger}
}

// ExtractID verifies the bearer token.
func (b *Bearer) ExtractID() (string, bool) {
	token, ok := BearerToken(b.r.Header.Get("Authorization"))
	if !ok {
		return "", false
	}
	id, err := b.codec.ParseSessionID(token)
	if err != nil {
		b.log.Debug().Err(err).Msg("bearer token rejected")
		return "", false
	}
	return id, true
}

// Deliver writes the signed credential to the response headers.
func (b *Bearer) Deliver(sess *session.Session) error {
	token, err := b.codec.Issue(sess.ID, sess.Expiration)
	if err != nil {
		return err
	}
	b.w.Header().Set(HeaderSessionToken, token)
	b.w.Header().Set(HeaderSessionExpires, sess.Expiration.UTC().Format(time.RFC3339))
	return nil
}

// RemoveCurrent signals the client to discard its token.
func (b *Bearer) RemoveCurrent() {
	b.w.Header().Set(HeaderSessionToken, "")
	b.w.Header().Del(HeaderSessionExpires)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
