package transport

import (
	"net/http"
	"time"

	"github.com/MrEthical07/goAccounts/session"
	"github.com/rs/zerolog"
)

// DefaultCookieName is used when CookieOptions.Name is empty.
const DefaultCookieName = "access_token"

// CookieOptions defines how the session cookie is issued.
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// Cookie carries the credential in an HttpOnly cookie.
type Cookie struct {
	w     http.ResponseWriter
	r     *http.Request
	codec Codec
	opts  CookieOptions
	log   zerolog.Logger
	now   func() time.Time
}

var _ session.Transport = (*Cookie)(nil)

// NewCookie binds a cookie transport to one request.
func NewCookie(w http.ResponseWriter, r *http.Request, codec Codec, opts CookieOptions, logger zerolog.Logger) *Cookie {
	return &Cookie{
		w:     w,
		r:     r,
		codec: codec,
		opts:  opts.normalize(),
		log:   logger,
		now:   time.Now,
	}
}

// ExtractID reads and verifies the cookie. Missing or invalid cookies yield false.
func (c *Cookie) ExtractID() (string, bool) {
	ck, err := c.r.Cookie(c.opts.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	id, err := c.codec.ParseSessionID(ck.Value)
	if err != nil {
		c.log.Debug().Err(err).Msg("session cookie rejected")
		return "", false
	}
	return id, true
}

// Deliver sets a signed cookie that expires with the session.
func (c *Cookie) Deliver(sess *session.Session) error {
	token, err := c.codec.Issue(sess.ID, sess.Expiration)
	if err != nil {
		return err
	}

	maxAge := int(sess.Expiration.Sub(c.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(c.w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    token,
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		Expires:  sess.Expiration.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
	return nil
}

// RemoveCurrent expires the cookie on the client.
func (c *Cookie) RemoveCurrent() {
	http.SetCookie(c.w, &http.Cookie{
		Name:     c.opts.Name,
		Value:    "",
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.opts.Secure,
		SameSite: c.opts.SameSite,
	})
}
