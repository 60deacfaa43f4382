// Package jwt signs and verifies the session credential carried by transports.
// The credential only names a session id; the session store remains the source
// of truth for validity.
package jwt
