// Package transport implements session.Transport over HTTP: a signed credential
// in a cookie ([Cookie]) or in the Authorization header ([Bearer]).
//
// Transports are bound to one request/response pair and must not be reused.
package transport
