// Package api serves the account and user administration operations over
// HTTP with echo, under the /api/v1 prefix.
//
// Every request gets one [goAccounts.Request], created by a middleware and
// shared by the handler, so the session store is read at most once. Errors
// are translated to status codes by a single table in errors.go; response
// bodies carry a short generic message and, for validation failures, the
// offending fields.
package api
