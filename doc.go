// Package goAccounts provides user accounts and server-side session
// authentication: sign-up, login with throttling, logout, password changes,
// and role-based user administration.
//
// Sessions live in Redis and are named by a signed JWT carried in a cookie or
// a bearer header. The token only identifies the session; whether it is valid
// is always decided by the store, so logout and revocation take effect
// immediately. An active session is extended once it enters the refresh
// window.
//
// Build one [Engine] per process with [New] and call [Engine.NewRequest] (or
// the cookie and bearer helpers) once per HTTP request. The returned
// [Request] caches the session, so the store is read at most once per request.
//
// # Architecture boundaries
//
// goAccounts is the public surface. Flow orchestration, rate limiting and audit
// dispatch live under internal/. The session, password, permission, user,
// transport and jwt packages are usable on their own.
//
// # What this package must NOT do
//
//   - Return error messages that distinguish an unknown username from a wrong
//     password.
//   - Put passwords, hashes or credentials into logs, audit events or errors.
//   - Share a Request between HTTP requests.
package goAccounts
