// Package flows contains the orchestrators behind every request operation.
//
// Each flow accepts the request-scoped [Sessions] and the process-wide [Deps]
// and returns results without side effects beyond those dependencies. The root
// Engine builds Deps once; a Request binds them to one session service.
//
// # Architecture boundaries
//
// Flows coordinate the session service, user repository, hashing gate, role
// policy and login limiter. They do NOT own any of these resources; ownership
// stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAccounts (to avoid import cycles).
//   - Touch HTTP types. Transport concerns end at [Sessions].
package flows
