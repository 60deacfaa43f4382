// Package session implements the server-side session lifecycle: issuance,
// validation with sliding renewal, single logout and bulk revocation.
//
// # Architecture boundaries
//
// [Service] is request-scoped and owns the only cached copy of the request's
// session. Durable state lives behind the [Store] port ([RedisStore] via
// [UnitOfWork] in production) and the client credential is handled by a
// [Transport] implementation. The package does not know how credentials are
// signed or which HTTP framework carries them.
//
// # Binary encoding
//
// Sessions are stored as a compact versioned binary payload keyed by session id;
// see [Encode].
//
// # What this package must NOT do
//
//   - Import goAccounts, jwt, transport or user (no upward imports).
//   - Share a [Service] between requests.
//   - Return storage causes to callers of the authentication path; they are
//     logged and collapsed into [ErrNotAuthenticated] or [ErrAuthUnavailable].
package session
