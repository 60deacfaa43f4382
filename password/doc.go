// Package password hashes and verifies user passwords behind a bounded
// concurrency gate.
//
// # Pipeline
//
// The raw password is first peppered with HMAC-SHA384 under a server-side key
// and base64 encoded ([Pepper]). The result is hashed by an [Algorithm]: bcrypt
// by default, argon2id optionally. Hashes carry their own salt and parameters,
// so [Gate.NeedsUpgrade] can flag outdated hashes for rehash on the next login.
//
// # Backpressure
//
// [Gate] limits in-flight hashing to a fixed worker pool. Callers that cannot
// obtain a permit within the configured timeout receive [ErrBusy] instead of
// queueing indefinitely.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Enforce password policy; that is the user package's job.
//   - Log plaintext passwords, peppers or hashes.
package password
