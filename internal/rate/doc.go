// Package rate provides the Redis-backed fixed-window counters that throttle
// failed logins.
//
// # Window semantics
//
// Fixed-window counters: INCR + EXPIRE on the first hit. Keys live under the
// configured prefix:
//   - <prefix>:rl:u:<username>  failed logins per username
//   - <prefix>:rl:ip:<ip>       failed logins per client IP
//
// # What this package must NOT do
//
//   - Decide what counts as a failure (the login flow does).
//   - Be imported outside the goAccounts module.
package rate
