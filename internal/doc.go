// Package internal groups the engine's private building blocks.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher plus Sink implementations)
//   - flows: orchestration of every Request operation over the user
//     repository, the password gate and the session service
//   - rate: Redis-backed login throttling per username and client IP
//
// Nothing here appears in the public goAccounts API.
package internal
