// Package permission holds the role hierarchy and the permission bitmask that
// authorization checks run against.
//
// # Roles
//
// Three roles exist: user < admin < super_admin. A role may manage strictly
// lower roles only, the super admin role can neither be assigned nor changed,
// and super admins hold the reserved root bit that grants every permission.
//
// # Architecture boundaries
//
// This package is a pure in-memory policy with no I/O.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goAccounts, session, or user.
package permission
