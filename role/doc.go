// Package role defines the closed set of privilege levels and the checks
// built on their ordering.
//
// # Ordering
//
// Ranked roles from highest to lowest: SUPER_ADMIN, ADMIN, MANAGER, USER,
// READ_ONLY. SERVICE is reserved for machine accounts and never compares
// against the hierarchy; it only satisfies exact checks.
//
// # Checks
//
//   - [AtLeast] builds allow-lists for "manager and up" style checks.
//   - [RequireAnyOf] is exact set membership.
//   - [CanAssign] / [CheckAssign] prevent self and peer escalation.
//   - [IsOwnerOrAtLeast] is the ownership contract used by resource handlers.
//
// # What this package must NOT do
//
//   - Perform I/O.
//   - Silently downgrade a rejected assignment.
package role
