// Package flows contains pure-function orchestrators for the Engine's
// sign-in, sign-up, refresh, sign-out and access-validation operations.
//
// Each flow function (RunSignIn, RunRefresh, RunSignOut, etc.) accepts a typed
// dependency struct and returns a result carrying a failure kind instead of
// host-level errors. The root package maps failure kinds to its own
// sentinels, metrics and audit entries, which keeps the Engine type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store, identity lookups,
// the JWT manager and the sign-in limiter. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import subAuth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
package flows
