// Package subAuth is the identity, session and access-control core of the
// subscription tracker: credential verification, JWT access tokens, rotating
// opaque refresh tokens backed by Redis, a fixed role hierarchy and an
// append-only audit ledger.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// subAuth is the public surface. It exposes [Engine], [Builder], [Config] and
// value types ([TokenPair], [SignInResult], [AuthResult], [MetricsSnapshot]).
// Flow orchestration, rate limiting and audit dispatch live under internal/.
// Leaf packages (password, jwt, refresh, session, role, identity, audit) do
// not import this package.
//
// # Refresh rotation
//
// A refresh token is single use. [Engine.Refresh] replaces the stored record
// in one atomic Redis step, so of any number of concurrent calls presenting
// the same token at most one succeeds and the rest receive
// [ErrTokenInvalid].
//
// # Errors
//
// Every failure is one of the sentinels in errors.go, matched with
// errors.Is. Backend failures and timeouts map to [ErrStoreUnavailable],
// which callers may retry. Audit writes never fail the action that
// triggered them.
//
// # What this package must NOT do
//
//   - Expose Redis clients, SQL handles or encoding details in its public API.
//   - Perform I/O outside of Engine methods.
//   - Store plaintext refresh tokens; only their SHA-256 digests are kept.
package subAuth
