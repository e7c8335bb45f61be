// Package session stores refresh-token records in Redis and implements the
// atomic rotation step of the refresh protocol.
//
// # Binary encoding
//
// Records are stored as a compact versioned binary payload (see [Encode]) that
// the Lua scripts parse in place. Rotation rewrites only the fixed-size time
// tail, so the owner id never round-trips through the client.
//
// # Atomicity
//
// Grant, Rotate, Revoke, RevokeAll and the sweeps are each a single Lua script.
// Rotate is the compare-and-swap at the heart of refresh: of N concurrent calls
// for one token, exactly one observes the record and the rest see
// [ErrSessionNotFound].
//
// # What this package must NOT do
//
//   - Interpret access tokens or roles.
//   - Store raw refresh tokens. Keys are SHA-256 hashes.
//   - Make authorization decisions.
package session
