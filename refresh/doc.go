// Package refresh generates and parses opaque refresh tokens.
//
// # Token format
//
// A refresh token is 32 bytes from crypto/rand, base64url-encoded without
// padding. The session store keys records by the SHA-256 of those bytes, so the
// raw token is never persisted.
//
// # What this package must NOT do
//
//   - Access Redis or any I/O.
//   - Implement rotation or replay logic.
package refresh
