// Package middleware adapts subAuth access-token verification and role
// checks to net/http.
//
// # Chain
//
//   - [Authenticate] verifies the bearer token through Engine.VerifyAccessToken
//     and stores the [subAuth.AuthResult] on the request context.
//   - [RequireRole] admits a role and everything ranked above it.
//   - [RequireAnyOf] admits an exact set of roles.
//
// Rejections are written as {"error":{"kind":...,"message":...}}.
//
// # What this package must NOT do
//
//   - Parse or sign tokens. Verification belongs to the Engine.
//   - Talk to Redis or the identity store directly.
package middleware
