// Package jwt issues and verifies short-lived access tokens.
//
// An access token carries the identity id and role and is verified without any
// store lookup. Expired tokens are reported as [ErrExpired] so callers can ask the
// client to refresh; every other rejection is [ErrInvalid].
package jwt
