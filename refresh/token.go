package refresh

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	// SecretSize is the number of random bytes in a refresh token.
	SecretSize = 32

	encodedLen = 43
)

var (
	// ErrEmpty is returned by Parse for a missing token.
	ErrEmpty = errors.New("refresh token missing")
	// ErrMalformed is returned by Parse when the token has the wrong shape.
	ErrMalformed = errors.New("refresh token malformed")
)

// Hash is the store key for a refresh token.
type Hash [32]byte

// String returns the lowercase hex form used in store keys.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// New returns a fresh token and its hash. The raw token is returned to the
// client once and never persisted.
func New() (string, Hash, error) {
	var secret [SecretSize]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", Hash{}, err
	}
	token := base64.RawURLEncoding.EncodeToString(secret[:])
	return token, sha256.Sum256(secret[:]), nil
}

// Parse checks the token shape and returns its hash without any I/O.
func Parse(token string) (Hash, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Hash{}, ErrEmpty
	}
	if len(token) != encodedLen {
		return Hash{}, ErrMalformed
	}
	raw, err := base64.RawURLEncoding.Strict().DecodeString(token)
	if err != nil || len(raw) != SecretSize {
		return Hash{}, ErrMalformed
	}
	return sha256.Sum256(raw), nil
}

// HashOf is Parse for callers that already know the token is well formed,
// such as sign-out of an arbitrary string. Malformed input hashes to the zero
// Hash.
func HashOf(token string) Hash {
	h, err := Parse(token)
	if err != nil {
		return Hash{}
	}
	return h
}
