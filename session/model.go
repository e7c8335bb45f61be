package session

import (
	"time"

	"github.com/MrEthical07/subAuth/refresh"
)

// Record is one live refresh token. It is keyed by TokenHash and owned by
// IdentityID. Times are unix seconds.
type Record struct {
	TokenHash  refresh.Hash
	IdentityID string
	IssuedAt   int64
	ExpiresAt  int64
}

// Expired reports whether the record is past its lifetime at now. A record
// whose ExpiresAt equals now is expired.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt <= now.Unix()
}

// Stats summarizes one identity's session collection.
type Stats struct {
	Active  int
	Expired int
}
