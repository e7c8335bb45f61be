package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a lexicographically sortable identifier for append-only rows.
func New() string {
	return NewAt(time.Now())
}

// NewAt is New with an explicit timestamp component.
func NewAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewIdentityID returns a random UUID string for identity rows.
func NewIdentityID() string {
	return uuid.NewString()
}

// ValidIdentityID reports whether s parses as a UUID.
func ValidIdentityID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
