// Package identity defines the Identity model and its persistence.
//
// [PGStore] keeps identities in Postgres with a unique index on lower(email);
// [MemoryStore] implements the same contract in process. Both report duplicate
// emails as [ErrEmailTaken] and missing rows as [ErrNotFound].
//
// Password hashing, role-assignment rules and session revocation live above
// this package.
package identity
