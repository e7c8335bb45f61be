// Package password implements password hashing and verification with argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Every hash carries its own random salt and cost parameters, so [Argon2.Compare]
// keeps working after the configured cost changes. [Argon2.NeedsUpgrade] reports
// hashes produced with weaker parameters so the caller can re-hash after the next
// successful sign-in.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other subAuth package.
//   - Log plaintext passwords.
package password
