// Package audit records privileged actions in an append-only log.
//
// # Components
//
//   - [Entry] and the closed [Action] / [TargetType] enums.
//   - [Store], implemented by [PGStore] (Postgres, trigger-enforced
//     immutability) and [MemoryStore].
//   - [Recorder], which stamps id, time, client IP and user agent and hands
//     entries to a [Sink] through a buffered dispatcher.
//
// # Contract
//
// [Recorder.Record] never reports failure as an error: validation problems,
// a full buffer and store errors are logged and counted. Entries are never
// updated or deleted; every attempt returns [ErrAppendOnly].
package audit
