// Package audit implements the buffered async relay behind the audit recorder.
//
// # Components
//
//   - [Sink] is the consumer interface, called from one goroutine.
//   - [Dispatcher] is a buffered relay with drop-if-full or block-if-full semantics.
//
// # What this package must NOT do
//
//   - Filter or suppress values based on business logic.
//   - Import subAuth or any sibling internal package.
package audit
