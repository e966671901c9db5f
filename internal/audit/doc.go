// Package audit implements async dispatching of activity log events.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, logrus, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full or block-if-full semantics.
//   - [Event]: activity record with actor, role, action, module, target, IP and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit. The engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import the root package or any sibling internal package.
package audit
