// Package audit delivers engine events to a caller-supplied sink.
//
// # Components
//
//   - [Event]: one PIN or session event with typed lockout and reset fields.
//   - [Dispatcher]: ordered queue plus a delivery goroutine. Enqueue never
//     blocks; Settle applies backpressure once the caller holds no locks.
//   - Sinks: [JSONWriterSink], [SlogSink], [SinkFunc], [NoOpSink].
//
// # Architecture boundaries
//
// This package owns queueing and delivery. The engine decides which events
// exist and fills them in.
//
// # What this package must NOT do
//
//   - Import pinlock or any sibling internal package.
//   - Let a panicking sink stop delivery of later events.
package audit
