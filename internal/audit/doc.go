// Package audit delivers account and session events to a [Sink] off the
// request path.
//
// A [Dispatcher] owns a buffered channel and one goroutine. With DropIfFull
// set, a full buffer drops the event and increments [Dispatcher.Dropped];
// otherwise Emit blocks until there is room or the context ends. Close drains
// what is buffered.
//
// Which events are emitted is decided by the caller. Sinks shipped here: a
// channel, JSON lines over an io.Writer, and a zerolog logger.
package audit
