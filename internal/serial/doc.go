// Package serial implements the single-flight asynchronous task serialiser.
//
// The serialiser coordinates calls into a cooperative execution environment
// that can only have one suspended asynchronous continuation outstanding at a
// time. Callers enqueue named tasks; the dispatcher drains them strictly one
// at a time, in FIFO order, and reports lifecycle through the events hub.
//
// Key properties:
//   - Single-flight: at most one task is ever in flight, regardless of how
//     many goroutines enqueue concurrently.
//   - Bounded FIFO queue with admission rejection and a high-water warning.
//   - Watchdog timer per in-flight task: a task that never resolves is force
//     completed as timed out and the dispatcher moves on.
//   - Failure isolation: a panicking or failing task never stalls the queue
//     and never leaves the dispatcher busy.
//   - Late resolutions from a timed-out or cleared task are discarded; they
//     can never be attributed to a later task.
//
// Lifecycle events (see the events package for type names):
//   - task.started(task)
//   - task.completed(task, success): exactly once per admitted task
//   - task.timed_out(task): followed by task.completed(task, false)
//   - task.rejected(task): admission refused, work never attempted
//   - queue.length(length), queue.warning(length)
package serial
