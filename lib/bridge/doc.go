// Package bridge turns the blocking engine contract into a callback-driven,
// non-blocking API. Every operation is captured as a Task holding the engine
// handle, its inputs and a completion callback; a Dispatcher executes the
// task's background phase on a worker goroutine and its completion phase on a
// single dispatch goroutine, exactly once each, in that order.
//
// Key Components:
//
//   - Task: the unit of deferred engine work. Execute runs on a background
//     worker, performs exactly one engine call and records a Status; Complete
//     runs on the dispatch goroutine, disposes the buffers the task owns and
//     fires the callback once with (error, results...).
//
//   - Dispatcher: the scheduler enforcing the task lifecycle
//     Constructed -> Executing -> Completed -> Destroyed. Execute phases run
//     concurrently on a worker pool; all Complete phases and therefore all
//     callbacks run on one goroutine, so callers never need their own
//     synchronization inside callbacks.
//
//   - DB: the host-facing wrapper owning the engine handle. Its methods
//     (Open, Close, Get, Put, Delete, Write, ApproximateSize) construct the
//     matching task variant, pin caller-supplied buffers and submit.
//
//   - Buffer: an ownership-tagged byte view. Caller-owned (external) buffers
//     are pinned at task construction and released exactly once during
//     Complete, after the engine call that reads them has finished. Internal
//     buffers are task-private copies.
//
//   - Status: the outcome of one engine call. A read miss is recorded as a
//     distinguished not-found status and surfaces as the NotFound signal
//     value with a nil error, never as an error and never as an empty value.
//
// Errors inside Execute never cross the goroutine boundary directly; they are
// recorded in the task's Status and translated into the callback's error
// argument during Complete. Contract violations inside the bridge (double
// buffer release, double callback fire) panic.
//
// There is no cancellation: a submitted task always runs to completion.
// Dispatcher.Drain blocks until every in-flight task has completed and must
// be called before releasing the engine handle at shutdown.
package bridge
