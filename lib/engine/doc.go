// Package engine defines the contract between the async bridge and the
// embedded key-value storage backends it drives. It provides a single Engine
// interface together with the option, batch and range types shared by all
// implementations.
//
// The package focuses on:
//   - A unified, blocking interface for key-value operations
//   - Option structs materialized once per call, never re-read from the caller
//   - A backend-neutral write batch that every implementation applies atomically
//   - Sentinel errors that let callers distinguish a missing key and a closed
//     engine from genuine I/O failures
//
// Key Components:
//
//   - Engine Interface: Open, Close, Get, Put, Delete, Write and
//     ApproximateSize. All methods block the calling goroutine for the full
//     duration of the underlying storage call; callers that need non-blocking
//     behavior should drive an Engine through the bridge package.
//
//   - Options: The tunables applied at Open time (cache size, bloom filter
//     bits, create-if-missing, error-if-exists, compression, write buffer,
//     block size, open file limit, block restart interval). Implementations
//     map each field onto the nearest native knob and ignore fields their
//     backend cannot express.
//
//   - Batch: An ordered sequence of put/delete operations. The sequence is
//     recorded backend-neutrally and replayed by each implementation inside
//     its native atomic write primitive, so either every operation in the
//     batch takes effect or none do.
//
// Implementations live in the subpackages pebble, badger and memory.
//
// Thread-safety: an opened Engine must tolerate concurrent calls from
// multiple goroutines; the bridge adds no locking of its own around engine
// calls. A Batch is owned by a single caller and is not safe for concurrent
// mutation.
package engine
