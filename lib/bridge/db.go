package bridge

import (
	"nbkv/lib/engine"
)

// DB is the host-facing wrapper around one engine handle. Every method
// captures its inputs into a task, pins caller-supplied buffers and submits
// the task to the dispatcher; the callback fires later on the dispatch
// goroutine. A non-nil return value means the task was never submitted and
// the callback will not fire.
//
// The DB must be kept alive, and its dispatcher drained, until all
// outstanding tasks have completed.
type DB struct {
	engine     engine.Engine
	dispatcher *Dispatcher
	pins       *pinTable
}

// NewDB wraps an unopened engine. The engine handle is exclusively owned by
// the returned DB; tasks hold non-owning references to it.
func NewDB(e engine.Engine, d *Dispatcher) *DB {
	return &DB{
		engine:     e,
		dispatcher: d,
		pins:       newPinTable(),
	}
}

func (db *DB) newBase(cb Callback) baseTask {
	return baseTask{db: db, status: okStatus(), callback: cb}
}

// PinnedBuffers returns the number of external buffers currently pinned by
// in-flight tasks. It is zero whenever no task is outstanding.
func (db *DB) PinnedBuffers() int {
	return db.pins.size()
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// Open opens the engine with the given options. The options are copied here
// and never re-read from the caller. Callback: (err).
func (db *DB) Open(cb Callback, opts engine.Options) error {
	return db.dispatcher.Submit(&openTask{
		baseTask: db.newBase(cb),
		opts:     opts,
	})
}

// Close closes the engine. Callback: (err); see closeTask for the decision
// to surface close failures.
func (db *DB) Close(cb Callback) error {
	return db.dispatcher.Submit(&closeTask{
		baseTask: db.newBase(cb),
	})
}

// Get reads a key. Callback: (err, value) where value is a []byte if
// asBuffer is set and a string otherwise, or the NotFound signal on a miss.
func (db *DB) Get(cb Callback, key []byte, asBuffer, fillCache bool) error {
	t := &readTask{
		baseTask:  db.newBase(cb),
		singleKey: singleKey{key: db.pins.external(key)},
		opts:      engine.ReadOptions{FillCache: fillCache},
		asBuffer:  asBuffer,
	}
	if err := db.dispatcher.Submit(t); err != nil {
		t.releaseKey()
		return err
	}
	return nil
}

// Delete removes a key. Deleting a non-existent key succeeds.
// Callback: (err).
func (db *DB) Delete(cb Callback, key []byte, sync bool) error {
	t := &deleteTask{
		baseTask:  db.newBase(cb),
		singleKey: singleKey{key: db.pins.external(key)},
		opts:      engine.WriteOptions{Sync: sync},
	}
	if err := db.dispatcher.Submit(t); err != nil {
		t.releaseKey()
		return err
	}
	return nil
}

// Put writes a key-value pair. Callback: (err).
func (db *DB) Put(cb Callback, key, value []byte, sync bool) error {
	t := &writeTask{
		deleteTask: deleteTask{
			baseTask:  db.newBase(cb),
			singleKey: singleKey{key: db.pins.external(key)},
			opts:      engine.WriteOptions{Sync: sync},
		},
		value: db.pins.external(value),
	}
	if err := db.dispatcher.Submit(t); err != nil {
		t.value.Release()
		t.releaseKey()
		return err
	}
	return nil
}

// Write applies a batch atomically. The batch becomes exclusively owned by
// the task and must not be touched by the caller afterwards. Callback: (err).
func (db *DB) Write(cb Callback, batch *engine.Batch, sync bool) error {
	return db.dispatcher.Submit(&batchTask{
		baseTask: db.newBase(cb),
		batch:    batch,
		opts:     engine.WriteOptions{Sync: sync},
	})
}

// ApproximateSize estimates the stored size of the key range
// [start, limit). Callback: (err, size uint64).
func (db *DB) ApproximateSize(cb Callback, start, limit []byte) error {
	t := &sizeTask{
		baseTask: db.newBase(cb),
		start:    db.pins.external(start),
		limit:    db.pins.external(limit),
	}
	if err := db.dispatcher.Submit(t); err != nil {
		t.start.Release()
		t.limit.Release()
		return err
	}
	return nil
}
