package bridge

import (
	"nbkv/lib/engine"
)

// --------------------------------------------------------------------------
// Open
// --------------------------------------------------------------------------

// openTask opens the engine. All tunables are copied into the options value
// at construction and never re-read from the caller.
type openTask struct {
	baseTask
	opts engine.Options
}

func (t *openTask) Execute() {
	t.setStatus(statusFromErr(t.db.engine.Open(t.opts)))
}

func (t *openTask) Complete() {
	t.fire()
}

// --------------------------------------------------------------------------
// Close
// --------------------------------------------------------------------------

// closeTask closes the engine. Closing an already-closed handle is a no-op
// at the engine level; a genuine close failure is surfaced as the callback's
// error argument rather than silently reported as success.
type closeTask struct {
	baseTask
}

func (t *closeTask) Execute() {
	t.setStatus(statusFromErr(t.db.engine.Close()))
}

func (t *closeTask) Complete() {
	t.fire()
}

// --------------------------------------------------------------------------
// Read
// --------------------------------------------------------------------------

type readTask struct {
	baseTask
	singleKey
	opts     engine.ReadOptions
	asBuffer bool

	// value holds the internal-tagged copy fetched by Execute, owned by the
	// task until the completion phase translates it into the host
	// representation and releases it.
	value *Buffer
}

func (t *readTask) Execute() {
	v, err := t.db.engine.Get(t.opts, t.key.Bytes())
	if err == nil {
		t.value = internalBuffer(v)
	}
	t.setStatus(statusFromErr(err))
}

func (t *readTask) Complete() {
	t.releaseKey()
	if t.status.NotFound() {
		t.fire(NotFound)
		return
	}
	if !t.status.OK() {
		t.fire()
		return
	}
	// the representation choice is applied only here, on the dispatch
	// goroutine; the raw bytes transfer to the callback
	if t.asBuffer {
		t.fire(t.value.Bytes())
	} else {
		t.fire(string(t.value.Bytes()))
	}
	t.value.Release()
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

type deleteTask struct {
	baseTask
	singleKey
	opts engine.WriteOptions
}

func (t *deleteTask) Execute() {
	t.setStatus(statusFromErr(t.db.engine.Delete(t.opts, t.key.Bytes())))
}

func (t *deleteTask) Complete() {
	t.releaseKey()
	t.fire()
}

// --------------------------------------------------------------------------
// Write
// --------------------------------------------------------------------------

// writeTask extends the delete task's shape with an external value buffer.
// The value is released before the key, and both before the callback fires.
type writeTask struct {
	deleteTask
	value *Buffer
}

func (t *writeTask) Execute() {
	t.setStatus(statusFromErr(t.db.engine.Put(t.opts, t.key.Bytes(), t.value.Bytes())))
}

func (t *writeTask) Complete() {
	t.value.Release()
	t.deleteTask.Complete()
}

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

// batchTask applies a pre-built batch atomically. The batch is exclusively
// owned by the task and cleared during the completion phase.
type batchTask struct {
	baseTask
	batch *engine.Batch
	opts  engine.WriteOptions
}

func (t *batchTask) Execute() {
	t.setStatus(statusFromErr(t.db.engine.Write(t.opts, t.batch)))
}

func (t *batchTask) Complete() {
	t.batch.Clear()
	t.fire()
}

// --------------------------------------------------------------------------
// ApproximateSize
// --------------------------------------------------------------------------

type sizeTask struct {
	baseTask
	start *Buffer
	limit *Buffer
	size  uint64
}

func (t *sizeTask) Execute() {
	n, err := t.db.engine.ApproximateSize(engine.Range{
		Start: t.start.Bytes(),
		Limit: t.limit.Bytes(),
	})
	t.size = n
	t.setStatus(statusFromErr(err))
}

func (t *sizeTask) Complete() {
	t.start.Release()
	t.limit.Release()
	if !t.status.OK() {
		t.fire()
		return
	}
	t.fire(t.size)
}
