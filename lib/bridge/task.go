package bridge

// --------------------------------------------------------------------------
// Callback
// --------------------------------------------------------------------------

// Callback receives the outcome of a task: a nil error on success and
// operation-specific results afterwards (the value for a read, the byte size
// for a size estimate, nothing otherwise). Every task invokes its callback
// exactly once, on the dispatch goroutine.
type Callback func(err error, args ...interface{})

// notFoundSignal distinguishes a read miss from every possible stored value.
type notFoundSignal struct{}

func (notFoundSignal) String() string { return "<not found>" }

// NotFound is passed as the single result argument of a read callback when
// the key does not exist. Callers compare against it to tell "no such key"
// apart from an error and from an empty stored value.
var NotFound = notFoundSignal{}

// --------------------------------------------------------------------------
// Task
// --------------------------------------------------------------------------

// Task is the unit of deferred engine work.
//
// Execute runs on a background worker, performs exactly one engine call and
// records a Status. It must not invoke the callback or dispose buffers.
//
// Complete runs on the dispatch goroutine after Execute has returned. It
// disposes every buffer the task owns, then fires the callback once with the
// error and results derived from the Status. Complete must never block.
type Task interface {
	Execute()
	Complete()
}

// baseTask carries the state shared by all task variants: a non-owning
// reference to the DB wrapper (and through it the engine handle), the status
// produced by Execute and the single-fire callback.
type baseTask struct {
	db       *DB
	status   Status
	callback Callback
	fired    bool
}

func (t *baseTask) setStatus(s Status) {
	t.status = s
}

// failed is read by the dispatcher for metrics after Complete.
func (t *baseTask) failed() bool {
	return t.status.failed()
}

// fire invokes the callback exactly once and forgets the reference so it can
// never fire twice. Firing twice is a contract violation.
func (t *baseTask) fire(args ...interface{}) {
	if t.fired {
		panic("nbkv: task callback fired twice")
	}
	t.fired = true
	cb := t.callback
	t.callback = nil
	if cb == nil {
		return
	}
	cb(t.status.Err(), args...)
}

// --------------------------------------------------------------------------
// Single-Key Operations
// --------------------------------------------------------------------------

// singleKey is the value object shared by the read, delete and write tasks:
// one external key buffer, pinned at construction and released exactly once
// during the completion phase.
type singleKey struct {
	key *Buffer
}

func (s *singleKey) releaseKey() {
	s.key.Release()
}
