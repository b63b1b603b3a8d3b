package engine

// --------------------------------------------------------------------------
// Batch
// --------------------------------------------------------------------------

// OpKind discriminates the operations recorded in a Batch.
type OpKind uint8

const (
	OpPut OpKind = iota
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpPut:
		return "put"
	case OpDelete:
		return "del"
	default:
		return "unknown"
	}
}

// Op is a single recorded batch operation. Value is nil for deletes.
type Op struct {
	Kind  OpKind
	Key   []byte
	Value []byte
}

// Batch is an ordered sequence of put/delete operations, recorded
// backend-neutrally and replayed by each engine inside its native atomic
// write primitive. Operations apply in recording order.
//
// Thread-safety: a Batch is owned by a single caller until it is handed to
// Engine.Write and must not be mutated concurrently.
type Batch struct {
	ops []Op
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Put records an insert or update.
func (b *Batch) Put(key, value []byte) {
	b.ops = append(b.ops, Op{Kind: OpPut, Key: key, Value: value})
}

// Delete records a key removal.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, Op{Kind: OpDelete, Key: key})
}

// Len returns the number of recorded operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Ops returns the recorded operations in order.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Clear drops all recorded operations and their key/value references.
func (b *Batch) Clear() {
	b.ops = nil
}
