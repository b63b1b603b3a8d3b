package bridge

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Ownership
// --------------------------------------------------------------------------

// Ownership records which side owns a buffer's memory.
type Ownership uint8

const (
	// External marks caller-supplied memory. The buffer is pinned in the pin
	// table at construction and the caller's bytes must not be touched by
	// anyone else until Release.
	External Ownership = iota
	// Internal marks a task-private copy.
	Internal
)

// --------------------------------------------------------------------------
// Pin Table
// --------------------------------------------------------------------------

// pinTable holds a strong reference to every external buffer currently owned
// by an in-flight task. An entry exists from task construction until the
// task's completion phase releases it, which keeps the caller's memory
// reachable for the full duration of the background engine call.
//
// Thread-safety: pins are taken on the caller's goroutine and released on the
// dispatch goroutine; xsync.MapOf makes both safe.
type pinTable struct {
	refs *xsync.MapOf[uint64, []byte]
	seq  atomic.Uint64
}

func newPinTable() *pinTable {
	return &pinTable{refs: xsync.NewMapOf[uint64, []byte]()}
}

// external pins data and returns the owning buffer.
func (p *pinTable) external(data []byte) *Buffer {
	id := p.seq.Add(1)
	p.refs.Store(id, data)
	return &Buffer{data: data, owner: External, pins: p, id: id}
}

// size returns the number of currently pinned buffers.
func (p *pinTable) size() int {
	return p.refs.Size()
}

// --------------------------------------------------------------------------
// Buffer
// --------------------------------------------------------------------------

// Buffer is a byte view paired with an ownership tag. Exactly one Release
// happens per buffer, on the dispatch goroutine, after the background phase
// is done reading it.
type Buffer struct {
	data     []byte
	owner    Ownership
	pins     *pinTable
	id       uint64
	released bool
}

// internalBuffer wraps a task-private copy.
func internalBuffer(data []byte) *Buffer {
	return &Buffer{data: data, owner: Internal}
}

// Bytes returns the underlying view. Must not be called after Release.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Release disposes the buffer: an external buffer is unpinned, an internal
// one just drops its reference. Releasing twice is a contract violation.
func (b *Buffer) Release() {
	if b.released {
		panic("nbkv: buffer released twice")
	}
	b.released = true
	if b.owner == External {
		b.pins.refs.Delete(b.id)
	}
	b.data = nil
}
