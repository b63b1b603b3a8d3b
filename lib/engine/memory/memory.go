// Package memory implements the engine contract on top of a concurrent
// in-process map. It exists for tests and for running the bridge without any
// on-disk state; data survives close/reopen of the same instance but never
// the process.
package memory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"nbkv/lib/engine"
)

type memImpl struct {
	data *xsync.MapOf[string, []byte]
	open atomic.Bool

	// created is set after the first successful open so that
	// CreateIfMissing/ErrorIfExists behave like a persistent store for the
	// lifetime of the instance. Guarded by wmu.
	created bool

	// wmu serializes writers, so a batch applies as a unit relative to other
	// writers, and guards created. Readers stay lock-free.
	wmu sync.Mutex
}

// New creates a new, unopened in-memory engine.
func New() engine.Engine {
	return &memImpl{
		data: xsync.NewMapOf[string, []byte](),
	}
}

// --------------------------------------------------------------------------
// Engine Interface Methods (docu see engine/interface.go)
// --------------------------------------------------------------------------

func (m *memImpl) Open(opts engine.Options) error {
	m.wmu.Lock()
	defer m.wmu.Unlock()
	if !m.created && !opts.CreateIfMissing {
		return fmt.Errorf("memory: store does not exist (create-if-missing is false)")
	}
	if m.created && opts.ErrorIfExists {
		return fmt.Errorf("memory: store already exists (error-if-exists is true)")
	}
	m.created = true
	m.open.Store(true)
	return nil
}

func (m *memImpl) Close() error {
	m.open.Store(false)
	return nil
}

func (m *memImpl) Get(_ engine.ReadOptions, key []byte) ([]byte, error) {
	if !m.open.Load() {
		return nil, engine.ErrClosed
	}
	v, ok := m.data.Load(string(key))
	if !ok {
		return nil, engine.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memImpl) Put(_ engine.WriteOptions, key, value []byte) error {
	if !m.open.Load() {
		return engine.ErrClosed
	}
	m.wmu.Lock()
	defer m.wmu.Unlock()
	m.data.Store(string(key), append([]byte(nil), value...))
	return nil
}

func (m *memImpl) Delete(_ engine.WriteOptions, key []byte) error {
	if !m.open.Load() {
		return engine.ErrClosed
	}
	m.wmu.Lock()
	defer m.wmu.Unlock()
	m.data.Delete(string(key))
	return nil
}

func (m *memImpl) Write(_ engine.WriteOptions, batch *engine.Batch) error {
	if !m.open.Load() {
		return engine.ErrClosed
	}
	m.wmu.Lock()
	defer m.wmu.Unlock()
	for _, op := range batch.Ops() {
		switch op.Kind {
		case engine.OpPut:
			m.data.Store(string(op.Key), append([]byte(nil), op.Value...))
		case engine.OpDelete:
			m.data.Delete(string(op.Key))
		}
	}
	return nil
}

func (m *memImpl) ApproximateSize(r engine.Range) (uint64, error) {
	if !m.open.Load() {
		return 0, engine.ErrClosed
	}
	start, limit := string(r.Start), string(r.Limit)
	var total uint64
	m.data.Range(func(k string, v []byte) bool {
		if k < start {
			return true
		}
		if len(limit) > 0 && k >= limit {
			return true
		}
		total += uint64(len(k) + len(v))
		return true
	})
	return total, nil
}
