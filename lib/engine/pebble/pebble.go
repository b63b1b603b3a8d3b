// Package pebble implements the engine contract on top of cockroachdb/pebble.
package pebble

import (
	"errors"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"

	"nbkv/lib/engine"
	"nbkv/lib/logging"
)

type pebbleImpl struct {
	dir string
	db  atomic.Pointer[pebble.DB]
}

// New creates a new, unopened pebble-backed engine rooted at dir.
func New(dir string) engine.Engine {
	return &pebbleImpl{dir: dir}
}

// handle returns the open database or nil.
func (p *pebbleImpl) handle() *pebble.DB {
	return p.db.Load()
}

func writeOpts(opts engine.WriteOptions) *pebble.WriteOptions {
	if opts.Sync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// --------------------------------------------------------------------------
// Engine Interface Methods (docu see engine/interface.go)
// --------------------------------------------------------------------------

func (p *pebbleImpl) Open(opts engine.Options) error {
	if p.handle() != nil {
		return errors.New("pebble: already open")
	}

	cache := pebble.NewCache(opts.CacheSize)
	defer cache.Unref()

	lvl := pebble.LevelOptions{
		BlockSize:            opts.BlockSize,
		BlockRestartInterval: opts.BlockRestartInterval,
		Compression:          pebble.NoCompression,
	}
	if opts.Compression {
		lvl.Compression = pebble.SnappyCompression
	}
	if opts.FilterBits > 0 {
		lvl.FilterPolicy = bloom.FilterPolicy(opts.FilterBits)
	}

	po := &pebble.Options{
		Cache:            cache,
		ErrorIfExists:    opts.ErrorIfExists,
		ErrorIfNotExists: !opts.CreateIfMissing,
		MaxOpenFiles:     opts.MaxOpenFiles,
		MemTableSize:     uint64(opts.WriteBufferSize),
		Levels:           []pebble.LevelOptions{lvl},
		Logger:           logging.GetLogger("pebble"),
	}

	db, err := pebble.Open(p.dir, po)
	if err != nil {
		return err
	}
	p.db.Store(db)
	return nil
}

func (p *pebbleImpl) Close() error {
	db := p.db.Swap(nil)
	if db == nil {
		return nil
	}
	return db.Close()
}

func (p *pebbleImpl) Get(_ engine.ReadOptions, key []byte) ([]byte, error) {
	db := p.handle()
	if db == nil {
		return nil, engine.ErrClosed
	}
	v, closer, err := db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, engine.ErrNotFound
		}
		return nil, err
	}
	// v is only valid until the closer is released
	out := append([]byte(nil), v...)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *pebbleImpl) Put(opts engine.WriteOptions, key, value []byte) error {
	db := p.handle()
	if db == nil {
		return engine.ErrClosed
	}
	return db.Set(key, value, writeOpts(opts))
}

func (p *pebbleImpl) Delete(opts engine.WriteOptions, key []byte) error {
	db := p.handle()
	if db == nil {
		return engine.ErrClosed
	}
	return db.Delete(key, writeOpts(opts))
}

func (p *pebbleImpl) Write(opts engine.WriteOptions, batch *engine.Batch) error {
	db := p.handle()
	if db == nil {
		return engine.ErrClosed
	}
	b := db.NewBatch()
	defer func() { _ = b.Close() }()
	for _, op := range batch.Ops() {
		var err error
		switch op.Kind {
		case engine.OpPut:
			err = b.Set(op.Key, op.Value, nil)
		case engine.OpDelete:
			err = b.Delete(op.Key, nil)
		}
		if err != nil {
			return err
		}
	}
	return db.Apply(b, writeOpts(opts))
}

func (p *pebbleImpl) ApproximateSize(r engine.Range) (uint64, error) {
	db := p.handle()
	if db == nil {
		return 0, engine.ErrClosed
	}
	return db.EstimateDiskUsage(r.Start, r.Limit)
}
