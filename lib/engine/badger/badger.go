// Package badger implements the engine contract on top of dgraph-io/badger.
//
// Badger diverges from the contract in a few places that are papered over
// here: it always creates a missing store, so CreateIfMissing and
// ErrorIfExists are emulated with a MANIFEST existence check; it has no
// per-write sync flag, so a synchronous write is followed by an explicit
// db.Sync(); and it has no range-size API, so ApproximateSize iterates the
// range and sums the per-item size estimates.
package badger

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"nbkv/lib/engine"
	"nbkv/lib/logging"
)

type badgerImpl struct {
	dir string
	db  atomic.Pointer[badger.DB]
}

// New creates a new, unopened badger-backed engine rooted at dir.
func New(dir string) engine.Engine {
	return &badgerImpl{dir: dir}
}

func (b *badgerImpl) handle() *badger.DB {
	return b.db.Load()
}

// exists reports whether a badger store has been created at dir.
func (b *badgerImpl) exists() bool {
	_, err := os.Stat(filepath.Join(b.dir, "MANIFEST"))
	return err == nil
}

// --------------------------------------------------------------------------
// Engine Interface Methods (docu see engine/interface.go)
// --------------------------------------------------------------------------

func (b *badgerImpl) Open(opts engine.Options) error {
	if b.handle() != nil {
		return errors.New("badger: already open")
	}
	if !opts.CreateIfMissing && !b.exists() {
		return fmt.Errorf("badger: store %s does not exist (create-if-missing is false)", b.dir)
	}
	if opts.ErrorIfExists && b.exists() {
		return fmt.Errorf("badger: store %s already exists (error-if-exists is true)", b.dir)
	}

	bo := badger.DefaultOptions(b.dir).
		WithLogger(logging.GetLogger("badger")).
		WithBlockCacheSize(opts.CacheSize).
		WithBlockSize(opts.BlockSize).
		WithMemTableSize(int64(opts.WriteBufferSize)).
		WithCompression(options.None)
	if opts.Compression {
		bo = bo.WithCompression(options.Snappy)
	}
	if opts.FilterBits <= 0 {
		bo = bo.WithBloomFalsePositive(0)
	}

	db, err := badger.Open(bo)
	if err != nil {
		return err
	}
	b.db.Store(db)
	return nil
}

func (b *badgerImpl) Close() error {
	db := b.db.Swap(nil)
	if db == nil {
		return nil
	}
	return db.Close()
}

func (b *badgerImpl) Get(_ engine.ReadOptions, key []byte) ([]byte, error) {
	db := b.handle()
	if db == nil {
		return nil, engine.ErrClosed
	}
	var value []byte
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *badgerImpl) Put(opts engine.WriteOptions, key, value []byte) error {
	db := b.handle()
	if db == nil {
		return engine.ErrClosed
	}
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return err
	}
	return b.maybeSync(db, opts)
}

func (b *badgerImpl) Delete(opts engine.WriteOptions, key []byte) error {
	db := b.handle()
	if db == nil {
		return engine.ErrClosed
	}
	err := db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	return b.maybeSync(db, opts)
}

func (b *badgerImpl) Write(opts engine.WriteOptions, batch *engine.Batch) error {
	db := b.handle()
	if db == nil {
		return engine.ErrClosed
	}
	// a single transaction keeps the all-or-nothing contract
	err := db.Update(func(txn *badger.Txn) error {
		for _, op := range batch.Ops() {
			var err error
			switch op.Kind {
			case engine.OpPut:
				err = txn.Set(op.Key, op.Value)
			case engine.OpDelete:
				err = txn.Delete(op.Key)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.maybeSync(db, opts)
}

func (b *badgerImpl) ApproximateSize(r engine.Range) (uint64, error) {
	db := b.handle()
	if db == nil {
		return 0, engine.ErrClosed
	}
	var total uint64
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{})
		defer it.Close()
		for it.Seek(r.Start); it.Valid(); it.Next() {
			item := it.Item()
			if len(r.Limit) > 0 && bytes.Compare(item.Key(), r.Limit) >= 0 {
				break
			}
			total += uint64(item.EstimatedSize())
		}
		return nil
	})
	return total, err
}

func (b *badgerImpl) maybeSync(db *badger.DB, opts engine.WriteOptions) error {
	if !opts.Sync {
		return nil
	}
	return db.Sync()
}
