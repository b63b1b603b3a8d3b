package engine

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Implementation identifies an engine backend.
type Implementation string

const (
	ImplPebble Implementation = "pebble"
	ImplBadger Implementation = "badger"
	ImplMemory Implementation = "memory"
)

// Options holds the tunables applied when an engine is opened. The struct is
// copied into the engine at Open time and never re-read from the caller
// afterwards.
type Options struct {
	// CacheSize is the block cache capacity in bytes.
	CacheSize int64
	// FilterBits configures the bloom filter (bits per key). Zero disables
	// the filter.
	FilterBits int
	// CreateIfMissing creates the store on first open. If false, opening a
	// non-existent store fails.
	CreateIfMissing bool
	// ErrorIfExists makes Open fail if the store already exists.
	ErrorIfExists bool
	// Compression enables snappy block compression.
	Compression bool
	// WriteBufferSize is the memtable size in bytes.
	WriteBufferSize int
	// BlockSize is the uncompressed data block size in bytes.
	BlockSize int
	// MaxOpenFiles limits the number of files the engine keeps open.
	MaxOpenFiles int
	// BlockRestartInterval is the number of keys between restart points
	// for delta encoding of keys.
	BlockRestartInterval int
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		CacheSize:            8 << 20,
		FilterBits:           10,
		CreateIfMissing:      true,
		ErrorIfExists:        false,
		Compression:          true,
		WriteBufferSize:      4 << 20,
		BlockSize:            4096,
		MaxOpenFiles:         1000,
		BlockRestartInterval: 16,
	}
}

// ReadOptions holds per-read configuration.
type ReadOptions struct {
	// FillCache controls whether blocks read by this call should populate the
	// block cache. Backends without per-read cache control accept and ignore
	// the flag.
	FillCache bool
}

// WriteOptions holds per-write configuration.
type WriteOptions struct {
	// Sync forces the write to be flushed to stable storage before the call
	// returns.
	Sync bool
}

// Range describes a key range [Start, Limit) for size estimation.
type Range struct {
	Start []byte
	Limit []byte
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// Engine is the blocking storage collaborator driven by the bridge package.
// A zero-value engine is created closed; Open must succeed before any other
// operation. All methods may block for the full duration of the underlying
// storage call.
type Engine interface {
	// Open opens the store with the given options.
	Open(opts Options) error

	// Close closes the store. Closing an already-closed engine is a no-op.
	Close() error

	// Get retrieves the value for a key. A missing key is reported as
	// ErrNotFound, never as a zero-length value. The returned slice is owned
	// by the caller.
	Get(opts ReadOptions, key []byte) (value []byte, err error)

	// Put inserts or updates a key-value pair.
	Put(opts WriteOptions, key, value []byte) error

	// Delete removes a key-value pair. Deleting a non-existent key is not an
	// error.
	Delete(opts WriteOptions, key []byte) error

	// Write applies a batch atomically: either every operation in the batch
	// takes effect or none do.
	Write(opts WriteOptions, batch *Batch) error

	// ApproximateSize estimates the on-disk byte size of the key range. The
	// result is an estimate, not an exact accounting, and may be zero for
	// data that has not reached stable storage yet.
	ApproximateSize(r Range) (uint64, error)
}
