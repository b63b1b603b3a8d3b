// Package enginetest provides a reusable conformance suite for engine
// implementations. Backends call Run from their own tests with a factory so
// the whole contract is asserted uniformly across implementations.
package enginetest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"nbkv/lib/engine"
)

// Factory creates a new, unopened engine instance rooted at dir. Backends
// without on-disk state may ignore dir.
type Factory func(dir string) engine.Engine

// Run runs the conformance suite against a backend. persistent enables the
// subtests that require state to survive a close/reopen cycle or a
// pre-existing store directory.
func Run(t *testing.T, name string, persistent bool, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, openDefault(t, factory))
		})
		t.Run("GetMissing", func(t *testing.T) {
			testGetMissing(t, openDefault(t, factory))
		})
		t.Run("DeleteMissing", func(t *testing.T) {
			testDeleteMissing(t, openDefault(t, factory))
		})
		t.Run("SyncWrite", func(t *testing.T) {
			testSyncWrite(t, openDefault(t, factory))
		})
		t.Run("Batch", func(t *testing.T) {
			testBatch(t, openDefault(t, factory))
		})
		t.Run("ApproximateSize", func(t *testing.T) {
			testApproximateSize(t, openDefault(t, factory))
		})
		t.Run("Closed", func(t *testing.T) {
			testClosed(t, factory(t.TempDir()))
		})
		if persistent {
			t.Run("Reopen", func(t *testing.T) {
				testReopen(t, factory)
			})
			t.Run("OpenMissing", func(t *testing.T) {
				testOpenMissing(t, factory)
			})
			t.Run("OpenExisting", func(t *testing.T) {
				testOpenExisting(t, factory)
			})
		}
	})
}

// openDefault opens a fresh engine with default options and registers cleanup.
func openDefault(t *testing.T, factory Factory) engine.Engine {
	t.Helper()
	e := factory(t.TempDir())
	require.NoError(t, e.Open(engine.DefaultOptions()))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testRoundTrip(t *testing.T, e engine.Engine) {
	key := []byte("test-key")
	value1 := []byte("test-value1")
	value2 := []byte("test-value2")

	require.NoError(t, e.Put(engine.WriteOptions{}, key, value1))

	got, err := e.Get(engine.ReadOptions{FillCache: true}, key)
	require.NoError(t, err)
	require.Equal(t, value1, got)

	// overwrite
	require.NoError(t, e.Put(engine.WriteOptions{}, key, value2))
	got, err = e.Get(engine.ReadOptions{}, key)
	require.NoError(t, err)
	require.Equal(t, value2, got)

	// the returned slice is caller-owned
	got[0] = 'X'
	again, err := e.Get(engine.ReadOptions{}, key)
	require.NoError(t, err)
	require.Equal(t, value2, again)
}

func testGetMissing(t *testing.T, e engine.Engine) {
	_, err := e.Get(engine.ReadOptions{}, []byte("nonexistent-key"))
	require.ErrorIs(t, err, engine.ErrNotFound)

	// an empty stored value is a hit, not a miss
	require.NoError(t, e.Put(engine.WriteOptions{}, []byte("empty"), []byte{}))
	got, err := e.Get(engine.ReadOptions{}, []byte("empty"))
	require.NoError(t, err)
	require.Len(t, got, 0)
}

func testDeleteMissing(t *testing.T, e engine.Engine) {
	require.NoError(t, e.Delete(engine.WriteOptions{}, []byte("never-existed")))
}

func testSyncWrite(t *testing.T, e engine.Engine) {
	require.NoError(t, e.Put(engine.WriteOptions{Sync: true}, []byte("k"), []byte("v")))
	require.NoError(t, e.Delete(engine.WriteOptions{Sync: true}, []byte("k")))
	_, err := e.Get(engine.ReadOptions{}, []byte("k"))
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func testBatch(t *testing.T, e engine.Engine) {
	require.NoError(t, e.Put(engine.WriteOptions{}, []byte("b"), []byte("old")))

	batch := engine.NewBatch()
	batch.Put([]byte("a"), []byte("1"))
	batch.Delete([]byte("b"))
	batch.Put([]byte("c"), []byte("2"))
	require.Equal(t, 3, batch.Len())
	require.NoError(t, e.Write(engine.WriteOptions{Sync: true}, batch))

	got, err := e.Get(engine.ReadOptions{}, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	_, err = e.Get(engine.ReadOptions{}, []byte("b"))
	require.ErrorIs(t, err, engine.ErrNotFound)

	got, err = e.Get(engine.ReadOptions{}, []byte("c"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)
}

func testApproximateSize(t *testing.T, e engine.Engine) {
	for i := 0; i < 64; i++ {
		key := fmt.Appendf(nil, "size/%03d", i)
		require.NoError(t, e.Put(engine.WriteOptions{}, key, make([]byte, 512)))
	}

	// an empty range never yields a negative or failing estimate
	n, err := e.ApproximateSize(engine.Range{Start: []byte("size/"), Limit: []byte("size/")})
	require.NoError(t, err)
	require.Zero(t, n)

	// a populated range is an estimate only, so just require success
	_, err = e.ApproximateSize(engine.Range{Start: []byte("size/"), Limit: []byte("size0")})
	require.NoError(t, err)
}

func testClosed(t *testing.T, e engine.Engine) {
	// never opened: every operation reports the closed state
	_, err := e.Get(engine.ReadOptions{}, []byte("k"))
	require.ErrorIs(t, err, engine.ErrClosed)

	require.NoError(t, e.Open(engine.DefaultOptions()))
	require.NoError(t, e.Put(engine.WriteOptions{}, []byte("k"), []byte("v")))
	require.NoError(t, e.Close())

	// close is idempotent from the caller's perspective
	require.NoError(t, e.Close())

	require.ErrorIs(t, e.Put(engine.WriteOptions{}, []byte("k"), []byte("v")), engine.ErrClosed)
	require.ErrorIs(t, e.Delete(engine.WriteOptions{}, []byte("k")), engine.ErrClosed)
	_, err = e.ApproximateSize(engine.Range{Start: []byte("a"), Limit: []byte("z")})
	require.ErrorIs(t, err, engine.ErrClosed)
}

func testReopen(t *testing.T, factory Factory) {
	dir := t.TempDir()

	e := factory(dir)
	require.NoError(t, e.Open(engine.DefaultOptions()))
	require.NoError(t, e.Put(engine.WriteOptions{Sync: true}, []byte("persist"), []byte("me")))
	require.NoError(t, e.Close())

	e = factory(dir)
	require.NoError(t, e.Open(engine.DefaultOptions()))
	defer func() { _ = e.Close() }()

	got, err := e.Get(engine.ReadOptions{}, []byte("persist"))
	require.NoError(t, err)
	require.Equal(t, []byte("me"), got)
}

func testOpenMissing(t *testing.T, factory Factory) {
	opts := engine.DefaultOptions()
	opts.CreateIfMissing = false

	e := factory(t.TempDir())
	require.Error(t, e.Open(opts))
}

func testOpenExisting(t *testing.T, factory Factory) {
	dir := t.TempDir()

	e := factory(dir)
	require.NoError(t, e.Open(engine.DefaultOptions()))
	require.NoError(t, e.Put(engine.WriteOptions{Sync: true}, []byte("k"), []byte("v")))
	require.NoError(t, e.Close())

	opts := engine.DefaultOptions()
	opts.ErrorIfExists = true
	e = factory(dir)
	require.Error(t, e.Open(opts))
}
