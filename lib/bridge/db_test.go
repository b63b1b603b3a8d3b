package bridge

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"nbkv/lib/engine"
	"nbkv/lib/engine/memory"
)

// cbResult captures one callback invocation.
type cbResult struct {
	err  error
	args []interface{}
}

// awaitResult submits an operation and blocks until its callback fires.
func awaitResult(t *testing.T, submit func(Callback) error) cbResult {
	t.Helper()
	ch := make(chan cbResult, 1)
	err := submit(func(err error, args ...interface{}) {
		ch <- cbResult{err: err, args: args}
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return <-ch
}

// openMemoryDB returns an opened memory-backed DB and registers teardown.
func openMemoryDB(t *testing.T) *DB {
	t.Helper()
	d := NewDispatcher(4)
	db := NewDB(memory.New(), d)
	t.Cleanup(d.Close)

	res := awaitResult(t, func(cb Callback) error {
		return db.Open(cb, engine.DefaultOptions())
	})
	if res.err != nil {
		t.Fatalf("open failed: %v", res.err)
	}
	return db
}

func TestWriteReadRoundTrip(t *testing.T) {
	db := openMemoryDB(t)

	res := awaitResult(t, func(cb Callback) error {
		return db.Put(cb, []byte("key"), []byte("value"), false)
	})
	if res.err != nil {
		t.Fatalf("put failed: %v", res.err)
	}

	// asBuffer selects the raw-byte representation
	res = awaitResult(t, func(cb Callback) error {
		return db.Get(cb, []byte("key"), true, true)
	})
	if res.err != nil {
		t.Fatalf("get failed: %v", res.err)
	}
	got, ok := res.args[0].([]byte)
	if !ok {
		t.Fatalf("expected []byte result, got %T", res.args[0])
	}
	if !bytes.Equal(got, []byte("value")) {
		t.Errorf("expected %q, got %q", "value", got)
	}

	// otherwise the value comes back as text
	res = awaitResult(t, func(cb Callback) error {
		return db.Get(cb, []byte("key"), false, true)
	})
	if s, ok := res.args[0].(string); !ok || s != "value" {
		t.Errorf("expected string %q, got %T %v", "value", res.args[0], res.args[0])
	}
}

func TestReadMissSignal(t *testing.T) {
	db := openMemoryDB(t)

	res := awaitResult(t, func(cb Callback) error {
		return db.Get(cb, []byte("no-such-key"), true, true)
	})
	if res.err != nil {
		t.Fatalf("a read miss must not be an error, got %v", res.err)
	}
	if res.args[0] != NotFound {
		t.Fatalf("expected the NotFound signal, got %v", res.args[0])
	}

	// an empty stored value must not be confused with a miss
	awaitResult(t, func(cb Callback) error {
		return db.Put(cb, []byte("empty"), []byte{}, false)
	})
	res = awaitResult(t, func(cb Callback) error {
		return db.Get(cb, []byte("empty"), true, true)
	})
	if res.err != nil {
		t.Fatalf("get failed: %v", res.err)
	}
	got, ok := res.args[0].([]byte)
	if !ok || len(got) != 0 {
		t.Errorf("expected empty []byte, got %T %v", res.args[0], res.args[0])
	}
}

func TestDeleteThenRead(t *testing.T) {
	db := openMemoryDB(t)

	awaitResult(t, func(cb Callback) error {
		return db.Put(cb, []byte("k"), []byte("v"), false)
	})
	res := awaitResult(t, func(cb Callback) error {
		return db.Delete(cb, []byte("k"), false)
	})
	if res.err != nil {
		t.Fatalf("delete failed: %v", res.err)
	}

	res = awaitResult(t, func(cb Callback) error {
		return db.Get(cb, []byte("k"), true, true)
	})
	if res.err != nil || res.args[0] != NotFound {
		t.Errorf("expected miss after delete, got err=%v args=%v", res.err, res.args)
	}

	// deleting a non-existent key succeeds
	res = awaitResult(t, func(cb Callback) error {
		return db.Delete(cb, []byte("never-existed"), false)
	})
	if res.err != nil {
		t.Errorf("deleting a missing key must succeed, got %v", res.err)
	}
}

func TestBatchAllOrNothing(t *testing.T) {
	db := openMemoryDB(t)

	awaitResult(t, func(cb Callback) error {
		return db.Put(cb, []byte("B"), []byte("old"), false)
	})

	batch := engine.NewBatch()
	batch.Put([]byte("A"), []byte("1"))
	batch.Delete([]byte("B"))
	batch.Put([]byte("C"), []byte("2"))

	res := awaitResult(t, func(cb Callback) error {
		return db.Write(cb, batch, true)
	})
	if res.err != nil {
		t.Fatalf("batch failed: %v", res.err)
	}
	if batch.Len() != 0 {
		t.Error("batch should be cleared after completion")
	}

	expect := map[string]interface{}{"A": "1", "B": NotFound, "C": "2"}
	for key, want := range expect {
		res := awaitResult(t, func(cb Callback) error {
			return db.Get(cb, []byte(key), false, true)
		})
		if res.err != nil {
			t.Fatalf("get %s failed: %v", key, res.err)
		}
		if res.args[0] != want {
			t.Errorf("key %s: expected %v, got %v", key, want, res.args[0])
		}
	}
}

func TestApproximateSizeEmptyRange(t *testing.T) {
	db := openMemoryDB(t)

	awaitResult(t, func(cb Callback) error {
		return db.Put(cb, []byte("x1"), []byte("data"), false)
	})

	res := awaitResult(t, func(cb Callback) error {
		return db.ApproximateSize(cb, []byte("x"), []byte("x"))
	})
	if res.err != nil {
		t.Fatalf("approximate size failed: %v", res.err)
	}
	size, ok := res.args[0].(uint64)
	if !ok {
		t.Fatalf("expected uint64 size, got %T", res.args[0])
	}
	if size != 0 {
		t.Errorf("expected 0 for empty range, got %d", size)
	}

	res = awaitResult(t, func(cb Callback) error {
		return db.ApproximateSize(cb, []byte("x"), []byte("y"))
	})
	if res.err != nil {
		t.Fatalf("approximate size failed: %v", res.err)
	}
	if res.args[0].(uint64) == 0 {
		t.Error("expected non-zero estimate for populated range")
	}
}

func TestOpenFailureSurfacesIOError(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()
	db := NewDB(memory.New(), d)

	opts := engine.DefaultOptions()
	opts.CreateIfMissing = false
	res := awaitResult(t, func(cb Callback) error {
		return db.Open(cb, opts)
	})
	if res.err == nil {
		t.Fatal("expected an open error")
	}

	var bErr *Error
	if !errors.As(res.err, &bErr) {
		t.Fatalf("expected *bridge.Error, got %T", res.err)
	}
	if bErr.Code != StatusIOError {
		t.Errorf("expected IOError, got %s", bErr.Code)
	}
}

func TestOperationOnClosedHandle(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()
	db := NewDB(memory.New(), d)

	// never opened: the engine reports the invalid state through the status
	res := awaitResult(t, func(cb Callback) error {
		return db.Put(cb, []byte("k"), []byte("v"), false)
	})
	var bErr *Error
	if !errors.As(res.err, &bErr) || bErr.Code != StatusInvalidState {
		t.Errorf("expected InvalidState error, got %v", res.err)
	}
}

func TestCloseReportsCompletion(t *testing.T) {
	db := openMemoryDB(t)

	res := awaitResult(t, func(cb Callback) error {
		return db.Close(cb)
	})
	if res.err != nil {
		t.Fatalf("close failed: %v", res.err)
	}

	// closing an already-closed handle still completes without error
	res = awaitResult(t, func(cb Callback) error {
		return db.Close(cb)
	})
	if res.err != nil {
		t.Errorf("second close must not fail, got %v", res.err)
	}
}

func TestBuffersReleasedAfterCompletion(t *testing.T) {
	db := openMemoryDB(t)

	awaitResult(t, func(cb Callback) error {
		return db.Put(cb, []byte("k"), []byte("v"), false)
	})
	awaitResult(t, func(cb Callback) error {
		return db.Get(cb, []byte("k"), true, true)
	})
	awaitResult(t, func(cb Callback) error {
		return db.Delete(cb, []byte("k"), false)
	})
	awaitResult(t, func(cb Callback) error {
		return db.ApproximateSize(cb, []byte("a"), []byte("z"))
	})

	if got := db.PinnedBuffers(); got != 0 {
		t.Errorf("expected no pinned buffers after completion, got %d", got)
	}
}

// TestConcurrentIndependentReads issues many reads against distinct keys and
// checks that each resolves correctly regardless of completion order.
func TestConcurrentIndependentReads(t *testing.T) {
	db := openMemoryDB(t)

	const n = 128
	for i := 0; i < n; i++ {
		key := fmt.Appendf(nil, "key-%03d", i)
		value := fmt.Appendf(nil, "value-%03d", i)
		res := awaitResult(t, func(cb Callback) error {
			return db.Put(cb, key, value, false)
		})
		if res.err != nil {
			t.Fatalf("put %d failed: %v", i, res.err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		key := fmt.Appendf(nil, "key-%03d", i)
		want := fmt.Sprintf("value-%03d", i)
		err := db.Get(func(err error, args ...interface{}) {
			defer wg.Done()
			if err != nil {
				errs <- fmt.Errorf("read %d: %w", i, err)
				return
			}
			if got, ok := args[0].(string); !ok || got != want {
				errs <- fmt.Errorf("read %d: expected %q, got %v", i, want, args[0])
			}
		}, key, false, true)
		if err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if got := db.PinnedBuffers(); got != 0 {
		t.Errorf("expected no pinned buffers, got %d", got)
	}
}
