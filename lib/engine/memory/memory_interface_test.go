package memory

import (
	"sync"
	"testing"

	"nbkv/lib/engine"
	"nbkv/lib/engine/enginetest"
)

func TestMemoryEngineInterface(t *testing.T) {
	enginetest.Run(t, "memory", false, func(string) engine.Engine {
		return New()
	})
}

// Concurrent opens on the same instance must not race on the created flag;
// run with the race detector to catch regressions.
func TestMemoryConcurrentOpen(t *testing.T) {
	e := New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Open(engine.DefaultOptions()); err != nil {
				t.Errorf("open failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if err := e.Put(engine.WriteOptions{}, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("put after concurrent opens failed: %v", err)
	}
}

// The in-memory store never pre-exists, so create-if-missing=false must fail
// on a fresh instance and error-if-exists must fail on a reopened one.
func TestMemoryOpenSemantics(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.CreateIfMissing = false
	if err := New().Open(opts); err == nil {
		t.Fatal("expected open error with create-if-missing=false")
	}

	e := New()
	if err := e.Open(engine.DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	opts = engine.DefaultOptions()
	opts.ErrorIfExists = true
	if err := e.Open(opts); err == nil {
		t.Fatal("expected open error with error-if-exists=true on reopened instance")
	}
}
