package bridge

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// probeTask records its lifecycle so tests can assert the scheduling
// contract.
type probeTask struct {
	executed   atomic.Int32
	completed  atomic.Int32
	execBefore atomic.Bool // Execute returned before Complete started
	block      time.Duration
	onComplete func()
}

func (t *probeTask) Execute() {
	if t.block > 0 {
		time.Sleep(t.block)
	}
	t.executed.Add(1)
}

func (t *probeTask) Complete() {
	t.execBefore.Store(t.executed.Load() == 1)
	t.completed.Add(1)
	if t.onComplete != nil {
		t.onComplete()
	}
}

func TestDispatcherLifecycle(t *testing.T) {
	d := NewDispatcher(4)

	const n = 200
	tasks := make([]*probeTask, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range tasks {
		tasks[i] = &probeTask{onComplete: wg.Done}
		if err := d.Submit(tasks[i]); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	wg.Wait()
	d.Close()

	for i, task := range tasks {
		if got := task.executed.Load(); got != 1 {
			t.Errorf("task %d executed %d times", i, got)
		}
		if got := task.completed.Load(); got != 1 {
			t.Errorf("task %d completed %d times", i, got)
		}
		if !task.execBefore.Load() {
			t.Errorf("task %d completed before its execute phase returned", i)
		}
	}
}

// TestDispatcherSingleCompletionGoroutine asserts that Complete phases never
// overlap, i.e. they all run on one goroutine.
func TestDispatcherSingleCompletionGoroutine(t *testing.T) {
	d := NewDispatcher(8)
	defer d.Close()

	var inComplete atomic.Int32
	var overlapped atomic.Bool
	var wg sync.WaitGroup

	const n = 500
	wg.Add(n)
	for i := 0; i < n; i++ {
		task := &probeTask{onComplete: func() {
			if inComplete.Add(1) != 1 {
				overlapped.Store(true)
			}
			inComplete.Add(-1)
			wg.Done()
		}}
		if err := d.Submit(task); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	wg.Wait()

	if overlapped.Load() {
		t.Error("two completion phases overlapped")
	}
}

// gatedTask blocks in Execute until its gate is closed.
type gatedTask struct {
	gate <-chan struct{}
}

func (t *gatedTask) Execute()  { <-t.gate }
func (t *gatedTask) Complete() {}

// TestSubmitDoesNotBlockWhileWorkersBusy pins the only worker inside a
// blocking engine call and asserts that further submissions still return
// immediately instead of waiting for the worker to free up.
func TestSubmitDoesNotBlockWhileWorkersBusy(t *testing.T) {
	d := NewDispatcher(1)
	defer d.Close()

	gate := make(chan struct{})
	if err := d.Submit(&gatedTask{gate: gate}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// the worker is now stuck in Execute; these must only enqueue
	submitted := make(chan struct{})
	go func() {
		defer close(submitted)
		for i := 0; i < 16; i++ {
			if err := d.Submit(&probeTask{}); err != nil {
				t.Errorf("submit %d failed: %v", i, err)
				return
			}
		}
	}()

	select {
	case <-submitted:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked while the worker was busy")
	}

	close(gate)
	d.Drain()
}

func TestDispatcherDrainWaitsForInflight(t *testing.T) {
	d := NewDispatcher(2)
	defer d.Close()

	var completed atomic.Int32
	const n = 6
	for i := 0; i < n; i++ {
		task := &probeTask{
			block:      20 * time.Millisecond,
			onComplete: func() { completed.Add(1) },
		}
		if err := d.Submit(task); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	d.Drain()
	if got := completed.Load(); got != n {
		t.Errorf("drain returned with %d of %d tasks completed", got, n)
	}
}

func TestDispatcherSubmitAfterClose(t *testing.T) {
	d := NewDispatcher(1)
	d.Close()

	if err := d.Submit(&probeTask{}); err != ErrDispatcherClosed {
		t.Errorf("expected ErrDispatcherClosed, got %v", err)
	}
}

func TestDispatcherCloseIdempotent(t *testing.T) {
	d := NewDispatcher(1)
	d.Close()
	d.Close()
}
