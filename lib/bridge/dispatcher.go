package bridge

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

var (
	tasksSubmitted = metrics.GetOrCreateCounter(`nbkv_tasks_submitted_total`)
	tasksCompleted = metrics.GetOrCreateCounter(`nbkv_tasks_completed_total`)
	tasksFailed    = metrics.GetOrCreateCounter(`nbkv_tasks_failed_total`)
	taskDuration   = metrics.GetOrCreateSummary(`nbkv_task_execute_duration_seconds`)
)

// ErrDispatcherClosed is returned by Submit after Close.
var ErrDispatcherClosed = errors.New("nbkv: dispatcher closed")

// Dispatcher schedules task phases onto the correct goroutines: Execute
// phases run concurrently on a pool of background workers, all Complete
// phases run on a single dispatch goroutine. For every task, Execute
// strictly precedes Complete and each runs exactly once. The dispatcher owns
// a submitted task for its full lifetime.
//
// Both hand-off points are unbounded queues: Submit enqueues and returns
// immediately even when every worker is occupied by a blocking engine call.
type Dispatcher struct {
	pending   *taskQueue
	completed *taskQueue

	inflight   sync.WaitGroup
	workers    sync.WaitGroup
	dispatcher sync.WaitGroup
	closed     atomic.Bool
}

// NewDispatcher creates a dispatcher with the given number of background
// workers. numWorkers <= 0 selects one worker per CPU.
func NewDispatcher(numWorkers int) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	d := &Dispatcher{
		pending:   newTaskQueue(),
		completed: newTaskQueue(),
	}

	d.workers.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go d.worker()
	}

	d.dispatcher.Add(1)
	go d.dispatchLoop()

	return d
}

// Submit hands a task to the dispatcher. It only enqueues and never waits for
// a worker, so the caller's goroutine is not held up by in-flight engine
// calls. Once submitted the task runs to completion; there is no
// cancellation. Returns ErrDispatcherClosed after Close. Submit must not be
// called concurrently with Close.
func (d *Dispatcher) Submit(t Task) error {
	if d.closed.Load() {
		return ErrDispatcherClosed
	}
	d.inflight.Add(1)
	if !d.pending.push(t) {
		d.inflight.Done()
		return ErrDispatcherClosed
	}
	tasksSubmitted.Inc()
	return nil
}

// worker runs Execute phases. A worker may block for the full duration of
// the underlying engine call; that is exactly why it is off the dispatch
// goroutine.
func (d *Dispatcher) worker() {
	defer d.workers.Done()
	for t := range d.pending.recv() {
		start := time.Now()
		t.Execute()
		taskDuration.UpdateDuration(start)
		d.completed.push(t)
	}
}

// dispatchLoop is the single goroutine running every Complete phase and
// therefore every callback.
func (d *Dispatcher) dispatchLoop() {
	defer d.dispatcher.Done()
	for t := range d.completed.recv() {
		t.Complete()
		tasksCompleted.Inc()
		if f, ok := t.(interface{ failed() bool }); ok && f.failed() {
			tasksFailed.Inc()
		}
		d.inflight.Done()
	}
}

// Drain blocks until every submitted task has completed. Hosts must drain
// before releasing the engine handle, otherwise a background worker could
// still dereference it.
func (d *Dispatcher) Drain() {
	d.inflight.Wait()
}

// Close drains the dispatcher and stops its goroutines. Idempotent.
func (d *Dispatcher) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.inflight.Wait()
	d.pending.close()
	d.workers.Wait()
	d.completed.close()
	d.dispatcher.Wait()
}
