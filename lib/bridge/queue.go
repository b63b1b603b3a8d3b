package bridge

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// taskQueue is an unbounded lock-free multi-producer queue carrying tasks
// between the bridge's goroutines. It backs both sides of the dispatcher:
// submitted tasks flow through one instance to the worker pool, executed
// tasks flow through another to the dispatch goroutine. Producers push
// concurrently and never block; a single internal consumer goroutine forwards
// tasks to the out channel in arrival order.
//
// Implementation: a linked list with atomic head/tail pointers and a
// condition variable for the consumer's idle wait. Under concurrent pushes
// the arrival order is decided by which producer's append wins, which is
// fine here since the bridge guarantees no cross-task ordering.
type queueNode struct {
	task Task
	next atomic.Pointer[queueNode]
}

type taskQueue struct {
	head   atomic.Pointer[queueNode]
	tail   atomic.Pointer[queueNode]
	out    chan Task
	closed atomic.Bool

	mu   sync.Mutex
	cond *sync.Cond
}

func newTaskQueue() *taskQueue {
	sentinel := &queueNode{}
	q := &taskQueue{out: make(chan Task)}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	go q.consume()
	return q
}

// push appends a task. Returns false if the queue is closed.
//
// Thread-safety: safe for concurrent use by any number of producers.
func (q *taskQueue) push(t Task) bool {
	if q.closed.Load() {
		return false
	}

	newNode := &queueNode{task: t}
	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// CAS may fail if another producer already advanced the
				// tail; it will still converge
				q.tail.CompareAndSwap(tailNode, newNode)
				q.signal()
				return true
			}
		} else {
			// help a stalled producer advance the tail
			q.tail.CompareAndSwap(tailNode, next)
		}
		runtime.Gosched()
	}
}

// consume forwards tasks from the linked list to the out channel, freeing
// nodes as it goes, until the queue is closed and drained.
func (q *taskQueue) consume() {
	defer close(q.out)

	for {
		forwarded := false
		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			forwarded = true
			q.head.Store(next)
			q.out <- next.task
			next.task = nil
		}

		if !forwarded {
			if q.closed.Load() {
				return
			}
			q.mu.Lock()
			if q.head.Load().next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// recv returns the consumer side of the queue. The channel is closed once
// the queue is closed and fully drained.
func (q *taskQueue) recv() <-chan Task {
	return q.out
}

// close prevents further pushes. Tasks already queued are still delivered.
func (q *taskQueue) close() {
	q.closed.Store(true)
	q.signal()
}

// signal wakes the consumer. Taking mu first pairs the signal with the
// consumer's re-check so a wakeup between check and Wait cannot be lost.
func (q *taskQueue) signal() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}
