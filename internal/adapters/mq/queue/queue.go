// Package queue holds pending change events in arrival order and owns the
// guard that keeps at most one drain loop alive.
//
// Push and Next share one mutex with the guard, so an envelope pushed while a
// drain is winding down is either seen by that drain or starts a new one.
package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/internal/domain/model"
	"github.com/JacobMcNulty-AI-Solutions/cider-dictionary-sub004/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultBufferSize = 1024
)

// UpdateQueue is an unbounded (or optionally bounded) FIFO of envelopes.
type UpdateQueue struct {
	mu         sync.Mutex
	items      []model.Envelope
	head       int
	capacity   int
	bufferSize int
	closed     bool

	draining atomic.Bool
	idle     chan struct{} // closed while no drain is running
}

// NewUpdateQueue creates an empty queue.
func NewUpdateQueue(opts ...Option) *UpdateQueue {
	q := &UpdateQueue{bufferSize: defaultBufferSize}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make([]model.Envelope, 0, q.bufferSize)
	q.idle = make(chan struct{})
	close(q.idle)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueLength(0)
	return q
}

// Push appends env. It reports start=true when the caller won the drain guard
// and must run the drain loop; every other caller gets false.
func (q *UpdateQueue) Push(env model.Envelope) (start bool, err error) { //nolint:gocritic // envelopes are stored by value
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false, ErrClosed
	}
	if q.capacity > 0 && q.lenLocked() >= q.capacity {
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false, ErrQueueFull
	}

	q.items = append(q.items, env)
	metrics.UpdateQueueLength(q.lenLocked())

	if q.draining.CompareAndSwap(false, true) {
		q.idle = make(chan struct{})
		return true, nil
	}
	return false, nil
}

// Next pops the oldest envelope. When the queue is empty it releases the
// drain guard, wakes waiters and returns ok=false; the drain loop must exit.
func (q *UpdateQueue) Next() (env model.Envelope, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lenLocked() == 0 {
		q.releaseLocked()
		return model.Envelope{}, false
	}

	env = q.items[q.head]
	q.items[q.head] = model.Envelope{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > len(q.items)/2 && q.head > q.bufferSize {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	metrics.UpdateQueueLength(q.lenLocked())
	return env, true
}

func (q *UpdateQueue) releaseLocked() {
	if q.draining.CompareAndSwap(true, false) {
		close(q.idle)
	}
}

func (q *UpdateQueue) lenLocked() int {
	return len(q.items) - q.head
}

// Len returns the number of pending envelopes.
func (q *UpdateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Busy reports whether a drain loop is running.
func (q *UpdateQueue) Busy() bool {
	return q.draining.Load()
}

// Wait blocks until no drain is running or ctx is done.
func (q *UpdateQueue) Wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Discard drops every pending envelope and returns how many were dropped.
// A running drain finishes the envelope it holds and then goes idle.
func (q *UpdateQueue) Discard() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.lenLocked()
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
	metrics.UpdateQueueLength(0)
	return n
}

// Close refuses further pushes. Pending envelopes are still handed out by Next.
func (q *UpdateQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *UpdateQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
