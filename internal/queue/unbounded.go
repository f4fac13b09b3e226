// Package queue provides the unbounded FIFO used for dispatching work to the
// generation worker and for per-request reply streams.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Push after Close, and by Pop once a closed queue
// has been drained.
var ErrClosed = errors.New("queue: closed")

// Unbounded is a FIFO queue without a capacity limit. Push never blocks, so a
// producer is never held up by a slow consumer. Any number of goroutines may
// Push concurrently; Pop is meant for a single consumer but stays correct
// with several.
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	// ready holds at most one wakeup; it is signaled when items arrive or the
	// queue is closed.
	ready chan struct{}
}

// NewUnbounded returns an empty, open queue.
func NewUnbounded[T any]() *Unbounded[T] {
	return &Unbounded[T]{ready: make(chan struct{}, 1)}
}

// Push appends v. It fails with ErrClosed once the queue is closed.
func (q *Unbounded[T]) Push(v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.wake()
	return nil
}

// Pop removes and returns the oldest item, waiting until one is available.
// Items pushed before Close are still delivered; after that Pop returns
// ErrClosed. If ctx ends first, ctx.Err() is returned.
func (q *Unbounded[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			more := len(q.items) > 0 || q.closed
			q.mu.Unlock()
			if more {
				// pass the wakeup on to any other waiter
				q.wake()
			}
			return v, nil
		}
		if q.closed {
			q.mu.Unlock()
			q.wake()
			return zero, ErrClosed
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Close stops the queue from accepting items. It is safe to call more than once.
func (q *Unbounded[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

// Len returns the number of items waiting to be popped.
func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Unbounded[T]) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
