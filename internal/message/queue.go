package message

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Recv once a closed queue has been drained.
var ErrClosed = errors.New("queue closed")

// Queue is an unbounded FIFO. Send never blocks; receivers block until an
// item arrives, the queue is closed, or their context ends.
type Queue[M any] struct {
	mu     sync.Mutex
	items  []M
	closed bool
	notify chan struct{}
	done   chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue[M any]() *Queue[M] {
	return &Queue[M]{notify: make(chan struct{}, 1), done: make(chan struct{})}
}

// Send appends m. It reports false when the queue is closed and m was
// dropped.
func (q *Queue[M]) Send(m M) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, m)
	q.mu.Unlock()
	q.wake()
	return true
}

// TryRecv pops the oldest item without blocking.
func (q *Queue[M]) TryRecv() (M, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pop()
}

// Recv pops the oldest item, waiting for one when the queue is empty.
func (q *Queue[M]) Recv(ctx context.Context) (M, error) {
	for {
		q.mu.Lock()
		m, ok := q.pop()
		closed := q.closed
		q.mu.Unlock()
		if ok {
			return m, nil
		}
		if closed {
			var zero M
			return zero, ErrClosed
		}
		select {
		case <-q.notify:
		case <-q.done:
		case <-ctx.Done():
			var zero M
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of pending items.
func (q *Queue[M]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting items. Pending items remain receivable. Closing
// twice is a no-op.
func (q *Queue[M]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

func (q *Queue[M]) pop() (M, bool) {
	var zero M
	if len(q.items) == 0 {
		return zero, false
	}
	m := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.wake()
	}
	return m, true
}

func (q *Queue[M]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
