package pipeline

import (
	"context"
	"sync/atomic"
)

type envelope struct {
	item WorkItem
	done bool
}

// WorkQueue is a bounded FIFO shared by one producer and one consumer. The
// done marker travels through the same channel so it is always observed after
// every item put before it.
type WorkQueue struct {
	ch       chan envelope
	finished atomic.Bool
}

// NewWorkQueue returns a queue holding at most capacity items (minimum 1).
func NewWorkQueue(capacity int) *WorkQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &WorkQueue{ch: make(chan envelope, capacity)}
}

// Put appends item, blocking while the queue is full.
func (q *WorkQueue) Put(ctx context.Context, item WorkItem) error {
	if q.finished.Load() {
		return ErrQueueFinished
	}
	return q.send(ctx, envelope{item: item})
}

// PutDone appends the done marker. Only the first call enqueues it.
func (q *WorkQueue) PutDone(ctx context.Context) error {
	if !q.finished.CompareAndSwap(false, true) {
		return ErrQueueFinished
	}
	if err := q.send(ctx, envelope{done: true}); err != nil {
		q.finished.Store(false)
		return err
	}
	return nil
}

func (q *WorkQueue) send(ctx context.Context, env envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get removes the oldest entry, blocking while the queue is empty. ok is
// false once the done marker is reached.
func (q *WorkQueue) Get(ctx context.Context) (item WorkItem, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return WorkItem{}, false, err
	}
	select {
	case env := <-q.ch:
		if env.done {
			return WorkItem{}, false, nil
		}
		return env.item, true, nil
	case <-ctx.Done():
		return WorkItem{}, false, ctx.Err()
	}
}

// Len reports the number of queued entries, including an unconsumed done
// marker.
func (q *WorkQueue) Len() int {
	return len(q.ch)
}

// Cap reports the queue capacity.
func (q *WorkQueue) Cap() int {
	return cap(q.ch)
}
