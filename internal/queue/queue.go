// Package queue runs submitted work one item at a time, in submission order.
package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Handler processes one item. The context is cancelled by ShutdownNow.
type Handler[T any] func(ctx context.Context, item T)

// Queue is an unbounded FIFO drained by a single worker goroutine.
//
// Submit never blocks and may be called from any goroutine. The worker
// waits on a size-1 signal channel, so bursts of submissions coalesce into
// one wake-up.
type Queue[T any] struct {
	handler Handler[T]

	mu      sync.Mutex
	items   []T
	closed  bool
	started bool
	signal  chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped queue that will feed items to handler.
func New[T any](handler Handler[T]) *Queue[T] {
	return &Queue[T]{
		handler: handler,
		items:   make([]T, 0, 16),
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the worker. Items submitted earlier are processed first.
// Calling Start more than once, or after ShutdownNow, does nothing.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	go q.run(ctx)
}

// Submit appends item. Returns false once the queue has been shut down.
func (q *Queue[T]) Submit(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, item)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// ShutdownNow stops the queue without waiting. Items that have not started
// are removed and returned in submission order; the running item's context
// is cancelled. Later calls return nil.
func (q *Queue[T]) ShutdownNow() []T {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	pending := q.items
	q.items = nil
	cancel := q.cancel
	started := q.started
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !started {
		close(q.done)
	}

	log.Debug().Int("dropped", len(pending)).Msg("Upload queue shut down")
	return pending
}

// Len returns the number of items waiting to start.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Done is closed when the worker has exited.
func (q *Queue[T]) Done() <-chan struct{} {
	return q.done
}

func (q *Queue[T]) run(ctx context.Context) {
	defer close(q.done)

	for {
		item, ok := q.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-q.signal:
				continue
			}
		}
		if ctx.Err() != nil {
			return
		}
		q.handle(ctx, item)
	}
}

// next pops the front item. Returns false when empty or shut down.
func (q *Queue[T]) next() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.closed || len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = q.items[:0:0]
	}
	return item, true
}

// handle runs one item, keeping the worker alive if the handler panics.
func (q *Queue[T]) handle(ctx context.Context, item T) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Upload task panicked")
		}
	}()
	q.handler(ctx, item)
}
