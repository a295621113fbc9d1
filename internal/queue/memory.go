package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryQueue implements Queue with a buffered channel. Nothing is persisted;
// items still in the buffer are lost on restart.
type MemoryQueue struct {
	items  chan json.RawMessage
	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue(cfg Config) *MemoryQueue {
	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultConfig(cfg.Name).BufferSize
	}
	return &MemoryQueue{
		items: make(chan json.RawMessage, size),
	}
}

// Enqueue adds an item to the queue, blocking while the buffer is full
func (q *MemoryQueue) Enqueue(ctx context.Context, item interface{}) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	select {
	case q.items <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DequeueWithTimeout retrieves up to maxItems items, waiting at most timeout
// for the first one. Once one item arrives, whatever else is immediately
// available is drained without further waiting.
func (q *MemoryQueue) DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]json.RawMessage, error) {
	q.mu.RLock()
	closed := q.closed
	q.mu.RUnlock()

	var items []json.RawMessage

	if closed {
		// Drain whatever is left without waiting.
		for len(items) < maxItems {
			select {
			case item := <-q.items:
				items = append(items, item)
			default:
				return items, nil
			}
		}
		return items, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case item := <-q.items:
		items = append(items, item)
	case <-timer.C:
		return items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for len(items) < maxItems {
		select {
		case item := <-q.items:
			items = append(items, item)
		default:
			return items, nil
		}
	}
	return items, nil
}

// Length returns the number of buffered items
func (q *MemoryQueue) Length(ctx context.Context) (int, error) {
	return len(q.items), nil
}

// Close marks the queue closed. Buffered items can still be dequeued by a
// drain that raced the close; new enqueues fail.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}
