// Package queue hands scraped cars from the scraper to the ingest worker.
// Two backends are available: an in-memory channel queue for standalone runs
// and a Redis list queue that survives restarts and can be shared by several
// scraper processes. Items are JSON-encoded in both backends so the worker
// sees the same wire shape either way.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrQueueClosed is returned when operating on a closed queue
var ErrQueueClosed = errors.New("queue is closed")

// Queue is the contract shared by both backends.
type Queue interface {
	// Enqueue JSON-encodes item and appends it to the queue
	Enqueue(ctx context.Context, item interface{}) error

	// DequeueWithTimeout retrieves up to maxItems items, waiting at most
	// timeout for the first one. Returns an empty slice on timeout.
	DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]json.RawMessage, error)

	// Length returns the current queue length
	Length(ctx context.Context) (int, error)

	// Close shuts down the queue
	Close() error
}

// Config holds settings common to both queue backends
type Config struct {
	Name       string
	BufferSize int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig returns a queue configuration with sane defaults
func DefaultConfig(name string) Config {
	return Config{
		Name:       name,
		BufferSize: 1000,
	}
}
