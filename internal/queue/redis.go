package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue on a Redis list, so queued cars survive a
// process restart and several scrapers can feed one ingest worker.
type RedisQueue struct {
	client *redis.Client
	qKey   string
}

// NewRedisQueue connects to Redis and verifies the connection
func NewRedisQueue(cfg Config) (*RedisQueue, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisQueue{
		client: client,
		qKey:   fmt.Sprintf("queue:%s", cfg.Name),
	}, nil
}

// Enqueue adds an item to the tail of the list
func (q *RedisQueue) Enqueue(ctx context.Context, item interface{}) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if err := q.client.RPush(ctx, q.qKey, data).Err(); err != nil {
		return fmt.Errorf("failed to push to Redis: %w", err)
	}

	return nil
}

// DequeueWithTimeout blocks up to timeout for the first item, then drains
// whatever else is immediately available, up to maxItems.
func (q *RedisQueue) DequeueWithTimeout(ctx context.Context, maxItems int, timeout time.Duration) ([]json.RawMessage, error) {
	result, err := q.client.BLPop(ctx, timeout, q.qKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // timeout, nothing queued
		}
		return nil, fmt.Errorf("failed to pop from Redis: %w", err)
	}

	// result[0] is the key, result[1] the value.
	items := []json.RawMessage{json.RawMessage(result[1])}

	for len(items) < maxItems {
		val, err := q.client.LPop(ctx, q.qKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return items, fmt.Errorf("failed to pop from Redis: %w", err)
		}
		items = append(items, json.RawMessage(val))
	}

	return items, nil
}

// Length returns the current list length
func (q *RedisQueue) Length(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.qKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return int(n), nil
}

// Close closes the Redis connection. Queued items stay in Redis.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
