package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

type testItem struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
}

func TestMemoryQueueEnqueueDequeue(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	defer q.Close()
	ctx := context.Background()

	want := testItem{Brand: "Toyota", Model: "Vios"}
	if err := q.Enqueue(ctx, want); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	items, err := q.DequeueWithTimeout(ctx, 10, time.Second)
	if err != nil {
		t.Fatalf("DequeueWithTimeout() error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("DequeueWithTimeout() returned %d items, want 1", len(items))
	}

	var got testItem
	if err := json.Unmarshal(items[0], &got); err != nil {
		t.Fatalf("failed to unmarshal item: %v", err)
	}
	if got != want {
		t.Errorf("dequeued %+v, want %+v", got, want)
	}
}

func TestMemoryQueueBatching(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	defer q.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(ctx, testItem{Brand: "B", Model: "M"}); err != nil {
			t.Fatalf("Enqueue() error: %v", err)
		}
	}

	items, err := q.DequeueWithTimeout(ctx, 3, time.Second)
	if err != nil {
		t.Fatalf("DequeueWithTimeout() error: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("DequeueWithTimeout(maxItems=3) returned %d items", len(items))
	}

	n, _ := q.Length(ctx)
	if n != 2 {
		t.Errorf("Length() = %d after partial drain, want 2", n)
	}
}

func TestMemoryQueueTimeout(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	defer q.Close()

	start := time.Now()
	items, err := q.DequeueWithTimeout(context.Background(), 1, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("DequeueWithTimeout() error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("DequeueWithTimeout() returned %d items from empty queue", len(items))
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("DequeueWithTimeout() returned after %v, before the timeout", elapsed)
	}
}

func TestMemoryQueueClosed(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	ctx := context.Background()

	if err := q.Enqueue(ctx, testItem{Brand: "B"}); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}
	q.Close()

	if err := q.Enqueue(ctx, testItem{Brand: "C"}); err != ErrQueueClosed {
		t.Errorf("Enqueue() after close = %v, want ErrQueueClosed", err)
	}

	// Items enqueued before close are still drainable.
	items, err := q.DequeueWithTimeout(ctx, 10, time.Millisecond)
	if err != nil {
		t.Fatalf("DequeueWithTimeout() after close error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("DequeueWithTimeout() after close returned %d items, want 1", len(items))
	}
}

func TestMemoryQueueContextCancelled(t *testing.T) {
	q := NewMemoryQueue(DefaultConfig("test"))
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.DequeueWithTimeout(ctx, 1, time.Second); err != context.Canceled {
		t.Errorf("DequeueWithTimeout() with cancelled context = %v, want context.Canceled", err)
	}
}
