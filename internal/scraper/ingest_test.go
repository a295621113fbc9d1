package scraper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carspec/internal/metrics"
	"carspec/internal/models"
	"carspec/internal/queue"
)

type fakeCarStore struct {
	mu       sync.Mutex
	existing map[string]bool
	inserted map[string]models.CarInput
}

func newFakeCarStore() *fakeCarStore {
	return &fakeCarStore{
		existing: make(map[string]bool),
		inserted: make(map[string]models.CarInput),
	}
}

func carKey(g models.General) string {
	return g.Brand + "|" + g.Model + "|" + g.Variant + "|" + g.Series + "|" + g.MfgYear
}

func (s *fakeCarStore) Exists(_ context.Context, g models.General) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existing[carKey(g)], nil
}

func (s *fakeCarStore) Insert(_ context.Context, carID string, in models.CarInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existing[carKey(in.General)] = true
	s.inserted[carID] = in
	return nil
}

func (s *fakeCarStore) insertedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func testCar(brand, model string) models.CarInput {
	return models.CarInput{
		General: models.General{
			Brand:   brand,
			Model:   model,
			Variant: "1.5",
			Series:  "X",
			MfgYear: "2020",
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestIngestorPersistsNewCars(t *testing.T) {
	q := queue.NewMemoryQueue(queue.DefaultConfig("ingest-test"))
	defer q.Close()
	store := newFakeCarStore()

	ing := NewIngestor(q, store, metrics.New(), nil, 10, 50*time.Millisecond)
	ing.Start()
	defer ing.Stop()

	require.NoError(t, q.Enqueue(context.Background(), testCar("Toyota", "Vios")))
	require.NoError(t, q.Enqueue(context.Background(), testCar("Honda", "City")))

	waitFor(t, func() bool { return store.insertedCount() == 2 })

	store.mu.Lock()
	defer store.mu.Unlock()
	for carID, car := range store.inserted {
		assert.NotEmpty(t, carID)
		assert.NotEmpty(t, car.General.Brand)
	}
}

func TestIngestorSkipsExistingCars(t *testing.T) {
	q := queue.NewMemoryQueue(queue.DefaultConfig("ingest-test"))
	defer q.Close()
	store := newFakeCarStore()
	store.existing[carKey(testCar("Toyota", "Vios").General)] = true

	ing := NewIngestor(q, store, metrics.New(), nil, 10, 50*time.Millisecond)
	ing.Start()
	defer ing.Stop()

	require.NoError(t, q.Enqueue(context.Background(), testCar("Toyota", "Vios")))
	require.NoError(t, q.Enqueue(context.Background(), testCar("Honda", "City")))

	waitFor(t, func() bool { return store.insertedCount() == 1 })

	store.mu.Lock()
	defer store.mu.Unlock()
	for _, car := range store.inserted {
		assert.Equal(t, "Honda", car.General.Brand)
	}
}

func TestIngestorRepeatedCrawlIsIdempotent(t *testing.T) {
	q := queue.NewMemoryQueue(queue.DefaultConfig("ingest-test"))
	defer q.Close()
	store := newFakeCarStore()

	ing := NewIngestor(q, store, metrics.New(), nil, 10, 50*time.Millisecond)
	ing.Start()
	defer ing.Stop()

	// Same car queued twice, as a re-run of the scraper would.
	require.NoError(t, q.Enqueue(context.Background(), testCar("Toyota", "Vios")))
	require.NoError(t, q.Enqueue(context.Background(), testCar("Toyota", "Vios")))

	waitFor(t, func() bool {
		n, err := q.Length(context.Background())
		return err == nil && n == 0 && store.insertedCount() >= 1
	})
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, store.insertedCount())
}

func TestIngestorStops(t *testing.T) {
	q := queue.NewMemoryQueue(queue.DefaultConfig("ingest-test"))
	defer q.Close()

	ing := NewIngestor(q, newFakeCarStore(), metrics.New(), nil, 10, 50*time.Millisecond)
	ing.Start()

	done := make(chan struct{})
	go func() {
		ing.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ingestor did not stop")
	}
}

func TestQueueSink(t *testing.T) {
	q := queue.NewMemoryQueue(queue.DefaultConfig("ingest-test"))
	defer q.Close()

	sink := QueueSink{Queue: q}
	require.NoError(t, sink.Offer(context.Background(), testCar("Toyota", "Vios")))

	n, err := q.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
