package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carspec/internal/auth"
	"carspec/internal/metrics"
	"carspec/internal/models"
	"carspec/internal/queue"
	"carspec/internal/utils"
)

// CarWriter is the slice of the car store the ingest worker needs.
type CarWriter interface {
	Exists(ctx context.Context, g models.General) (bool, error)
	Insert(ctx context.Context, carID string, in models.CarInput) error
}

// Ingestor drains scraped cars off the queue and persists the new ones.
// Cars already in the store, matched on brand, model, variant, series and
// manufacturing year, are skipped so repeated crawls stay idempotent.
type Ingestor struct {
	queue     queue.Queue
	store     CarWriter
	metrics   *metrics.Metrics
	log       *utils.Logger
	batchSize int
	pollWait  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewIngestor creates an ingest worker reading from q and writing to store.
// Zero batchSize and pollWait fall back to defaults.
func NewIngestor(q queue.Queue, store CarWriter, m *metrics.Metrics, log *utils.Logger, batchSize int, pollWait time.Duration) *Ingestor {
	if log == nil {
		log = utils.NewLogger("ingest")
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	if pollWait <= 0 {
		pollWait = 2 * time.Second
	}
	return &Ingestor{
		queue:     q,
		store:     store,
		metrics:   m,
		log:       log,
		batchSize: batchSize,
		pollWait:  pollWait,
	}
}

// Start launches the worker loop. Call Stop to shut it down.
func (i *Ingestor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	i.cancel = cancel
	i.done = make(chan struct{})
	go i.run(ctx)
}

// Stop terminates the worker loop and waits for it to exit.
func (i *Ingestor) Stop() {
	if i.cancel == nil {
		return
	}
	i.cancel()
	<-i.done
}

func (i *Ingestor) run(ctx context.Context) {
	defer close(i.done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		items, err := i.queue.DequeueWithTimeout(ctx, i.batchSize, i.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			i.log.Error("dequeue failed", "error", err)
			time.Sleep(i.pollWait)
			continue
		}

		for _, item := range items {
			if err := i.ingestOne(ctx, item); err != nil {
				i.log.Error("ingest failed", "error", err)
			}
		}
	}
}

func (i *Ingestor) ingestOne(ctx context.Context, raw json.RawMessage) error {
	var car models.CarInput
	if err := json.Unmarshal(raw, &car); err != nil {
		return fmt.Errorf("decoding queued car: %w", err)
	}

	exists, err := i.store.Exists(ctx, car.General)
	if err != nil {
		return fmt.Errorf("checking for existing car: %w", err)
	}
	if exists {
		i.log.Debug("car already stored",
			"brand", car.General.Brand, "model", car.General.Model, "variant", car.General.Variant)
		i.metrics.CarsSkipped.Inc()
		return nil
	}

	carID, err := auth.GenerateUniqueID()
	if err != nil {
		return fmt.Errorf("generating car id: %w", err)
	}
	if err := i.store.Insert(ctx, carID, car); err != nil {
		return fmt.Errorf("inserting car %s: %w", carID, err)
	}

	i.log.Info("car ingested", "car_id", carID,
		"brand", car.General.Brand, "model", car.General.Model)
	i.metrics.CarsIngested.Inc()
	return nil
}

// QueueSink adapts a queue to the scraper's Sink interface.
type QueueSink struct {
	Queue queue.Queue
}

func (s QueueSink) Offer(ctx context.Context, car models.CarInput) error {
	return s.Queue.Enqueue(ctx, car)
}
