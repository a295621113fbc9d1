package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carspec/internal/config"
	"carspec/internal/metrics"
	"carspec/internal/queue"
	"carspec/internal/scraper"
	"carspec/internal/storage"
	"carspec/internal/utils"
)

// scrape runs one crawl to completion and ingests the results, without
// starting the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.Scraper.ListingURL == "" {
		fmt.Fprintln(os.Stderr, "ERROR: SCRAPER_LISTING_URL must be set")
		os.Exit(1)
	}

	log := utils.NewLogger("scrape", utils.ParseLogLevel(cfg.LogLevel))

	dbCfg := storage.DefaultDBConfig()
	dbCfg.DSN = cfg.Database.URL
	db, err := storage.NewDB(dbCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	m := metrics.New()
	carRepo := storage.NewCarRepository(db)

	q := queue.NewMemoryQueue(queue.DefaultConfig("scrape"))
	defer q.Close()

	ingestor := scraper.NewIngestor(q, carRepo, m, log, cfg.Ingest.BatchSize, cfg.Ingest.PollWait)
	ingestor.Start()

	scraperCfg := scraper.DefaultConfig()
	scraperCfg.ListingURL = cfg.Scraper.ListingURL
	scraperCfg.CarLimit = cfg.Scraper.CarLimit
	scraperCfg.RequestsPerSecond = cfg.Scraper.RequestsPerSecond
	scraperCfg.Burst = cfg.Scraper.Burst
	scraperCfg.MaxRetries = uint64(cfg.Scraper.MaxRetries)
	scraperCfg.RequestTimeout = cfg.Scraper.RequestTimeout
	scraperCfg.UserAgent = cfg.Scraper.UserAgent

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C cancels the crawl; whatever was queued still gets drained below.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	crawlErr := scraper.New(scraperCfg, scraper.QueueSink{Queue: q}, m, log).Run(ctx)

	// Wait for the ingest worker to drain the queue before stopping it.
	for {
		n, err := q.Length(context.Background())
		if err != nil || n == 0 {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	ingestor.Stop()

	if crawlErr != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "ERROR: Crawl failed: %v\n", crawlErr)
		os.Exit(1)
	}
	log.Info("crawl finished")
}
