package httpapi

import (
	"fmt"
	"net/http"

	"carspec/internal/auth"
	"carspec/internal/config"
	"carspec/internal/metrics"
	"carspec/internal/middleware"
	"carspec/internal/queue"
	"carspec/internal/scraper"
	"carspec/internal/storage"
	"carspec/internal/utils"
)

// Dependencies aggregates everything the HTTP layer and the process entry
// point need to hold on to, mostly for shutdown.
type Dependencies struct {
	DB       *storage.DB
	Queue    queue.Queue
	Ingestor *scraper.Ingestor
	Scraper  *scraper.Scraper
	Metrics  *metrics.Metrics
	Log      *utils.Logger
}

// Close stops background workers and releases connections. Safe to call once.
func (d *Dependencies) Close() {
	if d.Ingestor != nil {
		d.Ingestor.Stop()
	}
	if d.Queue != nil {
		if err := d.Queue.Close(); err != nil {
			d.Log.Warn("failed to close queue", "error", err)
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Log.Warn("failed to close database", "error", err)
		}
	}
}

// NewRouter creates the HTTP handler with all dependencies wired up. Database
// migrations run before the first route is registered, so a returned router
// always serves against the current schema.
func NewRouter(cfg *config.Config) (http.Handler, *Dependencies, error) {
	log := utils.NewLogger("carspec", utils.ParseLogLevel(cfg.LogLevel))

	dbCfg := storage.DefaultDBConfig()
	dbCfg.DSN = cfg.Database.URL
	dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
	dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
	dbCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime

	db, err := storage.NewDB(dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	credentialRepo := storage.NewCredentialRepository(db)
	carRepo := storage.NewCarRepository(db)

	hasher := auth.NewHasher(auth.Argon2Params{
		Memory:      cfg.Hasher.Memory,
		Iterations:  cfg.Hasher.Iterations,
		Parallelism: cfg.Hasher.Parallelism,
		SaltLength:  cfg.Hasher.SaltLength,
		KeyLength:   cfg.Hasher.KeyLength,
	}, log)
	gate := auth.NewGate(credentialRepo, hasher, log)

	m := metrics.New()

	// Redis-backed queue when an address is configured, in-process otherwise.
	queueCfg := queue.DefaultConfig(cfg.Redis.QueueName)
	var ingestQueue queue.Queue
	if cfg.Redis.Address != "" {
		queueCfg.RedisAddr = cfg.Redis.Address
		queueCfg.RedisPassword = cfg.Redis.Password
		queueCfg.RedisDB = cfg.Redis.DB
		ingestQueue, err = queue.NewRedisQueue(queueCfg)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to create ingest queue: %w", err)
		}
	} else {
		ingestQueue = queue.NewMemoryQueue(queueCfg)
	}

	ingestor := scraper.NewIngestor(ingestQueue, carRepo, m, log, cfg.Ingest.BatchSize, cfg.Ingest.PollWait)
	ingestor.Start()

	scraperCfg := scraper.DefaultConfig()
	scraperCfg.ListingURL = cfg.Scraper.ListingURL
	scraperCfg.CarLimit = cfg.Scraper.CarLimit
	scraperCfg.RequestsPerSecond = cfg.Scraper.RequestsPerSecond
	scraperCfg.Burst = cfg.Scraper.Burst
	scraperCfg.MaxRetries = uint64(cfg.Scraper.MaxRetries)
	scraperCfg.RequestTimeout = cfg.Scraper.RequestTimeout
	scraperCfg.UserAgent = cfg.Scraper.UserAgent
	crawler := scraper.New(scraperCfg, scraper.QueueSink{Queue: ingestQueue}, m, log)

	deps := &Dependencies{
		DB:       db,
		Queue:    ingestQueue,
		Ingestor: ingestor,
		Scraper:  crawler,
		Metrics:  m,
		Log:      log,
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps, credentialRepo, carRepo, gate, hasher)

	return middleware.RequestID(mux), deps, nil
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies, credentialRepo *storage.CredentialRepository, carRepo *storage.CarRepository, gate *auth.Gate, hasher *auth.Hasher) {
	httpMetrics := middleware.HTTPMetrics(deps.Metrics)
	protect := middleware.APIKey(gate, deps.Metrics, deps.Log)

	// Car endpoints - protected with the API key gate
	carsHandler := NewCarsHandler(carRepo, deps.Log)
	mux.Handle("GET /cars", httpMetrics(protect(http.HandlerFunc(carsHandler.List))))
	mux.Handle("GET /cars/{id}", httpMetrics(protect(http.HandlerFunc(carsHandler.GetByID))))

	// Key management endpoints - public, deploy behind network access control
	keysHandler := NewKeysHandler(credentialRepo, hasher, deps.Log)
	mux.Handle("POST /api/keys", httpMetrics(http.HandlerFunc(keysHandler.Create)))
	mux.Handle("GET /api/keys", httpMetrics(http.HandlerFunc(keysHandler.List)))
	mux.Handle("GET /api/keys/{id}", httpMetrics(http.HandlerFunc(keysHandler.GetByID)))
	mux.Handle("DELETE /api/keys/{id}", httpMetrics(http.HandlerFunc(keysHandler.Delete)))

	// Health check endpoint - public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Health(r.Context()); err != nil {
			deps.Log.Error("health check failed", "error", err)
			utils.RespondWithError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Metrics endpoint - public
	mux.Handle("GET /metrics", deps.Metrics.Handler())
}
