package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authorization outcomes recorded per gate decision. These mirror the
// server-side denial reasons; clients never see the distinction.
const (
	OutcomeAllow         = "allow"
	OutcomeMissingKey    = "missing_key"
	OutcomeNoKeys        = "no_keys_provisioned"
	OutcomeInvalidKey    = "invalid_key"
	OutcomeInternalError = "internal_error"
)

// Metrics holds all instruments. Each process creates one instance with its
// own registry, so nothing registers globally at package load.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal *prometheus.CounterVec
	AuthDecisions     *prometheus.CounterVec
	PagesScraped      prometheus.Counter
	CarsScraped       prometheus.Counter
	CarsIngested      prometheus.Counter
	CarsSkipped       prometheus.Counter
}

// New creates all instruments on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carspec_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		AuthDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "carspec_auth_decisions_total",
				Help: "Authorization gate decisions by outcome.",
			},
			[]string{"outcome"},
		),
		PagesScraped: factory.NewCounter(prometheus.CounterOpts{
			Name: "carspec_scraper_pages_total",
			Help: "Listing and detail pages fetched by the scraper.",
		}),
		CarsScraped: factory.NewCounter(prometheus.CounterOpts{
			Name: "carspec_scraper_cars_total",
			Help: "Cars extracted from detail pages.",
		}),
		CarsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "carspec_ingest_cars_total",
			Help: "Cars persisted by the ingest worker.",
		}),
		CarsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "carspec_ingest_skipped_total",
			Help: "Scraped cars skipped because they already exist.",
		}),
	}
}

// Handler returns the HTTP handler serving this instance's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
