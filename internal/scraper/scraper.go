// Package scraper walks a classifieds listing site and extracts car
// specifications from the JSON each detail page embeds. Scraped cars are
// handed to a Sink (normally the ingest queue); persistence happens in the
// ingest worker, not here.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"carspec/internal/metrics"
	"carspec/internal/models"
	"carspec/internal/utils"
)

// Config holds scraper settings
type Config struct {
	// ListingURL is the first listing page of the crawl
	ListingURL string

	// CarLimit stops the crawl after this many cars have been extracted
	CarLimit int

	// RequestsPerSecond and Burst bound the request rate against the site
	RequestsPerSecond float64
	Burst             int

	// MaxRetries bounds retry attempts on 429 and 5xx responses
	MaxRetries uint64

	RequestTimeout time.Duration
	UserAgent      string
}

// DefaultConfig returns scraper defaults matching polite crawl behaviour
func DefaultConfig() Config {
	return Config{
		CarLimit:          50,
		RequestsPerSecond: 1,
		Burst:             5,
		MaxRetries:        3,
		RequestTimeout:    30 * time.Second,
		UserAgent:         "carspec/1.0",
	}
}

// Sink receives extracted cars.
type Sink interface {
	Offer(ctx context.Context, car models.CarInput) error
}

// Scraper crawls listing pages and their car detail pages.
type Scraper struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	sink    Sink
	metrics *metrics.Metrics
	log     *utils.Logger
}

// New creates a scraper feeding the given sink
func New(cfg Config, sink Sink, m *metrics.Metrics, log *utils.Logger) *Scraper {
	if log == nil {
		log = utils.NewLogger("scraper")
	}
	return &Scraper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		sink:    sink,
		metrics: m,
		log:     log,
	}
}

// Run crawls from the configured listing URL until the car limit is reached
// or pagination ends. A failed detail page is logged and skipped; a failed
// listing page aborts the crawl.
func (s *Scraper) Run(ctx context.Context) error {
	current := s.cfg.ListingURL
	scraped := 0

	for current != "" {
		s.log.Info("scraping listing page", "url", current)

		doc, err := s.fetchDocument(ctx, current)
		if err != nil {
			return fmt.Errorf("fetching listing page %s: %w", current, err)
		}

		links, err := carLinks(doc, current)
		if err != nil {
			return fmt.Errorf("parsing listing page %s: %w", current, err)
		}

		for _, link := range links {
			if scraped >= s.cfg.CarLimit {
				s.log.Info("car limit reached", "count", scraped)
				return nil
			}

			car, err := s.scrapeCar(ctx, link)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warn("skipping car page", "url", link, "error", err)
				continue
			}

			if err := s.sink.Offer(ctx, *car); err != nil {
				return fmt.Errorf("offering car to sink: %w", err)
			}
			scraped++
			s.metrics.CarsScraped.Inc()
		}

		current = nextPageURL(doc, current)
	}

	s.log.Info("pagination exhausted", "count", scraped)
	return nil
}

func (s *Scraper) scrapeCar(ctx context.Context, url string) (*models.CarInput, error) {
	doc, err := s.fetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}
	return extractCarInput(doc)
}

func (s *Scraper) fetchDocument(ctx context.Context, url string) (*html.Node, error) {
	body, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return doc, nil
}

// fetch GETs one page, honouring the rate limit and retrying 429 and 5xx
// responses with exponential backoff. Other non-200 statuses fail permanently.
func (s *Scraper) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if s.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", s.cfg.UserAgent)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			return err
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("retryable status %d for %s", resp.StatusCode, url)
		default:
			return backoff.Permanent(fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url))
		}
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.cfg.MaxRetries), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}

	s.metrics.PagesScraped.Inc()
	return body, nil
}
