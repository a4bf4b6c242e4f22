// Package search scrapes search-engine result pages for profile links.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"ProfileFinder/internal/httpclient"
	"ProfileFinder/internal/observability/metrics"
	"ProfileFinder/internal/profile"
	"ProfileFinder/internal/strategy"
	"ProfileFinder/pkg/logger"
)

const (
	// DefaultTimeout bounds each endpoint request.
	DefaultTimeout = 10 * time.Second
	// MaxResults caps all_urls on a successful lookup.
	MaxResults = 5

	defaultMaxBody = 2 << 20

	notFoundMessage = "No LinkedIn profile found automatically. Try manual search at the provided URL."
)

// Option configures a Scraper.
type Option func(*Scraper)

// WithEndpoints replaces the default endpoint list.
func WithEndpoints(endpoints []Endpoint) Option {
	return func(s *Scraper) {
		if len(endpoints) > 0 {
			s.endpoints = append([]Endpoint(nil), endpoints...)
		}
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout sets the per-endpoint timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scraper) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithRateLimit paces requests across all endpoints. A non-positive qps
// disables pacing.
func WithRateLimit(qps float64, burst int) Option {
	return func(s *Scraper) {
		if qps <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithMaxBodyBytes bounds how much of each result page is read.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scraper) {
		if log != nil {
			s.logger = log
		}
	}
}

// Scraper queries search engines in order and extracts profile links.
type Scraper struct {
	client    *http.Client
	endpoints []Endpoint
	userAgent string
	timeout   time.Duration
	limiter   *rate.Limiter
	maxBody   int64
	logger    *slog.Logger
}

// New builds a scraper around client. A nil client gets a pooled default.
func New(client *http.Client, opts ...Option) *Scraper {
	if client == nil {
		client = httpclient.New(0)
	}
	s := &Scraper{
		client:    client,
		endpoints: DefaultEndpoints(),
		userAgent: httpclient.DefaultUserAgent,
		timeout:   DefaultTimeout,
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		maxBody:   defaultMaxBody,
		logger:    logger.Named("search"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Endpoints returns a copy of the configured endpoints.
func (s *Scraper) Endpoints() []Endpoint {
	return append([]Endpoint(nil), s.endpoints...)
}

// Find returns the profile URLs from the first endpoint that yields any.
func (s *Scraper) Find(ctx context.Context, name, employer string) []string {
	strategies := strategy.Each(s.endpoints, func(ctx context.Context, endpoint Endpoint) ([]string, bool) {
		urls := s.query(ctx, endpoint, name, employer)
		return urls, len(urls) > 0
	})
	urls, _ := strategy.First(ctx, strategies...)
	return urls
}

// Search runs Find and shapes the outcome as a lookup result.
func (s *Scraper) Search(ctx context.Context, name, employer string) profile.Result {
	urls := s.Find(ctx, name, employer)
	if len(urls) == 0 {
		return profile.NotFound(name, employer, notFoundMessage)
	}
	if len(urls) > MaxResults {
		urls = urls[:MaxResults]
	}
	return profile.Result{
		Found:    true,
		URL:      urls[0],
		Name:     name,
		Employer: employer,
		Method:   profile.MethodSearch,
		AllURLs:  urls,
	}
}

func (s *Scraper) query(ctx context.Context, endpoint Endpoint, name, employer string) []string {
	target := endpoint.RequestURL(name, employer)
	log := s.logger.With(slog.String("endpoint", endpoint.Name))

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			metrics.ObserveSearch(endpoint.Name, "error")
			log.Debug("search pacing aborted", slog.Any("error", err))
			return nil
		}
	}

	body, err := s.fetch(ctx, target)
	if err != nil {
		outcome := "error"
		var status statusError
		if errors.As(err, &status) {
			outcome = "status"
		}
		metrics.ObserveSearch(endpoint.Name, outcome)
		log.Debug("search request failed", slog.String("url", target), slog.Any("error", err))
		return nil
	}

	urls := ExtractProfileURLs(body)
	if len(urls) == 0 {
		metrics.ObserveSearch(endpoint.Name, "empty")
		log.Debug("search returned no profiles", slog.String("url", target))
		return nil
	}
	metrics.ObserveSearch(endpoint.Name, "match")
	log.Debug("search matched profiles", slog.Int("count", len(urls)))
	return urls
}

type statusError int

func (e statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", int(e))
}

func (s *Scraper) fetch(ctx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	httpclient.SetBrowserHeaders(req, s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", statusError(resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
