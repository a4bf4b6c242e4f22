// Package bootstrap assembles the prober, probe cache, search scraper and
// workflow runner from configuration. The CLIs and finderd share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ProfileFinder/internal/config"
	"ProfileFinder/internal/finder"
	"ProfileFinder/internal/httpclient"
	"ProfileFinder/internal/probe"
	"ProfileFinder/internal/search"
)

// Overrides replaces configured timeouts. Zero keeps the configured value.
type Overrides struct {
	ProbeTimeout  time.Duration
	SearchTimeout time.Duration
}

// Components is the result of one Build.
type Components struct {
	Prober  *probe.Prober
	Checker probe.Checker
	Finder  *finder.Finder
	Scraper *search.Scraper
	Runner  *finder.Runner
	BaseURL string

	closers []io.Closer
}

// Close releases the cache connection, if any.
func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Build wires every lookup component described by cfg.
func Build(ctx context.Context, cfg *config.Config, overrides Overrides) (*Components, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	probeTimeout := cfg.Probe.Timeout()
	if overrides.ProbeTimeout > 0 {
		probeTimeout = overrides.ProbeTimeout
	}
	searchTimeout := cfg.Search.Timeout()
	if overrides.SearchTimeout > 0 {
		searchTimeout = overrides.SearchTimeout
	}

	client := httpclient.New(0)
	components := &Components{BaseURL: cfg.Probe.BaseURL}

	components.Prober = probe.New(client,
		probe.WithBaseURL(cfg.Probe.BaseURL),
		probe.WithUserAgent(cfg.HTTP.UserAgent),
		probe.WithTimeout(probeTimeout),
	)

	cache, closer, err := newProbeCache(ctx, cfg.Probe.Cache)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		components.closers = append(components.closers, closer)
	}
	components.Checker = components.Prober
	if cache != nil {
		components.Checker = probe.NewCachedChecker(components.Prober, cache)
	}

	components.Finder = finder.New(components.Checker, finder.WithTimeout(probeTimeout))
	components.Scraper = search.New(client,
		search.WithEndpoints(cfg.Search.Endpoints),
		search.WithUserAgent(cfg.HTTP.UserAgent),
		search.WithTimeout(searchTimeout),
		search.WithRateLimit(cfg.Search.RateLimit, cfg.Search.Burst),
		search.WithMaxBodyBytes(cfg.Search.MaxBodyBytes),
	)
	components.Runner = finder.NewRunner(components.Finder, components.Scraper)
	return components, nil
}

func newProbeCache(ctx context.Context, cfg config.CacheConfig) (probe.Cache, io.Closer, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil, nil
	case "memory":
		return probe.NewLRUCache(cfg.Size, cfg.TTL()), nil, nil
	case "redis":
		cache, err := probe.NewRedisCache(ctx, probe.RedisCacheOptions{
			Addr:     cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.TTL(),
		})
		if err != nil {
			return nil, nil, err
		}
		return cache, cache, nil
	default:
		return nil, nil, fmt.Errorf("unknown probe cache driver: %s", cfg.Driver)
	}
}
