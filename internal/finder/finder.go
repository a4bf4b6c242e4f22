// Package finder resolves a (name, employer) pair to a profile URL by probing
// generated usernames, optionally falling back to search-engine scraping.
package finder

import (
	"context"
	"log/slog"
	"time"

	"ProfileFinder/internal/probe"
	"ProfileFinder/internal/profile"
	"ProfileFinder/internal/strategy"
	"ProfileFinder/internal/username"
	"ProfileFinder/pkg/logger"
)

const notFoundMessage = "No direct match found. Try manual search or check tried patterns."

// Searcher is satisfied by search.Scraper.
type Searcher interface {
	Search(ctx context.Context, name, employer string) profile.Result
}

// Option configures a Finder.
type Option func(*Finder)

// WithTimeout sets the per-probe timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Finder) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(f *Finder) {
		if log != nil {
			f.logger = log
		}
	}
}

// Finder probes candidate usernames in generation order.
type Finder struct {
	checker probe.Checker
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Finder backed by checker.
func New(checker probe.Checker, opts ...Option) *Finder {
	f := &Finder{
		checker: checker,
		timeout: probe.DefaultTimeout,
		logger:  logger.Named("finder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Candidates returns the usernames Find would try for name.
func (f *Finder) Candidates(name string) []string {
	return username.Generate(name)
}

// Match probes the candidates for name and returns the first existing one.
func (f *Finder) Match(ctx context.Context, name string) (probe.Probe, bool) {
	hit, _, ok := f.match(ctx, name)
	return hit, ok
}

// match also returns the candidates actually probed, in order. A cancelled
// context stops the walk, so tried may be shorter than Candidates(name).
func (f *Finder) match(ctx context.Context, name string) (probe.Probe, []string, bool) {
	var tried []string
	strategies := strategy.Each(f.Candidates(name), func(ctx context.Context, candidate string) (probe.Probe, bool) {
		tried = append(tried, candidate)
		result := f.checker.Check(ctx, candidate, f.timeout)
		return result, result.Exists
	})
	hit, ok := strategy.First(ctx, strategies...)
	return hit, tried, ok
}

// Find returns a found result for the first existing candidate, or a
// not-found result listing the probed patterns and a manual search URL.
func (f *Finder) Find(ctx context.Context, name, employer string) profile.Result {
	hit, tried, ok := f.match(ctx, name)
	if ok {
		f.logger.Debug("pattern matched", slog.String("username", hit.Username), slog.String("url", hit.URL))
		return found(name, employer, hit)
	}
	return f.notFound(name, employer, tried)
}

func (f *Finder) notFound(name, employer string, tried []string) profile.Result {
	result := profile.NotFound(name, employer, notFoundMessage)
	result.TriedPatterns = tried
	return result
}

func found(name, employer string, hit probe.Probe) profile.Result {
	return profile.Result{
		Found:    true,
		URL:      hit.URL,
		Name:     name,
		Employer: employer,
		Method:   profile.MethodPatternMatch,
		Username: hit.Username,
	}
}

// Auto tries pattern probing first and search scraping second.
type Auto struct {
	finder   *Finder
	searcher Searcher
}

// NewAuto chains finder and searcher. A nil searcher reduces Auto to finder.
func NewAuto(finder *Finder, searcher Searcher) *Auto {
	return &Auto{finder: finder, searcher: searcher}
}

// Find implements the combined workflow.
func (a *Auto) Find(ctx context.Context, name, employer string) profile.Result {
	var tried []string
	strategies := []strategy.Func[profile.Result]{
		func(ctx context.Context) (profile.Result, bool) {
			hit, probed, ok := a.finder.match(ctx, name)
			tried = probed
			if !ok {
				return profile.Result{}, false
			}
			return found(name, employer, hit), true
		},
	}
	if a.searcher != nil {
		strategies = append(strategies, func(ctx context.Context) (profile.Result, bool) {
			result := a.searcher.Search(ctx, name, employer)
			return result, result.Found
		})
	}
	if result, ok := strategy.First(ctx, strategies...); ok {
		return result
	}
	return a.finder.notFound(name, employer, tried)
}
