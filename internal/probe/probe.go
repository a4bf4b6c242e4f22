// Package probe checks whether a profile exists for a username by issuing a
// HEAD request against the public profile URL.
package probe

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ProfileFinder/internal/httpclient"
	"ProfileFinder/internal/observability/metrics"
	"ProfileFinder/internal/profile"
	"ProfileFinder/pkg/logger"
)

// DefaultTimeout bounds a probe when neither the caller nor the prober sets one.
const DefaultTimeout = 5 * time.Second

// Probe is the outcome of checking one username. Exists is true only for an
// HTTP 200 after redirects; transport failures leave StatusCode at zero and
// populate Err.
type Probe struct {
	Username   string
	URL        string
	Exists     bool
	StatusCode int
	Err        error
}

// Definitive reports whether the probe reached the server.
func (p Probe) Definitive() bool {
	return p.Err == nil && p.StatusCode != 0
}

// Checker is implemented by anything able to probe a username.
type Checker interface {
	Check(ctx context.Context, username string, timeout time.Duration) Probe
}

// Option configures a Prober.
type Option func(*Prober)

// WithBaseURL overrides the profile base URL.
func WithBaseURL(base string) Option {
	return func(p *Prober) {
		if base != "" {
			p.baseURL = base
		}
	}
}

// WithUserAgent overrides the browser user agent.
func WithUserAgent(ua string) Option {
	return func(p *Prober) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithTimeout sets the timeout used when Check is called with zero.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Prober) {
		if log != nil {
			p.logger = log
		}
	}
}

// Prober performs live profile probes over HTTP.
type Prober struct {
	client    *http.Client
	baseURL   string
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// New builds a prober around client. A nil client gets a pooled default.
func New(client *http.Client, opts ...Option) *Prober {
	if client == nil {
		client = httpclient.New(0)
	}
	p := &Prober{
		client:    client,
		baseURL:   profile.DefaultBaseURL,
		userAgent: httpclient.DefaultUserAgent,
		timeout:   DefaultTimeout,
		logger:    logger.Named("probe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// URLFor returns the profile URL the prober would request for username.
func (p *Prober) URLFor(username string) string {
	return profile.BuildURL(p.baseURL, username)
}

// Check probes username. It never fails; problems are reported through Probe.Err.
func (p *Prober) Check(ctx context.Context, username string, timeout time.Duration) Probe {
	if timeout <= 0 {
		timeout = p.timeout
	}
	result := Probe{Username: username, URL: p.URLFor(username)}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, result.URL, nil)
	if err != nil {
		result.Err = err
		p.observe(result)
		return result
	}
	httpclient.SetBrowserHeaders(req, p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		result.Err = err
		p.observe(result)
		return result
	}
	resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Exists = resp.StatusCode == http.StatusOK
	p.observe(result)
	return result
}

func (p *Prober) observe(result Probe) {
	switch {
	case result.Err != nil:
		metrics.ObserveProbe("error")
		p.logger.Debug("profile probe failed",
			slog.String("username", result.Username),
			slog.String("url", result.URL),
			slog.Any("error", result.Err))
	case result.Exists:
		metrics.ObserveProbe("found")
		p.logger.Debug("profile exists", slog.String("username", result.Username), slog.String("url", result.URL))
	default:
		metrics.ObserveProbe("missing")
		p.logger.Debug("profile missing",
			slog.String("username", result.Username),
			slog.Int("status", result.StatusCode))
	}
}
