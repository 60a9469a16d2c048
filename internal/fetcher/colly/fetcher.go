// Package collyfetcher implements ingest.Fetcher using gocolly, with bounded
// retries and capped exponential backoff for transient failures.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/metrics"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// Config controls collector and retry behavior. MaxRetries is the total
// number of attempts per logical fetch.
type Config struct {
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Waiter throttles requests before each attempt.
type Waiter interface {
	Wait(ctx context.Context, url string) error
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithLimiter throttles every attempt through w.
func WithLimiter(w Waiter) Option {
	return func(f *Fetcher) { f.limiter = w }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetcher implements ingest.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	limiter       Waiter
	logger        *zap.Logger
	sleep         func(context.Context, time.Duration) error
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// attemptResult is what one network call produced.
type attemptResult struct {
	status int
	body   []byte
	err    error
}

// New builds a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	// Retries hit the same URL, and clones share the visited store.
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.WithTransport(newHTTPTransport())
	// Clones share the backend client, so the timeout is set once here.
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	f := &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        zap.NewNop(),
		sleep:         sleepWithContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Backoff returns the wait before retry number retry (1-based): the initial
// delay doubled for every earlier retry, capped at maxDelay.
func Backoff(initial, maxDelay time.Duration, retry int) time.Duration {
	if retry <= 0 || initial <= 0 {
		return 0
	}
	delay := initial
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= maxDelay || delay <= 0 {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// Fetch performs up to MaxRetries attempts and returns the body of the first
// successful one. Every error is an *ingest.Failure.
func (f *Fetcher) Fetch(ctx context.Context, request ingest.FetchRequest) ([]byte, error) {
	start := time.Now()
	var last *ingest.Failure
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			delay := Backoff(f.cfg.InitialBackoff, f.cfg.MaxBackoff, attempt-1)
			if err := f.sleep(ctx, delay); err != nil {
				last.Cause = errors.Join(last.Cause, err)
				break
			}
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, request.URL); err != nil {
				last = &ingest.Failure{Kind: ingest.FailureTransient, URL: request.URL, Attempts: attempt - 1, Cause: err}
				break
			}
		}

		res := f.attempt(ctx, request.URL)
		failure := classify(request.URL, res)
		if failure == nil {
			metrics.ObserveFetchAttempt(request.URL, "success", attempt > 1)
			metrics.ObserveFetch("success", time.Since(start))
			return res.body, nil
		}
		failure.Attempts = attempt
		last = failure
		metrics.ObserveFetchAttempt(request.URL, string(failure.Kind), attempt > 1)
		if failure.Kind != ingest.FailureTransient {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < f.cfg.MaxRetries {
			f.logger.Warn("transient fetch failure, retrying",
				zap.String("unit", request.Unit),
				zap.String("url", request.URL),
				zap.Int("attempt", attempt),
				zap.Int("status", failure.StatusCode),
				zap.Error(failure.Cause),
			)
		}
	}
	metrics.ObserveFetch(string(last.Kind), time.Since(start))
	return nil, last
}

// classify maps one attempt to nil (success) or a failure with Kind set.
func classify(url string, res attemptResult) *ingest.Failure {
	switch {
	case res.status >= 500:
		return &ingest.Failure{Kind: ingest.FailureTransient, URL: url, StatusCode: res.status, Cause: res.err}
	case res.status >= 400:
		return &ingest.Failure{Kind: ingest.FailurePermanent, URL: url, StatusCode: res.status, Cause: res.err}
	case res.err != nil && res.status == 0:
		// No response at all: timeout, refused or reset connection.
		return &ingest.Failure{Kind: ingest.FailureTransient, URL: url, Cause: res.err}
	case res.err != nil:
		return &ingest.Failure{Kind: ingest.FailurePermanent, URL: url, StatusCode: res.status, Cause: res.err}
	case len(res.body) == 0:
		return &ingest.Failure{Kind: ingest.FailurePermanent, URL: url, StatusCode: res.status, Cause: ingest.ErrEmptyBody}
	}
	return nil
}

func (f *Fetcher) attempt(ctx context.Context, url string) attemptResult {
	collector := f.baseCollector.Clone()

	var res attemptResult
	configureCollectorHooks(collector, &res)

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return attemptResult{err: fmt.Errorf("colly fetch canceled: %w", ctx.Err())}
	case err := <-done:
		if res.err == nil && err != nil {
			res.err = fmt.Errorf("colly visit failed: %w", err)
		}
		return res
	}
}

func configureCollectorHooks(hooks collectorHooks, res *attemptResult) {
	hooks.OnResponse(func(r *colly.Response) {
		res.status = r.StatusCode
		res.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			res.status = r.StatusCode
		}
		res.err = err
	})
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff sleep: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
	}
}
