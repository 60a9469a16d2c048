package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// TestBackoffDoublesUntilCeiling checks the retry schedule.
func TestBackoffDoublesUntilCeiling(t *testing.T) {
	t.Parallel()

	initial := 100 * time.Millisecond
	ceiling := 350 * time.Millisecond
	got := []time.Duration{}
	for retry := 1; retry <= 5; retry++ {
		got = append(got, Backoff(initial, ceiling, retry))
	}
	require.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		350 * time.Millisecond,
		350 * time.Millisecond,
		350 * time.Millisecond,
	}, got)
	require.Zero(t, Backoff(initial, ceiling, 0))
	require.Equal(t, time.Hour, Backoff(time.Second, time.Hour, 200))
}

// TestFetchRecoversFromTransientFailures verifies two 5xx answers are retried.
func TestFetchRecoversFromTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<proyectos/>"))
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(Config{MaxRetries: 3, InitialBackoff: 10 * time.Millisecond, MaxBackoff: time.Second})
	body, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: srv.URL + "/day", Unit: "2024-01-02"})
	require.NoError(t, err)
	require.Equal(t, "<proyectos/>", string(body))
	require.EqualValues(t, 3, calls.Load())
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, sleeps.values())
}

// TestFetchGivesUpAfterMaxRetries asserts the exact attempt count and ceiling.
func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(Config{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond, MaxBackoff: 25 * time.Millisecond})
	_, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: srv.URL})
	require.Error(t, err)

	var failure *ingest.Failure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, ingest.FailureTransient, failure.Kind)
	require.Equal(t, 5, failure.Attempts)
	require.Equal(t, http.StatusBadGateway, failure.StatusCode)
	require.EqualValues(t, 5, calls.Load())
	for _, d := range sleeps.values() {
		require.LessOrEqual(t, d, 25*time.Millisecond)
	}
	require.Len(t, sleeps.values(), 4)
}

// TestFetchClientErrorIsPermanent ensures 4xx answers are not retried.
func TestFetchClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f, sleeps := newTestFetcher(Config{MaxRetries: 3, InitialBackoff: time.Millisecond})
	_, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: srv.URL})

	failure := ingest.AsFailure(err)
	require.Equal(t, ingest.FailurePermanent, failure.Kind)
	require.Equal(t, 1, failure.Attempts)
	require.EqualValues(t, 1, calls.Load())
	require.Empty(t, sleeps.values())
}

// TestFetchEmptyBodyIsPermanent covers a 200 answer with no content.
func TestFetchEmptyBodyIsPermanent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(Config{MaxRetries: 3})
	_, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: srv.URL})
	require.ErrorIs(t, err, ingest.ErrEmptyBody)
	require.Equal(t, ingest.FailurePermanent, ingest.AsFailure(err).Kind)
}

// TestFetchConnectionErrorIsTransient uses a closed server to force dial errors.
func TestFetchConnectionErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f, sleeps := newTestFetcher(Config{MaxRetries: 2, InitialBackoff: time.Millisecond})
	_, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: url})
	failure := ingest.AsFailure(err)
	require.Equal(t, ingest.FailureTransient, failure.Kind)
	require.Equal(t, 2, failure.Attempts)
	require.Len(t, sleeps.values(), 1)
}

// TestFetchStopsWhenBackoffSleepIsCanceled verifies cancellation ends retries.
func TestFetchStopsWhenBackoffSleepIsCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := New(Config{MaxRetries: 3, InitialBackoff: time.Millisecond})
	f.sleep = func(context.Context, time.Duration) error { return context.Canceled }
	_, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: srv.URL})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, ingest.AsFailure(err).Attempts)
}

// TestFetchUsesLimiter checks every attempt waits on the limiter.
func TestFetchUsesLimiter(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	limiter := &countingWaiter{}
	f := New(Config{}, WithLimiter(limiter))
	_, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	require.EqualValues(t, 1, limiter.calls.Load())

	limiter.err = errors.New("throttled")
	_, err = f.Fetch(context.Background(), ingest.FetchRequest{URL: srv.URL})
	require.Error(t, err)
	require.Equal(t, ingest.FailureTransient, ingest.AsFailure(err).Kind)
}

// TestFetchConcurrentCallers runs many fetches on one Fetcher at once, the
// way the fan-out workers share it. Run with -race.
func TestFetchConcurrentCallers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Query().Get("boletin")))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(Config{MaxRetries: 2, InitialBackoff: time.Millisecond})
	const workers = 8
	bodies := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: fmt.Sprintf("%s/?boletin=%d", srv.URL, i+1)})
			bodies[i], errs[i] = string(body), err
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		require.Equal(t, fmt.Sprint(i+1), bodies[i])
	}
}

// TestFetchRequestTimeout verifies the configured timeout applies to every
// attempt and counts as a transient failure.
func TestFetchRequestTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			_, _ = w.Write([]byte("late"))
		}
	}))
	defer srv.Close()

	f := New(Config{Timeout: 50 * time.Millisecond, MaxRetries: 2, InitialBackoff: time.Millisecond})
	f.sleep = func(context.Context, time.Duration) error { return nil }
	_, err := f.Fetch(context.Background(), ingest.FetchRequest{URL: srv.URL})
	require.Error(t, err)
	failure := ingest.AsFailure(err)
	require.Equal(t, ingest.FailureTransient, failure.Kind)
	require.Equal(t, 2, failure.Attempts)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	var res attemptResult
	hooks := &stubHooks{}
	configureCollectorHooks(hooks, &res)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{StatusCode: http.StatusOK, Body: []byte("body")})
	require.Equal(t, http.StatusOK, res.status)
	require.Equal(t, "body", string(res.body))

	hooks.onError(&colly.Response{StatusCode: http.StatusTeapot}, errors.New("boom"))
	require.Equal(t, http.StatusTeapot, res.status)
	require.EqualError(t, res.err, "boom")
}

func TestClassify(t *testing.T) {
	t.Parallel()

	require.Nil(t, classify("u", attemptResult{status: 200, body: []byte("x")}))
	require.Equal(t, ingest.FailureTransient, classify("u", attemptResult{status: 503}).Kind)
	require.Equal(t, ingest.FailurePermanent, classify("u", attemptResult{status: 403}).Kind)
	require.Equal(t, ingest.FailureTransient, classify("u", attemptResult{err: errors.New("timeout")}).Kind)
	require.Equal(t, ingest.FailurePermanent, classify("u", attemptResult{status: 204, err: errors.New("No Content")}).Kind)
	require.Equal(t, ingest.FailurePermanent, classify("u", attemptResult{status: 200}).Kind)
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) values() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration{}, s.delays...)
}

func newTestFetcher(cfg Config) (*Fetcher, *sleepRecorder) {
	rec := &sleepRecorder{}
	cfg.Timeout = 2 * time.Second
	f := New(cfg)
	f.sleep = rec.sleep
	return f, rec
}

type countingWaiter struct {
	calls atomic.Int32
	err   error
}

func (w *countingWaiter) Wait(context.Context, string) error {
	w.calls.Add(1)
	return w.err
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
