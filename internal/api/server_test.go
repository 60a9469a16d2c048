package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

type failingLookup struct{}

func (failingLookup) LastRun(context.Context) (ingest.RunReport, bool, error) {
	return ingest.RunReport{}, false, errors.New("db down")
}

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// TestHealthz verifies liveness answers without dependencies.
func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(nil, nil, zap.NewNop()), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

// TestReadyz verifies readiness follows the graph ping.
func TestReadyz(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusOK, serve(t, NewServer(fakePinger{}, nil, nil), "/readyz").Code)
	require.Equal(t, http.StatusServiceUnavailable,
		serve(t, NewServer(fakePinger{err: errors.New("bolt refused")}, nil, nil), "/readyz").Code)
	require.Equal(t, http.StatusServiceUnavailable, serve(t, NewServer(nil, nil, nil), "/readyz").Code)
}

// TestLastRun verifies the last recorded report is served as JSON.
func TestLastRun(t *testing.T) {
	t.Parallel()

	runs := &LatestRun{}
	server := NewServer(fakePinger{}, runs, nil)
	require.Equal(t, http.StatusNotFound, serve(t, server, "/v1/runs/last").Code)

	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, runs.RecordRun(context.Background(), ingest.RunReport{
		RunID:      "run-7",
		Command:    "run",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Laws:       ingest.LevelStats{Units: 12, Succeeded: 11, Failed: 1},
	}))

	rec := serve(t, server, "/v1/runs/last")
	require.Equal(t, http.StatusOK, rec.Code)
	var got ingest.RunReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "run-7", got.RunID)
	require.Equal(t, 11, got.Laws.Succeeded)

	require.Equal(t, http.StatusInternalServerError,
		serve(t, NewServer(nil, failingLookup{}, nil), "/v1/runs/last").Code)
	require.Equal(t, http.StatusNotFound, serve(t, NewServer(nil, nil, nil), "/v1/runs/last").Code)
}

// TestRequestIDPropagates verifies a caller supplied request id is echoed.
func TestRequestIDPropagates(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	NewServer(nil, nil, nil).Handler().ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

// TestMetricsRoute verifies the Prometheus handler is mounted.
func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(nil, nil, nil), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}
