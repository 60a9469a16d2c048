package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/senado-graph-ingest/internal/config"
	"github.com/JakeFAU/senado-graph-ingest/internal/graph/memory"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

const emptyDay = `<?xml version="1.0" encoding="UTF-8"?><proyectos></proyectos>`

func testConfig(t *testing.T, lawsURL string) config.Config {
	t.Helper()
	cfg, err := config.LoadWith(viper.New(), "")
	require.NoError(t, err)
	cfg.Source = config.SourceConfig{LawsURL: lawsURL, UserAgent: "app-test"}
	cfg.FanOut.Days = 2
	cfg.Fetch.BackoffInitialMs = 1
	cfg.Fetch.BackoffMaxMs = 1
	cfg.Staging.Backend = config.StagingMemory
	return cfg
}

// TestNewWiresPipeline builds the services around an in-memory graph and
// runs a full ingestion against a local source.
func TestNewWiresPipeline(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fecha") == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(emptyDay))
	}))
	t.Cleanup(srv.Close)

	sink := memory.NewSink()
	a, err := New(context.Background(), testConfig(t, srv.URL), zaptest.NewLogger(t), Options{
		Registerer: prometheus.NewRegistry(),
		Sink:       sink,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })

	report, err := a.Pipeline().Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Days.Succeeded)
	require.Zero(t, report.Laws.Units)

	n, err := sink.Count(context.Background(), ingest.LabelUpdate)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

// TestNewLocalStaging verifies the local backend creates its directory.
func TestNewLocalStaging(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://senado.test")
	cfg.Staging.Backend = config.StagingLocal
	cfg.Staging.Dir = t.TempDir() + "/staging"

	a, err := New(context.Background(), cfg, nil, Options{
		Registerer: prometheus.NewRegistry(),
		Sink:       memory.NewSink(),
	})
	require.NoError(t, err)
	require.NotNil(t, a.Pipeline())
	require.Equal(t, config.StagingLocal, a.Config().Staging.Backend)
	a.Close(context.Background())
}

// TestNewRejectsUnknownBackend verifies initialization fails fast.
func TestNewRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://senado.test")
	cfg.Staging.Backend = "ftp"

	_, err := New(context.Background(), cfg, nil, Options{
		Registerer: prometheus.NewRegistry(),
		Sink:       memory.NewSink(),
	})
	require.ErrorContains(t, err, "unknown staging backend")
}

// TestNewDuplicateRegistration verifies a second App on one registry fails
// instead of double-counting progress metrics.
func TestNewDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	cfg := testConfig(t, "http://senado.test")
	first, err := New(context.Background(), cfg, nil, Options{Registerer: reg, Sink: memory.NewSink()})
	require.NoError(t, err)
	t.Cleanup(func() { first.Close(context.Background()) })

	_, err = New(context.Background(), cfg, nil, Options{Registerer: reg, Sink: memory.NewSink()})
	require.ErrorContains(t, err, "init progress metrics")
}
