package api

import (
	"context"
	"sync"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// RunLookup returns the most recent run report, if any.
type RunLookup interface {
	LastRun(ctx context.Context) (ingest.RunReport, bool, error)
}

// LatestRun keeps the last recorded report in memory. It serves as both the
// run recorder and the lookup when no run log database is configured.
type LatestRun struct {
	mu     sync.RWMutex
	report ingest.RunReport
	set    bool
}

var (
	_ ingest.RunRecorder = (*LatestRun)(nil)
	_ RunLookup          = (*LatestRun)(nil)
)

// RecordRun replaces the held report.
func (l *LatestRun) RecordRun(_ context.Context, report ingest.RunReport) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report = report
	l.set = true
	return nil
}

// LastRun returns the held report.
func (l *LatestRun) LastRun(context.Context) (ingest.RunReport, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.report, l.set, nil
}
