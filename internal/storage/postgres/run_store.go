// Package postgres persists run summaries in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

const defaultTable = "ingest_runs"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RunStoreConfig controls the Postgres connection pool used for run rows.
type RunStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// RunStore writes one row per ingestion run.
type RunStore struct {
	pool  pool
	table string
}

var _ ingest.RunRecorder = (*RunStore)(nil)

// NewRunStore connects to Postgres using cfg.
func NewRunStore(ctx context.Context, cfg RunStoreConfig) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("runlog.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: p, table: table}, nil
}

// NewRunStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRunStoreWithPool(p pool, table string) (*RunStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RunStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *RunStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the run table when missing.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id      TEXT PRIMARY KEY,
	command     TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	succeeded   BOOLEAN NOT NULL,
	failed_units INTEGER NOT NULL,
	report      JSONB NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create run table: %w", err)
	}
	return nil
}

// RecordRun upserts the summary of one run keyed by run id.
func (s *RunStore) RecordRun(ctx context.Context, report ingest.RunReport) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("run store is not configured")
	}
	if report.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (run_id, command, started_at, finished_at, succeeded, failed_units, report)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (run_id) DO UPDATE SET
	finished_at = EXCLUDED.finished_at,
	succeeded = EXCLUDED.succeeded,
	failed_units = EXCLUDED.failed_units,
	report = EXCLUDED.report`, s.table)

	args := []any{
		report.RunID,
		report.Command,
		report.StartedAt,
		report.FinishedAt,
		report.Succeeded(),
		len(report.Errors),
		body,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// LastRun returns the most recently started run. The boolean is false when
// no run has been recorded.
func (s *RunStore) LastRun(ctx context.Context) (ingest.RunReport, bool, error) {
	query := fmt.Sprintf(`SELECT report FROM %s ORDER BY started_at DESC LIMIT 1`, s.table)
	var body []byte
	if err := s.pool.QueryRow(ctx, query).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ingest.RunReport{}, false, nil
		}
		return ingest.RunReport{}, false, fmt.Errorf("select last run: %w", err)
	}
	var report ingest.RunReport
	if err := json.Unmarshal(body, &report); err != nil {
		return ingest.RunReport{}, false, fmt.Errorf("decode run report: %w", err)
	}
	return report, true, nil
}
