// Package fanout runs independent units of work across a bounded pool of
// goroutines and hands every outcome to a single aggregator goroutine.
package fanout

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/senado-graph-ingest/internal/metrics"
)

const tracerName = "github.com/JakeFAU/senado-graph-ingest/internal/fanout"

// Outcome is the result of one unit. Index is the unit's position in the
// input slice.
type Outcome[U, R any] struct {
	Index  int
	Unit   U
	Result R
	Err    error
}

// Config controls one fan-out level.
type Config[U any] struct {
	// Level names the fan-out level in spans and metrics ("days", "laws").
	Level string
	// Workers bounds the number of units in flight. Values below 1 mean 1.
	Workers int
	// Name labels a unit in spans. Defaults to its index.
	Name func(U) string
	// OnDone is called once per unit, in completion order, on the aggregator
	// goroutine. It may mutate caller state without locking.
	OnDone func(index int, unit U, err error)
}

// Run calls fn once for every unit with at most cfg.Workers calls in flight
// and returns the outcomes ordered by unit index. A failing unit never
// cancels its siblings; its error is recorded in its outcome. Run returns
// after every unit has resolved.
func Run[U, R any](ctx context.Context, units []U, cfg Config[U], fn func(context.Context, U) (R, error)) []Outcome[U, R] {
	outcomes := make([]Outcome[U, R], len(units))
	if len(units) == 0 {
		return outcomes
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	tracer := otel.Tracer(tracerName)

	results := make(chan Outcome[U, R], workers)
	aggregated := make(chan struct{})
	go func() {
		defer close(aggregated)
		for outcome := range results {
			outcomes[outcome.Index] = outcome
			status := "succeeded"
			if outcome.Err != nil {
				status = "failed"
			}
			metrics.ObserveUnit(cfg.Level, status)
			if cfg.OnDone != nil {
				cfg.OnDone(outcome.Index, outcome.Unit, outcome.Err)
			}
		}
	}()

	var group errgroup.Group
	group.SetLimit(workers)
	for i, unit := range units {
		group.Go(func() error {
			name := fmt.Sprint(i)
			if cfg.Name != nil {
				name = cfg.Name(unit)
			}
			unitCtx, span := tracer.Start(ctx, cfg.Level+".unit")
			span.SetAttributes(
				attribute.String("fanout.level", cfg.Level),
				attribute.String("fanout.unit", name),
				attribute.Int("fanout.index", i),
			)
			result, err := fn(unitCtx, unit)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
			results <- Outcome[U, R]{Index: i, Unit: unit, Result: result, Err: err}
			return nil
		})
	}
	_ = group.Wait() // units report failures through their outcomes
	close(results)
	<-aggregated
	return outcomes
}

// Failed returns the outcomes that carry an error, in unit order.
func Failed[U, R any](outcomes []Outcome[U, R]) []Outcome[U, R] {
	var failed []Outcome[U, R]
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
