package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage names the lifecycle milestone an Event reports.
type Stage string

// Supported stages.
const (
	StageRunStart   Stage = "RUN_START"
	StageUnitDone   Stage = "UNIT_DONE"
	StageUnitFailed Stage = "UNIT_FAILED"
	StageRunDone    Stage = "RUN_DONE"
)

// Event is one progress milestone of an ingestion run.
type Event struct {
	// RunID ties the event to a run report.
	RunID string
	// TS is when the emitter observed the milestone.
	TS    time.Time
	Stage Stage
	// Level is the fan-out level of a unit event ("days", "laws", "votes").
	Level string
	// Unit identifies the work item (a date or a boletin).
	Unit string
	// Records counts what a finished unit produced.
	Records int
	// Dur is the unit or run wall time.
	Dur time.Duration
	// Note carries the error text of failed units and runs.
	Note string
}

// Validate rejects events the sinks cannot attribute.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageUnitDone, StageUnitFailed:
		if e.Level == "" || e.Unit == "" {
			return fmt.Errorf("%s requires level and unit", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
