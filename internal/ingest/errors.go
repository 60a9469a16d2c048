package ingest

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a unit of work did not produce records.
type FailureKind string

// Failure kinds. Transient failures are retried by the fetcher, permanent
// ones fail the unit immediately, parse failures skip a single record and
// sink failures abort the run.
const (
	FailureTransient FailureKind = "transient"
	FailurePermanent FailureKind = "permanent"
	FailureParse     FailureKind = "parse"
	FailureSink      FailureKind = "sink"
)

var (
	// ErrEmptyBody is the cause recorded when the source answers with no content.
	ErrEmptyBody = errors.New("empty response body")
	// ErrObjectNotFound is returned by blob stores for missing objects.
	ErrObjectNotFound = errors.New("object not found")
)

// Failure is the typed error returned by fetchers and recorded per unit.
type Failure struct {
	Kind       FailureKind
	URL        string
	StatusCode int
	Attempts   int
	Cause      error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s failure after %d attempt(s)", f.Kind, f.Attempts)
	if f.URL != "" {
		msg += " fetching " + f.URL
	}
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", f.StatusCode)
	}
	if f.Cause != nil {
		msg += ": " + f.Cause.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// AsFailure extracts a *Failure from err. Errors that are not failures are
// reported as permanent with a single attempt.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}
	return &Failure{Kind: FailurePermanent, Attempts: 1, Cause: err}
}

// IsTransient reports whether err is a retryable failure.
func IsTransient(err error) bool {
	var failure *Failure
	return errors.As(err, &failure) && failure.Kind == FailureTransient
}

// UnitError is one failed unit recorded in the run report.
type UnitError struct {
	Level    string      `json:"level"`
	Unit     string      `json:"unit"`
	Kind     FailureKind `json:"kind"`
	Attempts int         `json:"attempts"`
	Message  string      `json:"message"`
}

// NewUnitError builds a report entry for a failed unit.
func NewUnitError(level, unit string, err error) UnitError {
	failure := AsFailure(err)
	return UnitError{
		Level:    level,
		Unit:     unit,
		Kind:     failure.Kind,
		Attempts: failure.Attempts,
		Message:  err.Error(),
	}
}
