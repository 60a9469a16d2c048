// Package sinks implements progress consumers: a structured log sink and a
// Prometheus sink that tracks runs and unit outcomes.
package sinks
