// Package parser turns raw source documents into ingest records. Parsers are
// pure: no I/O, no shared state, safe to call from any number of goroutines.
//
// A document that cannot be read at all is a unit failure (ingest.FailureParse).
// A single malformed record inside a readable document is skipped and counted
// in the returned Skipped field instead.
package parser
