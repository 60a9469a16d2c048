// Package progress carries run lifecycle events (run start, unit completion,
// unit failure, run end) from the pipeline to pluggable sinks. Emitters never
// block: events are buffered, batched on a background goroutine and handed to
// every sink in order.
package progress
