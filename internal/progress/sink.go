package progress

import "context"

// Sink consumes batches of events. Consume is called from a single goroutine
// and must honor ctx deadlines.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Emitter publishes single events. *Hub implements it, and a nil *Hub is a
// valid no-op emitter.
type Emitter interface {
	Emit(evt Event)
}
