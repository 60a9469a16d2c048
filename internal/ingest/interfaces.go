package ingest

import (
	"context"
	"io"
	"time"
)

// FetchRequest describes a single GET against the remote source.
type FetchRequest struct {
	URL string
	// Unit labels the request in logs and metrics (a date or a boletin).
	Unit string
}

// Fetcher performs one logical fetch, including retries. Errors are always
// *Failure values.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) ([]byte, error)
}

// GraphSink upserts nodes and relationships into the property graph.
// Every write is a merge keyed by id (nodes) or by the endpoint ids plus the
// batch key properties (edges), so replaying a batch is a no-op. Edges create
// missing endpoint nodes.
type GraphSink interface {
	Ping(ctx context.Context) error
	EnsureConstraints(ctx context.Context) error
	UpsertNodes(ctx context.Context, batch NodeBatch) (int, error)
	UpsertEdges(ctx context.Context, batch EdgeBatch) (int, error)
	// ComputeSimilarity derives VOTED_SAME edges from the stored VOTED_ON
	// relationships and returns the number of edges written.
	ComputeSimilarity(ctx context.Context, minCommon int) (int, error)
	// MarkInactive flags every senator whose id is not in activeIDs.
	MarkInactive(ctx context.Context, activeIDs []string) (int, error)
	// LogUpdate appends an update log node describing a load.
	LogUpdate(ctx context.Context, kind string, count int, at time.Time) error
	// Count returns the number of nodes with label, or all nodes when label
	// is empty.
	Count(ctx context.Context, label string) (int, error)
	// Clear deletes every node and relationship and returns the number of
	// nodes removed.
	Clear(ctx context.Context) (int, error)
	Close(ctx context.Context) error
}

// BlobStore reads and writes staging objects.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
	GetObject(ctx context.Context, path string) ([]byte, error)
}

// Publisher pushes run notifications to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RunRecorder persists run summaries.
type RunRecorder interface {
	RecordRun(ctx context.Context, report RunReport) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run ids.
type IDGenerator interface {
	NewID() (string, error)
}
