package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisherStoresMessages(t *testing.T) {
	t.Parallel()

	pub := New()
	id, err := pub.Publish(context.Background(), "ingest-runs", map[string]string{"run_id": "a"})
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)
	id, err = pub.Publish(context.Background(), "ingest-runs", "payload")
	require.NoError(t, err)
	require.Equal(t, "memory-2", id)

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	msgs[0].Topic = "modified"
	require.Equal(t, "ingest-runs", pub.Messages()[0].Topic)
}

func TestPublisherFailWith(t *testing.T) {
	t.Parallel()

	pub := New()
	errDown := errors.New("topic unavailable")
	pub.FailWith(errDown)
	_, err := pub.Publish(context.Background(), "ingest-runs", nil)
	require.ErrorIs(t, err, errDown)
	require.Empty(t, pub.Messages())
}
