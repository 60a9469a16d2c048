package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// TestBlobStoreRoundTripCopiesData verifies stored content is isolated from callers.
func TestBlobStoreRoundTripCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	ctx := context.Background()
	uri, err := store.PutObject(ctx, "staging/laws.json", "application/json", bytes.NewReader([]byte("content")))
	require.NoError(t, err)
	require.Equal(t, "memory://staging/laws.json", uri)
	require.Equal(t, 1, store.Len())

	got, err := store.GetObject(ctx, "staging/laws.json")
	require.NoError(t, err)
	got[0] = 'C'

	again, err := store.GetObject(ctx, "staging/laws.json")
	require.NoError(t, err)
	require.Equal(t, "content", string(again))

	_, err = store.GetObject(ctx, "staging/votes.json")
	require.ErrorIs(t, err, ingest.ErrObjectNotFound)
}
