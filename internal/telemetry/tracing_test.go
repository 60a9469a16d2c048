package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestInitTracerProviderExportsSpans verifies spans reach the configured exporter.
func TestInitTracerProviderExportsSpans(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp, err := InitTracerProvider(ctx, Config{ServiceName: "senado-ingest", ServiceVersion: "test", Exporter: exporter})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "laws.fanout")
	span.End()
	require.NoError(t, tp.ForceFlush(ctx))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "laws.fanout", spans[0].Name)
	require.NoError(t, tp.Shutdown(ctx))
}

// TestInitTracerProviderRequiresName verifies the service name is mandatory.
func TestInitTracerProviderRequiresName(t *testing.T) {
	_, err := InitTracerProvider(context.Background(), Config{})
	require.Error(t, err)
}
