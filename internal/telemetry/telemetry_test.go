package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/donaldgifford/deal-finder/internal/telemetry"
)

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_MissingEndpoint(t *testing.T) {
	t.Parallel()

	_, err := telemetry.Setup(context.Background(), telemetry.Config{Enabled: true})
	require.ErrorIs(t, err, telemetry.ErrMissingEndpoint)
}

func TestNewProvider_ExportsSpans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := telemetry.NewProvider(exporter, telemetry.Config{
		ServiceName: "deal-finder",
		Version:     "v1.2.3",
	})

	_, span := tp.Tracer("test").Start(context.Background(), "pipeline.run")
	span.End()
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.run", spans[0].Name)

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "deal-finder", service)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewProvider_ZeroRatioSamplesEverything(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := telemetry.NewProvider(exporter, telemetry.Config{ServiceName: "x"})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "s")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()
}
