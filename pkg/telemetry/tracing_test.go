package telemetry

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestWithSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(prev)

	require.NoError(t, WithSpan(context.Background(), "ok", func(context.Context) error { return nil }))
	err := WithSpan(context.Background(), "failing", func(context.Context) error { return errors.New("boom") })
	require.EqualError(t, err, "boom")

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ok", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, "failing", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(Config{SamplerType: "never"}).Description(), "AlwaysOff")
	assert.Contains(t, sampler(Config{}).Description(), "AlwaysOn")
	assert.Contains(t, sampler(Config{SamplerType: "ratio", SamplerRatio: 0.5}).Description(), "ParentBased")
}
