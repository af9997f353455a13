package observability

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{}, nil)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestInitTracing(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{Enabled: true, SamplingRate: 1}, &buf)
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "flatten.test", attribute.Int("fields", 2))
	_, child := StartSpan(ctx, "flatten.child")
	EndSpan(child, fmt.Errorf("boom"))
	EndSpan(span, nil)

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "flatten.test")
	assert.Contains(t, out, "flatten.child")
	assert.Contains(t, out, "boom")
}
