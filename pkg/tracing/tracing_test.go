package tracing

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"peekq/internal/config"
)

func TestResolveServiceName(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.TracingConfig
		fallback string
		want     string
	}{
		{"configured name wins", config.TracingConfig{ServiceName: "peekq-staging"}, "peekq", "peekq-staging"},
		{"caller name", config.TracingConfig{}, "peekq-worker", "peekq-worker"},
		{"default", config.TracingConfig{}, "", "peekq"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveServiceName(tt.cfg, tt.fallback))
		})
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("peekq", "rabbitmq")
	require.NoError(t, err)

	name, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "peekq", name.AsString())

	system, ok := res.Set().Value(semconv.MessagingSystemKey)
	require.True(t, ok)
	assert.Equal(t, "rabbitmq", system.AsString())

	res, err = newResource("peekq", "")
	require.NoError(t, err)
	_, ok = res.Set().Value(semconv.MessagingSystemKey)
	assert.False(t, ok)
}

func TestInitDisabledStillPropagates(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp, err := Init(config.TracingConfig{Enabled: false}, "peekq", "rabbitmq")
	require.NoError(t, err)
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	ctx := ExtractAMQPTraceContext(context.Background(), amqp.Table{"traceparent": traceparent})
	sc := trace.SpanContextFromContext(ctx)
	assert.True(t, sc.IsValid())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
}
