package tracing

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func withTraceContextPropagator(t *testing.T) {
	t.Helper()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })
}

func TestExtractKafkaTraceContext(t *testing.T) {
	withTraceContextPropagator(t)

	headers := []kafka.Header{{Key: "traceparent", Value: []byte(traceparent)}}
	ctx := ExtractKafkaTraceContext(context.Background(), headers)

	sc := trace.SpanContextFromContext(ctx)
	assert.True(t, sc.IsValid())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
}

func TestExtractAMQPTraceContext(t *testing.T) {
	withTraceContextPropagator(t)

	t.Run("string header", func(t *testing.T) {
		ctx := ExtractAMQPTraceContext(context.Background(), amqp.Table{"traceparent": traceparent})
		assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	})

	t.Run("byte header", func(t *testing.T) {
		ctx := ExtractAMQPTraceContext(context.Background(), amqp.Table{"traceparent": []byte(traceparent)})
		assert.True(t, trace.SpanContextFromContext(ctx).IsValid())
	})

	t.Run("nil table", func(t *testing.T) {
		ctx := ExtractAMQPTraceContext(context.Background(), nil)
		assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
	})
}

func TestKafkaCarrierSet(t *testing.T) {
	c := &kafkaHeaderCarrier{}
	c.Set("a", "1")
	c.Set("a", "2")
	c.Set("b", "3")

	assert.Equal(t, "2", c.Get("a"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}
