package kafkax

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestExtractEventMetaFallbacks(t *testing.T) {
	msg := kafka.Message{Topic: "booking.appointment.booked.v1", Key: []byte("appt-1")}
	meta := ExtractEventMeta(msg)
	assert.Equal(t, "appt-1", meta.EventID)
	assert.Equal(t, "booking.appointment.booked.v1", meta.EventType)

	msg.Headers = EventMeta{EventID: "evt-9", EventType: "custom"}.Headers()
	meta = ExtractEventMeta(msg)
	assert.Equal(t, EventMeta{EventID: "evt-9", EventType: "custom"}, meta)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, SplitBrokers(" kafka-1:9092,, kafka-2:9092 "))
	assert.Nil(t, SplitBrokers(""))
}

func TestTraceHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	headers := InjectTraceHeaders(ctx, EventMeta{EventID: "evt-1", EventType: "t"}.Headers())
	assert.NotEmpty(t, HeaderValue(headers, "traceparent"))

	restored := ExtractTraceContext(context.Background(), kafka.Message{Headers: headers})
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(restored).TraceID())
}

func TestReadyCheckReportsEveryBroker(t *testing.T) {
	err := ReadyCheck(nil)(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ReadyCheck([]string{"127.0.0.1:1", "127.0.0.1:2"})(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker 127.0.0.1:1")
	assert.Contains(t, err.Error(), "broker 127.0.0.1:2")
}
