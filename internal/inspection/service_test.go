package inspection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"peekq/internal/config"
	"peekq/internal/logger"
	"peekq/pkg/logging"
	"peekq/pkg/models"
)

func TestInspectReportHasExactlyOneBranch(t *testing.T) {
	svc := NewService(config.InspectorConfig{})

	deliveries := []models.Delivery{
		{Body: nil},
		{Body: []byte(`{"a":1}`)},
		{Body: []byte{0xFF, 0xD8, 0xFF, 0xE0}},
		{Body: []byte("plain"), ContentType: "image/png"},
		{Body: []byte{0x00, 0x01}, ContentType: "text/plain"},
	}

	for _, d := range deliveries {
		r := svc.Inspect(context.Background(), d)
		assert.True(t, (r.Text == nil) != (r.Binary == nil), "exactly one of text or binary")
		assert.Equal(t, r.Classification.Binary, r.Binary != nil)
	}
}

func TestInspectMetadata(t *testing.T) {
	svc := NewService(config.InspectorConfig{})
	received := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	d := models.Delivery{
		Body: []byte(`{"topic":"t1"}`),
		Headers: map[string]string{
			"messageId":    "m-1",
			"topic":        "/device/up",
			"generateTime": "1700000000000",
			"contentType":  "image/jpeg",
		},
		ContentType: "text/plain",
		Source:      "queue_demo",
		ReceivedAt:  received,
	}

	r := svc.Inspect(context.Background(), d)

	assert.Equal(t, Metadata{
		Source:       "queue_demo",
		MessageID:    "m-1",
		Topic:        "/device/up",
		GenerateTime: "1700000000000",
		ContentType:  "text/plain",
		ReceivedAt:   received,
	}, r.Metadata)
	assert.False(t, r.Classification.Binary, "protocol content type overrides the header")
	require.NotNil(t, r.Text)
	require.NotNil(t, r.Text.Root.Topic)
	assert.Equal(t, "t1", *r.Text.Root.Topic)
}

func TestInspectHeaderContentType(t *testing.T) {
	svc := NewService(config.InspectorConfig{})

	r := svc.Inspect(context.Background(), models.Delivery{
		Body:    []byte(`{"a":1}`),
		Headers: map[string]string{"contentType": "application/binary"},
	})

	assert.True(t, r.Classification.Binary)
	assert.Equal(t, ReasonDeclaredType, r.Classification.Reason)
	require.NotNil(t, r.Binary)
	assert.Equal(t, FormatUnknown, r.Binary.Format)
}

func TestInspectBinaryTrustsClassification(t *testing.T) {
	svc := NewService(config.InspectorConfig{Base64Preview: true})

	// JSON bytes declared as binary are still reported as binary.
	r := svc.Inspect(context.Background(), models.Delivery{Body: []byte(`{"a":1}`), ContentType: "video/mp4"})
	require.NotNil(t, r.Binary)
	assert.Equal(t, 7, r.Binary.SizeBytes)
	assert.NotEmpty(t, r.Binary.Base64Preview)
}

func TestInspectConcurrent(t *testing.T) {
	svc := NewService(config.InspectorConfig{})
	payloads := [][]byte{
		[]byte(`{"topic":"t1","content":"{\"topic\":\"t2\"}"}`),
		{0x89, 'P', 'N', 'G', 0x00},
		[]byte(`"hello"`),
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := svc.Inspect(context.Background(), models.Delivery{Body: payloads[i%len(payloads)]})
			assert.True(t, (r.Text == nil) != (r.Binary == nil))
		}(i)
	}
	wg.Wait()
}

func newObservedHandler(cfg config.InspectorConfig) (*Handler, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))
	return NewHandler(NewService(cfg), cfg, log), logs
}

func TestHandlerLogsNestedContent(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{PrettyJSON: false})

	h.HandleDelivery(context.Background(), models.Delivery{
		Body:    []byte(`{"topic":"t1","content":"{\"topic\":\"t2\"}"}`),
		Headers: map[string]string{"messageId": "m-7"},
	})

	meta := logs.FilterMessage("Delivery metadata").All()
	require.Len(t, meta, 1)
	assert.Equal(t, "m-7", meta[0].ContextMap()["message_id"])

	assert.Equal(t, 1, logs.FilterMessage("No declared content type, sniffing content").Len())
	assert.Equal(t, 1, logs.FilterMessage("Payload is valid JSON").Len())

	topic := logs.FilterMessage("Topic field in payload").All()
	require.Len(t, topic, 1)
	assert.Equal(t, "t1", topic[0].ContextMap()["topic"])

	nested := logs.FilterMessage("Decoded nested content").All()
	require.Len(t, nested, 1)
	assert.Equal(t, `{"topic":"t2"}`, nested[0].ContextMap()["json"])

	inner := logs.FilterMessage("Topic field in nested content").All()
	require.Len(t, inner, 1)
	assert.Equal(t, "t2", inner[0].ContextMap()["topic"])
}

func TestHandlerLogsRawContent(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{})

	h.HandleDelivery(context.Background(), models.Delivery{Body: []byte(`{"content":"not json"}`)})

	raw := logs.FilterMessage("Content field is not JSON").All()
	require.Len(t, raw, 1)
	assert.Equal(t, "not json", raw[0].ContextMap()["content"])
	assert.Equal(t, 0, logs.FilterMessage("Decoded nested content").Len())
}

func TestHandlerLogsPlainText(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{LogRawText: true})

	h.HandleDelivery(context.Background(), models.Delivery{Body: []byte(`"hello"`), ContentType: "text/plain"})

	assert.Equal(t, 1, logs.FilterMessage("Declared content type is text").Len())
	assert.Equal(t, 1, logs.FilterMessage("Received text payload").Len())
	assert.Equal(t, 1, logs.FilterMessage("Stripped redundant quoting").Len())

	plain := logs.FilterMessage("Payload is not JSON, showing plain text").All()
	require.Len(t, plain, 1)
	assert.Equal(t, "hello", plain[0].ContextMap()["text"])
}

func TestHandlerLogsBinary(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{})

	h.HandleDelivery(context.Background(), models.Delivery{Body: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}})

	magic := logs.FilterMessage("Payload starts with a binary magic number").All()
	require.Len(t, magic, 1)

	bin := logs.FilterMessage("Received binary payload").All()
	require.Len(t, bin, 1)
	fields := bin[0].ContextMap()
	assert.EqualValues(t, 5, fields["size_bytes"])
	assert.Equal(t, "FF D8 FF E0 00", fields["hex_preview"])
	assert.NotContains(t, fields, "base64_preview")
}

func TestHandlerLogsUnicodePreview(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{})

	h.HandleDelivery(context.Background(), models.Delivery{
		Body:        utf16Bytes("hello", true),
		ContentType: "application/octet-stream",
	})

	assert.Equal(t, 1, logs.FilterMessage("Declared content type is ambiguous, sniffing content").Len())
	preview := logs.FilterMessage("Unicode text preview").All()
	require.Len(t, preview, 1)
	assert.Equal(t, "hello", preview[0].ContextMap()["preview"])
}

func TestHandlerPrettyJSON(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{PrettyJSON: true})

	h.HandleDelivery(context.Background(), models.Delivery{Body: []byte(`{"b":1,"a":2}`)})

	decoded := logs.FilterMessage("Decoded JSON payload").All()
	require.Len(t, decoded, 1)
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": 2\n}", decoded[0].ContextMap()["json"])
}

func TestHandlerMetadataUsesContextMessageID(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{})

	ctx := logging.WithMessageID(context.Background(), "ctx-id")
	h.HandleDelivery(ctx, models.Delivery{
		Body:    []byte("x"),
		Headers: map[string]string{"messageId": "ctx-id"},
	})

	meta := logs.FilterMessage("Delivery metadata").All()
	require.Len(t, meta, 1)
	count := 0
	for _, f := range meta[0].Context {
		if f.Key == "message_id" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestHandlerIgnoresNullContent(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{})

	h.HandleDelivery(context.Background(), models.Delivery{Body: []byte(`{"topic":"t1","content":null}`)})

	assert.Equal(t, 1, logs.FilterMessage("Decoded JSON payload").Len())
	assert.Equal(t, 0, logs.FilterMessage("Content field is not JSON").Len())
	assert.Equal(t, 0, logs.FilterMessage("Decoded nested content").Len())
}

func TestHandlerLogsPreviewForMalformedUnicode(t *testing.T) {
	h, logs := newObservedHandler(config.InspectorConfig{})

	h.HandleDelivery(context.Background(), models.Delivery{
		Body:        []byte{0xFF, 0xFE, 0x00, 0xDC, 0x41, 0x00},
		ContentType: "application/binary",
	})

	preview := logs.FilterMessage("Unicode text preview").All()
	require.Len(t, preview, 1)
	assert.Equal(t, EncodingUTF16LE, preview[0].ContextMap()["encoding"])
	assert.Equal(t, "\uFFFDA", preview[0].ContextMap()["preview"])
}
