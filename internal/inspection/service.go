package inspection

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"peekq/internal/config"
	"peekq/pkg/metrics"
	"peekq/pkg/models"
	"peekq/pkg/tracing"
)

const (
	outcomeJSON   = "json"
	outcomePlain  = "plain"
	outcomeNested = "nested_json"
)

// Service runs the two inspection stages over a delivery. It holds only
// immutable options, so one instance can serve concurrent deliveries.
type Service struct {
	binaryOpts BinaryOptions
}

func NewService(cfg config.InspectorConfig) *Service {
	return &Service{
		binaryOpts: BinaryOptions{Base64Preview: cfg.Base64Preview},
	}
}

// Inspect classifies the delivery body and decodes it according to the verdict.
func (s *Service) Inspect(ctx context.Context, d models.Delivery) Report {
	_, span := tracing.GetTracer("peekq-inspection").Start(ctx, "inspection.inspect")
	defer span.End()

	start := time.Now()

	declared := d.DeclaredContentType()
	report := Report{
		Metadata: Metadata{
			Source:       d.Source,
			MessageID:    d.MessageID(),
			Topic:        d.Topic(),
			GenerateTime: d.GenerateTime(),
			ContentType:  declared,
			ReceivedAt:   d.ReceivedAt,
		},
		Classification: Classify(d.Body, declared),
	}

	if report.Classification.Binary {
		binary := SniffFormat(d.Body, s.binaryOpts)
		report.Binary = &binary
		metrics.IncBinaryFormat(string(binary.Format))
	} else {
		text := DecodeText(string(d.Body))
		report.Text = &text
		metrics.IncTextOutcome(textOutcome(text))
	}

	kind := report.Classification.Kind()
	span.SetAttributes(
		attribute.String("payload.kind", kind),
		attribute.String("payload.reason", string(report.Classification.Reason)),
		attribute.Int("payload.size_bytes", len(d.Body)),
	)
	metrics.ObserveInspection(kind, string(report.Classification.Reason), len(d.Body), time.Since(start))

	return report
}

func textOutcome(text DecodedText) string {
	switch {
	case text.Root.Nested != nil:
		return outcomeNested
	case text.Root.IsJSON():
		return outcomeJSON
	default:
		return outcomePlain
	}
}
