package inspection

import (
	"bytes"
	"context"
	"encoding/json"

	"peekq/internal/config"
	"peekq/internal/logger"
	"peekq/pkg/logging"
	"peekq/pkg/models"
)

// Handler logs an inspection report for every delivery it is given.
type Handler struct {
	service    *Service
	logger     logger.Logger
	prettyJSON bool
	logRawText bool
}

func NewHandler(service *Service, cfg config.InspectorConfig, log logger.Logger) *Handler {
	return &Handler{
		service:    service,
		logger:     log,
		prettyJSON: cfg.PrettyJSON,
		logRawText: cfg.LogRawText,
	}
}

// HandleDelivery matches broker.HandlerFunc.
func (h *Handler) HandleDelivery(ctx context.Context, d models.Delivery) {
	report := h.service.Inspect(ctx, d)
	h.logReport(ctx, d, report)
}

func (h *Handler) logReport(ctx context.Context, d models.Delivery, report Report) {
	md := report.Metadata
	fields := []interface{}{
		"topic", md.Topic,
		"generate_time", md.GenerateTime,
		"content_type", md.ContentType,
	}
	// dispatch already puts the message id on ctx; don't log it twice.
	if logging.GetMessageID(ctx) == "" {
		fields = append(fields, "message_id", md.MessageID)
	}
	h.logger.InfowCtx(ctx, "Delivery metadata", fields...)

	h.logClassification(ctx, report.Classification, md.ContentType)

	switch {
	case report.Binary != nil:
		h.logBinary(ctx, *report.Binary)
	case report.Text != nil:
		if h.logRawText {
			h.logger.InfowCtx(ctx, "Received text payload", "text", string(d.Body))
		}
		h.logText(ctx, *report.Text)
	}
}

func (h *Handler) logClassification(ctx context.Context, c Classification, contentType string) {
	switch c.Hint {
	case HintText:
		h.logger.InfowCtx(ctx, "Declared content type is text", "content_type", contentType)
	case HintBinary:
		h.logger.InfowCtx(ctx, "Declared content type is binary", "content_type", contentType)
	case HintAmbiguous:
		h.logger.InfowCtx(ctx, "Declared content type is ambiguous, sniffing content", "content_type", contentType)
	default:
		h.logger.InfowCtx(ctx, "No declared content type, sniffing content")
	}

	if c.Reason != ReasonContentSniff {
		return
	}

	switch c.Evidence {
	case EvidenceEmpty:
		h.logger.DebugwCtx(ctx, "Empty payload treated as text")
	case EvidenceJSON:
		h.logger.InfowCtx(ctx, "Payload is valid JSON")
	case EvidenceMagic:
		h.logger.InfowCtx(ctx, "Payload starts with a binary magic number", "format", c.Format)
	case EvidenceByteRatio:
		h.logger.InfowCtx(ctx, "Payload classified by byte sampling",
			"kind", c.Kind(),
			"non_text_ratio", c.NonTextRatio,
		)
	}
}

func (h *Handler) logBinary(ctx context.Context, r BinaryReport) {
	fields := []interface{}{
		"size_bytes", r.SizeBytes,
		"format", r.Format,
		"hex_preview", r.HexPreview,
	}
	if r.Base64Preview != "" {
		fields = append(fields, "base64_preview", r.Base64Preview)
	}
	h.logger.InfowCtx(ctx, "Received binary payload", fields...)

	if r.Format == FormatUTF16BOM {
		h.logger.InfowCtx(ctx, "Unicode text preview",
			"encoding", r.TextEncoding,
			"preview", r.TextPreview,
		)
	}
}

func (h *Handler) logText(ctx context.Context, t DecodedText) {
	if t.Unquoted {
		h.logger.InfowCtx(ctx, "Stripped redundant quoting", "text", t.Text)
	}

	root := t.Root
	if !root.IsJSON() {
		h.logger.InfowCtx(ctx, "Payload is not JSON, showing plain text", "text", root.Raw)
		return
	}

	h.logger.InfowCtx(ctx, "Decoded JSON payload", "json", h.formatJSON(root.JSON))
	if root.Topic != nil {
		h.logger.InfowCtx(ctx, "Topic field in payload", "topic", *root.Topic)
	}

	if root.Content == nil {
		return
	}
	nested := root.Nested
	if nested == nil {
		h.logger.InfowCtx(ctx, "Content field is not JSON", "content", *root.Content)
		return
	}

	h.logger.InfowCtx(ctx, "Decoded nested content", "json", h.formatJSON(nested.JSON))
	if nested.Topic != nil {
		h.logger.InfowCtx(ctx, "Topic field in nested content", "topic", *nested.Topic)
	}
}

func (h *Handler) formatJSON(doc json.RawMessage) string {
	var buf bytes.Buffer
	if h.prettyJSON {
		if err := json.Indent(&buf, doc, "", "  "); err == nil {
			return buf.String()
		}
		buf.Reset()
	}
	if err := json.Compact(&buf, doc); err != nil {
		return string(doc)
	}
	return buf.String()
}
