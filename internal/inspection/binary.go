package inspection

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	hexPreviewBytes    = 20
	base64PreviewChars = 100
	textPreviewChars   = 100
	truncationMarker   = "..."

	EncodingUTF16BE = "UTF-16BE"
	EncodingUTF16LE = "UTF-16LE"
)

type BinaryOptions struct {
	Base64Preview bool
}

// SniffFormat describes a payload already classified as binary.
func SniffFormat(payload []byte, opts BinaryOptions) BinaryReport {
	report := BinaryReport{
		SizeBytes:  len(payload),
		Format:     FormatUnknown,
		HexPreview: hexPreview(payload),
	}
	if opts.Base64Preview {
		report.Base64Preview = base64Preview(payload)
	}

	if len(payload) < minMagicLen {
		return report
	}

	if format, ok := matchMagic(payload); ok {
		report.Format = format
		return report
	}

	var endianness unicode.Endianness
	switch {
	case bytes.HasPrefix(payload, bomUTF16BE):
		endianness = unicode.BigEndian
		report.TextEncoding = EncodingUTF16BE
	case bytes.HasPrefix(payload, bomUTF16LE):
		endianness = unicode.LittleEndian
		report.TextEncoding = EncodingUTF16LE
	default:
		return report
	}

	report.Format = FormatUTF16BOM
	if preview, err := utf16Preview(payload, endianness); err == nil {
		report.TextPreview = preview
	}
	return report
}

// utf16Preview decodes payload after its BOM. Invalid code units come back as
// U+FFFD rather than an error, so a BOM payload always gets a preview.
func utf16Preview(payload []byte, endianness unicode.Endianness) (string, error) {
	decoder := unicode.UTF16(endianness, unicode.ExpectBOM).NewDecoder()
	text, err := decoder.Bytes(payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode utf-16 payload: %w", err)
	}
	runes := []rune(string(text))
	if len(runes) > textPreviewChars {
		return string(runes[:textPreviewChars]) + truncationMarker, nil
	}
	return string(runes), nil
}

func hexPreview(payload []byte) string {
	n := min(len(payload), hexPreviewBytes)
	parts := make([]string, 0, n+1)
	for _, b := range payload[:n] {
		parts = append(parts, fmt.Sprintf("%02X", b))
	}
	if len(payload) > hexPreviewBytes {
		parts = append(parts, truncationMarker)
	}
	return strings.Join(parts, " ")
}

func base64Preview(payload []byte) string {
	encoded := base64.StdEncoding.EncodeToString(payload)
	if len(encoded) > base64PreviewChars {
		return encoded[:base64PreviewChars] + truncationMarker
	}
	return encoded
}
