package inspection

import (
	"encoding/json"
	"strings"
)

const (
	sniffSampleSize    = 100
	maxNonTextRatio    = 0.15
	contentTypeText    = "text/"
	contentTypeOctet   = "application/octet-stream"
	contentTypeBinary  = "application/binary"
	binaryTypeFragment = "binary"
)

var binaryTypePrefixes = []string{contentTypeBinary, "image/", "audio/", "video/"}

// Classify decides whether payload is binary or text. A declared content type
// decides when it is unambiguous; otherwise the payload is sniffed.
func Classify(payload []byte, declaredContentType string) Classification {
	hint := ReadContentType(declaredContentType)

	switch hint {
	case HintText:
		return Classification{Binary: false, Reason: ReasonDeclaredType, Hint: hint}
	case HintBinary:
		return Classification{Binary: true, Reason: ReasonDeclaredType, Hint: hint}
	}

	c := Sniff(payload)
	c.Hint = hint
	return c
}

// ReadContentType maps a declared content type onto a hint. Empty input gives HintNone.
func ReadContentType(contentType string) ContentTypeHint {
	if contentType == "" {
		return HintNone
	}

	if strings.HasPrefix(contentType, contentTypeText) {
		return HintText
	}
	// octet-stream is checked before the "binary" substring rule; senders use it for anything.
	if strings.HasPrefix(contentType, contentTypeOctet) {
		return HintAmbiguous
	}
	for _, prefix := range binaryTypePrefixes {
		if strings.HasPrefix(contentType, prefix) {
			return HintBinary
		}
	}
	if strings.Contains(contentType, binaryTypeFragment) {
		return HintBinary
	}

	return HintAmbiguous
}

// Sniff classifies payload from its bytes alone.
func Sniff(payload []byte) Classification {
	c := Classification{Reason: ReasonContentSniff, Hint: HintNone}

	if len(payload) == 0 {
		c.Evidence = EvidenceEmpty
		return c
	}

	if json.Valid(payload) {
		c.Evidence = EvidenceJSON
		return c
	}

	if format, ok := matchMagic(payload); ok {
		c.Binary = true
		c.Evidence = EvidenceMagic
		c.Format = format
		return c
	}

	c.Evidence = EvidenceByteRatio
	c.NonTextRatio = nonTextRatio(payload)
	c.Binary = c.NonTextRatio > maxNonTextRatio
	return c
}

// nonTextRatio is the share of the first sniffSampleSize bytes that are
// neither printable ASCII nor tab, newline or carriage return.
func nonTextRatio(payload []byte) float64 {
	sample := payload
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
	}
	if len(sample) == 0 {
		return 0
	}

	nonText := 0
	for _, b := range sample {
		if !isTextByte(b) {
			nonText++
		}
	}
	return float64(nonText) / float64(len(sample))
}

func isTextByte(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\t' || b == '\n' || b == '\r'
}
