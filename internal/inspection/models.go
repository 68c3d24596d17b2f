package inspection

import (
	"encoding/json"
	"time"
)

// Reason tells which signal decided a classification.
type Reason string

const (
	ReasonDeclaredType Reason = "declared_type"
	ReasonContentSniff Reason = "content_sniff"
)

// ContentTypeHint is how a declared content type was read.
type ContentTypeHint string

const (
	HintNone      ContentTypeHint = "none"
	HintText      ContentTypeHint = "text"
	HintBinary    ContentTypeHint = "binary"
	HintAmbiguous ContentTypeHint = "ambiguous"
)

// Evidence names the content sniffing step that produced the verdict.
type Evidence string

const (
	EvidenceNone      Evidence = ""
	EvidenceEmpty     Evidence = "empty"
	EvidenceJSON      Evidence = "valid_json"
	EvidenceMagic     Evidence = "magic_number"
	EvidenceByteRatio Evidence = "byte_ratio"
)

type Classification struct {
	Binary bool   `json:"binary"`
	Reason Reason `json:"reason"`

	Hint         ContentTypeHint `json:"hint"`
	Evidence     Evidence        `json:"evidence,omitempty"`
	Format       Format          `json:"format,omitempty"`
	NonTextRatio float64         `json:"non_text_ratio,omitempty"`
}

func (c Classification) Kind() string {
	if c.Binary {
		return "binary"
	}
	return "text"
}

// Format is a binary format recognised from its leading bytes.
type Format string

const (
	FormatJPEG     Format = "JPEG"
	FormatPNG      Format = "PNG"
	FormatGIF      Format = "GIF"
	FormatZIP      Format = "ZIP"
	FormatPDF      Format = "PDF"
	FormatUTF16BOM Format = "UTF16BOM"
	FormatUnknown  Format = "Unknown"
)

// Layer is one level of JSON decoding. JSON is nil when Raw did not parse.
type Layer struct {
	Raw     string          `json:"raw"`
	JSON    json.RawMessage `json:"json,omitempty"`
	Topic   *string         `json:"topic,omitempty"`
	Content *string         `json:"content,omitempty"`
	Nested  *Layer          `json:"nested,omitempty"`
}

func (l Layer) IsJSON() bool {
	return l.JSON != nil
}

type DecodedText struct {
	Original string `json:"original"`
	// Unquoted is set when Original was a JSON string literal and Text holds its value.
	Unquoted bool   `json:"unquoted"`
	Text     string `json:"text"`
	Root     Layer  `json:"root"`
}

// Layers returns the decoded layers outermost first.
func (d DecodedText) Layers() []Layer {
	layers := []Layer{d.Root}
	for l := d.Root.Nested; l != nil; l = l.Nested {
		layers = append(layers, *l)
	}
	return layers
}

type BinaryReport struct {
	SizeBytes     int    `json:"size_bytes"`
	Format        Format `json:"format"`
	HexPreview    string `json:"hex_preview"`
	Base64Preview string `json:"base64_preview,omitempty"`
	TextEncoding  string `json:"text_encoding,omitempty"`
	TextPreview   string `json:"text_preview,omitempty"`
}

// Metadata is the delivery information echoed into a report.
type Metadata struct {
	Source       string    `json:"source,omitempty"`
	MessageID    string    `json:"message_id,omitempty"`
	Topic        string    `json:"topic,omitempty"`
	GenerateTime string    `json:"generate_time,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}

// Report holds exactly one of Text or Binary.
type Report struct {
	Metadata       Metadata       `json:"metadata"`
	Classification Classification `json:"classification"`
	Text           *DecodedText   `json:"text,omitempty"`
	Binary         *BinaryReport  `json:"binary,omitempty"`
}
