package inspection

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
)

func utf16Bytes(s string, bigEndian bool) []byte {
	var buf bytes.Buffer
	if bigEndian {
		buf.Write(bomUTF16BE)
	} else {
		buf.Write(bomUTF16LE)
	}
	for _, u := range utf16.Encode([]rune(s)) {
		if bigEndian {
			buf.WriteByte(byte(u >> 8))
			buf.WriteByte(byte(u))
		} else {
			buf.WriteByte(byte(u))
			buf.WriteByte(byte(u >> 8))
		}
	}
	return buf.Bytes()
}

func TestSniffFormatMagicNumbers(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    Format
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, FormatJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, FormatPNG},
		{"gif", []byte("GIF87a"), FormatGIF},
		{"zip", []byte{'P', 'K', 0x03, 0x04}, FormatZIP},
		{"pdf", []byte("%PDF-1.4\n"), FormatPDF},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SniffFormat(tt.payload, BinaryOptions{})
			assert.Equal(t, tt.want, r.Format)
			assert.Equal(t, len(tt.payload), r.SizeBytes)
			assert.Empty(t, r.TextPreview)
		})
	}
}

func TestSniffFormatShortPayload(t *testing.T) {
	for _, payload := range [][]byte{nil, {}, {0xFF}, {0xFF, 0xD8}, {0xFE, 0xFF, 0x00}} {
		r := SniffFormat(payload, BinaryOptions{})
		assert.Equal(t, FormatUnknown, r.Format)
		assert.Equal(t, len(payload), r.SizeBytes)
		assert.Empty(t, r.TextEncoding)
	}
}

func TestSniffFormatUTF16(t *testing.T) {
	t.Run("big endian", func(t *testing.T) {
		r := SniffFormat(utf16Bytes("Hi there", true), BinaryOptions{})
		assert.Equal(t, FormatUTF16BOM, r.Format)
		assert.Equal(t, EncodingUTF16BE, r.TextEncoding)
		assert.Equal(t, "Hi there", r.TextPreview)
	})

	t.Run("little endian", func(t *testing.T) {
		r := SniffFormat(utf16Bytes("温度 21°C", false), BinaryOptions{})
		assert.Equal(t, FormatUTF16BOM, r.Format)
		assert.Equal(t, EncodingUTF16LE, r.TextEncoding)
		assert.Equal(t, "温度 21°C", r.TextPreview)
	})

	t.Run("unpaired surrogate is replaced", func(t *testing.T) {
		// BOM, then a lone high surrogate and 'A'.
		r := SniffFormat([]byte{0xFE, 0xFF, 0xD8, 0x00, 0x00, 0x41}, BinaryOptions{})
		assert.Equal(t, FormatUTF16BOM, r.Format)
		assert.Equal(t, "\uFFFDA", r.TextPreview)
	})

	t.Run("preview is truncated", func(t *testing.T) {
		r := SniffFormat(utf16Bytes(strings.Repeat("x", 150), true), BinaryOptions{})
		assert.Equal(t, strings.Repeat("x", 100)+"...", r.TextPreview)
	})
}

func TestHexPreview(t *testing.T) {
	r := SniffFormat([]byte{0xFF, 0xD8, 0x0A, 0x00}, BinaryOptions{})
	assert.Equal(t, "FF D8 0A 00", r.HexPreview)

	payload := bytes.Repeat([]byte{0xAB}, 25)
	r = SniffFormat(payload, BinaryOptions{})
	assert.Equal(t, strings.TrimSpace(strings.Repeat("AB ", 20))+" ...", r.HexPreview)

	r = SniffFormat(bytes.Repeat([]byte{0x01}, 20), BinaryOptions{})
	assert.NotContains(t, r.HexPreview, "...")

	assert.Equal(t, "", SniffFormat(nil, BinaryOptions{}).HexPreview)
}

func TestBase64Preview(t *testing.T) {
	small := []byte{0x00, 0x01, 0x02}

	r := SniffFormat(small, BinaryOptions{})
	assert.Empty(t, r.Base64Preview)

	r = SniffFormat(small, BinaryOptions{Base64Preview: true})
	assert.Equal(t, "AAEC", r.Base64Preview)

	r = SniffFormat(bytes.Repeat([]byte{0xFF}, 300), BinaryOptions{Base64Preview: true})
	assert.Len(t, r.Base64Preview, 103)
	assert.True(t, strings.HasSuffix(r.Base64Preview, "..."))
}
