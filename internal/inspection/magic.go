package inspection

import "bytes"

// minMagicLen is the shortest payload the magic number checks look at.
const minMagicLen = 4

type magic struct {
	format Format
	prefix []byte
}

// Order matters: the first matching prefix wins.
var magicNumbers = []magic{
	{FormatJPEG, []byte{0xFF, 0xD8}},
	{FormatPNG, []byte{0x89, 'P', 'N', 'G'}},
	{FormatGIF, []byte{'G', 'I', 'F'}},
	{FormatZIP, []byte{'P', 'K'}},
	{FormatPDF, []byte{0x25, 0x50, 0x44, 0x46}},
}

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// matchMagic returns the format whose magic number prefixes data.
func matchMagic(data []byte) (Format, bool) {
	if len(data) < minMagicLen {
		return FormatUnknown, false
	}
	for _, m := range magicNumbers {
		if bytes.HasPrefix(data, m.prefix) {
			return m.format, true
		}
	}
	return FormatUnknown, false
}
