package loader

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Encoding names the byte encoding a document was read in. Saving writes the
// same encoding back.
type Encoding string

const (
	UTF8    Encoding = "UTF-8"
	UTF8BOM Encoding = "UTF-8-BOM"
	UTF16LE Encoding = "UTF-16LE"
	UTF16BE Encoding = "UTF-16BE"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Decode detects the encoding of data and returns its text. A byte order
// mark selects UTF-8 or UTF-16; without one, a NUL in either of the first two
// bytes is taken as UTF-16 text that starts with an ASCII character.
func Decode(data []byte) (string, Encoding, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		text := data[len(bomUTF8):]
		if !utf8.Valid(text) {
			return "", "", fmt.Errorf("content is not valid UTF-8")
		}
		return string(text), UTF8BOM, nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return decodeUTF16(data, unicode.LittleEndian, UTF16LE)
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return decodeUTF16(data, unicode.BigEndian, UTF16BE)
	case len(data) >= 2 && data[0] == 0 && data[1] != 0:
		return decodeUTF16(data, unicode.BigEndian, UTF16BE)
	case len(data) >= 2 && data[0] != 0 && data[1] == 0:
		return decodeUTF16(data, unicode.LittleEndian, UTF16LE)
	}
	if !utf8.Valid(data) {
		return "", "", fmt.Errorf("content is not valid UTF-8")
	}
	return string(data), UTF8, nil
}

func decodeUTF16(data []byte, order unicode.Endianness, enc Encoding) (string, Encoding, error) {
	if len(data)%2 != 0 {
		return "", "", fmt.Errorf("content is not valid %s: odd byte count", enc)
	}
	dec := unicode.UTF16(order, unicode.ExpectBOM).NewDecoder()
	if !bytes.HasPrefix(data, []byte{0xFF, 0xFE}) && !bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		dec = unicode.UTF16(order, unicode.IgnoreBOM).NewDecoder()
	}
	out, err := dec.Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("decoding %s: %w", enc, err)
	}
	return string(out), enc, nil
}

// Encode turns text back into bytes in the given encoding. UTF-16 output
// always carries a byte order mark. An empty encoding means UTF-8.
func Encode(text string, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8, "":
		return []byte(text), nil
	case UTF8BOM:
		return append(append([]byte{}, bomUTF8...), text...), nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}
