package tabular

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Charset names the encoding an export was decoded from.
type Charset string

const (
	CharsetUTF8        Charset = "utf-8"
	CharsetUTF8BOM     Charset = "utf-8-bom"
	CharsetUTF16       Charset = "utf-16"
	CharsetWindows1252 Charset = "windows-1252"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText converts raw export bytes to a UTF-8 string.
//
// Detection order: UTF-8 BOM, UTF-16 BOM (either byte order), valid UTF-8,
// and finally Windows-1252, which decodes any byte sequence.
func DecodeText(data []byte) (string, Charset, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), CharsetUTF8BOM, nil

	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(data)
		if err != nil {
			return "", "", fmt.Errorf("decode utf-16: %w", err)
		}
		return string(out), CharsetUTF16, nil

	case utf8.Valid(data):
		return string(data), CharsetUTF8, nil

	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", "", fmt.Errorf("decode windows-1252: %w", err)
		}
		return string(out), CharsetWindows1252, nil
	}
}
