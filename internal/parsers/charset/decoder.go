// Package charset decodes rendered page bodies to UTF-8 before normalization
package charset

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingAuto        Encoding = ""
	EncodingUTF8        Encoding = "utf-8"
	EncodingUTF16       Encoding = "utf-16"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
	EncodingISO88592    Encoding = "iso-8859-2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseEncoding maps a charset label (as found in a Content-Type header) to an Encoding
func ParseEncoding(label string) Encoding {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "auto":
		return EncodingAuto
	case "utf-8", "utf8":
		return EncodingUTF8
	case "utf-16", "utf16", "utf-16le", "utf-16be":
		return EncodingUTF16
	case "windows-1250", "cp1250":
		return EncodingWindows1250
	case "windows-1252", "cp1252":
		return EncodingWindows1252
	case "iso-8859-1", "latin1", "latin-1":
		return EncodingISO88591
	case "iso-8859-2", "latin2", "latin-2":
		return EncodingISO88592
	}
	return EncodingAuto
}

// DetectEncoding guesses the encoding of a byte buffer
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) {
		return EncodingUTF8
	}
	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		return EncodingUTF16
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	// Rendered pages that are not UTF-8 are almost always a Windows code page
	return EncodingWindows1252
}

// Decode converts data from enc to a UTF-8 string. EncodingAuto detects the encoding first.
// Data that is already valid UTF-8 is returned as-is regardless of the requested single-byte
// encoding, which protects against mislabelled responses.
func Decode(data []byte, enc Encoding) (string, error) {
	if enc == EncodingAuto {
		enc = DetectEncoding(data)
	}

	if enc != EncodingUTF16 && utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), nil
	}

	var decoder encoding.Encoding
	switch enc {
	case EncodingUTF8:
		// Invalid UTF-8 labelled as UTF-8: fall back to the most common single-byte page
		decoder = charmap.Windows1252
	case EncodingUTF16:
		decoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case EncodingWindows1250:
		decoder = charmap.Windows1250
	case EncodingWindows1252:
		decoder = charmap.Windows1252
	case EncodingISO88591:
		decoder = charmap.ISO8859_1
	case EncodingISO88592:
		decoder = charmap.ISO8859_2
	default:
		return "", fmt.Errorf("unsupported encoding: %s", enc)
	}

	out, err := decoder.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", enc, err)
	}
	return string(out), nil
}
