package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected Encoding
	}{
		{"UTF-8 BOM", []byte{0xEF, 0xBB, 0xBF, 'H', 'i'}, EncodingUTF8},
		{"UTF-16 LE BOM", []byte{0xFF, 0xFE, 'H', 0x00}, EncodingUTF16},
		{"plain ASCII", []byte("9:00 AM"), EncodingUTF8},
		{"invalid UTF-8", []byte{'c', 'a', 'f', 0xE9}, EncodingWindows1252},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectEncoding(tt.content))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		enc      Encoding
		expected string
	}{
		{"auto UTF-8 strips BOM", []byte{0xEF, 0xBB, 0xBF, '$', '4', '5', '0'}, EncodingAuto, "$450"},
		{"auto windows-1252", []byte{'c', 'a', 'f', 0xE9}, EncodingAuto, "café"},
		{"windows-1250 caron", []byte{0x8A, 'K'}, EncodingWindows1250, "ŠK"},
		{"iso-8859-2", []byte{0xA9}, EncodingISO88592, "Š"},
		{"mislabelled UTF-8 passes through", []byte("€450"), EncodingWindows1250, "€450"},
		{"utf-16 with BOM", []byte{0xFF, 0xFE, 'O', 0x00, 'K', 0x00}, EncodingUTF16, "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Decode(tt.content, tt.enc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestParseEncoding(t *testing.T) {
	assert.Equal(t, EncodingUTF8, ParseEncoding("UTF-8"))
	assert.Equal(t, EncodingWindows1250, ParseEncoding("cp1250"))
	assert.Equal(t, EncodingAuto, ParseEncoding("klingon"))
}
