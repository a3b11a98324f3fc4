package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farewatch/fare-service/internal/parsers/charset"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{
			name:     "empty input",
			raw:      "",
			expected: []string{},
		},
		{
			name:     "whitespace only",
			raw:      " \n\t\r\n  ",
			expected: []string{},
		},
		{
			name:     "trims and drops blank lines",
			raw:      "  9:00 AM  \n\n  Delta \r\n$450",
			expected: []string{"9:00 AM", "Delta", "$450"},
		},
		{
			name:     "narrow no-break space becomes a space",
			raw:      "9:00\u202fAM\n10:15\u00a0PM+1",
			expected: []string{"9:00 AM", "10:15 PM+1"},
		},
		{
			name:     "control and format characters are dropped",
			raw:      "Del\u200bta\x07\n\u200e$1,250",
			expected: []string{"Delta", "$1,250"},
		},
		{
			name:     "tabs become spaces",
			raw:      "8 hr\t0 min",
			expected: []string{"8 hr 0 min"},
		},
		{
			name:     "old mac line endings",
			raw:      "a\rb",
			expected: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Normalize(tt.raw)
			require.NotNil(t, lines)
			assert.Equal(t, tt.expected, lines)
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	raw := "9:00 AM\n–\n5:15 PM+1\nTurkish Airlines\n€1.234,56"
	assert.Equal(t, Normalize(raw), Normalize(raw))
}

func TestNormalizeASCIIOnly(t *testing.T) {
	n := NewNormalizer(Options{ASCIIOnly: true})
	assert.Equal(t, []string{"JFKIST", "1,250"}, n.Lines("JFK–IST\n€1,250"))
}

func TestNormalizeBytes(t *testing.T) {
	lines, err := NormalizeBytes([]byte{'c', 'a', 'f', 0xE9, '\n', '4', '5', '0'}, charset.EncodingAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"café", "450"}, lines)
}
