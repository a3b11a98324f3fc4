// Package text turns the raw visible text of a rendered page into clean lines
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/farewatch/fare-service/internal/parsers/charset"
)

// Options controls normalization
type Options struct {
	// ASCIIOnly drops every non-ASCII rune after compatibility normalization
	ASCIIOnly bool
}

// Normalizer cleans raw page text into printable, trimmed lines
type Normalizer struct {
	opts Options
}

// NewNormalizer creates a normalizer with the given options
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

var defaultNormalizer = NewNormalizer(Options{})

// Normalize splits raw text into lines using default options
func Normalize(raw string) []string {
	return defaultNormalizer.Lines(raw)
}

// NormalizeBytes decodes raw bytes with the given encoding and normalizes the result
func NormalizeBytes(raw []byte, enc charset.Encoding) ([]string, error) {
	return defaultNormalizer.LinesFromBytes(raw, enc)
}

// LinesFromBytes decodes raw bytes and normalizes the result
func (n *Normalizer) LinesFromBytes(raw []byte, enc charset.Encoding) ([]string, error) {
	decoded, err := charset.Decode(raw, enc)
	if err != nil {
		return nil, err
	}
	return n.Lines(decoded), nil
}

// Lines returns the ordered non-empty lines of raw. Each line is NFKC
// normalized, tabs become spaces, unprintable runes are removed (never
// substituted) and surrounding whitespace is trimmed.
func (n *Normalizer) Lines(raw string) []string {
	lines := make([]string, 0)
	if raw == "" {
		return lines
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	t := n.transformer()
	for _, line := range strings.Split(raw, "\n") {
		line = strings.ReplaceAll(line, "\t", " ")
		cleaned, _, err := transform.String(t, line)
		if err != nil {
			cleaned = strings.Map(dropUnprintable, line)
		}
		t.Reset()

		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			continue
		}
		lines = append(lines, cleaned)
	}

	return lines
}

func (n *Normalizer) transformer() transform.Transformer {
	chain := []transform.Transformer{
		norm.NFKC,
		runes.Remove(runes.Predicate(func(r rune) bool { return !unicode.IsPrint(r) })),
	}
	if n.opts.ASCIIOnly {
		chain = append(chain, runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })))
	}
	return transform.Chain(chain...)
}

func dropUnprintable(r rune) rune {
	if !unicode.IsPrint(r) {
		return -1
	}
	return r
}
