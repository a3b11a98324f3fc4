package flights

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// a number wrapped by a currency symbol or ISO code on either side
	priceLine = regexp.MustCompile(`^(?:\p{Sc}|[A-Z]{3})?\s*\d[\d.,' ]*\s*(?:\p{Sc}|[A-Z]{3})?$`)
	isoCode   = regexp.MustCompile(`^[A-Z]{3}|[A-Z]{3}$`)
	numeric   = regexp.MustCompile(`^\d[\d.,]*$`)
)

// IsPriceLine reports whether a line looks like a standalone price. A
// currency symbol or code is required so bare counters are not mistaken for prices.
func IsPriceLine(line string) bool {
	if !priceLine.MatchString(line) {
		return false
	}
	return strings.IndexFunc(line, isCurrencySymbol) >= 0 || isoCode.MatchString(line)
}

// ParsePrice parses a price into a currency-agnostic number.
// Handles "$1,250", "1.234,56 €", "EUR 99", "1 250" and "12.99".
func ParsePrice(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price value")
	}

	cleaned = isoCode.ReplaceAllString(cleaned, "")
	cleaned = strings.Map(func(r rune) rune {
		if isCurrencySymbol(r) || unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, cleaned)

	if !numeric.MatchString(cleaned) {
		return 0, fmt.Errorf("no numeric value in %q", value)
	}

	cleaned = resolveSeparators(cleaned)

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price format %q: %w", value, err)
	}
	return price, nil
}

// resolveSeparators keeps at most one decimal separator (as '.') and drops
// thousands separators.
func resolveSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		// whichever comes last is the decimal separator
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		return resolveSingle(s, ",")
	case lastDot >= 0:
		return resolveSingle(s, ".")
	}
	return s
}

func resolveSingle(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 {
		// "1,250" groups thousands
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

func isCurrencySymbol(r rune) bool {
	return unicode.Is(unicode.Sc, r)
}
