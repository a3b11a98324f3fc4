package flights

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	dayOffsetSuffix = regexp.MustCompile(`\+(\d)$`)
	dayOffsetTail   = regexp.MustCompile(`\s*\+(\d+)$`)
)

// IsTimeMarker reports whether a normalized line denotes a clock time:
// longer than 2 characters, contains ':' and ends with AM/PM or a +N day offset.
func IsTimeMarker(line string) bool {
	if utf8.RuneCountInString(line) <= 2 || !strings.Contains(line, ":") {
		return false
	}
	upper := strings.ToUpper(line)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		return true
	}
	return dayOffsetSuffix.MatchString(line)
}

// Group is a half-open line range [Start, End) holding one itinerary
type Group struct {
	Start int
	End   int
}

// Segmentation is the outcome of boundary detection over a line sequence
type Segmentation struct {
	Markers int
	Groups  []Group
}

// BoundaryStrategy recovers itinerary boundaries from an unlabeled line stream
type BoundaryStrategy interface {
	Segment(lines []string) Segmentation
}

// AlternatingMarkers assumes departure and arrival markers strictly alternate.
// Markers 0, 2, 4, ... open a group that runs to the next retained marker;
// the last group runs to the end of input unless RequireClosingMarker is set.
type AlternatingMarkers struct {
	// IsMarker overrides the marker predicate; IsTimeMarker when nil
	IsMarker func(string) bool
	// RequireClosingMarker drops the last group, which has no departure
	// marker to its right
	RequireClosingMarker bool
}

// Segment implements BoundaryStrategy
func (a AlternatingMarkers) Segment(lines []string) Segmentation {
	isMarker := a.IsMarker
	if isMarker == nil {
		isMarker = IsTimeMarker
	}

	var markers []int
	for i, line := range lines {
		if isMarker(line) {
			markers = append(markers, i)
		}
	}

	seg := Segmentation{Markers: len(markers)}
	if len(markers) < 2 {
		return seg
	}

	var departures []int
	for i := 0; i < len(markers); i += 2 {
		departures = append(departures, markers[i])
	}

	closed := len(departures)
	if a.RequireClosingMarker {
		closed--
	}
	for i := 0; i < closed; i++ {
		end := len(lines)
		if i+1 < len(departures) {
			end = departures[i+1]
		}
		seg.Groups = append(seg.Groups, Group{Start: departures[i], End: end})
	}
	return seg
}

// ParseClock parses a marker line into a time of day and a day offset,
// e.g. "10:15 PM+1" -> 22:15, 1.
func ParseClock(line string) (hour, minute, dayOffset int, err error) {
	s := strings.TrimSpace(line)
	if m := dayOffsetTail.FindStringSubmatch(s); m != nil {
		dayOffset, _ = strconv.Atoi(m[1])
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	compact := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	compact = strings.ReplaceAll(compact, ".", "")

	for _, layout := range []string{"3:04PM", "15:04"} {
		if t, perr := time.Parse(layout, compact); perr == nil {
			return t.Hour(), t.Minute(), dayOffset, nil
		}
	}
	return 0, 0, 0, fmt.Errorf("unparseable time %q", line)
}
