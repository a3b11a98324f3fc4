package flights

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/farewatch/fare-service/internal/query"
	"github.com/farewatch/fare-service/internal/types"
)

// SkipReason explains why a candidate group produced no record
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipMissingDeparture SkipReason = "missing-departure"
	SkipMissingPrice     SkipReason = "missing-price"
)

var (
	durationLine = regexp.MustCompile(`(?i)^(?:(\d+)\s*(?:hr|hrs|hour|hours|h)\b)?\s*(?:(\d+)\s*(?:min|mins|minutes|m)\b)?$`)
	nonstopLine  = regexp.MustCompile(`(?i)^(?:non-?stop|no stops?|direct)$`)
	stopsLine    = regexp.MustCompile(`(?i)^(\d+)\s*stops?\b\s*(.*)$`)
	co2Line      = regexp.MustCompile(`(?i)^(\d[\d,.]*)\s*kg\s*co2e?\b`)
	emissionLine = regexp.MustCompile(`^([+\-−]?)\s*(\d+)\s*%`)
	routeLine    = regexp.MustCompile(`^([A-Z]{3})\s*[–—\-]?\s*([A-Z]{3})$`)
	separator    = regexp.MustCompile(`^[–—\-]+$`)
)

// DefaultNoisePhrases are free-text lines that never name an airline
var DefaultNoisePhrases = []string{
	"round trip",
	"one way",
	"avg emissions",
	"typical emissions",
	"separate tickets booked together",
	"self transfer",
	"change of planes",
	"overnight",
	"best",
	"cheapest",
}

// extractor holds the per-parse settings used by ExtractGroup
type extractor struct {
	segment query.Segment
	now     time.Time
	noise   map[string]struct{}
}

func newExtractor(seg query.Segment, now time.Time, noise []string) *extractor {
	set := make(map[string]struct{}, len(noise))
	for _, p := range noise {
		set[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return &extractor{segment: seg, now: now, noise: set}
}

// ExtractGroup builds one record from the lines of a single group. It is
// side-effect free; a group without a departure time or price yields a skip reason.
func ExtractGroup(lines []string, seg query.Segment, retrievedAt time.Time) (types.FlightRecord, SkipReason) {
	return newExtractor(seg, retrievedAt, DefaultNoisePhrases).extract(lines)
}

func (e *extractor) extract(lines []string) (types.FlightRecord, SkipReason) {
	rec := types.FlightRecord{
		Origin:      e.segment.Origin,
		Destination: e.segment.Destination,
		RetrievedAt: e.now,
	}

	var (
		markers       int
		haveDeparture bool
		lastStops     = -1
		prevWasStops  bool
	)

	for _, line := range lines {
		wasStops := prevWasStops
		prevWasStops = false

		if IsTimeMarker(line) {
			markers++
			switch markers {
			case 1:
				if t, ok := e.clock(line); ok {
					rec.DepartureTime = t
					haveDeparture = true
				}
			case 2:
				if t, ok := e.clock(line); ok {
					rec.ArrivalTime = &t
				}
			}
			continue
		}

		if separator.MatchString(line) {
			continue
		}

		// the first bare duration is the total travel time; one right after
		// a stops line is the layover
		if minutes, ok := parseDuration(line); ok {
			switch {
			case wasStops && lastStops > 0 && rec.Layover == nil:
				rec.Layover = types.StringPtr(line)
			case rec.TravelTimeMinutes == 0:
				rec.TravelTimeMinutes = minutes
			}
			continue
		}

		if nonstopLine.MatchString(line) {
			rec.NumStops = 0
			lastStops = 0
			continue
		}

		if m := stopsLine.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			rec.NumStops = n
			lastStops = n
			if rest := strings.TrimSpace(m[2]); rest != "" && n > 0 {
				rec.Layover = types.StringPtr(rest)
			}
			prevWasStops = true
			continue
		}

		if m := co2Line.FindStringSubmatch(line); m != nil {
			if kg, err := strconv.Atoi(stripSeparators(m[1])); err == nil {
				rec.CO2EmissionKg = types.IntPtr(kg)
			}
			continue
		}

		if m := emissionLine.FindStringSubmatch(line); m != nil {
			if pct, err := strconv.Atoi(m[2]); err == nil {
				if m[1] == "-" || m[1] == "−" {
					pct = -pct
				}
				rec.EmissionDiffPercent = &pct
			}
			continue
		}

		if m := routeLine.FindStringSubmatch(line); m != nil && m[1] != m[2] {
			rec.Origin, rec.Destination = m[1], m[2]
			continue
		}

		if IsPriceLine(line) {
			if rec.Price == nil {
				if price, err := ParsePrice(line); err == nil {
					rec.Price = &price
				}
			}
			continue
		}

		if e.isNoise(line) {
			continue
		}

		if wasStops && lastStops > 0 && rec.Layover == nil {
			rec.Layover = types.StringPtr(line)
			continue
		}

		if rec.Airline == "" {
			rec.Airline = line
		}
	}

	if !haveDeparture {
		return types.FlightRecord{}, SkipMissingDeparture
	}
	if rec.Price == nil {
		return types.FlightRecord{}, SkipMissingPrice
	}
	return rec, SkipNone
}

func (e *extractor) clock(line string) (time.Time, bool) {
	hour, minute, offset, err := ParseClock(line)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := e.segment.Date.Date()
	return time.Date(y, m, d+offset, hour, minute, 0, 0, time.UTC), true
}

func (e *extractor) isNoise(line string) bool {
	lower := strings.ToLower(line)
	if _, ok := e.noise[lower]; ok {
		return true
	}
	return strings.HasPrefix(lower, "operated by")
}

// parseDuration sums the hour and minute parts of "H hr M min"; either part may be missing
func parseDuration(line string) (int, bool) {
	m := durationLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, true
}

func stripSeparators(s string) string {
	return strings.NewReplacer(",", "", ".", "").Replace(s)
}
