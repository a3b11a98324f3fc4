package query

import (
	"strings"
	"time"
)

// Build parses a flat argument list for the given topology.
//
//	one-way:       ORG DST DATE
//	round-trip:    ORG DST DATE_OUT DATE_BACK
//	chain-trip:    ORG DST DATE [ORG DST DATE ...]   (at least two legs)
//	perfect-chain: A1 D1 A2 D2 ... An Dn A1          (closes back on A1)
func Build(topology Topology, args []string) (*Query, error) {
	segments, err := segmentsFromArgs(topology, args)
	if err != nil {
		return nil, err
	}
	return New(topology, segments)
}

// BuildTag is Build with a textual topology tag
func BuildTag(tag string, args []string) (*Query, error) {
	topology, err := ParseTopology(tag)
	if err != nil {
		return nil, err
	}
	return Build(topology, args)
}

func segmentsFromArgs(t Topology, args []string) ([]Segment, error) {
	switch t {
	case OneWay:
		if len(args) != 3 {
			return nil, violation(t, RuleArgCount, "expected 3 arguments (origin destination date), got %d", len(args))
		}
		date, err := parseDate(t, args[2])
		if err != nil {
			return nil, err
		}
		return []Segment{{Origin: args[0], Destination: args[1], Date: date}}, nil

	case RoundTrip:
		if len(args) != 4 {
			return nil, violation(t, RuleArgCount, "expected 4 arguments (origin destination date return-date), got %d", len(args))
		}
		out, err := parseDate(t, args[2])
		if err != nil {
			return nil, err
		}
		back, err := parseDate(t, args[3])
		if err != nil {
			return nil, err
		}
		return []Segment{
			{Origin: args[0], Destination: args[1], Date: out},
			{Origin: args[1], Destination: args[0], Date: back},
		}, nil

	case ChainTrip:
		if len(args) == 0 || len(args)%3 != 0 {
			return nil, violation(t, RuleArgCount, "arguments must come in groups of 3 (origin destination date), got %d", len(args))
		}
		segments := make([]Segment, 0, len(args)/3)
		for i := 0; i < len(args); i += 3 {
			date, err := parseDate(t, args[i+2])
			if err != nil {
				return nil, err
			}
			segments = append(segments, Segment{Origin: args[i], Destination: args[i+1], Date: date})
		}
		return segments, nil

	case PerfectChain:
		if len(args) < 3 || len(args)%2 != 1 {
			return nil, violation(t, RuleArgCount, "arguments must be airport/date pairs followed by the closing airport, got %d", len(args))
		}
		segments := make([]Segment, 0, len(args)/2)
		for i := 0; i+2 < len(args); i += 2 {
			date, err := parseDate(t, args[i+1])
			if err != nil {
				return nil, err
			}
			segments = append(segments, Segment{Origin: args[i], Destination: args[i+2], Date: date})
		}
		return segments, nil
	}

	return nil, violation(t, RuleUnknown, "unrecognized topology %q", string(t))
}

func parseDate(t Topology, value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, violation(t, RuleDate, "%q is not a valid calendar date (want %s)", value, DateLayout)
	}
	return date, nil
}

func validate(t Topology, segments []Segment) error {
	switch t {
	case OneWay, RoundTrip, ChainTrip, PerfectChain:
	default:
		return violation(t, RuleUnknown, "unrecognized topology %q", string(t))
	}

	if err := validateSegmentCount(t, len(segments)); err != nil {
		return err
	}

	for i, seg := range segments {
		if !isAirportCode(seg.Origin) {
			return violation(t, RuleAirportCode, "segment %d origin %q is not a 3-letter airport code", i+1, seg.Origin)
		}
		if !isAirportCode(seg.Destination) {
			return violation(t, RuleAirportCode, "segment %d destination %q is not a 3-letter airport code", i+1, seg.Destination)
		}
		if seg.Origin == seg.Destination {
			return violation(t, RuleSameAirport, "segment %d origin and destination are both %s", i+1, seg.Origin)
		}
		if seg.Date.IsZero() {
			return violation(t, RuleDate, "segment %d has no date", i+1)
		}
	}

	for i := 1; i < len(segments); i++ {
		if segments[i].Date.Before(segments[i-1].Date) {
			return violation(t, RuleChronology, "segment %d date %s is before segment %d date %s",
				i+1, segments[i].DateString(), i, segments[i-1].DateString())
		}
	}

	switch t {
	case RoundTrip:
		out, back := segments[0], segments[1]
		if back.Origin != out.Destination || back.Destination != out.Origin {
			return violation(t, RuleReversal, "return leg %s-%s does not reverse outbound leg %s-%s",
				back.Origin, back.Destination, out.Origin, out.Destination)
		}
	case PerfectChain:
		for i := 1; i < len(segments); i++ {
			if segments[i].Origin != segments[i-1].Destination {
				return violation(t, RuleContinuity, "segment %d departs %s but segment %d arrives at %s",
					i+1, segments[i].Origin, i, segments[i-1].Destination)
			}
		}
		first, last := segments[0], segments[len(segments)-1]
		if last.Destination != first.Origin {
			return violation(t, RuleCycle, "chain ends at %s instead of returning to %s", last.Destination, first.Origin)
		}
	}

	return nil
}

func validateSegmentCount(t Topology, n int) error {
	switch t {
	case OneWay:
		if n != 1 {
			return violation(t, RuleSegmentCount, "expected exactly 1 segment, got %d", n)
		}
	case RoundTrip:
		if n != 2 {
			return violation(t, RuleSegmentCount, "expected exactly 2 segments, got %d", n)
		}
	case ChainTrip, PerfectChain:
		if n < 2 {
			return violation(t, RuleSegmentCount, "expected at least 2 segments, got %d", n)
		}
	}
	return nil
}

func isAirportCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}
