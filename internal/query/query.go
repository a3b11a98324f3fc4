// Package query models travel queries as ordered origin/destination/date
// segments and validates them against the supported trip shapes.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/farewatch/fare-service/internal/types"
)

// DateLayout is the calendar date layout used for arguments and URLs
const DateLayout = "2006-01-02"

// Topology is the structural shape of a query
type Topology string

const (
	OneWay       Topology = "one-way"
	RoundTrip    Topology = "round-trip"
	ChainTrip    Topology = "chain-trip"
	PerfectChain Topology = "perfect-chain"
)

// Topologies lists the recognized shapes in display order
var Topologies = []Topology{OneWay, RoundTrip, ChainTrip, PerfectChain}

// ParseTopology resolves a topology tag, accepting a few common spellings
func ParseTopology(tag string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "one-way", "oneway", "one_way":
		return OneWay, nil
	case "round-trip", "roundtrip", "round_trip":
		return RoundTrip, nil
	case "chain-trip", "chaintrip", "chain_trip", "chain":
		return ChainTrip, nil
	case "perfect-chain", "perfectchain", "perfect_chain", "perfect":
		return PerfectChain, nil
	}
	return "", violation(Topology(tag), RuleUnknown, "unrecognized topology %q", tag)
}

// Segment is one origin/destination/date leg
type Segment struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Date        time.Time `json:"date"`
}

// DateString returns the segment date in DateLayout
func (s Segment) DateString() string {
	return s.Date.Format(DateLayout)
}

func (s Segment) String() string {
	return fmt.Sprintf("%s-%s %s", s.Origin, s.Destination, s.DateString())
}

// SegmentResult is the parsed outcome of fetching one segment
type SegmentResult struct {
	Segment Segment              `json:"segment"`
	URL     string               `json:"url"`
	Records []types.FlightRecord `json:"records"`
	Skipped int                  `json:"skipped"`
	Err     error                `json:"-"`
}

// Query is an ordered, validated list of segments. Only the attached
// results change after construction.
type Query struct {
	topology Topology
	segments []Segment
	results  []SegmentResult
}

// New validates segments against the topology and returns a query
func New(topology Topology, segments []Segment) (*Query, error) {
	normalized := make([]Segment, len(segments))
	for i, seg := range segments {
		seg.Origin = strings.ToUpper(strings.TrimSpace(seg.Origin))
		seg.Destination = strings.ToUpper(strings.TrimSpace(seg.Destination))
		seg.Date = truncateDate(seg.Date)
		normalized[i] = seg
	}

	if err := validate(topology, normalized); err != nil {
		return nil, err
	}

	return &Query{
		topology: topology,
		segments: normalized,
	}, nil
}

// Topology returns the query's shape
func (q *Query) Topology() Topology {
	return q.topology
}

// Segments returns a copy of the query's segments
func (q *Query) Segments() []Segment {
	out := make([]Segment, len(q.segments))
	copy(out, q.segments)
	return out
}

// Len returns the number of segments
func (q *Query) Len() int {
	return len(q.segments)
}

// SetResults attaches the outcome of a fetch cycle, replacing any earlier one
func (q *Query) SetResults(results []SegmentResult) {
	q.results = results
}

// Results returns the results attached by the last fetch cycle
func (q *Query) Results() []SegmentResult {
	return q.results
}

// URLs maps every segment to its request URL
func (q *Query) URLs(b URLBuilder) []string {
	urls := make([]string, len(q.segments))
	for i, seg := range q.segments {
		urls[i] = b.SegmentURL(seg)
	}
	return urls
}

func (q *Query) String() string {
	parts := make([]string, len(q.segments))
	for i, seg := range q.segments {
		parts[i] = seg.String()
	}
	return fmt.Sprintf("%s[%s]", q.topology, strings.Join(parts, ", "))
}

func truncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
