// Package flights recovers flight records from the normalized text of a
// results page. The page does not label its fields, so record boundaries are
// inferred from recurring clock-time lines and fields from their shape.
package flights

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/farewatch/fare-service/internal/query"
	"github.com/farewatch/fare-service/internal/types"
)

// Condition is a soft, segment-level parse outcome
type Condition string

const (
	ConditionOK         Condition = "ok"
	ConditionEmptyInput Condition = "empty-input"
	ConditionNoMarkers  Condition = "no-markers"
)

// Skip records a candidate group that produced no record
type Skip struct {
	Group     int        `json:"group"`
	StartLine int        `json:"startLine"`
	Reason    SkipReason `json:"reason"`
}

// ParseResult is the outcome of parsing one segment's lines
type ParseResult struct {
	Records   []types.FlightRecord `json:"records"`
	Skips     []Skip               `json:"skips,omitempty"`
	Groups    int                  `json:"groups"`
	Markers   int                  `json:"markers"`
	Condition Condition            `json:"condition"`
}

// SkippedCount returns how many candidate groups were dropped
func (r *ParseResult) SkippedCount() int {
	return len(r.Skips)
}

// Options configures a Parser
type Options struct {
	// Strategy detects record boundaries; AlternatingMarkers when nil
	Strategy BoundaryStrategy
	// RequireClosingMarker configures the default strategy to skip the
	// trailing group that runs to the end of input
	RequireClosingMarker bool
	// Now stamps RetrievedAt on every record; time.Now when nil
	Now func() time.Time
	// StartAfter restricts parsing to lines after the first line containing it
	StartAfter string
	// StopAt ends parsing at the first line (after StartAfter) containing it
	StopAt string
	// NoisePhrases replaces DefaultNoisePhrases when non-empty
	NoisePhrases []string
	Logger       *zerolog.Logger
}

// Parser turns normalized lines into flight records. It keeps no state
// between calls, so callers may pause or interleave segments freely.
type Parser struct {
	strategy BoundaryStrategy
	now      func() time.Time
	start    string
	stop     string
	noise    []string
	logger   *zerolog.Logger
}

// NewParser creates a parser from options
func NewParser(opts Options) *Parser {
	p := &Parser{
		strategy: opts.Strategy,
		now:      opts.Now,
		start:    strings.ToLower(opts.StartAfter),
		stop:     strings.ToLower(opts.StopAt),
		noise:    opts.NoisePhrases,
		logger:   opts.Logger,
	}
	if p.strategy == nil {
		p.strategy = AlternatingMarkers{RequireClosingMarker: opts.RequireClosingMarker}
	}
	if p.now == nil {
		p.now = time.Now
	}
	if len(p.noise) == 0 {
		p.noise = DefaultNoisePhrases
	}
	if p.logger == nil {
		nop := zerolog.Nop()
		p.logger = &nop
	}
	return p
}

// Parse folds every candidate group of lines into records. Malformed groups
// are counted in Skips and never abort the remaining groups.
func (p *Parser) Parse(lines []string, seg query.Segment) *ParseResult {
	result := &ParseResult{
		Records:   make([]types.FlightRecord, 0),
		Condition: ConditionOK,
	}

	lines = p.window(lines)
	if len(lines) == 0 {
		result.Condition = ConditionEmptyInput
		return result
	}

	segmentation := p.strategy.Segment(lines)
	result.Markers = segmentation.Markers
	result.Groups = len(segmentation.Groups)
	if len(segmentation.Groups) == 0 {
		result.Condition = ConditionNoMarkers
		p.logger.Debug().
			Str("segment", seg.String()).
			Int("markers", segmentation.Markers).
			Msg("No record boundaries found")
		return result
	}

	ex := newExtractor(seg, p.now(), p.noise)
	for i, g := range segmentation.Groups {
		rec, reason := ex.extract(lines[g.Start:g.End])
		if reason != SkipNone {
			result.Skips = append(result.Skips, Skip{Group: i, StartLine: g.Start, Reason: reason})
			continue
		}
		result.Records = append(result.Records, rec)
	}

	if len(result.Skips) > 0 {
		p.logger.Debug().
			Str("segment", seg.String()).
			Int("records", len(result.Records)).
			Int("skipped", len(result.Skips)).
			Msg("Dropped malformed groups")
	}

	return result
}

func (p *Parser) window(lines []string) []string {
	if p.start != "" {
		for i, line := range lines {
			if strings.Contains(strings.ToLower(line), p.start) {
				lines = lines[i+1:]
				break
			}
		}
	}
	if p.stop != "" {
		for i, line := range lines {
			if strings.Contains(strings.ToLower(line), p.stop) {
				lines = lines[:i]
				break
			}
		}
	}
	return lines
}
