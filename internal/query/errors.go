package query

import (
	"errors"
	"fmt"
)

// ErrInvalidTopology is returned (wrapped) for every query construction failure
var ErrInvalidTopology = errors.New("invalid topology")

// Rule names the invariant a query violated
type Rule string

const (
	RuleArgCount     Rule = "arg-count"
	RuleSegmentCount Rule = "segment-count"
	RuleAirportCode  Rule = "airport-code"
	RuleSameAirport  Rule = "same-airport"
	RuleDate         Rule = "date"
	RuleChronology   Rule = "chronology"
	RuleReversal     Rule = "reversal"
	RuleContinuity   Rule = "continuity"
	RuleCycle        Rule = "cycle"
	RuleUnknown      Rule = "unknown-topology"
)

// TopologyError describes which rule a query violated
type TopologyError struct {
	Topology Topology
	Rule     Rule
	Detail   string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("invalid %s query (%s): %s", e.Topology, e.Rule, e.Detail)
}

func (e *TopologyError) Unwrap() error {
	return ErrInvalidTopology
}

func violation(t Topology, rule Rule, format string, args ...any) error {
	return &TopologyError{
		Topology: t,
		Rule:     rule,
		Detail:   fmt.Sprintf(format, args...),
	}
}
