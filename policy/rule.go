// Package policy stores the configurable risk rules applied to proposed
// trades. Rules are keyed by a stable code; every change is mirrored into
// the audit chain so the rule set in force at any point is reconstructible.
package policy

import "time"

// RuleType selects the check a rule performs. The set is closed: the
// evaluator matches exhaustively and skips types it does not implement.
type RuleType string

const (
	// PositionWeight caps a single position's projected share of equity.
	PositionWeight RuleType = "position_weight"

	// MaxTradeNotionalPct caps one trade's notional as a fraction of equity.
	MaxTradeNotionalPct RuleType = "max_trade_notional_pct"

	// SectorAggregateWeight caps the combined weight of one sector.
	SectorAggregateWeight RuleType = "sector_aggregate_weight"

	// Turnover caps daily turnover. Seeded for the allocation layer; the
	// pre-trade engine does not evaluate it.
	Turnover RuleType = "turnover"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	switch t {
	case PositionWeight, MaxTradeNotionalPct, SectorAggregateWeight, Turnover:
		return true
	}
	return false
}

// Severity grades a rule violation.
type Severity string

const (
	Warn  Severity = "warn"
	Error Severity = "error"
)

// Rule is one named policy check.
type Rule struct {
	Code      string
	Type      RuleType
	Threshold *float64 // nil means the rule carries no numeric threshold
	Severity  Severity
	Active    bool
	Params    map[string]any
	UpdatedAt time.Time
}

// Float is a convenience for building threshold pointers.
func Float(v float64) *float64 { return &v }
