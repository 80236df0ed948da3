// Package engine evaluates active policy rules against a proposed trade.
//
// Evaluate is pure: it reads the portfolio state it is given and reports
// breaches without touching storage. Recording breaches and deciding whether
// a breach actually blocks execution belong to the caller.
package engine

import "strings"

// Side is the direction of a proposed order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is the trade under evaluation.
type Order struct {
	Ticker string
	Side   Side
}

// Position is one current holding, valued at its cost basis.
type Position struct {
	Ticker   string
	Shares   float64
	BuyPrice float64
}

// PendingOrder is a submitted-but-unexecuted order. Accepted so callers can
// hand over their full order book; not yet folded into projections.
// TODO: include pending BUY exposure in projected position and sector weights.
type PendingOrder struct {
	Ticker string
	Side   Side
	Shares float64
	Limit  float64
}

// Breach is one detected rule violation.
type Breach struct {
	RuleCode string
	Reason   string
	Details  map[string]any
}

// Decision is the outcome of evaluating every active rule. WillBlock is
// advisory: whether a breach stops the order is the caller's policy.
type Decision struct {
	WillBlock bool
	Breaches  []Breach
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
