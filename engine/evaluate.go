package engine

import (
	"github.com/rustyeddy/governance/policy"
)

// epsilon pads threshold comparisons so floating-point boundary values
// don't flap between pass and breach.
const epsilon = 1e-12

// Input carries everything Evaluate needs. Rules should already be filtered
// to the active set; inactive rules are skipped regardless. SectorMap and
// Pending are optional — rules that need a missing input are skipped rather
// than failing the evaluation.
type Input struct {
	Order     Order
	ExecPrice float64
	Shares    float64
	Positions []Position
	Cash      float64
	Rules     []policy.Rule
	SectorMap map[string]string
	Pending   []PendingOrder
}

// Evaluate runs every active rule against the proposed trade and returns the
// complete violation set. SELL orders are never blocked. All rules are
// evaluated — no short-circuit on the first breach — so callers see every
// violation at once.
func Evaluate(in Input) Decision {
	var d Decision
	if in.Order.Side != Buy {
		return d
	}

	ticker := upper(in.Order.Ticker)

	var existing float64
	for _, p := range in.Positions {
		if upper(p.Ticker) == ticker {
			existing = p.Shares
			break
		}
	}

	projectedShares := existing + in.Shares
	projectedValue := projectedShares * in.ExecPrice

	var held float64
	for _, p := range in.Positions {
		held += p.Shares * p.BuyPrice
	}
	currentEquity := in.Cash + held

	// Zero-equity fallback: with no equity to measure against, use the
	// trade's own notional as the basis (initial-seeding exception).
	projectedEquity := currentEquity
	if projectedEquity <= 0 {
		projectedEquity = in.ExecPrice * in.Shares
	}
	if projectedEquity < 1e-9 {
		projectedEquity = 1e-9
	}
	projectedWeight := projectedValue / projectedEquity

	// Current sector exposure at cost basis, keyed by sector.
	var sectorExposure map[string]float64
	if in.SectorMap != nil {
		sectorExposure = make(map[string]float64)
		for _, p := range in.Positions {
			sec := in.SectorMap[upper(p.Ticker)]
			if sec == "" {
				continue
			}
			sectorExposure[sec] += p.Shares * p.BuyPrice
		}
	}

	for _, rule := range in.Rules {
		if !rule.Active || rule.Threshold == nil {
			continue
		}
		threshold := *rule.Threshold

		switch rule.Type {
		case policy.PositionWeight:
			// True initial seeding: no existing position and the trade is
			// its own equity basis. Weight would always be 1.0 here.
			if existing <= 0 && projectedEquity == projectedValue {
				continue
			}
			if projectedWeight > threshold+epsilon {
				d.Breaches = append(d.Breaches, Breach{
					RuleCode: rule.Code,
					Reason:   "position_weight_exceeded",
					Details: map[string]any{
						"ticker":           ticker,
						"projected_weight": projectedWeight,
						"threshold":        threshold,
					},
				})
			}

		case policy.MaxTradeNotionalPct:
			notional := in.ExecPrice * in.Shares
			basis := currentEquity
			if basis <= 0 {
				basis = notional
			}
			if basis > 0 && notional/basis > threshold+epsilon {
				d.Breaches = append(d.Breaches, Breach{
					RuleCode: rule.Code,
					Reason:   "trade_notional_exceeded",
					Details: map[string]any{
						"notional":  notional,
						"pct":       notional / basis,
						"threshold": threshold,
					},
				})
			}

		case policy.SectorAggregateWeight:
			if in.SectorMap == nil {
				continue
			}
			sec := in.SectorMap[ticker]
			if sec == "" {
				continue
			}
			projectedSector := sectorExposure[sec] + projectedValue
			if projectedEquity > 0 && projectedSector/projectedEquity > threshold+epsilon {
				d.Breaches = append(d.Breaches, Breach{
					RuleCode: rule.Code,
					Reason:   "sector_weight_exceeded",
					Details: map[string]any{
						"sector":                  sec,
						"projected_sector_weight": projectedSector / projectedEquity,
						"threshold":               threshold,
					},
				})
			}

		default:
			// Unimplemented or misconfigured rule types never block
			// unrelated trades.
		}
	}

	d.WillBlock = len(d.Breaches) > 0
	return d
}
