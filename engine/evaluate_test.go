package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/governance/policy"
)

func weightRule(threshold float64) policy.Rule {
	return policy.Rule{
		Code:      "MAX_POSITION_WEIGHT",
		Type:      policy.PositionWeight,
		Threshold: policy.Float(threshold),
		Severity:  policy.Error,
		Active:    true,
	}
}

func TestEvaluateNoRules(t *testing.T) {
	t.Parallel()

	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      1000,
	})
	assert.False(t, d.WillBlock)
	assert.Empty(t, d.Breaches)
}

func TestEvaluateSellNeverBlocked(t *testing.T) {
	t.Parallel()

	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Sell},
		ExecPrice: 50,
		Shares:    1000,
		Cash:      10,
		Rules:     []policy.Rule{weightRule(0.01)},
	})
	assert.False(t, d.WillBlock)
	assert.Empty(t, d.Breaches)
}

func TestPositionWeightBreach(t *testing.T) {
	t.Parallel()

	// Equity 1000, new $500 position: projected weight 0.5.
	in := Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      1000,
		Rules:     []policy.Rule{weightRule(0.40)},
	}

	d := Evaluate(in)
	assert.True(t, d.WillBlock)
	assert.Len(t, d.Breaches, 1)
	assert.Equal(t, "MAX_POSITION_WEIGHT", d.Breaches[0].RuleCode)
	assert.Equal(t, "position_weight_exceeded", d.Breaches[0].Reason)
	assert.InDelta(t, 0.5, d.Breaches[0].Details["projected_weight"].(float64), 1e-9)

	in.Rules = []policy.Rule{weightRule(0.60)}
	d = Evaluate(in)
	assert.False(t, d.WillBlock)
	assert.Empty(t, d.Breaches)
}

func TestPositionWeightExactThresholdPasses(t *testing.T) {
	t.Parallel()

	// Projected weight exactly equals the threshold: epsilon keeps it legal.
	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      1000,
		Rules:     []policy.Rule{weightRule(0.5)},
	})
	assert.False(t, d.WillBlock)
}

func TestPositionWeightCountsExistingShares(t *testing.T) {
	t.Parallel()

	// 10 shares held at $50 plus 10 more: projected $1000 of $1500 equity.
	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Positions: []Position{{Ticker: "AAPL", Shares: 10, BuyPrice: 50}},
		Cash:      1000,
		Rules:     []policy.Rule{weightRule(0.60)},
	})
	assert.True(t, d.WillBlock)
}

func TestPositionWeightInitialSeedingSkipped(t *testing.T) {
	t.Parallel()

	// Empty portfolio and no cash: the trade is its own equity basis, so the
	// weight check is skipped instead of always breaching at 1.0.
	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      0,
		Rules:     []policy.Rule{weightRule(0.40)},
	})
	assert.False(t, d.WillBlock)
	assert.Empty(t, d.Breaches)
}

func TestMaxTradeNotional(t *testing.T) {
	t.Parallel()

	rule := policy.Rule{
		Code:      "MAX_NOTIONAL",
		Type:      policy.MaxTradeNotionalPct,
		Threshold: policy.Float(0.25),
		Severity:  policy.Warn,
		Active:    true,
	}

	// $500 notional of $1000 equity = 50% > 25%.
	d := Evaluate(Input{
		Order:     Order{Ticker: "MSFT", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      1000,
		Rules:     []policy.Rule{rule},
	})
	assert.True(t, d.WillBlock)
	assert.Equal(t, "trade_notional_exceeded", d.Breaches[0].Reason)

	// Zero equity: notional is its own basis (ratio 1.0), still over 25%.
	d = Evaluate(Input{
		Order:     Order{Ticker: "MSFT", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      0,
		Rules:     []policy.Rule{rule},
	})
	assert.True(t, d.WillBlock)
	assert.InDelta(t, 1.0, d.Breaches[0].Details["pct"].(float64), 1e-9)
}

func TestSectorAggregateWeight(t *testing.T) {
	t.Parallel()

	rule := policy.Rule{
		Code:      "TECH_CAP",
		Type:      policy.SectorAggregateWeight,
		Threshold: policy.Float(0.50),
		Severity:  policy.Error,
		Active:    true,
	}
	sectors := map[string]string{"AAPL": "tech", "MSFT": "tech", "XOM": "energy"}

	in := Input{
		Order:     Order{Ticker: "MSFT", Side: Buy},
		ExecPrice: 100,
		Shares:    4,
		Positions: []Position{
			{Ticker: "AAPL", Shares: 10, BuyPrice: 30}, // $300 tech
			{Ticker: "XOM", Shares: 10, BuyPrice: 30},  // $300 energy
		},
		Cash:      400,
		Rules:     []policy.Rule{rule},
		SectorMap: sectors,
	}

	// Equity $1000; tech would be $300 + $400 = 70% > 50%.
	d := Evaluate(in)
	assert.True(t, d.WillBlock)
	assert.Equal(t, "sector_weight_exceeded", d.Breaches[0].Reason)
	assert.Equal(t, "tech", d.Breaches[0].Details["sector"])

	// The same order in an uncapped sector passes.
	in.Order.Ticker = "XOM"
	in.ExecPrice = 10
	d = Evaluate(in)
	assert.False(t, d.WillBlock)
}

func TestSectorRuleSkippedWithoutSectorMap(t *testing.T) {
	t.Parallel()

	rule := policy.Rule{
		Code:      "TECH_CAP",
		Type:      policy.SectorAggregateWeight,
		Threshold: policy.Float(0.01),
		Active:    true,
	}

	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      1000,
		Rules:     []policy.Rule{rule},
	})
	assert.False(t, d.WillBlock)
}

func TestInactiveAndThresholdlessRulesSkipped(t *testing.T) {
	t.Parallel()

	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      100,
		Rules: []policy.Rule{
			{Code: "OFF", Type: policy.PositionWeight, Threshold: policy.Float(0.01), Active: false},
			{Code: "NO_THRESHOLD", Type: policy.PositionWeight, Active: true},
		},
	})
	assert.False(t, d.WillBlock)
}

func TestUnimplementedRuleTypeSkipped(t *testing.T) {
	t.Parallel()

	// A turnover rule is valid configuration but has no pre-trade evaluator;
	// it must never block unrelated trades.
	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      1000,
		Rules: []policy.Rule{
			{Code: "TURNOVER", Type: policy.Turnover, Threshold: policy.Float(0.0001), Active: true},
		},
	})
	assert.False(t, d.WillBlock)
}

func TestEvaluateCollectsAllBreaches(t *testing.T) {
	t.Parallel()

	d := Evaluate(Input{
		Order:     Order{Ticker: "AAPL", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Cash:      1000,
		Rules: []policy.Rule{
			weightRule(0.40),
			{Code: "MAX_NOTIONAL", Type: policy.MaxTradeNotionalPct, Threshold: policy.Float(0.25), Active: true},
		},
	})
	assert.True(t, d.WillBlock)
	assert.Len(t, d.Breaches, 2)
}

func TestTickerMatchingCaseInsensitive(t *testing.T) {
	t.Parallel()

	d := Evaluate(Input{
		Order:     Order{Ticker: "aapl", Side: Buy},
		ExecPrice: 50,
		Shares:    10,
		Positions: []Position{{Ticker: "AAPL", Shares: 10, BuyPrice: 50}},
		Cash:      1000,
		Rules:     []policy.Rule{weightRule(0.60)},
	})
	assert.True(t, d.WillBlock)
	assert.Equal(t, "AAPL", d.Breaches[0].Details["ticker"])
}
