package riskcalc

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/governance/engine"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func series(values ...float64) []EquityPoint {
	out := make([]EquityPoint, len(values))
	for i, v := range values {
		out[i] = EquityPoint{Date: day(i), Total: v}
	}
	return out
}

func TestComputeEmptyHistory(t *testing.T) {
	t.Parallel()

	s := Compute(nil, nil, 500)
	assert.Equal(t, Snapshot{Cash: 500}, s)
}

func TestComputeZeroEquitySentinel(t *testing.T) {
	t.Parallel()

	s := Compute(series(0), []engine.Position{{Ticker: "AAPL", Shares: 10, BuyPrice: 5}}, 100)
	assert.Equal(t, Snapshot{Cash: 100}, s)
}

func TestComputeEquityAndCash(t *testing.T) {
	t.Parallel()

	s := Compute(series(100, 120, 90, 150), nil, 25)
	assert.InDelta(t, 150, s.Equity, 1e-9)
	assert.InDelta(t, 25, s.Cash, 1e-9)
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	// Peak 120 to trough 90 is a 25% drawdown.
	s := Compute(series(100, 120, 90, 150), nil, 0)
	assert.InDelta(t, -25.0, s.MaxDrawdownPct, 1e-9)
}

func TestComputeNormalizesNewestFirstInput(t *testing.T) {
	t.Parallel()

	reversed := []EquityPoint{
		{Date: day(3), Total: 150},
		{Date: day(2), Total: 90},
		{Date: day(1), Total: 120},
		{Date: day(0), Total: 100},
	}
	s := Compute(reversed, nil, 0)
	assert.InDelta(t, 150, s.Equity, 1e-9)
	assert.InDelta(t, -25.0, s.MaxDrawdownPct, 1e-9)
}

func TestConcentration(t *testing.T) {
	t.Parallel()

	positions := []engine.Position{
		{Ticker: "AAPL", Shares: 10, BuyPrice: 40}, // 400
		{Ticker: "MSFT", Shares: 10, BuyPrice: 30}, // 300
		{Ticker: "XOM", Shares: 10, BuyPrice: 20},  // 200
		{Ticker: "KO", Shares: 10, BuyPrice: 5},    // 50
	}
	s := Compute(series(1000), positions, 50)
	assert.InDelta(t, 40.0, s.Top1ConcentrationPct, 1e-9)
	assert.InDelta(t, 90.0, s.Top3ConcentrationPct, 1e-9)
}

func TestRollingVol(t *testing.T) {
	t.Parallel()

	// Returns: +10%, -10% -> pstdev 0.1, annualized.
	s := Compute(series(100, 110, 99), nil, 0)
	want := 0.1 * math.Sqrt(252) * 100
	assert.InDelta(t, want, s.Rolling20dVolPct, 1e-6)
}

func TestRollingVolNeedsTwoReturns(t *testing.T) {
	t.Parallel()

	s := Compute(series(100, 110), nil, 0)
	assert.Zero(t, s.Rolling20dVolPct)
}

func TestRollingVolWindowLimitedTo20(t *testing.T) {
	t.Parallel()

	// 30 flat days followed by the only volatile days inside the window.
	values := make([]float64, 0, 32)
	for i := 0; i < 30; i++ {
		values = append(values, 100)
	}
	values = append(values, 110, 99)
	s := Compute(series(values...), nil, 0)

	// Window of the last 20 returns: 18 zeros then +10%, -10%.
	rets := make([]float64, 18)
	rets = append(rets, 0.1, -0.1)
	want := pstdev(rets) * math.Sqrt(252) * 100
	assert.InDelta(t, want, s.Rolling20dVolPct, 1e-6)
}

func TestVaR95(t *testing.T) {
	t.Parallel()

	// 10 returns; nearest-rank 5th percentile is the worst (index 0).
	s := Compute(series(100, 95, 105, 110, 100, 103, 99, 104, 108, 102, 106), nil, 0)

	worst := 95.0/100.0 - 1 // -5%
	assert.InDelta(t, -worst*100, s.VaR95Pct, 1e-6)
	assert.InDelta(t, 5.0, s.VaR95Pct, 1e-6)
}

func TestPstdev(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, pstdev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Zero(t, pstdev(nil))
}

func TestThresholdEvents(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	assert.Empty(t, th.Events(Snapshot{Equity: 1000}))

	events := th.Events(Snapshot{
		Equity:               1000,
		Top1ConcentrationPct: 45,
		Top3ConcentrationPct: 65,
		Rolling20dVolPct:     40,
		MaxDrawdownPct:       -20,
		VaR95Pct:             6,
	})
	assert.Len(t, events, 5)

	types := map[string]bool{}
	for _, ev := range events {
		types[ev.Type] = true
		assert.Equal(t, SeverityWarn, ev.Severity)
		assert.NotNil(t, ev.Payload["value"])
	}
	assert.True(t, types["concentration_top1"])
	assert.True(t, types["concentration_top3"])
	assert.True(t, types["volatility"])
	assert.True(t, types["drawdown"])
	assert.True(t, types["var95"])
}

func TestThresholdEventsBoundaries(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()

	// Exactly at threshold trips nothing; strictly beyond does.
	assert.Empty(t, th.Events(Snapshot{
		Equity:               1000,
		Top1ConcentrationPct: 40,
		Top3ConcentrationPct: 60,
		Rolling20dVolPct:     35,
		MaxDrawdownPct:       -15,
		VaR95Pct:             5,
	}))

	events := th.Events(Snapshot{Equity: 1000, MaxDrawdownPct: -15.01})
	assert.Len(t, events, 1)
	assert.Equal(t, "drawdown", events[0].Type)
}
