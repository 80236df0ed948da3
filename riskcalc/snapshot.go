// Package riskcalc computes point-in-time risk analytics over an equity
// history and blends regime probabilities into an exposure scalar.
//
// Everything here is pure: callers supply the portfolio state and history
// and persist whatever events the thresholds produce.
package riskcalc

import (
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/governance/engine"
)

// EquityPoint is one day of total account equity.
type EquityPoint struct {
	Date  time.Time
	Total float64
}

// Snapshot is a derived, non-persisted view of portfolio risk. All fields
// are 0 when equity is non-positive or history is empty — a cannot-compute
// sentinel, not an error.
type Snapshot struct {
	Equity               float64
	Cash                 float64
	Top1ConcentrationPct float64
	Top3ConcentrationPct float64
	Rolling20dVolPct     float64
	MaxDrawdownPct       float64
	VaR95Pct             float64
}

// tradingDaysPerYear annualizes daily volatility.
const tradingDaysPerYear = 252

// Compute derives a snapshot from the equity history, current positions
// (valued at cost basis), and cash. History may arrive in any order; it is
// sorted chronologically before returns are taken.
func Compute(history []EquityPoint, positions []engine.Position, cash float64) Snapshot {
	series := make([]EquityPoint, len(history))
	copy(series, history)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	var equity float64
	if len(series) > 0 {
		equity = series[len(series)-1].Total
	}
	if equity <= 0 {
		return Snapshot{Cash: cash}
	}

	s := Snapshot{Equity: equity, Cash: cash}

	// Concentration over position cost values.
	byTicker := make(map[string]float64)
	for _, p := range positions {
		byTicker[p.Ticker] += p.Shares * p.BuyPrice
	}
	values := make([]float64, 0, len(byTicker))
	for _, v := range byTicker {
		values = append(values, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	if len(values) > 0 {
		s.Top1ConcentrationPct = values[0] / equity * 100
		top3 := 0.0
		for i, v := range values {
			if i >= 3 {
				break
			}
			top3 += v
		}
		s.Top3ConcentrationPct = top3 / equity * 100
	}

	// Daily returns, oldest first.
	var returns []float64
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Total
		if prev > 0 {
			returns = append(returns, series[i].Total/prev-1)
		}
	}

	if len(returns) >= 2 {
		window := returns
		if len(window) > 20 {
			window = window[len(window)-20:]
		}
		s.Rolling20dVolPct = pstdev(window) * math.Sqrt(tradingDaysPerYear) * 100
	}

	// Max drawdown from the running peak, chronological.
	peak, draw := 0.0, 0.0
	for _, p := range series {
		if p.Total > peak {
			peak = p.Total
		}
		if peak > 0 {
			if dd := (p.Total/peak - 1) * 100; dd < draw {
				draw = dd
			}
		}
	}
	s.MaxDrawdownPct = draw

	// Historical VaR95: nearest-rank 5th percentile of daily returns.
	if len(returns) > 0 {
		sorted := make([]float64, len(returns))
		copy(sorted, returns)
		sort.Float64s(sorted)
		idx := int(0.05 * float64(len(sorted)))
		if idx > len(sorted)-1 {
			idx = len(sorted) - 1
		}
		s.VaR95Pct = -sorted[idx] * 100
	}

	return s
}

// pstdev is the population standard deviation.
func pstdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}
