package riskcalc

// SeverityWarn grades threshold-triggered risk events. All built-in
// thresholds emit warnings; escalation policy lives with the caller.
const SeverityWarn = "warn"

// Event is a threshold breach derived from a snapshot, destined for the
// risk-event chain.
type Event struct {
	Type     string
	Severity string
	Payload  map[string]any
}

// Thresholds are the trip levels for risk events. Zero-value fields would
// trip constantly; use DefaultThresholds as a base.
type Thresholds struct {
	Top1Pct        float64 `yaml:"top1_pct"`
	Top3Pct        float64 `yaml:"top3_pct"`
	MaxDrawdownPct float64 `yaml:"max_drawdown_pct"`
	VolPct         float64 `yaml:"vol_pct"`
	VaR95Pct       float64 `yaml:"var95_pct"`
}

// DefaultThresholds returns the standard trip levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Top1Pct:        40,
		Top3Pct:        60,
		MaxDrawdownPct: -15,
		VolPct:         35,
		VaR95Pct:       5,
	}
}

// Events returns the risk events a snapshot trips. Stateless: no
// de-duplication across calls — cadence and suppression belong to the
// caller.
func (t Thresholds) Events(s Snapshot) []Event {
	var out []Event
	if s.Top1ConcentrationPct > t.Top1Pct {
		out = append(out, warn("concentration_top1", s.Top1ConcentrationPct))
	}
	if s.Top3ConcentrationPct > t.Top3Pct {
		out = append(out, warn("concentration_top3", s.Top3ConcentrationPct))
	}
	if s.MaxDrawdownPct < t.MaxDrawdownPct {
		out = append(out, warn("drawdown", s.MaxDrawdownPct))
	}
	if s.Rolling20dVolPct > t.VolPct {
		out = append(out, warn("volatility", s.Rolling20dVolPct))
	}
	if s.VaR95Pct > t.VaR95Pct {
		out = append(out, warn("var95", s.VaR95Pct))
	}
	return out
}

func warn(eventType string, value float64) Event {
	return Event{
		Type:     eventType,
		Severity: SeverityWarn,
		Payload:  map[string]any{"value": value},
	}
}
