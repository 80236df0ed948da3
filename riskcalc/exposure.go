package riskcalc

import "math"

// RegimeProbs are market-regime probabilities from the (external) regime
// model. A nil *RegimeProbs means no regime signal: all probabilities zero.
type RegimeProbs struct {
	Bear    float64
	HighVol float64
}

// exposureFloor is the lowest scalar the blend can produce; allocation never
// scales below 40% of gross.
const exposureFloor = 0.4

// ExposureScalar blends regime risk and open-breach pressure into a bounded
// position-sizing multiplier:
//
//	1.0 - 0.4*bear - 0.3*highVol - min(0.05*openBreaches, 0.25)
//
// rounded to 4 decimal places and floored at 0.4.
func ExposureScalar(probs *RegimeProbs, openBreaches int) float64 {
	scalar := 1.0
	if probs != nil {
		scalar -= 0.4 * probs.Bear
		scalar -= 0.3 * probs.HighVol
	}

	penalty := 0.05 * float64(openBreaches)
	if penalty > 0.25 {
		penalty = 0.25
	}
	scalar -= penalty

	scalar = math.Round(scalar*10000) / 10000
	if scalar < exposureFloor {
		return exposureFloor
	}
	return scalar
}
