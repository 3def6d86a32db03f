package detector

import "SwingSentinel/internal/model"

// scoreSetup combines the shared quality signals with a rule-specific
// magnitude bonus into a [0,100] score. Monotonic in every input: stronger
// volume, cleaner trend alignment, and a larger bonus never lower the score.
func scoreSetup(pt model.IndicatorPoint, bonus float64) float64 {
	score := 40.0

	// Volume participation, up to 15 points.
	if v := pt.VolumeRatio * 5; v > 0 {
		if v > 15 {
			v = 15
		}
		score += v
	}

	// Trend alignment, up to 15 points.
	switch {
	case pt.EMA20 > pt.EMA50 && pt.EMA50 > pt.EMA200:
		score += 15
	case pt.EMA20 > pt.EMA50:
		score += 7.5
	}

	// RSI sweet spot, up to 10 points.
	switch {
	case pt.RSI14 >= 60 && pt.RSI14 <= 70:
		score += 10
	case pt.RSI14 >= 55 && pt.RSI14 <= 75:
		score += 5
	}

	// MACD confirmation.
	if pt.MACDHistogram > 0 {
		score += 5
	}

	score += bonus

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
