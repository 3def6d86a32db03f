package detector

import (
	"math"

	"SwingSentinel/internal/model"
)

// detectBreakout fires when the latest close clears the prior rolling-window
// high on elevated volume. The prior bar's rolling high is used so the
// breakout bar never competes against itself.
func detectBreakout(d *Detector, series *model.PriceSeries, ind *model.IndicatorSeries) (model.SetupCandidate, bool) {
	latest, _ := series.Latest()
	pt, _ := ind.Latest()
	prev, ok := ind.Prev(1)
	if !ok {
		return model.SetupCandidate{}, false
	}

	priorHigh := prev.RollingHigh20
	if priorHigh <= 0 || latest.Close <= priorHigh {
		return model.SetupCandidate{}, false
	}
	if pt.VolumeRatio < d.cfg.VolumeSpikeMultiplier {
		return model.SetupCandidate{}, false
	}

	breakoutPct := (latest.Close - priorHigh) / priorHigh * 100
	bonus := math.Min(breakoutPct*2, 10) + math.Min((pt.VolumeRatio-d.cfg.VolumeSpikeMultiplier)*2, 5)

	return model.SetupCandidate{
		Score:        scoreSetup(pt, bonus),
		Price:        latest.Close,
		TriggerPrice: priorHigh,
		VolumeRatio:  pt.VolumeRatio,
	}, true
}

// detectPullback fires when price sits within tolerance of EMA50 and the
// latest close is above the previous close (bounce confirmation).
func detectPullback(d *Detector, series *model.PriceSeries, ind *model.IndicatorSeries) (model.SetupCandidate, bool) {
	if len(series.Bars) < 2 {
		return model.SetupCandidate{}, false
	}
	latest, _ := series.Latest()
	prevBar := series.Bars[len(series.Bars)-2]
	pt, _ := ind.Latest()

	if pt.EMA50 <= 0 {
		return model.SetupCandidate{}, false
	}
	distancePct := math.Abs(latest.Close-pt.EMA50) / pt.EMA50 * 100
	if distancePct > d.cfg.PullbackTolerancePercent {
		return model.SetupCandidate{}, false
	}
	if latest.Close <= prevBar.Close {
		return model.SetupCandidate{}, false
	}

	// Tighter to the EMA scores higher.
	bonus := (d.cfg.PullbackTolerancePercent - distancePct) * 2.5

	return model.SetupCandidate{
		Score:        scoreSetup(pt, bonus),
		Price:        latest.Close,
		TriggerPrice: pt.EMA50,
		VolumeRatio:  pt.VolumeRatio,
	}, true
}

// detectMomentum fires on a run of higher-high + higher-low bars inside the
// trailing window with a positive MACD histogram.
func detectMomentum(d *Detector, series *model.PriceSeries, ind *model.IndicatorSeries) (model.SetupCandidate, bool) {
	latest, _ := series.Latest()
	pt, _ := ind.Latest()
	if len(ind.Points) < d.cfg.MomentumWindow {
		return model.SetupCandidate{}, false
	}
	if pt.MACDHistogram <= 0 {
		return model.SetupCandidate{}, false
	}

	count := 0
	for i := 0; i < d.cfg.MomentumWindow; i++ {
		p, ok := ind.Prev(i)
		if !ok {
			break
		}
		if p.HigherHigh && p.HigherLow {
			count++
		}
	}
	if count < d.cfg.MomentumMinBars {
		return model.SetupCandidate{}, false
	}

	windowStart := series.Bars[len(series.Bars)-d.cfg.MomentumWindow]
	changePct := 0.0
	if windowStart.Close > 0 {
		changePct = (latest.Close - windowStart.Close) / windowStart.Close * 100
	}
	bonus := float64(count-d.cfg.MomentumMinBars)*2 + math.Min(math.Max(changePct, 0), 5)

	return model.SetupCandidate{
		Score:        scoreSetup(pt, bonus),
		Price:        latest.Close,
		TriggerPrice: windowStart.Close,
		VolumeRatio:  pt.VolumeRatio,
	}, true
}

// detectConsolidation fires when closes were compressed inside a tight range
// over the trailing window and the latest close breaks outside it.
func detectConsolidation(d *Detector, series *model.PriceSeries, ind *model.IndicatorSeries) (model.SetupCandidate, bool) {
	periods := d.cfg.ConsolidationPeriods
	if len(series.Bars) < periods+1 {
		return model.SetupCandidate{}, false
	}
	latest, _ := series.Latest()
	pt, _ := ind.Latest()

	// Range over the window excluding the breakout bar itself.
	window := series.Bars[len(series.Bars)-1-periods : len(series.Bars)-1]
	maxClose, minClose := window[0].Close, window[0].Close
	for _, b := range window[1:] {
		if b.Close > maxClose {
			maxClose = b.Close
		}
		if b.Close < minClose {
			minClose = b.Close
		}
	}
	if minClose <= 0 {
		return model.SetupCandidate{}, false
	}

	rangePct := (maxClose - minClose) / minClose * 100
	if rangePct >= d.cfg.ConsolidationRangePercent {
		return model.SetupCandidate{}, false
	}
	if latest.Close <= maxClose && latest.Close >= minClose {
		return model.SetupCandidate{}, false
	}

	var breakPct float64
	trigger := maxClose
	if latest.Close > maxClose {
		breakPct = (latest.Close - maxClose) / maxClose * 100
	} else {
		trigger = minClose
		breakPct = (minClose - latest.Close) / minClose * 100
	}
	bonus := math.Min(breakPct*2, 10) + (d.cfg.ConsolidationRangePercent - rangePct)

	return model.SetupCandidate{
		Score:        scoreSetup(pt, bonus),
		Price:        latest.Close,
		TriggerPrice: trigger,
		VolumeRatio:  pt.VolumeRatio,
	}, true
}
