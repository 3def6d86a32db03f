package detector

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"SwingSentinel/internal/config"
	"SwingSentinel/internal/model"
)

func testSetupConfig() config.SetupConfig {
	return config.SetupConfig{
		VolumeSpikeMultiplier:     1.5,
		RSIMin:                    55,
		RSIMax:                    70,
		MinATRPercent:             1.0,
		PullbackTolerancePercent:  2.0,
		ConsolidationRangePercent: 5.0,
		ConsolidationPeriods:      10,
		MomentumWindow:            5,
		MomentumMinBars:           3,
	}
}

// passingPoint satisfies the baseline filter for a close of 100-ish and, with
// RollingHigh20 far above price, keeps the breakout rule quiet.
func passingPoint() model.IndicatorPoint {
	return model.IndicatorPoint{
		EMA20: 95, EMA50: 90, EMA200: 80,
		RSI14: 60, ATRPercent: 2.0,
		VolumeRatio: 2.0, MACDHistogram: 0.5,
		RollingHigh20: 1000, RollingLow20: 1,
	}
}

func barSeries(closes ...float64) *model.PriceSeries {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Date: base.AddDate(0, 0, i),
			Open: c, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000000,
		}
	}
	return &model.PriceSeries{Symbol: "TEST.NS", Timeframe: model.TimeframeDaily, Bars: bars}
}

func indSeries(points ...model.IndicatorPoint) *model.IndicatorSeries {
	return &model.IndicatorSeries{Symbol: "TEST.NS", Points: points}
}

func TestDetect_BaselineRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.IndicatorPoint)
	}{
		{"close below ema50", func(p *model.IndicatorPoint) { p.EMA50 = 150 }},
		{"close below ema200", func(p *model.IndicatorPoint) { p.EMA200 = 150 }},
		{"volume ratio too low", func(p *model.IndicatorPoint) { p.VolumeRatio = 1.0 }},
		{"rsi below band", func(p *model.IndicatorPoint) { p.RSI14 = 50 }},
		{"rsi above band", func(p *model.IndicatorPoint) { p.RSI14 = 75 }},
		{"atr too low", func(p *model.IndicatorPoint) { p.ATRPercent = 0.5 }},
	}
	d := New(testSetupConfig(), zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Breakout conditions hold, so only the baseline can reject.
			prev := passingPoint()
			prev.RollingHigh20 = 99
			latest := passingPoint()
			tt.mutate(&latest)
			got := d.Detect(barSeries(98, 100), indSeries(prev, latest))
			if len(got) != 0 {
				t.Errorf("expected no candidates, got %d", len(got))
			}
		})
	}
}

func TestDetect_Breakout(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	prev := passingPoint()
	prev.RollingHigh20 = 99
	got := d.Detect(barSeries(98, 100), indSeries(prev, passingPoint()))

	if len(got) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(got))
	}
	c := got[0]
	if c.Type != model.SetupBreakout {
		t.Errorf("expected BREAKOUT, got %s", c.Type)
	}
	if c.Symbol != "TEST.NS" {
		t.Errorf("symbol not set: %q", c.Symbol)
	}
	if c.TriggerPrice != 99 || c.Price != 100 {
		t.Errorf("expected trigger 99 / price 100, got %.2f / %.2f", c.TriggerPrice, c.Price)
	}
	if c.Score <= 0 || c.Score > 100 {
		t.Errorf("score out of range: %.2f", c.Score)
	}
}

func TestDetect_Pullback(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	prev := passingPoint()
	latest := passingPoint()
	latest.EMA50 = 100 // close 101 sits 1% above the EMA
	got := d.Detect(barSeries(100.5, 101), indSeries(prev, latest))

	if len(got) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(got))
	}
	if got[0].Type != model.SetupPullback {
		t.Errorf("expected PULLBACK, got %s", got[0].Type)
	}
	if got[0].TriggerPrice != 100 {
		t.Errorf("expected EMA50 trigger 100, got %.2f", got[0].TriggerPrice)
	}
}

func TestDetect_PullbackNeedsBounce(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	latest := passingPoint()
	latest.EMA50 = 100
	// Close below the previous close: still falling, no bounce yet.
	got := d.Detect(barSeries(102, 101), indSeries(passingPoint(), latest))
	if len(got) != 0 {
		t.Errorf("expected no candidates without a bounce, got %d", len(got))
	}
}

func TestDetect_Momentum(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	points := make([]model.IndicatorPoint, 6)
	for i := range points {
		points[i] = passingPoint()
		points[i].HigherHigh = true
		points[i].HigherLow = true
	}
	got := d.Detect(barSeries(100, 101, 102, 103, 104, 105), indSeries(points...))

	if len(got) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(got))
	}
	if got[0].Type != model.SetupMomentum {
		t.Errorf("expected MOMENTUM, got %s", got[0].Type)
	}
}

func TestDetect_MomentumNeedsEnoughBars(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	points := make([]model.IndicatorPoint, 6)
	for i := range points {
		points[i] = passingPoint()
		// Only two of the last five qualify, below the minimum of three.
		points[i].HigherHigh = i >= 4
		points[i].HigherLow = i >= 4
	}
	got := d.Detect(barSeries(100, 101, 102, 103, 104, 105), indSeries(points...))
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
}

func TestDetect_ConsolidationBreakUp(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	closes := []float64{100, 102, 100, 102, 100, 102, 100, 102, 100, 102, 100, 104}
	got := d.Detect(barSeries(closes...), indSeries(passingPoint(), passingPoint()))

	if len(got) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(got))
	}
	if got[0].Type != model.SetupConsolidation {
		t.Errorf("expected CONSOLIDATION, got %s", got[0].Type)
	}
	if got[0].TriggerPrice != 102 {
		t.Errorf("expected range-high trigger 102, got %.2f", got[0].TriggerPrice)
	}
}

func TestDetect_ConsolidationBreakDown(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	closes := []float64{100, 102, 100, 102, 100, 102, 100, 102, 100, 102, 100, 97}
	got := d.Detect(barSeries(closes...), indSeries(passingPoint(), passingPoint()))

	if len(got) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(got))
	}
	if got[0].TriggerPrice != 100 {
		t.Errorf("expected range-low trigger 100, got %.2f", got[0].TriggerPrice)
	}
}

func TestDetect_ConsolidationInsideRange(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	closes := []float64{100, 102, 100, 102, 100, 102, 100, 102, 100, 102, 100, 101}
	got := d.Detect(barSeries(closes...), indSeries(passingPoint(), passingPoint()))
	if len(got) != 0 {
		t.Errorf("expected no candidates while still inside the range, got %d", len(got))
	}
}

func TestDetect_RulesIndependent(t *testing.T) {
	d := New(testSetupConfig(), zerolog.Nop())
	points := make([]model.IndicatorPoint, 6)
	for i := range points {
		points[i] = passingPoint()
		points[i].HigherHigh = true
		points[i].HigherLow = true
	}
	// Prior rolling high below the latest close: breakout fires too.
	points[4].RollingHigh20 = 105
	got := d.Detect(barSeries(100, 101, 102, 103, 104, 106), indSeries(points...))

	if len(got) != 2 {
		t.Fatalf("expected two candidates, got %d", len(got))
	}
	if got[0].Type != model.SetupBreakout || got[1].Type != model.SetupMomentum {
		t.Errorf("expected BREAKOUT then MOMENTUM, got %s, %s", got[0].Type, got[1].Type)
	}
}

func TestScoreSetup_Components(t *testing.T) {
	// base 40 + volume 10 + trend 15 + rsi 10 + macd 5 = 80
	if got := scoreSetup(passingPoint(), 0); got != 80 {
		t.Errorf("expected 80, got %.2f", got)
	}
}

func TestScoreSetup_Monotonic(t *testing.T) {
	low := scoreSetup(passingPoint(), 1)
	high := scoreSetup(passingPoint(), 5)
	if high <= low {
		t.Errorf("larger bonus must not lower the score: %.2f vs %.2f", high, low)
	}

	weakVolume := passingPoint()
	weakVolume.VolumeRatio = 1.6
	if scoreSetup(weakVolume, 0) >= scoreSetup(passingPoint(), 0) {
		t.Error("stronger volume must not lower the score")
	}
}

func TestScoreSetup_ClampedAt100(t *testing.T) {
	if got := scoreSetup(passingPoint(), 500); got != 100 {
		t.Errorf("expected clamp at 100, got %.2f", got)
	}
}
