package model

import "time"

// IndicatorPoint holds all computed technical indicators for one bar.
type IndicatorPoint struct {
	Date time.Time

	EMA20  float64
	EMA50  float64
	EMA200 float64

	RSI14 float64

	MACD          float64
	MACDSignal    float64
	MACDHistogram float64

	ATR14      float64
	ATRPercent float64 // ATR as percentage of close

	BBUpper float64
	BBMid   float64
	BBLower float64

	VolumeSMA20 float64
	VolumeRatio float64 // current volume / 20-bar mean volume

	RollingHigh20 float64 // max close over the trailing 20 bars incl. this one
	RollingLow20  float64 // min close over the trailing 20 bars incl. this one

	HigherHigh bool // high above previous bar's high
	HigherLow  bool // low above previous bar's low
}

// IndicatorSeries is the per-bar indicator output for one symbol.
// Points[i] corresponds to series.Bars[Offset+i]: bars before the longest
// lookback carry no point at all rather than zero-filled values.
type IndicatorSeries struct {
	Symbol string
	Offset int
	Points []IndicatorPoint
}

// Latest returns the indicator point of the most recent bar.
func (s *IndicatorSeries) Latest() (IndicatorPoint, bool) {
	if len(s.Points) == 0 {
		return IndicatorPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Prev returns the indicator point n bars before the latest one.
func (s *IndicatorSeries) Prev(n int) (IndicatorPoint, bool) {
	idx := len(s.Points) - 1 - n
	if idx < 0 {
		return IndicatorPoint{}, false
	}
	return s.Points[idx], true
}
