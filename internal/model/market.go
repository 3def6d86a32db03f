package model

import "time"

// Timeframe identifies the bar interval of a price series.
type Timeframe string

const (
	TimeframeDaily  Timeframe = "1d"
	TimeframeWeekly Timeframe = "1wk"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the fetched price history for one symbol.
// Bars are sorted by ascending date with no duplicate dates; the series is
// read-only once it leaves the acquisition layer.
type PriceSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []OHLCV
	Source    string
	FetchedAt time.Time
}

// Closes extracts the close prices in bar order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Latest returns the most recent bar. The second return is false for an
// empty series.
func (s *PriceSeries) Latest() (OHLCV, bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
