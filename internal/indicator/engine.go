package indicator

import (
	"errors"
	"fmt"

	"SwingSentinel/internal/config"
	"SwingSentinel/internal/model"
)

// ErrInsufficientHistory reports a series shorter than the longest configured
// lookback. No indicators are computed for such a series.
var ErrInsufficientHistory = errors.New("insufficient history")

// MinBars returns the number of bars required before every indicator in the
// set is valid on at least one bar.
func MinBars(p config.IndicatorConfig) int {
	min := p.EMALong
	if v := p.MACDSlow + p.MACDSignal - 1; v > min {
		min = v
	}
	if v := p.RSIPeriod + 1; v > min {
		min = v
	}
	if v := p.ATRPeriod + 1; v > min {
		min = v
	}
	if v := p.BollingerPeriod; v > min {
		min = v
	}
	if v := p.VolumeSMA; v > min {
		min = v
	}
	if v := p.RollingWindow; v > min {
		min = v
	}
	return min
}

// Compute derives the full indicator set for a price series. Pure and
// deterministic: no I/O, identical input yields identical output. Bars
// before the longest lookback carry no indicator point rather than
// zero-filled values.
func Compute(series *model.PriceSeries, p config.IndicatorConfig) (*model.IndicatorSeries, error) {
	required := MinBars(p)
	if len(series.Bars) < required {
		return nil, fmt.Errorf("%s: %d bars, need %d: %w",
			series.Symbol, len(series.Bars), required, ErrInsufficientHistory)
	}

	bars := series.Bars
	closes := series.Closes()
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}

	emaShort := EMA(closes, p.EMAShort)
	emaMedium := EMA(closes, p.EMAMedium)
	emaLong := EMA(closes, p.EMALong)
	rsi := RSI(closes, p.RSIPeriod)
	atr := ATR(bars, p.ATRPeriod)
	macd, macdSig, macdHist := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	bbUpper, bbMid, bbLower := Bollinger(closes, p.BollingerPeriod, p.BollingerStd)
	volSMA := SMA(volumes, p.VolumeSMA)
	rollHigh := RollingMax(closes, p.RollingWindow)
	rollLow := RollingMin(closes, p.RollingWindow)

	offset := required - 1
	points := make([]model.IndicatorPoint, 0, len(bars)-offset)
	for i := offset; i < len(bars); i++ {
		pt := model.IndicatorPoint{
			Date:          bars[i].Date,
			EMA20:         emaShort[i],
			EMA50:         emaMedium[i],
			EMA200:        emaLong[i],
			RSI14:         rsi[i],
			MACD:          macd[i],
			MACDSignal:    macdSig[i],
			MACDHistogram: macdHist[i],
			ATR14:         atr[i],
			BBUpper:       bbUpper[i],
			BBMid:         bbMid[i],
			BBLower:       bbLower[i],
			VolumeSMA20:   volSMA[i],
			RollingHigh20: rollHigh[i],
			RollingLow20:  rollLow[i],
		}
		if bars[i].Close > 0 {
			pt.ATRPercent = atr[i] / bars[i].Close * 100
		}
		if volSMA[i] > 0 {
			pt.VolumeRatio = bars[i].Volume / volSMA[i]
		}
		if i > 0 {
			pt.HigherHigh = bars[i].High > bars[i-1].High
			pt.HigherLow = bars[i].Low > bars[i-1].Low
		}
		points = append(points, pt)
	}

	return &model.IndicatorSeries{
		Symbol: series.Symbol,
		Offset: offset,
		Points: points,
	}, nil
}
