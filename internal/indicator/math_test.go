package indicator

import (
	"math"
	"testing"
	"time"

	"SwingSentinel/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA_Basic(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Error("expected NaN before the first full window")
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if !almostEqual(out[i+2], w) {
			t.Errorf("out[%d]: expected %.4f, got %.4f", i+2, w, out[i+2])
		}
	}
}

func TestEMA_SeededWithSMA(t *testing.T) {
	// Seed at index 2 is (1+2+3)/3 = 2, then k = 0.5:
	// out[3] = 4*0.5 + 2*0.5 = 3, out[4] = 5*0.5 + 3*0.5 = 4.
	out := EMA([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(out[1]) {
		t.Error("expected NaN before the seed index")
	}
	for i, w := range map[int]float64{2: 2, 3: 3, 4: 4} {
		if !almostEqual(out[i], w) {
			t.Errorf("out[%d]: expected %.4f, got %.4f", i, w, out[i])
		}
	}
}

func TestEMA_TooShort(t *testing.T) {
	out := EMA([]float64{1, 2}, 3)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("out[%d]: expected NaN for short input, got %.4f", i, v)
		}
	}
}

func TestRSI_AllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(closes, 14)
	if !almostEqual(out[14], 100) {
		t.Errorf("expected RSI 100 with zero average loss, got %.4f", out[14])
	}
	if !almostEqual(out[19], 100) {
		t.Errorf("expected RSI to stay 100 on a pure uptrend, got %.4f", out[19])
	}
}

func TestRSI_WilderSmoothing(t *testing.T) {
	// Changes +1, -1, +1: avgGain = 2/3, avgLoss = 1/3, RS = 2.
	closes := []float64{10, 11, 10, 11, 12}
	out := RSI(closes, 3)
	if !math.IsNaN(out[2]) {
		t.Error("expected NaN before index period")
	}
	if !almostEqual(out[3], 100-100.0/3) {
		t.Errorf("out[3]: expected %.4f, got %.4f", 100-100.0/3, out[3])
	}
	// Next change +1: avgGain = (2/3*2+1)/3 = 7/9, avgLoss = 2/9, RS = 3.5.
	if !almostEqual(out[4], 100-100.0/4.5) {
		t.Errorf("out[4]: expected %.4f, got %.4f", 100-100.0/4.5, out[4])
	}
}

func barsFromRanges(highs, lows, closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(highs))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = model.OHLCV{
			Date: base.AddDate(0, 0, i),
			High: highs[i], Low: lows[i], Close: closes[i],
		}
	}
	return bars
}

func TestATR_ConstantRange(t *testing.T) {
	highs := []float64{11, 11, 11, 11, 11}
	lows := []float64{9, 9, 9, 9, 9}
	closes := []float64{10, 10, 10, 10, 10}
	out := ATR(barsFromRanges(highs, lows, closes), 3)
	if !math.IsNaN(out[2]) {
		t.Error("expected NaN before index period")
	}
	if !almostEqual(out[3], 2) || !almostEqual(out[4], 2) {
		t.Errorf("expected ATR 2 for constant range, got %.4f, %.4f", out[3], out[4])
	}
}

func TestATR_WilderSmoothing(t *testing.T) {
	// TRs at indexes 1,2: 2, 1 -> first ATR (1.5) at index 2, then
	// TR 4 at index 3 -> (1.5*1 + 4)/2 = 2.75.
	highs := []float64{10, 12, 11, 14}
	lows := []float64{10, 10, 10, 10}
	closes := []float64{10, 10, 10, 10}
	out := ATR(barsFromRanges(highs, lows, closes), 2)
	if !almostEqual(out[2], 1.5) {
		t.Errorf("out[2]: expected 1.5, got %.4f", out[2])
	}
	if !almostEqual(out[3], 2.75) {
		t.Errorf("out[3]: expected 2.75, got %.4f", out[3])
	}
}

func TestMACD_ConstantCloses(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 10
	}
	line, sig, hist := MACD(closes, 3, 5, 2)
	if !math.IsNaN(line[3]) {
		t.Error("expected NaN MACD before the slow EMA is valid")
	}
	if !almostEqual(line[4], 0) {
		t.Errorf("expected zero MACD for constant closes, got %.4f", line[4])
	}
	if !almostEqual(sig[9], 0) || !almostEqual(hist[9], 0) {
		t.Errorf("expected zero signal and histogram, got %.4f, %.4f", sig[9], hist[9])
	}
}

func TestBollinger_PopulationStdev(t *testing.T) {
	upper, mid, lower := Bollinger([]float64{1, 2, 3, 4, 5}, 5, 2)
	sd := math.Sqrt(2) // population variance of 1..5 is 2
	if !almostEqual(mid[4], 3) {
		t.Errorf("mid: expected 3, got %.4f", mid[4])
	}
	if !almostEqual(upper[4], 3+2*sd) {
		t.Errorf("upper: expected %.4f, got %.4f", 3+2*sd, upper[4])
	}
	if !almostEqual(lower[4], 3-2*sd) {
		t.Errorf("lower: expected %.4f, got %.4f", 3-2*sd, lower[4])
	}
}

func TestRollingMaxMin(t *testing.T) {
	values := []float64{1, 3, 2, 5, 4}
	maxOut := RollingMax(values, 3)
	minOut := RollingMin(values, 3)
	if !math.IsNaN(maxOut[1]) {
		t.Error("expected NaN before the first full window")
	}
	wantMax := []float64{3, 5, 5}
	wantMin := []float64{1, 2, 2}
	for i := 0; i < 3; i++ {
		if !almostEqual(maxOut[i+2], wantMax[i]) {
			t.Errorf("max[%d]: expected %.1f, got %.1f", i+2, wantMax[i], maxOut[i+2])
		}
		if !almostEqual(minOut[i+2], wantMin[i]) {
			t.Errorf("min[%d]: expected %.1f, got %.1f", i+2, wantMin[i], minOut[i+2])
		}
	}
}
