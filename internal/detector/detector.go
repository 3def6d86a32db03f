package detector

import (
	"github.com/rs/zerolog"

	"SwingSentinel/internal/config"
	"SwingSentinel/internal/model"
)

// Detector applies the baseline filter and the pattern rules to one symbol's
// indicator output. Rules are independent: several setup types may fire for
// the same symbol in one scan.
type Detector struct {
	cfg config.SetupConfig
	log zerolog.Logger
}

func New(cfg config.SetupConfig, log zerolog.Logger) *Detector {
	return &Detector{cfg: cfg, log: log}
}

// ruleFn evaluates one setup pattern. It returns the candidate and whether
// the pattern fired.
type ruleFn func(d *Detector, series *model.PriceSeries, ind *model.IndicatorSeries) (model.SetupCandidate, bool)

// Rule evaluation order is fixed so output is reproducible; final ranking
// happens in the scanner.
var rules = []struct {
	typ model.SetupType
	fn  ruleFn
}{
	{model.SetupBreakout, detectBreakout},
	{model.SetupPullback, detectPullback},
	{model.SetupMomentum, detectMomentum},
	{model.SetupConsolidation, detectConsolidation},
}

// Detect returns every setup candidate for the symbol, in rule order.
// Symbols failing the baseline filter yield no candidates at all.
func (d *Detector) Detect(series *model.PriceSeries, ind *model.IndicatorSeries) []model.SetupCandidate {
	latest, ok := series.Latest()
	if !ok {
		return nil
	}
	point, ok := ind.Latest()
	if !ok {
		return nil
	}

	if failures := d.baselineFailures(latest, point); len(failures) > 0 {
		d.log.Debug().
			Str("symbol", series.Symbol).
			Strs("failures", failures).
			Msg("baseline filter rejected")
		return nil
	}

	var out []model.SetupCandidate
	for _, r := range rules {
		if c, fired := r.fn(d, series, ind); fired {
			c.Symbol = series.Symbol
			c.Type = r.typ
			c.AsOf = latest.Date
			c.Snapshot = point
			out = append(out, c)
			d.log.Info().
				Str("symbol", series.Symbol).
				Str("setup", string(r.typ)).
				Float64("score", c.Score).
				Msg("setup detected")
		}
	}
	return out
}

// baselineFailures checks the hard gate on the latest bar: uptrend, volume
// spike, RSI band, and a minimum volatility floor.
func (d *Detector) baselineFailures(latest model.OHLCV, pt model.IndicatorPoint) []string {
	var failures []string
	if latest.Close <= pt.EMA50 {
		failures = append(failures, "close_below_ema50")
	}
	if latest.Close <= pt.EMA200 {
		failures = append(failures, "close_below_ema200")
	}
	if pt.VolumeRatio <= d.cfg.VolumeSpikeMultiplier {
		failures = append(failures, "volume_ratio_low")
	}
	if pt.RSI14 < d.cfg.RSIMin || pt.RSI14 > d.cfg.RSIMax {
		failures = append(failures, "rsi_out_of_range")
	}
	if pt.ATRPercent <= d.cfg.MinATRPercent {
		failures = append(failures, "atr_too_low")
	}
	return failures
}
