package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"SwingSentinel/internal/config"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
)

// Service implements the acquisition contract: cache lookup, dual-source
// fetch with retry and rate limiting, and as-of clipping so a backtest never
// sees bars past its scan date.
type Service struct {
	primary  Fetcher
	fallback Fetcher
	cache    Store
	limiter  *rate.Limiter
	retry    RetryPolicy

	ttlDaily     time.Duration
	ttlWeekly    time.Duration
	lookbackDays int

	log zerolog.Logger
}

// NewService wires the acquisition service. The rate limiter is shared by
// every symbol fetched through this service; callers block on it rather than
// fail when the request budget is exhausted.
func NewService(primary, fallback Fetcher, cache Store, cfg config.DataConfig, log zerolog.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		cache:    cache,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryDelay.Std(),
			MaxDelay:    30 * time.Second,
			Multiplier:  cfg.RetryBackoff,
		},
		ttlDaily:     cfg.CacheTTLDaily.Std(),
		ttlWeekly:    cfg.CacheTTLWeekly.Std(),
		lookbackDays: cfg.LookbackDays,
		log:          log,
	}
}

// WithRetryPolicy overrides the retry policy; used by tests to drop delays.
func (s *Service) WithRetryPolicy(p RetryPolicy) *Service {
	s.retry = p
	return s
}

// Fetch returns the price history for symbol up to and including asOf.
// Served from cache when a fresh entry exists; otherwise fetched from the
// primary provider, then the fallback, each with bounded retry. Failure of
// both sources yields ErrDataUnavailable.
func (s *Service) Fetch(ctx context.Context, symbol string, tf model.Timeframe, asOf time.Time) (*model.PriceSeries, error) {
	key := CacheKey{Symbol: symbol, Timeframe: tf, Bucket: asOf.Format("2006-01-02")}

	if cached, ok := s.cache.Get(key); ok {
		metrics.CacheHitsTotal.Inc()
		s.log.Debug().Str("symbol", symbol).Str("timeframe", string(tf)).Msg("cache hit")
		// Clip even on the hit path: an entry written by an earlier live run
		// may hold bars newer than a backtest asOf.
		cached.Bars = clipAsOf(cached.Bars, asOf)
		return cached, nil
	}
	metrics.CacheMissesTotal.Inc()

	start := asOf.AddDate(0, 0, -s.lookbackDays)
	bars, source, err := s.fetchDual(ctx, symbol, tf, start, asOf)
	if err != nil && tf == model.TimeframeWeekly {
		// Providers without a weekly interval still serve daily history.
		var daily []model.OHLCV
		daily, source, err = s.fetchDual(ctx, symbol, model.TimeframeDaily, start, asOf)
		if err == nil {
			bars = AggregateWeekly(daily)
		}
	}
	if err != nil {
		// Keep the provider diagnostics alongside the sentinel so the warn
		// line downstream says what actually broke.
		return nil, fmt.Errorf("fetch %s: %w: %v", symbol, ErrDataUnavailable, err)
	}

	series := &model.PriceSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Bars:      clipAsOf(sanitize(bars), asOf),
		Source:    source,
		FetchedAt: time.Now().UTC(),
	}

	ttl := s.ttlDaily
	if tf == model.TimeframeWeekly {
		ttl = s.ttlWeekly
	}
	if err := s.cache.Put(key, series, ttl); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("cache write failed")
	}

	s.log.Info().
		Str("symbol", symbol).
		Str("source", source).
		Int("bars", len(series.Bars)).
		Msg("fetched")
	return series, nil
}

// fetchDual tries the primary provider, then the fallback, each under the
// retry policy. Every outbound attempt waits on the shared rate limiter.
func (s *Service) fetchDual(ctx context.Context, symbol string, tf model.Timeframe, start, end time.Time) ([]model.OHLCV, string, error) {
	var bars []model.OHLCV

	attempt := func(f Fetcher) error {
		return s.retry.Do(ctx, func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				return err
			}
			fetched, err := f.FetchBars(ctx, symbol, tf, start, end)
			if err != nil {
				metrics.FetchesTotal.WithLabelValues(f.Name(), "error").Inc()
				return err
			}
			if len(fetched) == 0 {
				metrics.FetchesTotal.WithLabelValues(f.Name(), "empty").Inc()
				return fmt.Errorf("%s returned no bars for %s", f.Name(), symbol)
			}
			metrics.FetchesTotal.WithLabelValues(f.Name(), "ok").Inc()
			bars = fetched
			return nil
		})
	}

	primaryErr := attempt(s.primary)
	if primaryErr == nil {
		return bars, s.primary.Name(), nil
	}
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	if s.fallback == nil {
		return nil, "", primaryErr
	}
	s.log.Warn().Err(primaryErr).
		Str("symbol", symbol).
		Str("source", s.primary.Name()).
		Msg("primary source failed, falling back")

	fallbackErr := attempt(s.fallback)
	if fallbackErr == nil {
		return bars, s.fallback.Name(), nil
	}
	return nil, "", fmt.Errorf("primary: %w; fallback: %w", primaryErr, fallbackErr)
}

// sanitize sorts bars ascending and drops duplicate dates, keeping the last
// occurrence.
func sanitize(bars []model.OHLCV) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && sameDay(out[len(out)-1].Date, b.Date) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// clipAsOf removes bars dated after the asOf day.
func clipAsOf(bars []model.OHLCV, asOf time.Time) []model.OHLCV {
	y, m, d := asOf.Date()
	cutoff := time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
	n := len(bars)
	for n > 0 && bars[n-1].Date.After(cutoff) {
		n--
	}
	return bars[:n]
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AggregateWeekly converts daily bars into ISO-week bars.
func AggregateWeekly(daily []model.OHLCV) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.OHLCV
	var week model.OHLCV
	var weekStarted bool

	weekKey := func(t time.Time) int {
		year, isoWeek := t.ISOWeek()
		return year*100 + isoWeek
	}

	for _, d := range daily {
		if !weekStarted {
			week = d
			weekStarted = true
			continue
		}
		if weekKey(d.Date) != weekKey(week.Date) {
			weekly = append(weekly, week)
			week = d
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
	}
	if weekStarted {
		weekly = append(weekly, week)
	}
	return weekly
}
