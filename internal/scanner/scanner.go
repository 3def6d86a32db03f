package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"SwingSentinel/internal/config"
	"SwingSentinel/internal/detector"
	"SwingSentinel/internal/indicator"
	"SwingSentinel/internal/marketdata"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/model"
	"SwingSentinel/internal/risk"
)

// DataSource is the slice of the market data service the scanner needs.
type DataSource interface {
	Fetch(ctx context.Context, symbol string, tf model.Timeframe, asOf time.Time) (*model.PriceSeries, error)
}

// Scanner runs the full pipeline over a symbol universe: fetch, indicators,
// setup detection, risk sizing. Symbols are processed by a bounded worker
// pool and one symbol's failure never aborts the run.
type Scanner struct {
	data config.DataConfig
	ind  config.IndicatorConfig
	risk config.RiskConfig
	scan config.ScanConfig

	source   DataSource
	detector *detector.Detector
	log      zerolog.Logger
}

func New(cfg *config.Config, source DataSource, det *detector.Detector, log zerolog.Logger) *Scanner {
	return &Scanner{
		data:     cfg.Data,
		ind:      cfg.Indicators,
		risk:     cfg.Risk,
		scan:     cfg.Scan,
		source:   source,
		detector: det,
		log:      log,
	}
}

// Scan processes every symbol and returns the ranked records plus a failure
// map for symbols that produced none. On timeout or cancellation the results
// gathered so far are returned; symbols never reached are simply absent.
func (s *Scanner) Scan(ctx context.Context, symbols []string, asOf time.Time) *model.ScanResult {
	startedAt := time.Now().UTC()
	result := &model.ScanResult{
		ScanID:    fmt.Sprintf("scan-%s", startedAt.Format("20060102-150405")),
		AsOf:      asOf,
		StartedAt: startedAt,
		Failures:  make(map[string]model.FailureReason),
	}

	ctx, cancel := context.WithTimeout(ctx, s.scan.Timeout.Std())
	defer cancel()

	jobs := make(chan string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := s.scan.Workers
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				records, err := s.scanSymbol(ctx, symbol, asOf)
				mu.Lock()
				switch {
				case err == nil:
					result.Records = append(result.Records, records...)
				case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
					// Cut short, not failed; the symbol is simply absent.
				default:
					reason := classify(err)
					result.Failures[symbol] = reason
					metrics.SymbolFailuresTotal.WithLabelValues(string(reason)).Inc()
					s.log.Warn().Err(err).Str("symbol", symbol).Msg("symbol failed")
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, symbol := range symbols {
		select {
		case jobs <- symbol:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	rank(result.Records)
	if s.scan.MaxCandidates > 0 && len(result.Records) > s.scan.MaxCandidates {
		result.Records = result.Records[:s.scan.MaxCandidates]
	}
	for _, r := range result.Records {
		metrics.CandidatesTotal.WithLabelValues(string(r.Candidate.Type)).Inc()
	}
	metrics.ScansTotal.Inc()

	result.Duration = time.Since(startedAt)
	s.log.Info().
		Str("scan_id", result.ScanID).
		Int("symbols", len(symbols)).
		Int("candidates", len(result.Records)).
		Int("failures", len(result.Failures)).
		Dur("duration", result.Duration).
		Msg("scan complete")
	return result
}

// scanSymbol runs the pipeline for one symbol. A symbol whose candidates all
// fail risk sizing is reported as a failure; a symbol with no setups at all
// is not.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, asOf time.Time) ([]model.ScanRecord, error) {
	series, err := s.source.Fetch(ctx, symbol, model.TimeframeDaily, asOf)
	if err != nil {
		return nil, err
	}
	if len(series.Bars) < s.data.MinBars {
		return nil, fmt.Errorf("%s: %d bars, need %d: %w",
			symbol, len(series.Bars), s.data.MinBars, indicator.ErrInsufficientHistory)
	}

	ind, err := indicator.Compute(series, s.ind)
	if err != nil {
		return nil, err
	}

	candidates := s.detector.Detect(series, ind)
	if len(candidates) == 0 {
		return nil, nil
	}

	var records []model.ScanRecord
	var sizeErr error
	for _, c := range candidates {
		plan, err := risk.Size(c, s.risk)
		if err != nil {
			sizeErr = err
			s.log.Warn().Err(err).
				Str("symbol", symbol).
				Str("setup", string(c.Type)).
				Msg("candidate dropped")
			continue
		}
		records = append(records, model.ScanRecord{
			Candidate: c,
			Snapshot:  c.Snapshot,
			Plan:      plan,
		})
	}
	if len(records) == 0 && sizeErr != nil {
		return nil, sizeErr
	}
	return records, nil
}

// classify maps a pipeline error onto the failure taxonomy.
func classify(err error) model.FailureReason {
	switch {
	case errors.Is(err, indicator.ErrInsufficientHistory):
		return model.FailureInsufficientHistory
	case errors.Is(err, risk.ErrInvalidRisk):
		return model.FailureInvalidRisk
	case errors.Is(err, marketdata.ErrDataUnavailable):
		return model.FailureDataUnavailable
	default:
		return model.FailureDataUnavailable
	}
}

// rank orders records by score descending, then symbol, then setup type, so
// two runs over identical data always produce identical output.
func rank(records []model.ScanRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Candidate, records[j].Candidate
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Type < b.Type
	})
}
