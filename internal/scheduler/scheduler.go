package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"SwingSentinel/internal/model"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/scanner"
)

// Scheduler drives the scheduled scan runs, then records and notifies.
type Scheduler struct {
	cron     *cron.Cron
	scanner  *scanner.Scanner
	universe []string
	notifier *notifier.TelegramNotifier // nil when telegram is not configured
	recorder recorder.Recorder
	ctx      context.Context
	log      zerolog.Logger

	mu   sync.Mutex
	last *model.ScanResult
}

func New(ctx context.Context, sc *scanner.Scanner, universe []string, tn *notifier.TelegramNotifier, rec recorder.Recorder, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		scanner:  sc,
		universe: universe,
		notifier: tn,
		recorder: rec,
		ctx:      ctx,
		log:      log,
	}
}

// Register wires the scan task to its cron expression.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.cron.AddFunc(scanCron, func() { s.RunScan(time.Now().UTC()) }); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// RunScan executes one full scan as of the given date, persists the result,
// and sends the report.
func (s *Scheduler) RunScan(asOf time.Time) *model.ScanResult {
	s.log.Info().Str("as_of", asOf.Format("2006-01-02")).Msg("running scan")
	result := s.scanner.Scan(s.ctx, s.universe, asOf)

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	if err := s.recorder.RecordScan(result); err != nil {
		s.log.Error().Err(err).Str("scan_id", result.ScanID).Msg("record scan failed")
	}
	s.trySend(notifier.FormatScanReport(result, 10))
	return result
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/scan":
		s.RunScan(time.Now().UTC())
		return ""
	case "/last":
		s.mu.Lock()
		last := s.last
		s.mu.Unlock()
		if last == nil {
			return "No scan has run yet."
		}
		return notifier.FormatScanReport(last, 10)
	default:
		return "Commands:\n• /scan — run a scan now\n• /last — show the latest result"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendWithRetry(s.ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification failed")
	}
}
