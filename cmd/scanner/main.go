package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"SwingSentinel/internal/config"
	"SwingSentinel/internal/detector"
	"SwingSentinel/internal/marketdata"
	"SwingSentinel/internal/metrics"
	"SwingSentinel/internal/notifier"
	"SwingSentinel/internal/recorder"
	"SwingSentinel/internal/scanner"
	"SwingSentinel/internal/scheduler"
	"SwingSentinel/internal/universe"
	"SwingSentinel/internal/util"
)

func main() {
	once := flag.Bool("once", false, "run a single scan and exit")
	asOfFlag := flag.String("as-of", "", "scan as of this date (YYYY-MM-DD), defaults to today")
	flag.Parse()

	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLog := util.NewLogger("info")
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Msg("SwingSentinel starting")

	asOf := time.Now().UTC()
	if *asOfFlag != "" {
		asOf, err = time.Parse("2006-01-02", *asOfFlag)
		if err != nil {
			log.Fatal().Err(err).Str("as_of", *asOfFlag).Msg("parse as-of date")
		}
	}

	// Universe
	var prov universe.Provider
	if cfg.Universe.Name == "custom" {
		prov = universe.Custom(cfg.Universe.Symbols)
	} else {
		prov = universe.Nifty50()
	}
	symbols := prov.Symbols()
	log.Info().Str("universe", prov.Name()).Int("symbols", len(symbols)).Msg("universe loaded")

	// Fetchers: NSE primary when configured, Yahoo as fallback.
	var primary, fallback marketdata.Fetcher
	yahoo := marketdata.NewYahooFetcher(cfg.Proxy)
	if cfg.Data.PrimaryBaseURL != "" {
		primary = marketdata.NewNSEFetcher(cfg.Data.PrimaryBaseURL, cfg.Data.PrimaryAPIKey, cfg.Proxy)
		fallback = yahoo
	} else {
		primary = yahoo
	}
	log.Info().Str("source", primary.Name()).Msg("primary data source")

	// Cache
	var store marketdata.Store
	if sqlStore, err := marketdata.NewSQLiteStore(cfg.Data.CachePath); err != nil {
		log.Warn().Err(err).Msg("sqlite cache unavailable, using in-memory cache")
		store = marketdata.NewMemoryStore()
	} else {
		store = sqlStore
	}
	defer store.Close()

	svc := marketdata.NewService(primary, fallback, store, cfg.Data, log)
	det := detector.New(cfg.Setup, log)
	scan := scanner.New(cfg, svc, det, log)

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("sqlite recorder unavailable, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Telegram
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx, scan, symbols, tn, rec, log)

	if *once {
		result := sched.RunScan(asOf)
		log.Info().
			Int("candidates", len(result.Records)).
			Int("failures", len(result.Failures)).
			Msg("scan finished")
		return
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		metricsSrv = metrics.Serve(cfg.Metrics.Addr)
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics server started")
	}

	if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, scanning now")
		go sched.RunScan(asOf)
	}

	log.Info().Msg("SwingSentinel is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}
}
