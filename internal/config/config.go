package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "24h" and "2s" decode.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// UniverseConfig selects the symbol universe to scan.
type UniverseConfig struct {
	Name    string   `yaml:"name"`    // "NIFTY50" or "custom"
	Symbols []string `yaml:"symbols"` // used when name is "custom"
}

// DataConfig controls acquisition, caching, retry, and rate limiting.
type DataConfig struct {
	PrimaryBaseURL    string   `yaml:"primary_base_url"`
	PrimaryAPIKey     string   `yaml:"primary_api_key"`
	LookbackDays      int      `yaml:"lookback_days"`
	MinBars           int      `yaml:"min_bars"`
	CacheTTLDaily     Duration `yaml:"cache_ttl_daily"`
	CacheTTLWeekly    Duration `yaml:"cache_ttl_weekly"`
	CachePath         string   `yaml:"cache_path"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	MaxRetries        int      `yaml:"max_retries"`
	RetryDelay        Duration `yaml:"retry_delay"`
	RetryBackoff      float64  `yaml:"retry_backoff"`
}

// IndicatorConfig holds the periods for all computed indicators.
type IndicatorConfig struct {
	EMAShort        int     `yaml:"ema_short"`
	EMAMedium       int     `yaml:"ema_medium"`
	EMALong         int     `yaml:"ema_long"`
	RSIPeriod       int     `yaml:"rsi_period"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	ATRPeriod       int     `yaml:"atr_period"`
	VolumeSMA       int     `yaml:"volume_sma"`
	RollingWindow   int     `yaml:"rolling_window"`
	BollingerPeriod int     `yaml:"bollinger_period"`
	BollingerStd    float64 `yaml:"bollinger_std"`
}

// SetupConfig holds the baseline filter thresholds and pattern rule knobs.
type SetupConfig struct {
	VolumeSpikeMultiplier     float64 `yaml:"volume_spike_multiplier"`
	RSIMin                    float64 `yaml:"rsi_min"`
	RSIMax                    float64 `yaml:"rsi_max"`
	MinATRPercent             float64 `yaml:"min_atr_percent"`
	PullbackTolerancePercent  float64 `yaml:"pullback_tolerance_percent"`
	ConsolidationRangePercent float64 `yaml:"consolidation_range_percent"`
	ConsolidationPeriods      int     `yaml:"consolidation_periods"`
	MomentumWindow            int     `yaml:"momentum_window"`
	MomentumMinBars           int     `yaml:"momentum_min_bars"`
}

// RiskConfig holds position sizing and stop/target parameters.
type RiskConfig struct {
	AccountSize         float64   `yaml:"account_size"`
	RiskPerTradePercent float64   `yaml:"risk_per_trade_percent"`
	MaxPositionPercent  float64   `yaml:"max_position_percent"`
	StopATRMultiplier   float64   `yaml:"stop_atr_multiplier"`
	StopMinPercent      float64   `yaml:"stop_min_percent"`
	StopMaxPercent      float64   `yaml:"stop_max_percent"`
	TargetRatios        []float64 `yaml:"target_ratios"`
	EntryRangePercent   float64   `yaml:"entry_range_percent"`
}

// ScanConfig bounds the per-run concurrency and output.
type ScanConfig struct {
	Workers       int      `yaml:"workers"`
	Timeout       Duration `yaml:"timeout"`
	MaxCandidates int      `yaml:"max_candidates"` // 0 = unlimited
}

// Config holds all application configuration.
type Config struct {
	Universe   UniverseConfig  `yaml:"universe"`
	Data       DataConfig      `yaml:"data"`
	Indicators IndicatorConfig `yaml:"indicators"`
	Setup      SetupConfig     `yaml:"setup"`
	Risk       RiskConfig      `yaml:"risk"`
	Scan       ScanConfig      `yaml:"scan"`
	Schedule   struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"` // empty disables the metrics server
	} `yaml:"metrics"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file yields a default config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PRIMARY_BASE_URL"); v != "" {
		cfg.Data.PrimaryBaseURL = v
	}
	if v := os.Getenv("PRIMARY_API_KEY"); v != "" {
		cfg.Data.PrimaryAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ACCOUNT_SIZE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.AccountSize = f
		}
	}
	if v := os.Getenv("SCAN_CRON"); v != "" {
		cfg.Schedule.ScanCron = v
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Universe.Name == "" {
		cfg.Universe.Name = "NIFTY50"
	}
	if cfg.Data.LookbackDays == 0 {
		cfg.Data.LookbackDays = 365
	}
	if cfg.Data.MinBars == 0 {
		cfg.Data.MinBars = 200
	}
	if cfg.Data.CacheTTLDaily == 0 {
		cfg.Data.CacheTTLDaily = Duration(24 * time.Hour)
	}
	if cfg.Data.CacheTTLWeekly == 0 {
		cfg.Data.CacheTTLWeekly = Duration(7 * 24 * time.Hour)
	}
	if cfg.Data.CachePath == "" {
		cfg.Data.CachePath = "data/market_cache.db"
	}
	if cfg.Data.RequestsPerSecond == 0 {
		cfg.Data.RequestsPerSecond = 2
	}
	if cfg.Data.MaxRetries == 0 {
		cfg.Data.MaxRetries = 3
	}
	if cfg.Data.RetryDelay == 0 {
		cfg.Data.RetryDelay = Duration(2 * time.Second)
	}
	if cfg.Data.RetryBackoff == 0 {
		cfg.Data.RetryBackoff = 2.0
	}

	if cfg.Indicators.EMAShort == 0 {
		cfg.Indicators.EMAShort = 20
	}
	if cfg.Indicators.EMAMedium == 0 {
		cfg.Indicators.EMAMedium = 50
	}
	if cfg.Indicators.EMALong == 0 {
		cfg.Indicators.EMALong = 200
	}
	if cfg.Indicators.RSIPeriod == 0 {
		cfg.Indicators.RSIPeriod = 14
	}
	if cfg.Indicators.MACDFast == 0 {
		cfg.Indicators.MACDFast = 12
	}
	if cfg.Indicators.MACDSlow == 0 {
		cfg.Indicators.MACDSlow = 26
	}
	if cfg.Indicators.MACDSignal == 0 {
		cfg.Indicators.MACDSignal = 9
	}
	if cfg.Indicators.ATRPeriod == 0 {
		cfg.Indicators.ATRPeriod = 14
	}
	if cfg.Indicators.VolumeSMA == 0 {
		cfg.Indicators.VolumeSMA = 20
	}
	if cfg.Indicators.RollingWindow == 0 {
		cfg.Indicators.RollingWindow = 20
	}
	if cfg.Indicators.BollingerPeriod == 0 {
		cfg.Indicators.BollingerPeriod = 20
	}
	if cfg.Indicators.BollingerStd == 0 {
		cfg.Indicators.BollingerStd = 2
	}

	if cfg.Setup.VolumeSpikeMultiplier == 0 {
		cfg.Setup.VolumeSpikeMultiplier = 1.5
	}
	if cfg.Setup.RSIMin == 0 {
		cfg.Setup.RSIMin = 55
	}
	if cfg.Setup.RSIMax == 0 {
		cfg.Setup.RSIMax = 70
	}
	if cfg.Setup.MinATRPercent == 0 {
		cfg.Setup.MinATRPercent = 1.0
	}
	if cfg.Setup.PullbackTolerancePercent == 0 {
		cfg.Setup.PullbackTolerancePercent = 2.0
	}
	if cfg.Setup.ConsolidationRangePercent == 0 {
		cfg.Setup.ConsolidationRangePercent = 5.0
	}
	if cfg.Setup.ConsolidationPeriods == 0 {
		cfg.Setup.ConsolidationPeriods = 10
	}
	if cfg.Setup.MomentumWindow == 0 {
		cfg.Setup.MomentumWindow = 5
	}
	if cfg.Setup.MomentumMinBars == 0 {
		cfg.Setup.MomentumMinBars = 3
	}

	if cfg.Risk.AccountSize == 0 {
		cfg.Risk.AccountSize = 1000000
	}
	if cfg.Risk.RiskPerTradePercent == 0 {
		cfg.Risk.RiskPerTradePercent = 2.0
	}
	if cfg.Risk.MaxPositionPercent == 0 {
		cfg.Risk.MaxPositionPercent = 20.0
	}
	if cfg.Risk.StopATRMultiplier == 0 {
		cfg.Risk.StopATRMultiplier = 2.0
	}
	if cfg.Risk.StopMinPercent == 0 {
		cfg.Risk.StopMinPercent = 2.0
	}
	if cfg.Risk.StopMaxPercent == 0 {
		cfg.Risk.StopMaxPercent = 8.0
	}
	if len(cfg.Risk.TargetRatios) == 0 {
		cfg.Risk.TargetRatios = []float64{2.0, 3.0}
	}
	if cfg.Risk.EntryRangePercent == 0 {
		cfg.Risk.EntryRangePercent = 1.0
	}

	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 5
	}
	if cfg.Scan.Timeout == 0 {
		cfg.Scan.Timeout = Duration(10 * time.Minute)
	}

	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 0 16 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/swing_sentinel.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks the configuration before a run starts. Any error here is
// fatal: no partial run is attempted.
func (c *Config) Validate() error {
	if c.Universe.Name == "custom" && len(c.Universe.Symbols) == 0 {
		return fmt.Errorf("universe.symbols must not be empty for a custom universe")
	}
	if c.Risk.AccountSize <= 0 {
		return fmt.Errorf("risk.account_size must be positive, got %.2f", c.Risk.AccountSize)
	}
	if c.Risk.RiskPerTradePercent <= 0 || c.Risk.RiskPerTradePercent > 100 {
		return fmt.Errorf("risk.risk_per_trade_percent must be in (0,100], got %.2f", c.Risk.RiskPerTradePercent)
	}
	if c.Risk.MaxPositionPercent <= 0 || c.Risk.MaxPositionPercent > 100 {
		return fmt.Errorf("risk.max_position_percent must be in (0,100], got %.2f", c.Risk.MaxPositionPercent)
	}
	if c.Risk.StopMinPercent >= c.Risk.StopMaxPercent {
		return fmt.Errorf("risk.stop_min_percent (%.2f) must be below stop_max_percent (%.2f)",
			c.Risk.StopMinPercent, c.Risk.StopMaxPercent)
	}
	for _, r := range c.Risk.TargetRatios {
		if r <= 0 {
			return fmt.Errorf("risk.target_ratios must be positive, got %.2f", r)
		}
	}
	if c.Setup.RSIMin >= c.Setup.RSIMax {
		return fmt.Errorf("setup.rsi_min (%.1f) must be below rsi_max (%.1f)", c.Setup.RSIMin, c.Setup.RSIMax)
	}
	if c.Setup.MomentumMinBars > c.Setup.MomentumWindow {
		return fmt.Errorf("setup.momentum_min_bars (%d) exceeds momentum_window (%d)",
			c.Setup.MomentumMinBars, c.Setup.MomentumWindow)
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return fmt.Errorf("indicators.macd_fast (%d) must be below macd_slow (%d)",
			c.Indicators.MACDFast, c.Indicators.MACDSlow)
	}
	if c.Data.MinBars < c.Indicators.EMALong {
		return fmt.Errorf("data.min_bars (%d) must cover the longest lookback (%d)",
			c.Data.MinBars, c.Indicators.EMALong)
	}
	if c.Data.RequestsPerSecond <= 0 {
		return fmt.Errorf("data.requests_per_second must be positive, got %.2f", c.Data.RequestsPerSecond)
	}
	if c.Data.MaxRetries < 1 {
		return fmt.Errorf("data.max_retries must be at least 1, got %d", c.Data.MaxRetries)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1, got %d", c.Scan.Workers)
	}
	return nil
}
