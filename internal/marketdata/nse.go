package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"SwingSentinel/internal/model"
)

// NSEFetcher is the primary provider, backed by an NSE history REST API.
type NSEFetcher struct {
	baseURL string
	apiKey  string
	client  *resty.Client
}

// NewNSEFetcher creates the primary fetcher with optional proxy support.
func NewNSEFetcher(baseURL, apiKey, proxyURL string) *NSEFetcher {
	client := resty.New().SetTimeout(30 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &NSEFetcher{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (f *NSEFetcher) Name() string { return "nse" }

// nseBar is the JSON bar shape returned by the history endpoint.
type nseBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *NSEFetcher) FetchBars(ctx context.Context, symbol string, tf model.Timeframe, start, end time.Time) ([]model.OHLCV, error) {
	endpoint := fmt.Sprintf("%s/api/v1/history", f.baseURL)

	var raw []nseBar
	req := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":   symbol,
			"interval": string(tf),
			"from":     strconv.FormatInt(start.Unix(), 10),
			"to":       strconv.FormatInt(end.Unix(), 10),
		}).
		SetResult(&raw)
	if f.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := req.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("nse fetch %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("nse fetch %s: status %d, body: %s", symbol, resp.StatusCode(), resp.String())
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("nse fetch %s: no data returned", symbol)
	}

	bars := make([]model.OHLCV, len(raw))
	for i, b := range raw {
		bars[i] = model.OHLCV{
			Date:   time.Unix(b.Timestamp, 0).UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
