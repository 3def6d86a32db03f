package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scans_total", Help: "Completed scan runs"},
	)
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fetches_total", Help: "Market data fetches by source and outcome"},
		[]string{"source", "outcome"},
	)
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cache_hits_total", Help: "Price series served from cache"},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cache_misses_total", Help: "Price series fetched over the network"},
	)
	CandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candidates_total", Help: "Setup candidates detected by type"},
		[]string{"setup_type"},
	)
	SymbolFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "symbol_failures_total", Help: "Symbols excluded from a scan by reason"},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		ScansTotal, FetchesTotal, CacheHitsTotal, CacheMissesTotal,
		CandidatesTotal, SymbolFailuresTotal,
	)
}

// Serve exposes /metrics on addr in a background goroutine.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
