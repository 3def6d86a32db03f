package universe

import "strings"

// Provider supplies the ordered, de-duplicated list of symbols to scan.
type Provider interface {
	Symbols() []string
	Name() string
}

// nifty50 lists the NSE NIFTY 50 constituents without exchange suffix.
var nifty50 = []string{
	"ADANIPORTS", "ASIANPAINT", "AXISBANK", "BAJAJ-AUTO", "BAJFINANCE",
	"BAJAJFINSV", "BPCL", "BHARTIARTL", "BRITANNIA", "CIPLA",
	"COALINDIA", "DIVISLAB", "DRREDDY", "EICHERMOT", "GRASIM",
	"HCLTECH", "HDFCBANK", "HDFCLIFE", "HEROMOTOCO", "HINDALCO",
	"HINDUNILVR", "ICICIBANK", "ITC", "INDUSINDBK", "INFY",
	"JSWSTEEL", "KOTAKBANK", "LT", "M&M", "MARUTI",
	"NTPC", "NESTLEIND", "ONGC", "POWERGRID", "RELIANCE",
	"SBILIFE", "SHRIRAMFIN", "SBIN", "SUNPHARMA", "TCS",
	"TATACONSUM", "TATAMOTORS", "TATASTEEL", "TECHM", "TITAN",
	"TRENT", "ULTRACEMCO", "WIPRO", "APOLLOHOSP", "ADANIENT",
}

// Static is a fixed, pre-validated symbol list.
type Static struct {
	name    string
	symbols []string
}

func (s *Static) Name() string      { return s.name }
func (s *Static) Symbols() []string { return append([]string(nil), s.symbols...) }

// Nifty50 returns the NIFTY 50 universe with the .NS suffix applied.
func Nifty50() *Static {
	symbols := make([]string, len(nifty50))
	for i, s := range nifty50 {
		symbols[i] = s + ".NS"
	}
	return &Static{name: "NIFTY50", symbols: symbols}
}

// Custom builds a universe from user-provided symbols: missing exchange
// suffixes become .NS, duplicates are dropped keeping first occurrence,
// original order is preserved.
func Custom(symbols []string) *Static {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = Normalize(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return &Static{name: "custom", symbols: out}
}

// Normalize uppercases a symbol and appends .NS when no exchange suffix is
// present.
func Normalize(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ""
	}
	if !strings.HasSuffix(symbol, ".NS") && !strings.HasSuffix(symbol, ".BO") {
		symbol += ".NS"
	}
	return symbol
}

// BaseSymbol strips the exchange suffix, e.g. "RELIANCE.NS" -> "RELIANCE".
func BaseSymbol(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		return symbol[:i]
	}
	return symbol
}
