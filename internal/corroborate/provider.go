package corroborate

import "strings"

// ProviderPattern maps a source-string pattern to a canonical provider id.
// The table is priority-ordered and first-match-wins, so resolution stays
// deterministic regardless of call order.
type ProviderPattern struct {
	Pattern   string `json:"pattern"`
	Canonical string `json:"canonical"`
}

// ProviderTable resolves raw source strings to canonical provider ids.
type ProviderTable []ProviderPattern

// DefaultProviderTable collapses the known sub-feeds of each data origin.
func DefaultProviderTable() ProviderTable {
	return ProviderTable{
		{Pattern: "coingecko", Canonical: "coingecko"},
		{Pattern: "birdeye", Canonical: "birdeye"},
		{Pattern: "dexscreener", Canonical: "dexscreener"},
		{Pattern: "dextools", Canonical: "dextools"},
		{Pattern: "coinmarketcap", Canonical: "coinmarketcap"},
		{Pattern: "binance", Canonical: "binance"},
		{Pattern: "twitter", Canonical: "twitter"},
		{Pattern: "telegram", Canonical: "telegram"},
	}
}

// Resolve returns the canonical provider id for a raw source string:
// exact match first, then substring containment, else the raw string
// itself (assumed independent).
func (t ProviderTable) Resolve(source string) string {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return ""
	}
	for _, p := range t {
		if source == p.Pattern {
			return p.Canonical
		}
	}
	for _, p := range t {
		if strings.Contains(source, p.Pattern) {
			return p.Canonical
		}
	}
	return source
}
