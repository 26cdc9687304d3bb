package models

import "github.com/shopspring/decimal"

// Quote is a point-in-time market reading for a ticker. A named struct
// rather than a bare tuple so call sites can tell a cached zero quote from
// a missing cache entry.
type Quote struct {
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Volume        int64           `json:"volume"`
	MarketCap     decimal.Decimal `json:"market_cap"`
}

// Recommendation summarises analyst coverage. Rating carries the upstream
// recommendation key verbatim; "N/A" when the upstream has none.
type Recommendation struct {
	Rating        string          `json:"rating"`
	TotalAnalysts int             `json:"total_analysts"`
	TargetPrice   decimal.Decimal `json:"target_price"`
}

// RegistryIdentity is the result of resolving a ticker against the filing
// registry's directory.
type RegistryIdentity struct {
	CIK  string `json:"cik"`
	Name string `json:"name"`
}
