package yahoo

import "github.com/shopspring/decimal"

// Wire shapes for the quote, chart and quoteSummary endpoints. Numeric
// fields are pointers because the upstream freely nulls them.

type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol                     string           `json:"symbol"`
	RegularMarketPrice         *decimal.Decimal `json:"regularMarketPrice"`
	RegularMarketChange        *decimal.Decimal `json:"regularMarketChange"`
	RegularMarketChangePercent *decimal.Decimal `json:"regularMarketChangePercent"`
	RegularMarketVolume        *int64           `json:"regularMarketVolume"`
	MarketCap                  *decimal.Decimal `json:"marketCap"`
	ShortName                  *string          `json:"shortName"`
	LongName                   *string          `json:"longName"`
	Exchange                   *string          `json:"exchange"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  any           `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote    []chartQuote    `json:"quote"`
		AdjClose []chartAdjClose `json:"adjclose"`
	} `json:"indicators"`
}

type chartQuote struct {
	Open   []*decimal.Decimal `json:"open"`
	High   []*decimal.Decimal `json:"high"`
	Low    []*decimal.Decimal `json:"low"`
	Close  []*decimal.Decimal `json:"close"`
	Volume []*int64           `json:"volume"`
}

type chartAdjClose struct {
	AdjClose []*decimal.Decimal `json:"adjclose"`
}

type assetProfileResponse struct {
	AssetProfile *assetProfile `json:"assetProfile"`
}

type assetProfile struct {
	Website             *string `json:"website"`
	Industry            *string `json:"industry"`
	Sector              *string `json:"sector"`
	Exchange            *string `json:"exchange"`
	LongBusinessSummary *string `json:"longBusinessSummary"`
}
