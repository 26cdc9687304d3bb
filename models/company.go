package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Namespace for deriving company identities from tickers.
var companyNamespace = uuid.MustParse("5f2f6bd2-9c17-4b94-8f6a-6f6f25c3a1d4")

// CompanyID derives a stable identity from a ticker. Profile and price
// fetches may run at different times against different caches; deriving the
// ID from the lower-cased ticker keeps StockPrice, SecFiling and
// FinancialStatement rows joinable to the same Company no matter which
// fetch minted them.
func CompanyID(ticker string) uuid.UUID {
	return uuid.NewSHA1(companyNamespace, []byte(strings.ToLower(ticker)))
}

type Company struct {
	ID       uuid.UUID `json:"id"`
	Ticker   string    `json:"ticker"`
	Name     string    `json:"name"`
	Exchange string    `json:"exchange"`
	Sector   string    `json:"sector"`
	Industry string    `json:"industry"`
	// SEC company identifier. Unique for US companies; some non-US
	// companies might not have it.
	CIK         *string          `json:"cik,omitempty"`
	Website     *string          `json:"website,omitempty"`
	Description *string          `json:"description,omitempty"`
	LogoURL     *string          `json:"logo_url,omitempty"`
	MarketCap   *decimal.Decimal `json:"market_cap,omitempty"`
	LastUpdated time.Time        `json:"last_updated"`
}

func NewCompany(ticker, name, exchange, sector, industry string) *Company {
	return &Company{
		ID:          CompanyID(ticker),
		Ticker:      ticker,
		Name:        name,
		Exchange:    exchange,
		Sector:      sector,
		Industry:    industry,
		LastUpdated: time.Now().UTC(),
	}
}

// CompanyPatch carries a partial update. Nil fields keep the prior value.
type CompanyPatch struct {
	Name        *string
	Exchange    *string
	Sector      *string
	Industry    *string
	Website     *string
	Description *string
	LogoURL     *string
	CIK         *string
	MarketCap   *decimal.Decimal
}

// Update applies a patch: non-nil fields replace the current value, nil
// fields are left alone.
func (c *Company) Update(p CompanyPatch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Exchange != nil {
		c.Exchange = *p.Exchange
	}
	if p.Sector != nil {
		c.Sector = *p.Sector
	}
	if p.Industry != nil {
		c.Industry = *p.Industry
	}
	if p.Website != nil {
		c.Website = p.Website
	}
	if p.Description != nil {
		c.Description = p.Description
	}
	if p.LogoURL != nil {
		c.LogoURL = p.LogoURL
	}
	if p.CIK != nil {
		c.CIK = p.CIK
	}
	if p.MarketCap != nil {
		c.MarketCap = p.MarketCap
	}
	c.LastUpdated = time.Now().UTC()
}
