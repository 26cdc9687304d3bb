package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Interval selects the granularity of a historical price series.
type Interval int

const (
	Daily Interval = iota
	Weekly
	Monthly
)

func (i Interval) String() string {
	switch i {
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "daily"
	}
}

// StockPrice is a single OHLCV observation. Immutable after construction;
// a series keeps whatever order the upstream returned.
type StockPrice struct {
	ID            uuid.UUID       `json:"id"`
	CompanyID     uuid.UUID       `json:"company_id"`
	Ticker        string          `json:"ticker"`
	Date          time.Time       `json:"date"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	AdjustedClose decimal.Decimal `json:"adjusted_close"`
	Volume        int64           `json:"volume"`
	CreatedAt     time.Time       `json:"created_at"`
}

func NewStockPrice(companyID uuid.UUID, ticker string, date time.Time, open, high, low, close, adjustedClose decimal.Decimal, volume int64) StockPrice {
	return StockPrice{
		ID:            uuid.New(),
		CompanyID:     companyID,
		Ticker:        ticker,
		Date:          date,
		Open:          open,
		High:          high,
		Low:           low,
		Close:         close,
		AdjustedClose: adjustedClose,
		Volume:        volume,
		CreatedAt:     time.Now().UTC(),
	}
}
