package models

import (
	"time"

	"github.com/google/uuid"
)

type StatementType int

const (
	IncomeStatement StatementType = iota
	BalanceSheet
	CashFlowStatement
)

func (t StatementType) String() string {
	switch t {
	case BalanceSheet:
		return "balance_sheet"
	case CashFlowStatement:
		return "cash_flow_statement"
	default:
		return "income_statement"
	}
}

type ReportingPeriod int

const (
	Annual ReportingPeriod = iota
	Quarterly
)

func (p ReportingPeriod) String() string {
	if p == Quarterly {
		return "quarterly"
	}
	return "annual"
}

// FinancialStatement is one statement extracted from a filing, together
// with its owned data points. Points are append-only and never shared
// outside their statement.
type FinancialStatement struct {
	ID              uuid.UUID            `json:"id"`
	CompanyID       uuid.UUID            `json:"company_id"`
	Ticker          string               `json:"ticker"`
	StatementType   StatementType        `json:"statement_type"`
	Period          ReportingPeriod      `json:"period"`
	FilingDate      time.Time            `json:"filing_date"`
	PeriodEndDate   time.Time            `json:"period_end_date"`
	FiscalYear      *string              `json:"fiscal_year,omitempty"`
	FiscalQuarter   *string              `json:"fiscal_quarter,omitempty"`
	FilingURL       string               `json:"filing_url"`
	AccessionNumber string               `json:"accession_number"`
	CreatedAt       time.Time            `json:"created_at"`
	DataPoints      []FinancialDataPoint `json:"data_points"`
}

// FinancialDataPoint belongs to exactly one FinancialStatement. The value
// is kept as a string to tolerate heterogeneous units and precision from
// the source documents.
type FinancialDataPoint struct {
	ID          uuid.UUID `json:"id"`
	StatementID uuid.UUID `json:"statement_id"`
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Unit        string    `json:"unit"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewFinancialStatement(companyID uuid.UUID, ticker string, statementType StatementType, period ReportingPeriod, filingDate, periodEndDate time.Time, filingURL, accessionNumber string) *FinancialStatement {
	return &FinancialStatement{
		ID:              uuid.New(),
		CompanyID:       companyID,
		Ticker:          ticker,
		StatementType:   statementType,
		Period:          period,
		FilingDate:      filingDate,
		PeriodEndDate:   periodEndDate,
		FilingURL:       filingURL,
		AccessionNumber: accessionNumber,
		CreatedAt:       time.Now().UTC(),
	}
}

func (s *FinancialStatement) AddDataPoint(name, value, unit string) {
	s.DataPoints = append(s.DataPoints, FinancialDataPoint{
		ID:          uuid.New(),
		StatementID: s.ID,
		Name:        name,
		Value:       value,
		Unit:        unit,
		CreatedAt:   time.Now().UTC(),
	})
}
