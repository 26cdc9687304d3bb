package models

import (
	"time"

	"github.com/google/uuid"
)

// FilingType classifies a regulatory filing.
type FilingType int

const (
	Form10K FilingType = iota
	Form10Q
	Form8K
	Form4
	FormDef14A
	OtherFiling
)

func (t FilingType) String() string {
	switch t {
	case Form10K:
		return "10-K"
	case Form10Q:
		return "10-Q"
	case Form8K:
		return "8-K"
	case Form4:
		return "4"
	case FormDef14A:
		return "DEF 14A"
	default:
		return "OTHER"
	}
}

// ClassifyForm maps a raw EDGAR form-type string onto the closed enum.
// Anything outside the exact-match table is OtherFiling.
func ClassifyForm(form string) FilingType {
	switch form {
	case "10-K":
		return Form10K
	case "10-Q":
		return Form10Q
	case "8-K":
		return Form8K
	case "4":
		return Form4
	case "DEF 14A":
		return FormDef14A
	default:
		return OtherFiling
	}
}

// SecFiling is one filing submission listed by the registry. The accession
// number is its unique business key.
type SecFiling struct {
	ID                    uuid.UUID  `json:"id"`
	CompanyID             uuid.UUID  `json:"company_id"`
	Ticker                string     `json:"ticker"`
	CompanyName           string     `json:"company_name"`
	CIK                   string     `json:"cik"`
	FilingType            FilingType `json:"filing_type"`
	FilingTypeDescription string     `json:"filing_type_description"`
	AccessionNumber       string     `json:"accession_number"`
	FilingDate            time.Time  `json:"filing_date"`
	ReportDate            time.Time  `json:"report_date"`
	FilingURL             string     `json:"filing_url"`
	DocumentsURL          *string    `json:"documents_url,omitempty"`
	HTMLURL               *string    `json:"html_url,omitempty"`
	TextURL               *string    `json:"text_url,omitempty"`
	IsProcessed           bool       `json:"is_processed"`
	CreatedAt             time.Time  `json:"created_at"`
	ProcessedAt           *time.Time `json:"processed_at,omitempty"`
}

func NewSecFiling(companyID uuid.UUID, ticker, companyName, cik string, filingType FilingType, description, accessionNumber string, filingDate, reportDate time.Time, filingURL string) SecFiling {
	return SecFiling{
		ID:                    uuid.New(),
		CompanyID:             companyID,
		Ticker:                ticker,
		CompanyName:           companyName,
		CIK:                   cik,
		FilingType:            filingType,
		FilingTypeDescription: description,
		AccessionNumber:       accessionNumber,
		FilingDate:            filingDate,
		ReportDate:            reportDate,
		FilingURL:             filingURL,
		CreatedAt:             time.Now().UTC(),
	}
}

// MarkProcessed is a one-way transition; calling it again has no effect.
func (f *SecFiling) MarkProcessed() {
	if f.IsProcessed {
		return
	}
	f.IsProcessed = true
	now := time.Now().UTC()
	f.ProcessedAt = &now
}

// FilingURLPatch carries partial document URLs. Nil fields keep the prior
// value.
type FilingURLPatch struct {
	DocumentsURL *string
	HTMLURL      *string
	TextURL      *string
}

// UpdateURLs applies a patch with the same coalescing rule as
// Company.Update: a nil field never clears an already-set URL.
func (f *SecFiling) UpdateURLs(p FilingURLPatch) {
	if p.DocumentsURL != nil {
		f.DocumentsURL = p.DocumentsURL
	}
	if p.HTMLURL != nil {
		f.HTMLURL = p.HTMLURL
	}
	if p.TextURL != nil {
		f.TextURL = p.TextURL
	}
}
