// Package edgar is the filing-registry provider. It resolves tickers to
// CIK numbers via the registry's ticker directory, lists filings from the
// submissions endpoint, resolves per-filing document URLs out of the
// archive index pages and downloads raw filing content.
package edgar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"finsights/apperrors"
	"finsights/cache"
	"finsights/models"
)

// Fetcher is the resilient HTTP layer the provider fetches through.
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) ([]byte, error)
}

type Provider struct {
	baseURL   string
	userAgent string
	fetcher   Fetcher
	cache     *cache.Cache
	resolver  DocumentResolver
	logger    *zap.SugaredLogger
}

func NewProvider(baseURL, userAgent string, fetcher Fetcher, c *cache.Cache, logger *zap.SugaredLogger) *Provider {
	return &Provider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		fetcher:   fetcher,
		cache:     c,
		resolver:  NewDocumentResolver(),
		logger:    logger,
	}
}

// header returns the identification headers the registry requires on
// every request. Requests without a descriptive User-Agent are rejected.
func (p *Provider) header() http.Header {
	h := http.Header{}
	h.Set("User-Agent", p.userAgent)
	h.Set("Accept-Encoding", "gzip, deflate")
	return h
}

// ResolveCIK looks a ticker up in the registry's full ticker directory,
// matching case-insensitively. Identifiers are near-static, so hits are
// cached for 7 days.
func (p *Provider) ResolveCIK(ctx context.Context, ticker string) (models.RegistryIdentity, error) {
	key := "sec_company_info_" + strings.ToLower(ticker)
	if id, ok := cache.Get[models.RegistryIdentity](p.cache, key); ok && id.CIK != "" {
		return id, nil
	}

	body, err := p.fetcher.Fetch(ctx, p.baseURL+"/files/company_tickers.json", p.header())
	if err != nil {
		return models.RegistryIdentity{}, err
	}

	var directory map[string]directoryEntry
	if err := json.Unmarshal(body, &directory); err != nil {
		return models.RegistryIdentity{}, fmt.Errorf("decode ticker directory: %v: %w", err, apperrors.ErrUpstreamDataInvalid)
	}

	for _, entry := range directory {
		if strings.EqualFold(entry.Ticker, ticker) {
			id := models.RegistryIdentity{CIK: entry.CIK.String(), Name: entry.Title}
			if id.Name == "" {
				id.Name = ticker
			}
			p.cacheSet(key, id, cache.TTLDirectory)
			return id, nil
		}
	}

	return models.RegistryIdentity{}, fmt.Errorf("no CIK for ticker %s: %w", ticker, apperrors.ErrNotFound)
}

// ListFilings fetches the filing history for a CIK, classifies each form
// type, optionally filters to the requested type set and truncates to
// limit, preserving upstream order (most recent first). Cached for 6
// hours per (cik, filter, limit).
func (p *Provider) ListFilings(ctx context.Context, cik string, filingTypes []models.FilingType, limit int) ([]models.SecFiling, error) {
	if limit < 0 {
		limit = 0
	}
	typesKey := "all"
	if len(filingTypes) > 0 {
		parts := make([]string, len(filingTypes))
		for i, t := range filingTypes {
			parts[i] = t.String()
		}
		typesKey = strings.Join(parts, "_")
	}
	key := fmt.Sprintf("sec_filings_%s_%s_%d", cik, typesKey, limit)
	if filings, ok := cache.Get[[]models.SecFiling](p.cache, key); ok && len(filings) > 0 {
		return filings, nil
	}

	body, err := p.fetcher.Fetch(ctx, fmt.Sprintf("%s/submissions/CIK%s.json", p.baseURL, padCIK(cik)), p.header())
	if err != nil {
		return nil, err
	}

	var resp submissionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode submissions for CIK %s: %v: %w", cik, err, apperrors.ErrUpstreamDataInvalid)
	}

	ticker := ""
	if len(resp.Tickers) > 0 {
		ticker = resp.Tickers[0]
	}
	companyID := models.CompanyID(ticker)

	recent := resp.Filings.Recent
	count := len(recent.AccessionNumber)
	if len(recent.FilingDate) < count {
		count = len(recent.FilingDate)
	}
	if len(recent.Form) < count {
		count = len(recent.Form)
	}

	filings := make([]models.SecFiling, 0, limit)
	for i := 0; i < count && len(filings) < limit; i++ {
		form := recent.Form[i]
		filingType := models.ClassifyForm(form)
		if len(filingTypes) > 0 && !containsType(filingTypes, filingType) {
			continue
		}

		accession := recent.AccessionNumber[i]
		filingDate := parseDate(recent.FilingDate[i], time.Now().UTC())
		reportDate := filingDate
		if i < len(recent.ReportDate) {
			reportDate = parseDate(recent.ReportDate[i], filingDate)
		}
		primaryDocument := ""
		if i < len(recent.PrimaryDocument) {
			primaryDocument = recent.PrimaryDocument[i]
		}

		// The archive path wants the accession number with dashes removed.
		filingURL := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
			p.baseURL, cik, strings.ReplaceAll(accession, "-", ""), primaryDocument)

		filings = append(filings, models.NewSecFiling(
			companyID, ticker, resp.Name, cik,
			filingType, form, accession,
			filingDate, reportDate, filingURL,
		))
	}

	p.cacheSet(key, filings, cache.TTLFilings)
	p.logger.Infow("listed filings", "cik", cik, "count", len(filings))
	return filings, nil
}

// GetFilingDetails locates a filing by accession number and populates its
// document URLs by parsing the archive index page. Filings never change
// once published, so details are cached for 7 days.
func (p *Provider) GetFilingDetails(ctx context.Context, accessionNumber, cik string) (*models.SecFiling, error) {
	key := "sec_filing_detail_" + accessionNumber
	if filing, ok := cache.Get[models.SecFiling](p.cache, key); ok && filing.AccessionNumber != "" {
		return &filing, nil
	}

	filings, err := p.ListFilings(ctx, cik, nil, 100)
	if err != nil {
		return nil, err
	}

	var filing *models.SecFiling
	for i := range filings {
		if filings[i].AccessionNumber == accessionNumber {
			filing = &filings[i]
			break
		}
	}
	if filing == nil {
		return nil, fmt.Errorf("filing %s not listed for CIK %s: %w", accessionNumber, cik, apperrors.ErrNotFound)
	}

	page, err := p.fetcher.Fetch(ctx, filing.FilingURL, p.header())
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, err
	}
	links, err := p.resolver.Resolve(page, base)
	if err != nil {
		return nil, err
	}
	filing.UpdateURLs(links.Patch())

	p.cacheSet(key, *filing, cache.TTLFilingDetail)
	return filing, nil
}

// DownloadContent fetches raw filing content. Content is immutable, so it
// is cached for 30 days keyed by a hash of the URL.
func (p *Provider) DownloadContent(ctx context.Context, rawURL string) (string, error) {
	sum := sha256.Sum256([]byte(rawURL))
	key := "sec_filing_content_" + hex.EncodeToString(sum[:])
	if content, ok := cache.Get[string](p.cache, key); ok && content != "" {
		return content, nil
	}

	body, err := p.fetcher.Fetch(ctx, rawURL, p.header())
	if err != nil {
		return "", err
	}

	content := string(body)
	p.cacheSet(key, content, cache.TTLContent)
	return content, nil
}

// ExtractStatements is the extraction point for pulling financial
// statements out of raw filing content. A full implementation would parse
// XBRL or scrape statement tables from the HTML/text and return one
// FinancialStatement per statement found, with populated data points.
// That algorithm is not implemented here; callers must treat the empty
// result as a valid outcome, not a fault.
func (p *Provider) ExtractStatements(ctx context.Context, content string, filingType models.FilingType) ([]models.FinancialStatement, error) {
	p.logger.Debugw("statement extraction not implemented", "filing_type", filingType.String(), "bytes", len(content))
	return []models.FinancialStatement{}, nil
}

func (p *Provider) cacheSet(key string, v any, ttl time.Duration) {
	if err := cache.Set(p.cache, key, v, ttl); err != nil {
		p.logger.Warnw("failed to cache value", "key", key, "err", err)
	}
}

// padCIK left-pads a CIK to the 10 digits the submissions endpoint wants.
func padCIK(cik string) string {
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

func containsType(types []models.FilingType, t models.FilingType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func parseDate(s string, fallback time.Time) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fallback
	}
	return d
}

type directoryEntry struct {
	CIK    json.Number `json:"cik_str"`
	Ticker string      `json:"ticker"`
	Title  string      `json:"title"`
}

type submissionsResponse struct {
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			ReportDate      []string `json:"reportDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}
