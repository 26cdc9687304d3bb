// Package yahoo is the market-data provider. It fetches quotes, price
// history, company profile attributes and financial summaries from the
// Yahoo Finance quote, chart and quoteSummary endpoints, caching every
// result with a TTL matched to how fast the data moves.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finsights/apperrors"
	"finsights/cache"
	"finsights/models"
)

// Fetcher is the resilient HTTP layer the provider fetches through.
type Fetcher interface {
	Fetch(ctx context.Context, url string, header http.Header) ([]byte, error)
}

type Provider struct {
	baseURL string
	fetcher Fetcher
	cache   *cache.Cache
	logger  *zap.SugaredLogger
}

func NewProvider(baseURL string, fetcher Fetcher, c *cache.Cache, logger *zap.SugaredLogger) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		cache:   c,
		logger:  logger,
	}
}

// GetQuote returns the current market reading for a ticker. Cached for 15
// minutes.
func (p *Provider) GetQuote(ctx context.Context, ticker string) (models.Quote, error) {
	key := "quote_" + strings.ToLower(ticker)
	if q, ok := cache.Get[models.Quote](p.cache, key); ok {
		return q, nil
	}

	body, err := p.fetcher.Fetch(ctx, fmt.Sprintf("%s/quote?symbols=%s", p.baseURL, url.QueryEscape(ticker)), nil)
	if err != nil {
		return models.Quote{}, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.Quote{}, fmt.Errorf("decode quote for %s: %v: %w", ticker, err, apperrors.ErrUpstreamDataInvalid)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return models.Quote{}, fmt.Errorf("no quote data for %s: %w", ticker, apperrors.ErrUpstreamDataInvalid)
	}

	r := resp.QuoteResponse.Result[0]
	q := models.Quote{
		Price:         deref(r.RegularMarketPrice),
		Change:        deref(r.RegularMarketChange),
		ChangePercent: deref(r.RegularMarketChangePercent),
		Volume:        derefInt(r.RegularMarketVolume),
		MarketCap:     deref(r.MarketCap),
	}

	p.cacheSet(key, q, cache.TTLQuote, ticker)
	return q, nil
}

// GetCompanyProfile builds a company record from the quote and the
// assetProfile module, fetched concurrently. Both must succeed. Cached
// for 12 hours.
func (p *Provider) GetCompanyProfile(ctx context.Context, ticker string) (*models.Company, error) {
	key := "company_profile_" + strings.ToLower(ticker)
	if c, ok := cache.Get[models.Company](p.cache, key); ok {
		return &c, nil
	}

	var (
		quote   models.Quote
		profile *assetProfile
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		quote, err = p.GetQuote(ctx, ticker)
		return err
	})
	g.Go(func() error {
		body, err := p.fetchModule(ctx, ticker, "assetProfile")
		if err != nil {
			return err
		}
		var resp assetProfileResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("decode profile for %s: %v: %w", ticker, err, apperrors.ErrUpstreamDataInvalid)
		}
		profile = resp.AssetProfile
		return nil
	})
	// Both branches run to completion; the first failure is reported once
	// both have settled.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("no profile data for %s: %w", ticker, apperrors.ErrUpstreamDataInvalid)
	}

	name := ticker
	if profile.LongBusinessSummary != nil && *profile.LongBusinessSummary != "" {
		name = strings.SplitN(*profile.LongBusinessSummary, ".", 2)[0]
	}
	company := models.NewCompany(
		ticker,
		name,
		strOr(profile.Exchange, "Unknown"),
		strOr(profile.Sector, "Unknown"),
		strOr(profile.Industry, "Unknown"),
	)
	marketCap := quote.MarketCap
	company.Update(models.CompanyPatch{
		Website:     profile.Website,
		Description: profile.LongBusinessSummary,
		MarketCap:   &marketCap,
	})

	p.cacheSet(key, *company, cache.TTLCompanyProfile, ticker)
	return company, nil
}

// GetHistoricalPrices returns the OHLCV series for a ticker between from
// and to. Rows with any null field are dropped; adjusted close falls back
// to the raw close where the adjusted series is absent or null. Cached
// for 24 hours.
func (p *Provider) GetHistoricalPrices(ctx context.Context, ticker string, from, to time.Time, interval models.Interval) ([]models.StockPrice, error) {
	code := intervalCode(interval)
	key := fmt.Sprintf("history_%s_%s_%s_%s", strings.ToLower(ticker), from.Format("20060102"), to.Format("20060102"), code)
	if prices, ok := cache.Get[[]models.StockPrice](p.cache, key); ok && len(prices) > 0 {
		return prices, nil
	}

	u := fmt.Sprintf("%s/chart/%s?period1=%d&period2=%d&interval=%s&includeAdjustedClose=true",
		p.baseURL, url.PathEscape(ticker), from.Unix(), to.Unix(), code)
	body, err := p.fetcher.Fetch(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart for %s: %v: %w", ticker, err, apperrors.ErrUpstreamDataInvalid)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no historical data for %s: %w", ticker, apperrors.ErrUpstreamDataInvalid)
	}
	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("historical data for %s is incomplete: %w", ticker, apperrors.ErrUpstreamDataInvalid)
	}

	// The series needs the owning company's identity.
	company, err := p.GetCompanyProfile(ctx, ticker)
	if err != nil {
		return nil, err
	}

	quote := result.Indicators.Quote[0]
	var adjusted []*decimal.Decimal
	if len(result.Indicators.AdjClose) > 0 {
		adjusted = result.Indicators.AdjClose[0].AdjClose
	}

	prices := make([]models.StockPrice, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}

		adjClose := *quote.Close[i]
		if i < len(adjusted) && adjusted[i] != nil {
			adjClose = *adjusted[i]
		}

		prices = append(prices, models.NewStockPrice(
			company.ID,
			ticker,
			time.Unix(ts, 0).UTC(),
			*quote.Open[i],
			*quote.High[i],
			*quote.Low[i],
			*quote.Close[i],
			adjClose,
			*quote.Volume[i],
		))
	}

	p.cacheSet(key, prices, cache.TTLHistory, ticker)
	p.logger.Infow("fetched historical prices", "ticker", ticker, "rows", len(prices))
	return prices, nil
}

// Fixed metric set extracted from the financialData module. Order is the
// presentation order.
var summaryMetrics = []struct {
	Label string
	Field string
}{
	{"Current Price", "currentPrice"},
	{"ROE", "returnOnEquity"},
	{"ROA", "returnOnAssets"},
	{"Gross Margin", "grossMargins"},
	{"Operating Margin", "operatingMargins"},
	{"Profit Margin", "profitMargins"},
	{"Total Cash", "totalCash"},
	{"Total Debt", "totalDebt"},
	{"Revenue", "totalRevenue"},
	{"EBITDA", "ebitda"},
	{"Free Cash Flow", "freeCashflow"},
	{"Earnings Growth", "earningsGrowth"},
	{"Revenue Growth", "revenueGrowth"},
}

// GetFinancialSummary extracts the fixed metric set from the financialData
// module. Any metric the upstream omits maps to "N/A". Cached for 24
// hours.
func (p *Provider) GetFinancialSummary(ctx context.Context, ticker string) (map[string]string, error) {
	key := "financial_summary_" + strings.ToLower(ticker)
	if summary, ok := cache.Get[map[string]string](p.cache, key); ok && len(summary) > 0 {
		return summary, nil
	}

	body, err := p.fetchModule(ctx, ticker, "financialData")
	if err != nil {
		return nil, err
	}
	if !gjson.GetBytes(body, "financialData").Exists() {
		return nil, fmt.Errorf("no financial data for %s: %w", ticker, apperrors.ErrUpstreamDataInvalid)
	}

	summary := make(map[string]string, len(summaryMetrics))
	for _, m := range summaryMetrics {
		value := gjson.GetBytes(body, "financialData."+m.Field+".fmt")
		if value.Exists() && value.String() != "" {
			summary[m.Label] = value.String()
		} else {
			summary[m.Label] = "N/A"
		}
	}

	p.cacheSet(key, summary, cache.TTLSummary, ticker)
	return summary, nil
}

// GetAnalystRecommendations reads analyst coverage out of the
// financialData module, with defaults where the upstream has nothing.
// Cached for 24 hours.
func (p *Provider) GetAnalystRecommendations(ctx context.Context, ticker string) (models.Recommendation, error) {
	key := "analyst_recommendations_" + strings.ToLower(ticker)
	if rec, ok := cache.Get[models.Recommendation](p.cache, key); ok {
		return rec, nil
	}

	body, err := p.fetchModule(ctx, ticker, "financialData")
	if err != nil {
		return models.Recommendation{}, err
	}
	data := gjson.GetBytes(body, "financialData")
	if !data.Exists() {
		return models.Recommendation{}, fmt.Errorf("no financial data for %s: %w", ticker, apperrors.ErrUpstreamDataInvalid)
	}

	rec := models.Recommendation{Rating: "N/A", TargetPrice: decimal.Zero}
	if rating := data.Get("recommendationKey"); rating.Exists() && rating.String() != "" {
		rec.Rating = rating.String()
	}
	if analysts := data.Get("numberOfAnalystOpinions.raw"); analysts.Exists() {
		rec.TotalAnalysts = int(analysts.Int())
	}
	if target := data.Get("targetMeanPrice.raw"); target.Exists() {
		if d, err := decimal.NewFromString(target.Raw); err == nil {
			rec.TargetPrice = d
		}
	}

	p.cacheSet(key, rec, cache.TTLRecommendations, ticker)
	return rec, nil
}

func (p *Provider) fetchModule(ctx context.Context, ticker, module string) ([]byte, error) {
	u := fmt.Sprintf("%s/quoteSummary/%s?modules=%s", p.baseURL, url.PathEscape(ticker), module)
	return p.fetcher.Fetch(ctx, u, nil)
}

func (p *Provider) cacheSet(key string, v any, ttl time.Duration, ticker string) {
	if err := cache.Set(p.cache, key, v, ttl); err != nil {
		p.logger.Warnw("failed to cache value", "key", key, "ticker", ticker, "err", err)
	}
}

func intervalCode(i models.Interval) string {
	switch i {
	case models.Weekly:
		return "1wk"
	case models.Monthly:
		return "1mo"
	default:
		return "1d"
	}
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func strOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
