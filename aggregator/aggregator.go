// Package aggregator composes the market-data and filing-registry
// providers into unified company, filing and statement views. It is the
// only surface external callers consume.
package aggregator

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finsights/cache"
	"finsights/models"
)

// MarketData is the market-side provider surface the aggregator needs.
type MarketData interface {
	GetCompanyProfile(ctx context.Context, ticker string) (*models.Company, error)
	GetHistoricalPrices(ctx context.Context, ticker string, from, to time.Time, interval models.Interval) ([]models.StockPrice, error)
	GetFinancialSummary(ctx context.Context, ticker string) (map[string]string, error)
	GetAnalystRecommendations(ctx context.Context, ticker string) (models.Recommendation, error)
}

// FilingRegistry is the registry-side provider surface.
type FilingRegistry interface {
	ResolveCIK(ctx context.Context, ticker string) (models.RegistryIdentity, error)
	ListFilings(ctx context.Context, cik string, filingTypes []models.FilingType, limit int) ([]models.SecFiling, error)
	GetFilingDetails(ctx context.Context, accessionNumber, cik string) (*models.SecFiling, error)
	DownloadContent(ctx context.Context, url string) (string, error)
	ExtractStatements(ctx context.Context, content string, filingType models.FilingType) ([]models.FinancialStatement, error)
}

type Aggregator struct {
	markets  MarketData
	registry FilingRegistry
	cache    *cache.Cache
	logger   *zap.SugaredLogger
}

func New(markets MarketData, registry FilingRegistry, c *cache.Cache, logger *zap.SugaredLogger) *Aggregator {
	return &Aggregator{
		markets:  markets,
		registry: registry,
		cache:    c,
		logger:   logger,
	}
}

// GetCompanyProfile merges the market-data company record with the
// registry identity, fetched concurrently. Both branches must succeed;
// the combined failure is raised only after both have settled.
func (a *Aggregator) GetCompanyProfile(ctx context.Context, ticker string) (*models.Company, error) {
	var (
		company  *models.Company
		identity models.RegistryIdentity
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		company, err = a.markets.GetCompanyProfile(ctx, ticker)
		return err
	})
	g.Go(func() error {
		var err error
		identity, err = a.registry.ResolveCIK(ctx, ticker)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.Errorw("company profile aggregation failed", "ticker", ticker, "err", err)
		return nil, err
	}

	company.Update(models.CompanyPatch{CIK: &identity.CIK})
	return company, nil
}

// GetHistoricalPrices delegates to the market-data provider.
func (a *Aggregator) GetHistoricalPrices(ctx context.Context, ticker string, from, to time.Time, interval models.Interval) ([]models.StockPrice, error) {
	return a.markets.GetHistoricalPrices(ctx, ticker, from, to, interval)
}

// GetFilings resolves the ticker's registry identity, then lists filings.
// The second call needs the first's output, so the chain is sequential.
func (a *Aggregator) GetFilings(ctx context.Context, ticker string, filingTypes []models.FilingType, limit int) ([]models.SecFiling, error) {
	identity, err := a.registry.ResolveCIK(ctx, ticker)
	if err != nil {
		a.logger.Errorw("filing aggregation failed", "ticker", ticker, "err", err)
		return nil, err
	}
	return a.registry.ListFilings(ctx, identity.CIK, filingTypes, limit)
}

// GetFinancialStatements downloads a filing's content and extracts its
// statements. Filings without known document URLs get their details
// resolved first; the content URL is chosen html, then text, then the
// canonical filing URL.
func (a *Aggregator) GetFinancialStatements(ctx context.Context, filing *models.SecFiling) ([]models.FinancialStatement, error) {
	f := filing
	if f.HTMLURL == nil && f.TextURL == nil {
		detailed, err := a.registry.GetFilingDetails(ctx, f.AccessionNumber, f.CIK)
		if err != nil {
			a.logger.Errorw("statement aggregation failed", "accession_number", f.AccessionNumber, "err", err)
			return nil, err
		}
		f = detailed
	}

	contentURL := f.FilingURL
	switch {
	case f.HTMLURL != nil:
		contentURL = *f.HTMLURL
	case f.TextURL != nil:
		contentURL = *f.TextURL
	}

	content, err := a.registry.DownloadContent(ctx, contentURL)
	if err != nil {
		return nil, err
	}
	return a.registry.ExtractStatements(ctx, content, f.FilingType)
}

// GetFinancialMetrics returns the market provider's financial summary,
// cached again at this level under its own key. The aggregator's cache
// entry could one day diverge from the provider's (merged with registry
// data), so the layering is deliberate.
func (a *Aggregator) GetFinancialMetrics(ctx context.Context, ticker string) (map[string]string, error) {
	key := "financial_metrics_" + strings.ToLower(ticker)
	if metrics, ok := cache.Get[map[string]string](a.cache, key); ok && len(metrics) > 0 {
		return metrics, nil
	}

	metrics, err := a.markets.GetFinancialSummary(ctx, ticker)
	if err != nil {
		a.logger.Errorw("metrics aggregation failed", "ticker", ticker, "err", err)
		return nil, err
	}

	if err := cache.Set(a.cache, key, metrics, cache.TTLMetrics); err != nil {
		a.logger.Warnw("failed to cache metrics", "ticker", ticker, "err", err)
	}
	return metrics, nil
}

// GetAnalystRecommendations delegates to the market-data provider.
func (a *Aggregator) GetAnalystRecommendations(ctx context.Context, ticker string) (models.Recommendation, error) {
	return a.markets.GetAnalystRecommendations(ctx, ticker)
}
