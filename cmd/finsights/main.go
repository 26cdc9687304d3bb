package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finsights/aggregator"
	"finsights/cache"
	"finsights/config"
	"finsights/fetcher"
	"finsights/internal"
	"finsights/models"
	"finsights/providers/edgar"
	"finsights/providers/yahoo"
)

func main() {
	godotenv.Load()

	logger, err := internal.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: finsights <profile|prices|filings|metrics|recommendations> <ticker>")
		os.Exit(2)
	}
	command, ticker := os.Args[1], os.Args[2]

	cfg := config.Load()
	store := cache.New()

	opts := fetcher.Options{
		Timeout:          cfg.HTTP.Timeout,
		RetryMax:         cfg.HTTP.RetryMax,
		BackoffBase:      cfg.HTTP.BackoffBase,
		BreakerThreshold: cfg.HTTP.BreakerThreshold,
		BreakerCooldown:  cfg.HTTP.BreakerCooldown,
	}
	markets := yahoo.NewProvider(cfg.Yahoo.BaseURL, fetcher.New("yahoo", opts, logger), store, logger)
	registry := edgar.NewProvider(cfg.Edgar.BaseURL, cfg.Edgar.UserAgent, fetcher.New("edgar", opts, logger), store, logger)
	agg := aggregator.New(markets, registry, store, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var result any
	switch command {
	case "profile":
		result, err = agg.GetCompanyProfile(ctx, ticker)
	case "prices":
		to := time.Now()
		result, err = agg.GetHistoricalPrices(ctx, ticker, to.AddDate(0, -1, 0), to, models.Daily)
	case "filings":
		result, err = agg.GetFilings(ctx, ticker, []models.FilingType{models.Form10K, models.Form10Q}, 10)
	case "metrics":
		result, err = agg.GetFinancialMetrics(ctx, ticker)
	case "recommendations":
		result, err = agg.GetAnalystRecommendations(ctx, ticker)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", command)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalw("command failed", "command", command, "ticker", ticker, "err", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatalw("failed to render result", "err", err)
	}
	fmt.Println(string(out))
}
