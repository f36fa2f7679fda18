package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"navboard/internal/models"
	"navboard/internal/service"
)

type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load a demo portfolio" }
func (*seedCmd) Usage() string {
	return `navctl seed

  Upserts a small long/short demo portfolio with quotes and account metrics,
  then records one snapshot. Existing rows with the same keys are replaced.
`
}

func (*seedCmd) SetFlags(f *flag.FlagSet) {}

var demoPositions = []struct{ ticker, qty, target, last, prev string }{
	{"PETR4", "1200", "0.30", "38.12", "37.50"},
	{"VALE3", "500", "0.25", "61.40", "62.05"},
	{"ITUB4", "900", "0.25", "33.87", "33.10"},
	{"WEGE3", "300", "0.15", "52.30", ""},
	{"BOVA11", "-100", "-0.10", "128.45", "127.90"},
}

var demoMetrics = map[string]string{
	models.MetricQuotaCount:     "10000",
	models.MetricQuotaValuePrev: "11.85",
	models.MetricGrossCash:      "15000",
	models.MetricOtherAssets:    "1200",
	models.MetricOtherExpenses:  "-350",
}

func (*seedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := open(ctx)
	if err != nil {
		return fail(err)
	}
	defer e.Close()

	now := time.Now().UTC()
	for _, p := range demoPositions {
		pos := models.Position{
			Ticker:       p.ticker,
			Quantity:     decimal.RequireFromString(p.qty),
			TargetWeight: decimal.RequireFromString(p.target),
		}
		if err := e.repo.UpsertPosition(ctx, pos); err != nil {
			return fail(fmt.Errorf("position %s: %w", p.ticker, err))
		}
		q := models.Quote{Ticker: p.ticker, LastPrice: decimal.RequireFromString(p.last), UpdatedAt: now}
		if p.prev != "" {
			q.PreviousClose = decimal.RequireFromString(p.prev)
		}
		if err := e.repo.UpsertQuote(ctx, q); err != nil {
			return fail(fmt.Errorf("quote %s: %w", p.ticker, err))
		}
	}
	for k, v := range demoMetrics {
		if err := e.repo.SetAccountMetric(ctx, k, decimal.RequireFromString(v)); err != nil {
			return fail(err)
		}
	}

	v := service.NewValuator(service.Feeds{Positions: e.repo, Quotes: e.repo, Metrics: e.repo}, e.repo, nil, e.log)
	s, id, err := v.Record(ctx)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("Seeded %d positions, NAV %s, snapshot %s\n", len(s.Rows), s.NetAssetValue.StringFixed(2), id)
	return subcommands.ExitSuccess
}
