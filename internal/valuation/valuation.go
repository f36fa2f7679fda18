// Package valuation derives a portfolio snapshot from positions, quotes and
// account metrics. It performs no I/O and holds no state, so it is safe to
// call concurrently with independent inputs.
package valuation

import (
	"github.com/shopspring/decimal"

	"navboard/internal/models"
)

var one = decimal.NewFromInt(1)

// Compute resolves the metric defaults and calls ComputeSnapshot.
func Compute(positions []models.Position, quotes []models.Quote, metrics models.AccountMetrics) models.PortfolioSnapshot {
	return ComputeSnapshot(positions, quotes, metrics.Resolve())
}

// ComputeSnapshot values every position against its quote and aggregates the
// result. Positions without a quote are kept with zero prices. When several
// quotes share a ticker the last one wins.
//
// Every division is guarded: a zero denominator yields zero. When the net
// asset value is zero the snapshot carries no percentages at all.
//
// Gross exposure is |long| + |short|, which is long + |short| whenever NAV is
// positive; short exposure is stored negative.
func ComputeSnapshot(positions []models.Position, quotes []models.Quote, metrics models.ResolvedMetrics) models.PortfolioSnapshot {
	byTicker := make(map[string]models.Quote, len(quotes))
	for _, q := range quotes {
		byTicker[q.Ticker] = q
	}

	snap := models.PortfolioSnapshot{
		Rows:    make([]models.SnapshotRow, 0, len(positions)),
		NetCash: metrics.NetCash(),
	}

	prevEquity := decimal.Zero
	for _, p := range positions {
		row := models.SnapshotRow{
			Ticker:       p.Ticker,
			Quantity:     p.Quantity,
			TargetWeight: p.TargetWeight,
		}
		if q, ok := byTicker[p.Ticker]; ok {
			row.QuoteFound = true
			row.LastPrice = q.LastPrice
			row.PreviousClose = q.PreviousClose
		}

		row.PositionValue = p.Quantity.Mul(row.LastPrice)
		row.PositionValuePrev = p.Quantity.Mul(row.PreviousClose)
		if row.PreviousClose.IsPositive() {
			row.DailyChangePct = row.LastPrice.Div(row.PreviousClose).Sub(one)
		}
		row.ContributionValue = row.LastPrice.Sub(row.PreviousClose).Mul(p.Quantity)

		snap.TotalEquityValue = snap.TotalEquityValue.Add(row.PositionValue)
		prevEquity = prevEquity.Add(row.PositionValuePrev)
		snap.Rows = append(snap.Rows, row)
	}

	snap.NetAssetValue = snap.TotalEquityValue.Add(snap.NetCash)
	// cash is assumed unchanged since the previous close
	snap.PriorNetAssetValue = prevEquity.Add(snap.NetCash)
	snap.CurrentQuotaValue = ratio(snap.NetAssetValue, metrics.QuotaCount)

	for i := range snap.Rows {
		row := &snap.Rows[i]
		row.AdjustmentQuantity = ratio(
			row.TargetWeight.Mul(snap.NetAssetValue).Sub(row.PositionValue),
			row.LastPrice,
		)
	}

	if snap.NetAssetValue.IsZero() {
		for i := range snap.Rows {
			row := &snap.Rows[i]
			row.DailyChangePct = decimal.Zero
		}
		return snap
	}

	for i := range snap.Rows {
		row := &snap.Rows[i]
		row.WeightPct = ratio(row.PositionValue, snap.NetAssetValue)
		row.ContributionPct = ratio(row.ContributionValue, snap.PriorNetAssetValue)
		row.WeightGapPct = row.WeightPct.Sub(row.TargetWeight)

		switch {
		case row.PositionValue.IsPositive():
			snap.LongExposurePct = snap.LongExposurePct.Add(row.WeightPct)
		case row.PositionValue.IsNegative():
			snap.ShortExposurePct = snap.ShortExposurePct.Add(row.WeightPct)
		}
	}

	snap.NetLongPct = snap.LongExposurePct.Add(snap.ShortExposurePct)
	snap.GrossExposurePct = snap.LongExposurePct.Abs().Add(snap.ShortExposurePct.Abs())
	if !metrics.QuotaValuePrev.IsZero() {
		snap.QuotaChangePct = snap.CurrentQuotaValue.Div(metrics.QuotaValuePrev).Sub(one)
	}
	return snap
}

func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}
