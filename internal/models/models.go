package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Position struct {
	Ticker       string          `db:"ticker" json:"ticker"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	TargetWeight decimal.Decimal `db:"target_weight" json:"target_weight"`
}

type Quote struct {
	Ticker        string          `db:"ticker" json:"ticker"`
	LastPrice     decimal.Decimal `db:"last_price" json:"last_price"`
	PreviousClose decimal.Decimal `db:"previous_close" json:"previous_close"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// SnapshotRow is one position joined with its quote. Every *Pct field is a
// fraction (0.25 means 25%).
type SnapshotRow struct {
	Ticker             string          `json:"ticker"`
	Quantity           decimal.Decimal `json:"quantity"`
	TargetWeight       decimal.Decimal `json:"target_weight"`
	LastPrice          decimal.Decimal `json:"last_price"`
	PreviousClose      decimal.Decimal `json:"previous_close"`
	QuoteFound         bool            `json:"quote_found"`
	PositionValue      decimal.Decimal `json:"position_value"`
	PositionValuePrev  decimal.Decimal `json:"position_value_prev"`
	DailyChangePct     decimal.Decimal `json:"daily_change_pct"`
	ContributionValue  decimal.Decimal `json:"contribution_value"`
	WeightPct          decimal.Decimal `json:"weight_pct"`
	ContributionPct    decimal.Decimal `json:"contribution_pct"`
	WeightGapPct       decimal.Decimal `json:"weight_gap_pct"`
	AdjustmentQuantity decimal.Decimal `json:"adjustment_quantity"`
}

type PortfolioSnapshot struct {
	Rows               []SnapshotRow   `json:"rows"`
	NetCash            decimal.Decimal `json:"net_cash"`
	TotalEquityValue   decimal.Decimal `json:"total_equity_value"`
	NetAssetValue      decimal.Decimal `json:"net_asset_value"`
	PriorNetAssetValue decimal.Decimal `json:"prior_net_asset_value"`
	CurrentQuotaValue  decimal.Decimal `json:"current_quota_value"`
	QuotaChangePct     decimal.Decimal `json:"quota_change_pct"`
	LongExposurePct    decimal.Decimal `json:"long_exposure_pct"`
	ShortExposurePct   decimal.Decimal `json:"short_exposure_pct"`
	NetLongPct         decimal.Decimal `json:"net_long_pct"`
	GrossExposurePct   decimal.Decimal `json:"gross_exposure_pct"`
	ComputedAt         time.Time       `json:"computed_at"`
}

// HistoryPoint is the persisted summary of one recorded snapshot.
type HistoryPoint struct {
	ID                string          `db:"id" json:"id"`
	ComputedAt        time.Time       `db:"computed_at" json:"computed_at"`
	NetAssetValue     decimal.Decimal `db:"net_asset_value" json:"net_asset_value"`
	CurrentQuotaValue decimal.Decimal `db:"quota_value" json:"quota_value"`
	QuotaChangePct    decimal.Decimal `db:"quota_change_pct" json:"quota_change_pct"`
	GrossExposurePct  decimal.Decimal `db:"gross_exposure_pct" json:"gross_exposure_pct"`
	NetLongPct        decimal.Decimal `db:"net_long_pct" json:"net_long_pct"`
}
