package database

import (
	"time"

	"github.com/shopspring/decimal"
)

type metricRow struct {
	Key   string          `db:"key"`
	Value decimal.Decimal `db:"value"`
}

type historyRow struct {
	ID               string          `db:"id"`
	ComputedAt       time.Time       `db:"computed_at"`
	NetAssetValue    decimal.Decimal `db:"net_asset_value"`
	QuotaValue       decimal.Decimal `db:"quota_value"`
	QuotaChangePct   decimal.Decimal `db:"quota_change_pct"`
	GrossExposurePct decimal.Decimal `db:"gross_exposure_pct"`
	NetLongPct       decimal.Decimal `db:"net_long_pct"`
	Rows             string          `db:"rows"`
}
