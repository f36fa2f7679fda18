package models

import "github.com/shopspring/decimal"

// Keys recognised in the portfolio_metrics table.
const (
	MetricQuotaValuePrev = "quota_value_prev"
	MetricQuotaCount     = "quota_count"
	MetricGrossCash      = "gross_cash"
	MetricOtherAssets    = "other_assets"
	MetricOtherExpenses  = "other_expenses"
)

var MetricKeys = []string{
	MetricQuotaValuePrev,
	MetricQuotaCount,
	MetricGrossCash,
	MetricOtherAssets,
	MetricOtherExpenses,
}

// IsMetricKey reports whether key is one of MetricKeys.
func IsMetricKey(key string) bool {
	for _, k := range MetricKeys {
		if k == key {
			return true
		}
	}
	return false
}

// AccountMetrics holds the account-level values as read from the store.
// A field is invalid when the store has no row for its key.
type AccountMetrics struct {
	QuotaValuePrev decimal.NullDecimal `json:"quota_value_prev"`
	QuotaCount     decimal.NullDecimal `json:"quota_count"`
	GrossCash      decimal.NullDecimal `json:"gross_cash"`
	OtherAssets    decimal.NullDecimal `json:"other_assets"`
	OtherExpenses  decimal.NullDecimal `json:"other_expenses"`
}

// Set assigns the field named by key. It returns false for unknown keys.
func (m *AccountMetrics) Set(key string, v decimal.Decimal) bool {
	nv := decimal.NewNullDecimal(v)
	switch key {
	case MetricQuotaValuePrev:
		m.QuotaValuePrev = nv
	case MetricQuotaCount:
		m.QuotaCount = nv
	case MetricGrossCash:
		m.GrossCash = nv
	case MetricOtherAssets:
		m.OtherAssets = nv
	case MetricOtherExpenses:
		m.OtherExpenses = nv
	default:
		return false
	}
	return true
}

// ResolvedMetrics is AccountMetrics with every default applied.
type ResolvedMetrics struct {
	QuotaValuePrev decimal.Decimal `json:"quota_value_prev"`
	QuotaCount     decimal.Decimal `json:"quota_count"`
	GrossCash      decimal.Decimal `json:"gross_cash"`
	OtherAssets    decimal.Decimal `json:"other_assets"`
	OtherExpenses  decimal.Decimal `json:"other_expenses"`
}

// Resolve applies the defaults: quota_value_prev is 1 when unset or zero,
// quota_count is 1 when unset or not positive, cash-like fields are 0 when
// unset.
func (m AccountMetrics) Resolve() ResolvedMetrics {
	one := decimal.NewFromInt(1)
	r := ResolvedMetrics{
		QuotaValuePrev: one,
		QuotaCount:     one,
		GrossCash:      orZero(m.GrossCash),
		OtherAssets:    orZero(m.OtherAssets),
		OtherExpenses:  orZero(m.OtherExpenses),
	}
	if m.QuotaValuePrev.Valid && !m.QuotaValuePrev.Decimal.IsZero() {
		r.QuotaValuePrev = m.QuotaValuePrev.Decimal
	}
	if m.QuotaCount.Valid && m.QuotaCount.Decimal.IsPositive() {
		r.QuotaCount = m.QuotaCount.Decimal
	}
	return r
}

// NetCash is gross_cash + other_assets + other_expenses.
func (r ResolvedMetrics) NetCash() decimal.Decimal {
	return r.GrossCash.Add(r.OtherAssets).Add(r.OtherExpenses)
}

func orZero(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}
