package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Defaults(t *testing.T) {
	r := AccountMetrics{}.Resolve()

	assert.True(t, r.QuotaValuePrev.Equal(decimal.NewFromInt(1)))
	assert.True(t, r.QuotaCount.Equal(decimal.NewFromInt(1)))
	assert.True(t, r.GrossCash.IsZero())
	assert.True(t, r.OtherAssets.IsZero())
	assert.True(t, r.OtherExpenses.IsZero())
	assert.True(t, r.NetCash().IsZero())
}

func TestResolve_GuardsDenominators(t *testing.T) {
	var m AccountMetrics
	require.True(t, m.Set(MetricQuotaValuePrev, decimal.Zero))
	require.True(t, m.Set(MetricQuotaCount, decimal.NewFromInt(-5)))

	r := m.Resolve()
	assert.True(t, r.QuotaValuePrev.Equal(decimal.NewFromInt(1)), "zero quota_value_prev falls back to 1")
	assert.True(t, r.QuotaCount.Equal(decimal.NewFromInt(1)), "negative quota_count falls back to 1")
}

func TestResolve_KeepsSetValues(t *testing.T) {
	var m AccountMetrics
	m.Set(MetricQuotaValuePrev, decimal.RequireFromString("9.5"))
	m.Set(MetricQuotaCount, decimal.NewFromInt(250))
	m.Set(MetricGrossCash, decimal.NewFromInt(1000))
	m.Set(MetricOtherAssets, decimal.NewFromInt(50))
	m.Set(MetricOtherExpenses, decimal.NewFromInt(-30))

	r := m.Resolve()
	assert.Equal(t, "9.5", r.QuotaValuePrev.String())
	assert.Equal(t, "250", r.QuotaCount.String())
	assert.Equal(t, "1020", r.NetCash().String())
}

func TestSet_UnknownKey(t *testing.T) {
	var m AccountMetrics
	assert.False(t, m.Set("caixa_bruto", decimal.NewFromInt(1)))
	assert.False(t, IsMetricKey("caixa_bruto"))
	for _, k := range MetricKeys {
		assert.True(t, IsMetricKey(k), k)
	}
}
