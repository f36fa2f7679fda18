// Package render turns snapshots into markdown for terminals and the
// ?format=markdown endpoint. Fractions become percentages here and only here.
package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"navboard/internal/models"
)

// Money formats v in currency, e.g. "R$1.234,56" for BRL.
func Money(v decimal.Decimal, currency string) string {
	// money.New never returns a nil currency, unlike money.GetCurrency
	cur := money.New(0, currency).Currency()
	minor := v.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	if minor.Abs().GreaterThan(maxMinor) {
		return formatDigits(cur, minor)
	}
	return cur.Formatter().Format(minor.IntPart())
}

// go-money counts minor units in an int64
var maxMinor = decimal.NewFromInt(math.MaxInt64)

// formatDigits lays out minor units the way money.Formatter does, for
// amounts that do not fit in an int64.
func formatDigits(cur *money.Currency, minor decimal.Decimal) string {
	sa := minor.Abs().StringFixed(0)
	for i := len(sa) - cur.Fraction - 3; i > 0 && cur.Thousand != ""; i -= 3 {
		sa = sa[:i] + cur.Thousand + sa[i:]
	}
	if cur.Fraction > 0 {
		sa = sa[:len(sa)-cur.Fraction] + cur.Decimal + sa[len(sa)-cur.Fraction:]
	}
	sa = strings.Replace(cur.Template, "1", sa, 1)
	sa = strings.Replace(sa, "$", cur.Grapheme, 1)
	if minor.IsNegative() {
		sa = "-" + sa
	}
	return sa
}

// Percent formats a fraction as a percentage: 0.1234 is "12.34%".
func Percent(v decimal.Decimal) string {
	return v.Shift(2).StringFixed(2) + "%"
}

// SignedPercent is Percent with an explicit sign; zero is "-".
func SignedPercent(v decimal.Decimal) string {
	p := v.Shift(2).Round(2)
	if p.IsZero() {
		return "-"
	}
	if p.IsPositive() {
		return "+" + p.StringFixed(2) + "%"
	}
	return p.StringFixed(2) + "%"
}

func signedMoney(v decimal.Decimal, currency string) string {
	if v.IsZero() {
		return "-"
	}
	if v.IsPositive() {
		return "+" + Money(v, currency)
	}
	return Money(v, currency)
}

// Markdown renders the summary and the composition table of s.
func Markdown(s models.PortfolioSnapshot, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio\n\n")
	if !s.ComputedAt.IsZero() {
		fmt.Fprintf(&b, "_As of %s_\n\n", s.ComputedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}

	fmt.Fprintln(&b, "| Summary | |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Net asset value | %s |\n", Money(s.NetAssetValue, currency))
	fmt.Fprintf(&b, "| Equity | %s |\n", Money(s.TotalEquityValue, currency))
	fmt.Fprintf(&b, "| Net cash | %s |\n", Money(s.NetCash, currency))
	fmt.Fprintf(&b, "| Quota value | %s |\n", s.CurrentQuotaValue.StringFixed(6))
	fmt.Fprintf(&b, "| Quota change | %s |\n", SignedPercent(s.QuotaChangePct))
	fmt.Fprintf(&b, "| Long exposure | %s |\n", Percent(s.LongExposurePct))
	fmt.Fprintf(&b, "| Short exposure | %s |\n", Percent(s.ShortExposurePct))
	fmt.Fprintf(&b, "| Net long | %s |\n", Percent(s.NetLongPct))
	fmt.Fprintf(&b, "| Gross exposure | %s |\n", Percent(s.GrossExposurePct))

	if len(s.Rows) == 0 {
		fmt.Fprintf(&b, "\nNo positions.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\n## Composition\n\n")
	fmt.Fprintln(&b, "| Ticker | Quantity | Last | Prev. close | Position | Day | Contribution | Weight | Target | Gap | Adjust |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|---:|---:|---:|---:|---:|")
	for _, r := range s.Rows {
		last, prev := Money(r.LastPrice, currency), Money(r.PreviousClose, currency)
		if !r.QuoteFound {
			last, prev = "no quote", "no quote"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Ticker,
			r.Quantity.String(),
			last,
			prev,
			Money(r.PositionValue, currency),
			SignedPercent(r.DailyChangePct),
			signedMoney(r.ContributionValue, currency),
			Percent(r.WeightPct),
			Percent(r.TargetWeight),
			SignedPercent(r.WeightGapPct),
			r.AdjustmentQuantity.StringFixed(2),
		)
	}
	return b.String()
}

// HistoryMarkdown renders recorded snapshots oldest first.
func HistoryMarkdown(points []models.HistoryPoint, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# History\n\n")
	if len(points) == 0 {
		fmt.Fprintln(&b, "No snapshots recorded yet.")
		return b.String()
	}
	fmt.Fprintln(&b, "| Time | NAV | Quota | Quota change | Net long | Gross |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|---:|---:|")
	for _, p := range points {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			p.ComputedAt.UTC().Format("2006-01-02 15:04"),
			Money(p.NetAssetValue, currency),
			p.CurrentQuotaValue.StringFixed(6),
			SignedPercent(p.QuotaChangePct),
			Percent(p.NetLongPct),
			Percent(p.GrossExposurePct),
		)
	}
	return b.String()
}
