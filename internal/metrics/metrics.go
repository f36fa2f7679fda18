// Package metrics provides Prometheus instrumentation for navboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"navboard/internal/models"
)

var (
	// NetAssetValue is the NAV of the last computed snapshot.
	NetAssetValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navboard_net_asset_value",
		Help: "Net asset value of the last computed snapshot",
	})

	QuotaValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navboard_quota_value",
		Help: "Quota value of the last computed snapshot",
	})

	// GrossExposure is |long| + |short| as a fraction of NAV.
	GrossExposure = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navboard_gross_exposure_ratio",
		Help: "Gross exposure of the last computed snapshot as a fraction of NAV",
	})

	PositionsWithoutQuote = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navboard_positions_without_quote",
		Help: "Positions valued at zero because no quote was found",
	})

	// RefreshTotal counts refresher passes by result ("ok", "error").
	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navboard_refresh_total",
		Help: "Refresh passes by result",
	}, []string{"result"})

	QuoteFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navboard_quote_fetch_errors_total",
		Help: "Quote provider failures by ticker",
	}, []string{"ticker"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navboard_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "navboard_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// ObserveSnapshot publishes the aggregate fields of s.
func ObserveSnapshot(s models.PortfolioSnapshot) {
	NetAssetValue.Set(s.NetAssetValue.InexactFloat64())
	QuotaValue.Set(s.CurrentQuotaValue.InexactFloat64())
	GrossExposure.Set(s.GrossExposurePct.InexactFloat64())
	missing := 0
	for _, r := range s.Rows {
		if !r.QuoteFound {
			missing++
		}
	}
	PositionsWithoutQuote.Set(float64(missing))
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// route pattern keeps the label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
