package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navboard/internal/config"
	"navboard/internal/metrics"
	"navboard/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// memStore backs every feed and sink the service needs.
type memStore struct {
	mu        sync.Mutex
	positions []models.Position
	quotes    map[string]models.Quote
	acct      models.AccountMetrics
	history   []models.PortfolioSnapshot
	failWith  error
}

func newMemStore() *memStore {
	return &memStore{quotes: map[string]models.Quote{}}
}

func (m *memStore) GetPositions(ctx context.Context) ([]models.Position, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.positions, nil
}

func (m *memStore) GetTickers(ctx context.Context) ([]string, error) {
	var out []string
	for _, p := range m.positions {
		out = append(out, p.Ticker)
	}
	return out, nil
}

func (m *memStore) GetQuotes(ctx context.Context) ([]models.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Quote
	for _, q := range m.quotes {
		out = append(out, q)
	}
	return out, nil
}

func (m *memStore) UpsertQuote(ctx context.Context, q models.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes[q.Ticker] = q
	return nil
}

func (m *memStore) GetAccountMetrics(ctx context.Context) (models.AccountMetrics, error) {
	return m.acct, nil
}

func (m *memStore) InsertSnapshot(ctx context.Context, s models.PortfolioSnapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, s)
	return fmt.Sprintf("snap-%d", len(m.history)), nil
}

type captureHub struct {
	got []models.PortfolioSnapshot
}

func (h *captureHub) Broadcast(s models.PortfolioSnapshot) {
	h.got = append(h.got, s)
}

func feedsOf(m *memStore) Feeds {
	return Feeds{Positions: m, Quotes: m, Metrics: m}
}

func TestValuator_Snapshot(t *testing.T) {
	m := newMemStore()
	m.positions = []models.Position{{Ticker: "X", Quantity: d("100"), TargetWeight: d("0.5")}}
	m.quotes["X"] = models.Quote{Ticker: "X", LastPrice: d("10"), PreviousClose: d("8")}
	m.acct.Set(models.MetricQuotaCount, d("100"))

	v := NewValuator(feedsOf(m), nil, nil, logrus.New())
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return fixed }

	s, err := v.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, s.NetAssetValue.Equal(d("1000")))
	assert.True(t, s.CurrentQuotaValue.Equal(d("10")))
	assert.Equal(t, fixed, s.ComputedAt)
	assert.Equal(t, 1000.0, testutil.ToFloat64(metrics.NetAssetValue))
}

func TestValuator_SnapshotErrors(t *testing.T) {
	m := newMemStore()
	m.failWith = errors.New("connection refused")
	v := NewValuator(feedsOf(m), nil, nil, logrus.New())

	_, err := v.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	m.failWith = nil
	m.positions = []models.Position{{Ticker: "X", Quantity: d("1")}, {Ticker: "X", Quantity: d("2")}}
	_, err = v.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrInvalidFeed)
}

func TestValuator_Record(t *testing.T) {
	m := newMemStore()
	m.acct.Set(models.MetricGrossCash, d("500"))
	hub := &captureHub{}
	v := NewValuator(feedsOf(m), m, hub, logrus.New())

	s, id, err := v.Record(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snap-1", id)
	assert.True(t, s.NetAssetValue.Equal(d("500")))
	require.Len(t, m.history, 1)
	require.Len(t, hub.got, 1)
	assert.True(t, hub.got[0].NetAssetValue.Equal(d("500")))
}

func TestHTTPQuoteProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/PETR4"):
			fmt.Fprint(w, `{"results":[{"symbol":"PETR4","regularMarketPrice":38.12,"regularMarketPreviousClose":"37.50"}]}`)
		case strings.HasSuffix(r.URL.Path, "/NEW"):
			fmt.Fprint(w, `{"results":[{"symbol":"NEW","regularMarketPrice":10}]}`)
		case strings.HasSuffix(r.URL.Path, "/BAD"):
			fmt.Fprint(w, `{"results":[{"symbol":"BAD","regularMarketPrice":"n/a"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewHTTPQuoteProvider(config.QuoteProvider{
		URL:      srv.URL + "/quote/{ticker}",
		LastPath: "$.results[0].regularMarketPrice",
		PrevPath: "$.results[0].regularMarketPreviousClose",
	}, srv.Client())
	ctx := context.Background()

	q, err := p.GetQuote(ctx, "PETR4")
	require.NoError(t, err)
	assert.Equal(t, "PETR4", q.Ticker)
	assert.True(t, q.LastPrice.Equal(d("38.12")), q.LastPrice.String())
	assert.True(t, q.PreviousClose.Equal(d("37.50")))

	q, err = p.GetQuote(ctx, "NEW")
	require.NoError(t, err)
	assert.True(t, q.PreviousClose.IsZero())

	_, err = p.GetQuote(ctx, "BAD")
	assert.ErrorIs(t, err, ErrInvalidQuote)

	_, err = p.GetQuote(ctx, "MISSING")
	assert.Error(t, err)
}

type flakyProvider struct {
	prices map[string]string
}

func (f flakyProvider) GetQuote(ctx context.Context, ticker string) (models.Quote, error) {
	p, ok := f.prices[ticker]
	if !ok {
		return models.Quote{}, errors.New("upstream timeout")
	}
	return models.Quote{Ticker: ticker, LastPrice: d(p)}, nil
}

func TestRefresher_RefreshOnce(t *testing.T) {
	m := newMemStore()
	m.positions = []models.Position{
		{Ticker: "A", Quantity: d("10")},
		{Ticker: "B", Quantity: d("5")},
	}
	m.quotes["B"] = models.Quote{Ticker: "B", LastPrice: d("4")}
	m.acct.Set(models.MetricQuotaCount, d("10"))

	v := NewValuator(feedsOf(m), m, nil, logrus.New())
	r := NewRefresher(m, m, flakyProvider{prices: map[string]string{"A": "3"}}, v, logrus.New())

	before := testutil.ToFloat64(metrics.QuoteFetchErrors.WithLabelValues("B"))
	id, err := r.RefreshOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "snap-1", id)

	// B kept its stored quote
	require.Len(t, m.history, 1)
	assert.True(t, m.history[0].NetAssetValue.Equal(d("50")))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.QuoteFetchErrors.WithLabelValues("B")))
}

func TestRefresher_StartStops(t *testing.T) {
	m := newMemStore()
	v := NewValuator(feedsOf(m), m, nil, logrus.New())
	r := NewRefresher(m, m, nil, v, logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.history) >= 2
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
}
