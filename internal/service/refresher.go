package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"navboard/internal/metrics"
	"navboard/internal/models"
)

type TickerSource interface {
	GetTickers(ctx context.Context) ([]string, error)
}

type QuoteWriter interface {
	UpsertQuote(ctx context.Context, q models.Quote) error
}

// Refresher pulls quotes for every held ticker and records a snapshot on
// each tick. Without a provider it only records, using whatever quotes
// were pushed through the API.
type Refresher struct {
	tickers  TickerSource
	quotes   QuoteWriter
	provider QuoteProvider
	valuator *Valuator
	log      *logrus.Logger
}

func NewRefresher(tickers TickerSource, quotes QuoteWriter, provider QuoteProvider, v *Valuator, log *logrus.Logger) *Refresher {
	return &Refresher{tickers: tickers, quotes: quotes, provider: provider, valuator: v, log: log}
}

// RefreshOnce runs a single fetch-and-record pass and returns the history
// id. A failed quote fetch keeps the stored quote for that ticker and does
// not fail the pass.
func (r *Refresher) RefreshOnce(ctx context.Context) (string, error) {
	if r.provider != nil {
		tickers, err := r.tickers.GetTickers(ctx)
		if err != nil {
			metrics.RefreshTotal.WithLabelValues("error").Inc()
			return "", fmt.Errorf("%w: tickers: %v", ErrUpstreamUnavailable, err)
		}
		for _, t := range tickers {
			q, err := r.provider.GetQuote(ctx, t)
			if err != nil {
				metrics.QuoteFetchErrors.WithLabelValues(t).Inc()
				r.log.WithField("ticker", t).Warnf("quote fetch failed: %v", err)
				continue
			}
			if err := r.quotes.UpsertQuote(ctx, q); err != nil {
				metrics.QuoteFetchErrors.WithLabelValues(t).Inc()
				r.log.WithField("ticker", t).Warnf("quote store failed: %v", err)
			}
		}
	}

	s, id, err := r.valuator.Record(ctx)
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.RefreshTotal.WithLabelValues("ok").Inc()
	r.log.WithFields(logrus.Fields{
		"id":        id,
		"nav":       s.NetAssetValue.StringFixed(2),
		"quota":     s.CurrentQuotaValue.StringFixed(6),
		"positions": len(s.Rows),
	}).Debug("snapshot recorded")
	return id, nil
}

// Start runs RefreshOnce every interval until ctx is done.
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				r.log.Info("refresher stopping")
				return
			case <-ticker.C:
				if _, err := r.RefreshOnce(ctx); err != nil {
					r.log.Warnf("refresh failed: %v", err)
				}
			}
		}
	}()
}
