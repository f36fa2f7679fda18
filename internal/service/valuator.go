package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"navboard/internal/metrics"
	"navboard/internal/models"
	"navboard/internal/valuation"
)

var (
	// ErrUpstreamUnavailable wraps any failure to read one of the feeds.
	ErrUpstreamUnavailable = errors.New("portfolio data unavailable")
	ErrInvalidFeed         = errors.New("invalid portfolio data")
)

type PositionFeed interface {
	GetPositions(ctx context.Context) ([]models.Position, error)
}

type QuoteFeed interface {
	GetQuotes(ctx context.Context) ([]models.Quote, error)
}

type MetricsFeed interface {
	GetAccountMetrics(ctx context.Context) (models.AccountMetrics, error)
}

// Feeds are the three inputs of a valuation pass.
type Feeds struct {
	Positions PositionFeed
	Quotes    QuoteFeed
	Metrics   MetricsFeed
}

type HistoryStore interface {
	InsertSnapshot(ctx context.Context, s models.PortfolioSnapshot) (string, error)
}

type Broadcaster interface {
	Broadcast(s models.PortfolioSnapshot)
}

type Valuator struct {
	feeds   Feeds
	history HistoryStore
	hub     Broadcaster
	log     *logrus.Logger
	now     func() time.Time
}

// NewValuator wires the feeds. history and hub may be nil.
func NewValuator(feeds Feeds, history HistoryStore, hub Broadcaster, log *logrus.Logger) *Valuator {
	return &Valuator{feeds: feeds, history: history, hub: hub, log: log, now: time.Now}
}

// Snapshot reads the feeds and values the portfolio.
func (v *Valuator) Snapshot(ctx context.Context) (models.PortfolioSnapshot, error) {
	positions, err := v.feeds.Positions.GetPositions(ctx)
	if err != nil {
		return models.PortfolioSnapshot{}, fmt.Errorf("%w: positions: %v", ErrUpstreamUnavailable, err)
	}
	quotes, err := v.feeds.Quotes.GetQuotes(ctx)
	if err != nil {
		return models.PortfolioSnapshot{}, fmt.Errorf("%w: quotes: %v", ErrUpstreamUnavailable, err)
	}
	acct, err := v.feeds.Metrics.GetAccountMetrics(ctx)
	if err != nil {
		return models.PortfolioSnapshot{}, fmt.Errorf("%w: account metrics: %v", ErrUpstreamUnavailable, err)
	}
	if err := valuation.Validate(positions); err != nil {
		return models.PortfolioSnapshot{}, fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}
	if len(positions) == 0 {
		v.log.Debug("portfolio has no positions, valuing cash only")
	}

	s := valuation.Compute(positions, quotes, acct)
	s.ComputedAt = v.now().UTC()
	metrics.ObserveSnapshot(s)
	return s, nil
}

// Record computes a snapshot, appends it to the history and pushes it to
// stream clients. It returns the history id, empty without a history store.
func (v *Valuator) Record(ctx context.Context) (models.PortfolioSnapshot, string, error) {
	s, err := v.Snapshot(ctx)
	if err != nil {
		return s, "", err
	}
	var id string
	if v.history != nil {
		if id, err = v.history.InsertSnapshot(ctx, s); err != nil {
			return s, "", fmt.Errorf("record snapshot: %w", err)
		}
	}
	if v.hub != nil {
		v.hub.Broadcast(s)
	}
	return s, id, nil
}
