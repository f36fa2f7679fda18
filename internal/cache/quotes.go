// Package cache puts a Redis read-through cache in front of the quote feed.
// The database stays the source of truth: writes go there first and then
// invalidate the cached copy.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"navboard/internal/models"
)

const quotesKey = "navboard:quotes"

type QuoteStore interface {
	GetQuotes(ctx context.Context) ([]models.Quote, error)
	UpsertQuote(ctx context.Context, q models.Quote) error
}

type CachedQuotes struct {
	primary QuoteStore
	rdb     redis.UniversalClient
	ttl     time.Duration
	log     *logrus.Logger
}

func NewCachedQuotes(primary QuoteStore, rdb redis.UniversalClient, ttl time.Duration, log *logrus.Logger) *CachedQuotes {
	return &CachedQuotes{primary: primary, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedQuotes) GetQuotes(ctx context.Context) ([]models.Quote, error) {
	data, err := c.rdb.Get(ctx, quotesKey).Bytes()
	if err == nil {
		var quotes []models.Quote
		if json.Unmarshal(data, &quotes) == nil {
			return quotes, nil
		}
	} else if err != redis.Nil {
		c.log.Warnf("quote cache read failed: %v", err)
	}

	quotes, err := c.primary.GetQuotes(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(quotes); err == nil {
		if err := c.rdb.Set(ctx, quotesKey, data, c.ttl).Err(); err != nil {
			c.log.Warnf("quote cache write failed: %v", err)
		}
	}
	return quotes, nil
}

// UpsertQuote writes through to the primary store. A failed invalidation is
// logged only: the quote is stored and the cached copy expires within ttl.
func (c *CachedQuotes) UpsertQuote(ctx context.Context, q models.Quote) error {
	if err := c.primary.UpsertQuote(ctx, q); err != nil {
		return err
	}
	if err := c.Invalidate(ctx); err != nil {
		c.log.WithField("ticker", q.Ticker).Warnf("quote cache invalidate failed: %v", err)
	}
	return nil
}

// Invalidate drops the cached quote list; the next read repopulates it.
func (c *CachedQuotes) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, quotesKey).Err()
}
