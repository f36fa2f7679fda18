package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navboard/internal/models"
)

type countingStore struct {
	mu     sync.Mutex
	quotes map[string]models.Quote
	reads  int
}

func (s *countingStore) GetQuotes(_ context.Context) ([]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	res := []models.Quote{}
	for _, q := range s.quotes {
		res = append(res, q)
	}
	return res, nil
}

func (s *countingStore) UpsertQuote(_ context.Context, q models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Ticker] = q
	return nil
}

func setupRedis(t *testing.T) *redis.Client {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL is not set; skipping redis tests")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Del(context.Background(), quotesKey).Err())
	return rdb
}

func TestCachedQuotes_ReadThroughAndInvalidate(t *testing.T) {
	runReadThrough(t, setupRedis(t))
}

func runReadThrough(t *testing.T, rdb redis.UniversalClient) {
	ctx := context.Background()
	primary := &countingStore{quotes: map[string]models.Quote{
		"WEGE3": {Ticker: "WEGE3", LastPrice: decimal.RequireFromString("41.2"), PreviousClose: decimal.RequireFromString("40.8")},
	}}
	c := NewCachedQuotes(primary, rdb, time.Minute, logrus.New())

	first, err := c.GetQuotes(ctx)
	require.NoError(t, err)
	second, err := c.GetQuotes(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, primary.reads, "second read served from redis")
	require.Len(t, second, 1)
	assert.True(t, first[0].LastPrice.Equal(second[0].LastPrice))

	require.NoError(t, c.UpsertQuote(ctx, models.Quote{Ticker: "WEGE3", LastPrice: decimal.RequireFromString("42")}))
	third, err := c.GetQuotes(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, primary.reads)
	require.Len(t, third, 1)
	assert.Equal(t, "42", third[0].LastPrice.String())
}

func TestCachedQuotes_UpsertSurvivesRedisOutage(t *testing.T) {
	// nothing listens on port 1
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { rdb.Close() })
	ctx := context.Background()
	primary := &countingStore{quotes: map[string]models.Quote{}}
	c := NewCachedQuotes(primary, rdb, time.Minute, logrus.New())

	require.NoError(t, c.UpsertQuote(ctx, models.Quote{Ticker: "RENT3", LastPrice: decimal.RequireFromString("55.1")}))
	assert.Contains(t, primary.quotes, "RENT3")
	assert.Error(t, c.Invalidate(ctx))

	quotes, err := c.GetQuotes(ctx)
	require.NoError(t, err, "reads fall back to the primary store")
	require.Len(t, quotes, 1)
	assert.Equal(t, "55.1", quotes[0].LastPrice.String())
}
