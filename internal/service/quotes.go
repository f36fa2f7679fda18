package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"navboard/internal/config"
	"navboard/internal/models"
)

var ErrInvalidQuote = errors.New("invalid quote")

type QuoteProvider interface {
	GetQuote(ctx context.Context, ticker string) (models.Quote, error)
}

// HTTPQuoteProvider reads one JSON document per ticker from a market-data
// endpoint and picks the prices out with JSONPath expressions.
type HTTPQuoteProvider struct {
	client   *http.Client
	url      string
	lastPath string
	prevPath string
}

func NewHTTPQuoteProvider(cfg config.QuoteProvider, client *http.Client) *HTTPQuoteProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPQuoteProvider{client: client, url: cfg.URL, lastPath: cfg.LastPath, prevPath: cfg.PrevPath}
}

func (p *HTTPQuoteProvider) GetQuote(ctx context.Context, ticker string) (models.Quote, error) {
	addr := strings.ReplaceAll(p.url, "{ticker}", url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return models.Quote{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return models.Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Quote{}, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var doc any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return models.Quote{}, fmt.Errorf("decode quote for %s: %w", ticker, err)
	}

	last, err := lookupDecimal(doc, p.lastPath)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %s last price %q: %v", ErrInvalidQuote, ticker, p.lastPath, err)
	}
	q := models.Quote{Ticker: ticker, LastPrice: last, UpdatedAt: time.Now().UTC()}
	if p.prevPath != "" {
		// a missing previous close is stored as zero, not rejected
		if prev, err := lookupDecimal(doc, p.prevPath); err == nil {
			q.PreviousClose = prev
		}
	}
	return q, nil
}

func lookupDecimal(doc any, path string) (decimal.Decimal, error) {
	jval, err := jsonpath.Get(path, doc)
	if err != nil {
		return decimal.Zero, err
	}
	// jsonpath may answer a list of one for filter expressions
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return decimal.Zero, errors.New("no match")
		}
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", jval)
	}
}
