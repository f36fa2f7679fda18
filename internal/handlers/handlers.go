package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"navboard/internal/database"
	"navboard/internal/models"
	"navboard/internal/render"
	"navboard/internal/service"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// Store is the subset of database.Repo the API edits and lists.
type Store interface {
	Ping(ctx context.Context) error
	GetPositions(ctx context.Context) ([]models.Position, error)
	UpsertPosition(ctx context.Context, p models.Position) error
	DeletePosition(ctx context.Context, ticker string) error
	GetAccountMetrics(ctx context.Context) (models.AccountMetrics, error)
	SetAccountMetric(ctx context.Context, key string, value decimal.Decimal) error
	GetHistory(ctx context.Context, limit int) ([]models.HistoryPoint, error)
	GetSnapshotRows(ctx context.Context, id string) ([]models.SnapshotRow, error)
}

type Snapshotter interface {
	Snapshot(ctx context.Context) (models.PortfolioSnapshot, error)
}

type RefreshRunner interface {
	RefreshOnce(ctx context.Context) (string, error)
}

type Handler struct {
	store     Store
	quotes    service.QuoteWriter
	valuator  Snapshotter
	refresher RefreshRunner
	currency  string
	log       *logrus.Logger
}

// NewHandler takes quotes separately so manual quote writes go through the
// cache when one is configured.
func NewHandler(s Store, q service.QuoteWriter, v Snapshotter, rf RefreshRunner, currency string, log *logrus.Logger) *Handler {
	return &Handler{store: s, quotes: q, valuator: v, refresher: rf, currency: currency, log: log}
}

// Register mounts the portfolio routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/snapshot", h.GetSnapshot)
	r.POST("/refresh", h.PostRefresh)
	r.GET("/history", h.GetHistory)
	r.GET("/history/:id", h.GetHistoryRows)
	r.GET("/positions", h.GetPositions)
	r.PUT("/positions/:ticker", h.PutPosition)
	r.DELETE("/positions/:ticker", h.DeletePosition)
	r.PUT("/quotes/:ticker", h.PutQuote)
	r.GET("/account-metrics", h.GetAccountMetrics)
	r.PUT("/account-metrics/:key", h.PutAccountMetric)
}

type PositionRequest struct {
	Quantity     string `json:"quantity" binding:"required"`
	TargetWeight string `json:"target_weight"`
}

type QuoteRequest struct {
	LastPrice     string `json:"last_price" binding:"required"`
	PreviousClose string `json:"previous_close"`
}

type MetricRequest struct {
	Value string `json:"value" binding:"required"`
}

// fail maps err to a status code and writes the error body.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrUnknownMetric), errors.Is(err, database.ErrInvalidPosition):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidFeed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrUpstreamUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.log.Errorf("%s failed: %v", op, err)
	} else {
		h.log.Warnf("%s rejected: %v", op, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func tickerParam(c *gin.Context) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if t == "" {
		badRequest(c, "ticker must not be empty")
		return "", false
	}
	return t, true
}

// optionalDecimal parses s, treating an empty string as zero.
func optionalDecimal(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

func wantsMarkdown(c *gin.Context) bool {
	return c.Query("format") == "markdown"
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warnf("health check: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetSnapshot(c *gin.Context) {
	s, err := h.valuator.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, "snapshot", err)
		return
	}
	if wantsMarkdown(c) {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(render.Markdown(s, h.currency)))
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) PostRefresh(c *gin.Context) {
	if h.refresher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "refresher not configured"})
		return
	}
	id, err := h.refresher.RefreshOnce(c.Request.Context())
	if err != nil {
		h.fail(c, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot_id": id})
}

func (h *Handler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	points, err := h.store.GetHistory(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "get history", err)
		return
	}
	if wantsMarkdown(c) {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(render.HistoryMarkdown(points, h.currency)))
		return
	}
	if points == nil {
		points = []models.HistoryPoint{}
	}
	c.JSON(http.StatusOK, points)
}

// GetHistoryRows returns the composition stored with one history entry.
func (h *Handler) GetHistoryRows(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		badRequest(c, "invalid snapshot id")
		return
	}
	rows, err := h.store.GetSnapshotRows(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get snapshot rows", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "rows": rows})
}

func (h *Handler) GetPositions(c *gin.Context) {
	ps, err := h.store.GetPositions(c.Request.Context())
	if err != nil {
		h.fail(c, "get positions", err)
		return
	}
	if ps == nil {
		ps = []models.Position{}
	}
	c.JSON(http.StatusOK, ps)
}

func (h *Handler) PutPosition(c *gin.Context) {
	ticker, ok := tickerParam(c)
	if !ok {
		return
	}
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid position body: %v", err)
		badRequest(c, err.Error())
		return
	}
	q, err := decimal.NewFromString(strings.TrimSpace(req.Quantity))
	if err != nil {
		badRequest(c, "invalid quantity format")
		return
	}
	w, err := optionalDecimal(req.TargetWeight)
	if err != nil {
		badRequest(c, "invalid target_weight format")
		return
	}

	p := models.Position{Ticker: ticker, Quantity: q, TargetWeight: w}
	if err := h.store.UpsertPosition(c.Request.Context(), p); err != nil {
		h.fail(c, "upsert position", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePosition(c *gin.Context) {
	ticker, ok := tickerParam(c)
	if !ok {
		return
	}
	if err := h.store.DeletePosition(c.Request.Context(), ticker); err != nil {
		h.fail(c, "delete position", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "ticker": ticker})
}

func (h *Handler) PutQuote(c *gin.Context) {
	ticker, ok := tickerParam(c)
	if !ok {
		return
	}
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid quote body: %v", err)
		badRequest(c, err.Error())
		return
	}
	last, err := decimal.NewFromString(strings.TrimSpace(req.LastPrice))
	if err != nil || last.IsNegative() {
		badRequest(c, "last_price must be a non-negative number")
		return
	}
	prev, err := optionalDecimal(req.PreviousClose)
	if err != nil || prev.IsNegative() {
		badRequest(c, "previous_close must be a non-negative number")
		return
	}

	q := models.Quote{Ticker: ticker, LastPrice: last, PreviousClose: prev, UpdatedAt: time.Now().UTC()}
	if err := h.quotes.UpsertQuote(c.Request.Context(), q); err != nil {
		h.fail(c, "upsert quote", err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetAccountMetrics returns the stored values (null when unset) and the
// values valuation actually uses.
func (h *Handler) GetAccountMetrics(c *gin.Context) {
	m, err := h.store.GetAccountMetrics(c.Request.Context())
	if err != nil {
		h.fail(c, "get account metrics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": m, "effective": m.Resolve()})
}

func (h *Handler) PutAccountMetric(c *gin.Context) {
	key := c.Param("key")
	if !models.IsMetricKey(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown account metric", "known": models.MetricKeys})
		return
	}
	var req MetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	v, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil {
		badRequest(c, "invalid value format")
		return
	}
	if err := h.store.SetAccountMetric(c.Request.Context(), key, v); err != nil {
		h.fail(c, "set account metric", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": v})
}
