package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"navboard/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownMetric   = errors.New("unknown account metric")
	ErrInvalidPosition = errors.New("invalid position")
)

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) GetPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT ticker, quantity, target_weight FROM portfolio_config ORDER BY ticker`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Position{}
	for rows.Next() {
		var p models.Position
		if err := rows.StructScan(&p); err != nil {
			r.log.Warnf("scan position failed: %v", err)
			continue
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *Repo) GetTickers(ctx context.Context) ([]string, error) {
	res := []string{}
	if err := r.db.SelectContext(ctx, &res, `SELECT ticker FROM portfolio_config ORDER BY ticker`); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Repo) UpsertPosition(ctx context.Context, p models.Position) error {
	q := `INSERT INTO portfolio_config (ticker, quantity, target_weight, updated_at) VALUES ($1, $2::numeric, $3::numeric, now())
		ON CONFLICT (ticker) DO UPDATE SET quantity = EXCLUDED.quantity, target_weight = EXCLUDED.target_weight, updated_at = now()`
	_, err := r.db.ExecContext(ctx, q, p.Ticker, p.Quantity.String(), p.TargetWeight.String())
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
		return fmt.Errorf("%w: %s", ErrInvalidPosition, pqErr.Message)
	}
	return err
}

func (r *Repo) DeletePosition(ctx context.Context, ticker string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM portfolio_config WHERE ticker = $1`, ticker)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("position %s: %w", ticker, ErrNotFound)
	}
	return nil
}

// GetQuotes returns every stored quote. Missing prices come back as zero.
func (r *Repo) GetQuotes(ctx context.Context) ([]models.Quote, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT ticker, COALESCE(last_price, 0) AS last_price, COALESCE(previous_close, 0) AS previous_close, updated_at FROM realtime_quotes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.Quote{}
	for rows.Next() {
		var q models.Quote
		if err := rows.StructScan(&q); err != nil {
			r.log.Warnf("scan quote failed: %v", err)
			continue
		}
		res = append(res, q)
	}
	return res, rows.Err()
}

func (r *Repo) UpsertQuote(ctx context.Context, q models.Quote) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO realtime_quotes (ticker, last_price, previous_close, updated_at) VALUES ($1, $2::numeric, $3::numeric, $4)
		ON CONFLICT (ticker) DO UPDATE SET last_price = EXCLUDED.last_price, previous_close = EXCLUDED.previous_close, updated_at = EXCLUDED.updated_at`,
		q.Ticker, q.LastPrice.String(), q.PreviousClose.String(), q.UpdatedAt)
	return err
}

func (r *Repo) GetAccountMetrics(ctx context.Context) (models.AccountMetrics, error) {
	var m models.AccountMetrics
	rows, err := r.db.QueryxContext(ctx, `SELECT key, value FROM portfolio_metrics`)
	if err != nil {
		return m, err
	}
	defer rows.Close()
	for rows.Next() {
		var row metricRow
		if err := rows.StructScan(&row); err != nil {
			r.log.Warnf("scan metric failed: %v", err)
			continue
		}
		if !m.Set(row.Key, row.Value) {
			r.log.Debugf("ignoring unknown metric %q", row.Key)
		}
	}
	return m, rows.Err()
}

func (r *Repo) SetAccountMetric(ctx context.Context, key string, value decimal.Decimal) error {
	if !models.IsMetricKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownMetric, key)
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO portfolio_metrics (key, value, updated_at) VALUES ($1, $2::numeric, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, key, value.String())
	return err
}

// InsertSnapshot appends the snapshot to portfolio_history and returns its id.
func (r *Repo) InsertSnapshot(ctx context.Context, s models.PortfolioSnapshot) (string, error) {
	payload, err := json.Marshal(s.Rows)
	if err != nil {
		return "", fmt.Errorf("encode snapshot rows: %w", err)
	}
	row := historyRow{
		ID:               uuid.NewString(),
		ComputedAt:       s.ComputedAt,
		NetAssetValue:    s.NetAssetValue,
		QuotaValue:       s.CurrentQuotaValue,
		QuotaChangePct:   s.QuotaChangePct,
		GrossExposurePct: s.GrossExposurePct,
		NetLongPct:       s.NetLongPct,
		Rows:             string(payload),
	}
	q := `INSERT INTO portfolio_history (id, computed_at, net_asset_value, quota_value, quota_change_pct, gross_exposure_pct, net_long_pct, rows)
		VALUES (:id, :computed_at, :net_asset_value, :quota_value, :quota_change_pct, :gross_exposure_pct, :net_long_pct, :rows)`
	if _, err := r.db.NamedExecContext(ctx, q, row); err != nil {
		return "", err
	}
	return row.ID, nil
}

// GetHistory returns up to limit recorded snapshots, oldest first.
func (r *Repo) GetHistory(ctx context.Context, limit int) ([]models.HistoryPoint, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, computed_at, net_asset_value, quota_value, quota_change_pct, gross_exposure_pct, net_long_pct
		FROM portfolio_history ORDER BY computed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []models.HistoryPoint{}
	for rows.Next() {
		var h models.HistoryPoint
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan history failed: %v", err)
			continue
		}
		res = append(res, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

// GetSnapshotRows returns the per-position rows stored with a history entry.
func (r *Repo) GetSnapshotRows(ctx context.Context, id string) ([]models.SnapshotRow, error) {
	var payload []byte
	if err := r.db.GetContext(ctx, &payload, `SELECT rows FROM portfolio_history WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	var rows []models.SnapshotRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode snapshot rows: %w", err)
	}
	return rows, nil
}
