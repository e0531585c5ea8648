package repository

import (
	"context"

	"ticker-tape/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createBarsTable = `
CREATE TABLE IF NOT EXISTS bars (
    ticker       TEXT    NOT NULL,
    bar_date     BIGINT  NOT NULL,
    open         NUMERIC NOT NULL,
    high         NUMERIC NOT NULL,
    low          NUMERIC NOT NULL,
    close        NUMERIC NOT NULL,
    volume       NUMERIC NOT NULL,
    vwap         NUMERIC,
    transactions BIGINT,
    PRIMARY KEY (ticker, bar_date)
);

CREATE INDEX IF NOT EXISTS idx_bars_ticker_date
    ON bars (ticker, bar_date DESC);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BarRepository archives fetched daily bars in Postgres. The cache holds only
// the latest run; the archive keeps history across runs.
type BarRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBarRepository(pool PgxPool, tracer trace.Tracer) *BarRepository {
	return &BarRepository{pool: pool, tracer: tracer}
}

func (r *BarRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "bar-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createBarsTable)
	return err
}

func (r *BarRepository) UpsertBars(ctx context.Context, ticker string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "bar-repo.upsert-bars")
	defer span.End()

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(
			`INSERT INTO bars (ticker, bar_date, open, high, low, close, volume, vwap, transactions)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (ticker, bar_date) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume,
			     vwap = EXCLUDED.vwap,
			     transactions = EXCLUDED.transactions`,
			ticker, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume, b.VWAP, b.Transactions,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range bars {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *BarRepository) GetBarsInRange(ctx context.Context, ticker string, fromMs, toMs int64) ([]domain.Bar, error) {
	_, span := r.tracer.Start(ctx, "bar-repo.get-bars-in-range")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT bar_date, open, high, low, close, volume, vwap, transactions
		 FROM bars
		 WHERE ticker = $1 AND bar_date >= $2 AND bar_date <= $3
		 ORDER BY bar_date ASC`,
		ticker, fromMs, toMs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.VWAP, &b.Transactions); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
