package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

const tradeTablePrefix = "hist_trades_"

// Per-market trade tables are named from the first 15 characters of the
// clob token id.
const tableSuffixLen = 15

var tableSuffixRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// PostgresConfig holds connection pool settings.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// Postgres implements Catalog over a PostgreSQL database.
type Postgres struct {
	db      *sqlx.DB
	timeout time.Duration
}

// OpenPostgres connects to the database and verifies the connection.
func OpenPostgres(cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("database DSN is required"))
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Postgres{db: db, timeout: timeout}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// Ping tests connectivity, for health checks.
func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.db.PingContext(ctx)
}

func (p *Postgres) Topics(ctx context.Context) ([]Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	topics := []Topic{}
	err := p.db.SelectContext(ctx, &topics,
		`SELECT id, name, continuous, created_at FROM topics ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

func (p *Postgres) TopicByName(ctx context.Context, name string) (*Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var topic Topic
	err := p.db.GetContext(ctx, &topic,
		`SELECT id, name, continuous, created_at FROM topics WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapError(core.ErrTopicNotFound,
			fmt.Errorf("topic %q", name))
	}
	if err != nil {
		return nil, fmt.Errorf("get topic %q: %w", name, err)
	}
	return &topic, nil
}

func (p *Postgres) RegisterTopic(ctx context.Context, name string, continuous bool) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var id int64
	err := p.db.QueryRowxContext(ctx, `
		INSERT INTO topics (name, continuous)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET continuous = EXCLUDED.continuous
		RETURNING id`, name, continuous).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("register topic %q: %w", name, err)
	}
	return id, nil
}

func (p *Postgres) Markets(ctx context.Context) ([]Market, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	markets := []Market{}
	err := p.db.SelectContext(ctx, &markets, `
		SELECT m.clob_token_id, m.market_slug, m.question, m.neg,
		       COALESCE(t.name, '') AS topic
		FROM hist_markets m
		LEFT JOIN topics t ON m.topic_id = t.id
		ORDER BY m.market_slug`)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	return markets, nil
}

func (p *Postgres) MarketsByTopic(ctx context.Context, topic string) ([]Market, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	markets := []Market{}
	err := p.db.SelectContext(ctx, &markets, `
		SELECT m.clob_token_id, m.market_slug, m.question, m.neg,
		       t.name AS topic
		FROM hist_markets m
		JOIN topics t ON m.topic_id = t.id
		WHERE t.name = $1
		ORDER BY m.market_slug`, topic)
	if err != nil {
		return nil, fmt.Errorf("list markets for topic %q: %w", topic, err)
	}
	return markets, nil
}

func (p *Postgres) Market(ctx context.Context, clobTokenID string) (*Market, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var market Market
	err := p.db.GetContext(ctx, &market, `
		SELECT m.clob_token_id, m.market_slug, m.question, m.neg,
		       COALESCE(t.name, '') AS topic
		FROM hist_markets m
		LEFT JOIN topics t ON m.topic_id = t.id
		WHERE m.clob_token_id = $1`, clobTokenID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.WrapError(core.ErrMarketNotFound,
			fmt.Errorf("market %q", clobTokenID))
	}
	if err != nil {
		return nil, fmt.Errorf("get market %q: %w", clobTokenID, err)
	}
	return &market, nil
}

func (p *Postgres) RegisterMarket(ctx context.Context, m Market) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO hist_markets (clob_token_id, market_slug, question, neg, topic_id)
		VALUES ($1, $2, $3, $4, (SELECT id FROM topics WHERE name = $5))
		ON CONFLICT (clob_token_id) DO UPDATE SET
			market_slug = EXCLUDED.market_slug,
			question    = EXCLUDED.question,
			neg         = EXCLUDED.neg,
			topic_id    = EXCLUDED.topic_id`,
		m.ClobTokenID, m.MarketSlug, m.Question, m.Neg, m.Topic)
	if err != nil {
		return fmt.Errorf("register market %q: %w", m.ClobTokenID, err)
	}
	return nil
}

func (p *Postgres) ContinuousMarkets(ctx context.Context, topic string, amount int) ([]Market, error) {
	markets, err := p.MarketsByTopic(ctx, topic)
	if err != nil {
		return nil, err
	}
	return sortMarketsBySlugTime(markets, amount), nil
}

func (p *Postgres) Trades(ctx context.Context, clobTokenID string, limit int) ([]core.Trade, error) {
	table, err := tradeTableName(clobTokenID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	query := fmt.Sprintf(
		`SELECT block_time, price FROM %s ORDER BY block_time ASC`, table)
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := p.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades for %q: %w", clobTokenID, err)
	}
	defer rows.Close()

	var trades []core.Trade
	for rows.Next() {
		var (
			blockTime time.Time
			price     decimal.Decimal
		)
		if err := rows.Scan(&blockTime, &price); err != nil {
			return nil, fmt.Errorf("scan trade for %q: %w", clobTokenID, err)
		}
		trades = append(trades, core.Trade{
			Timestamp: blockTime,
			Price:     price,
			MarketID:  clobTokenID,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades for %q: %w", clobTokenID, err)
	}
	return trades, nil
}

// tradeTableName derives the per-market table name. The suffix is
// restricted to word characters since it is interpolated into SQL.
func tradeTableName(clobTokenID string) (string, error) {
	suffix := clobTokenID
	if len(suffix) > tableSuffixLen {
		suffix = suffix[:tableSuffixLen]
	}
	if suffix == "" || !tableSuffixRe.MatchString(suffix) {
		return "", core.WrapError(core.ErrMarketNotFound,
			fmt.Errorf("invalid market id %q", clobTokenID))
	}
	return tradeTablePrefix + suffix, nil
}
