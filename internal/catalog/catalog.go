// Package catalog is the market data layer: topics, their markets and the
// per-market historical trade tables.
package catalog

import (
	"context"
	"time"

	"github.com/polyquant/backtester/internal/core"
)

// Topic groups markets. Continuous topics hold sequential short-lived
// markets whose slugs carry the market open timestamp.
type Topic struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Continuous bool      `db:"continuous" json:"continuous"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Market identifies one tradeable market. ClobTokenID is the primary key
// and names the market's trade table.
type Market struct {
	ClobTokenID string `db:"clob_token_id" json:"clob_token_id"`
	MarketSlug  string `db:"market_slug" json:"market_slug"`
	Question    string `db:"question" json:"question"`
	Neg         bool   `db:"neg" json:"neg"`
	Topic       string `db:"topic" json:"topic,omitempty"`
}

// Catalog is the read/write surface the service layer depends on.
type Catalog interface {
	Topics(ctx context.Context) ([]Topic, error)
	TopicByName(ctx context.Context, name string) (*Topic, error)
	RegisterTopic(ctx context.Context, name string, continuous bool) (int64, error)

	Markets(ctx context.Context) ([]Market, error)
	MarketsByTopic(ctx context.Context, topic string) ([]Market, error)
	Market(ctx context.Context, clobTokenID string) (*Market, error)
	RegisterMarket(ctx context.Context, m Market) error

	// ContinuousMarkets returns a continuous topic's markets ordered by
	// the timestamp parsed from their slugs, oldest first. amount > 0
	// keeps only the most recent that many markets.
	ContinuousMarkets(ctx context.Context, topic string, amount int) ([]Market, error)

	// Trades returns a market's trades in ascending block time.
	// limit <= 0 means all.
	Trades(ctx context.Context, clobTokenID string, limit int) ([]core.Trade, error)
}
