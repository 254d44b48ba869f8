package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

// MarketData pairs a market identifier with its trade series. RunContinuous
// consumes these in the order given; callers sort markets chronologically.
type MarketData struct {
	MarketID string
	Trades   []core.Trade
}

// TickRecord captures the simulation state after processing one trade.
// PositionSize is negative while short, matching the sign convention of the
// per-tick output rows.
type TickRecord struct {
	Timestamp     time.Time       `json:"timestamp"`
	MarketID      string          `json:"market_id,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Equity        decimal.Decimal `json:"equity"`
	Cash          decimal.Decimal `json:"cash"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	PositionSize  decimal.Decimal `json:"position_size"`
	PositionSide  string          `json:"position_side"`
}

// Statistics summarizes a completed run.
type Statistics struct {
	StrategyName   string          `json:"strategy_name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	FinalEquity    decimal.Decimal `json:"final_equity"`
	TotalPnL       decimal.Decimal `json:"total_pnl"`
	TotalReturnPct float64         `json:"total_return_pct"`
	TotalTrades    int             `json:"total_trades"`
	WinningTrades  int             `json:"winning_trades"`
	LosingTrades   int             `json:"losing_trades"`
	WinRate        float64         `json:"win_rate"`
	MaxDrawdown    decimal.Decimal `json:"max_drawdown"`
	MaxDrawdownPct float64         `json:"max_drawdown_pct"`

	// SharpeRatio is nil when too few equity returns exist or their
	// spread is zero.
	SharpeRatio *float64 `json:"sharpe_ratio,omitempty"`
}

// Result is the complete output of a run: summary statistics, the executed
// trade log and the per-tick state rows.
type Result struct {
	Statistics Statistics           `json:"statistics"`
	Trades     []core.ExecutedTrade `json:"trades"`
	Records    []TickRecord         `json:"records"`
}
