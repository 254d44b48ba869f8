package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/backtest"
	"github.com/polyquant/backtester/internal/core"
	"github.com/polyquant/backtester/internal/strategy"
)

// Request describes one backtest. Set ClobTokenID for a single market, or
// Topic plus AmountOfMarkets for a continuous multi-market run.
type Request struct {
	ClobTokenID     string          `json:"clob_token_id,omitempty"`
	Topic           string          `json:"topic,omitempty"`
	Strategy        strategy.Config `json:"strategy"`
	FeeRate         string          `json:"fee_rate,omitempty"`
	Limit           int             `json:"limit,omitempty"`
	AmountOfMarkets int             `json:"amount_of_markets,omitempty"`
}

// Validate checks the request shape before any data access.
func (r Request) Validate() error {
	if r.ClobTokenID == "" && r.Topic == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("either clob_token_id or topic must be provided"))
	}
	if r.Topic != "" && r.AmountOfMarkets < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("amount_of_markets is required for topic-based backtests"))
	}
	if r.Limit < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("limit cannot be negative, got %d", r.Limit))
	}
	if r.FeeRate != "" {
		fee, err := decimal.NewFromString(r.FeeRate)
		if err != nil || fee.IsNegative() || fee.GreaterThan(decimal.NewFromInt(1)) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("fee_rate must be a decimal in [0,1], got %q", r.FeeRate))
		}
	}
	return nil
}

// TradeRecord is one executed trade, decimals serialized as strings.
type TradeRecord struct {
	Side      string    `json:"side"`
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	Timestamp time.Time `json:"timestamp"`
	PnL       string    `json:"pnl"`
}

// StatisticsResponse mirrors backtest.Statistics with string decimals.
type StatisticsResponse struct {
	StrategyName   string        `json:"strategy_name"`
	InitialBalance string        `json:"initial_balance"`
	FinalEquity    string        `json:"final_equity"`
	TotalPnL       string        `json:"total_pnl"`
	TotalReturnPct float64       `json:"total_return_pct"`
	TotalTrades    int           `json:"total_trades"`
	WinningTrades  int           `json:"winning_trades"`
	LosingTrades   int           `json:"losing_trades"`
	WinRate        float64       `json:"win_rate"`
	MaxDrawdown    string        `json:"max_drawdown"`
	MaxDrawdownPct float64       `json:"max_drawdown_pct"`
	SharpeRatio    *float64      `json:"sharpe_ratio"`
	Trades         []TradeRecord `json:"trades"`
}

// Row is one per-tick state record with decimals as strings.
type Row struct {
	Timestamp     time.Time `json:"timestamp"`
	MarketID      string    `json:"market_id,omitempty"`
	Price         string    `json:"price"`
	Equity        string    `json:"equity"`
	Cash          string    `json:"cash"`
	RealizedPnL   string    `json:"realized_pnl"`
	UnrealizedPnL string    `json:"unrealized_pnl"`
	PositionSize  string    `json:"position_size"`
	PositionSide  string    `json:"position_side"`
}

// Response is the API-facing backtest result.
type Response struct {
	Success    bool               `json:"success"`
	Statistics StatisticsResponse `json:"statistics"`
	Rows       []Row              `json:"dataframe"`
	RowCount   int                `json:"row_count"`
	Columns    []string           `json:"columns"`
}

var rowColumns = []string{
	"timestamp", "market_id", "price", "equity", "cash",
	"realized_pnl", "unrealized_pnl", "position_size", "position_side",
}

func buildResponse(result *backtest.Result) *Response {
	stats := result.Statistics

	trades := make([]TradeRecord, len(result.Trades))
	for i, t := range result.Trades {
		trades[i] = TradeRecord{
			Side:      string(t.Side),
			Price:     t.Price.String(),
			Size:      t.Size.String(),
			Timestamp: t.Timestamp,
			PnL:       t.PnL.String(),
		}
	}

	rows := make([]Row, len(result.Records))
	for i, rec := range result.Records {
		rows[i] = Row{
			Timestamp:     rec.Timestamp,
			MarketID:      rec.MarketID,
			Price:         rec.Price.String(),
			Equity:        rec.Equity.String(),
			Cash:          rec.Cash.String(),
			RealizedPnL:   rec.RealizedPnL.String(),
			UnrealizedPnL: rec.UnrealizedPnL.String(),
			PositionSize:  rec.PositionSize.String(),
			PositionSide:  rec.PositionSide,
		}
	}

	return &Response{
		Success: true,
		Statistics: StatisticsResponse{
			StrategyName:   stats.StrategyName,
			InitialBalance: stats.InitialBalance.String(),
			FinalEquity:    stats.FinalEquity.String(),
			TotalPnL:       stats.TotalPnL.String(),
			TotalReturnPct: stats.TotalReturnPct,
			TotalTrades:    stats.TotalTrades,
			WinningTrades:  stats.WinningTrades,
			LosingTrades:   stats.LosingTrades,
			WinRate:        stats.WinRate,
			MaxDrawdown:    stats.MaxDrawdown.String(),
			MaxDrawdownPct: stats.MaxDrawdownPct,
			SharpeRatio:    stats.SharpeRatio,
			Trades:         trades,
		},
		Rows:     rows,
		RowCount: len(rows),
		Columns:  rowColumns,
	}
}
