// Package backtest runs strategies against historical trade data. The loop
// is strictly causal: at tick i the strategy sees trades[0..i] and nothing
// later.
package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
	"github.com/polyquant/backtester/internal/strategy"
)

// DefaultFeeRate is the trading fee applied when none is configured
// (0.001 = 0.1% per fill).
var DefaultFeeRate = decimal.NewFromFloat(0.001)

// Backtester drives a strategy over historical trades and accounts for
// fills, fees and equity.
type Backtester struct {
	feeRate decimal.Decimal
}

// New creates a backtester charging the given fee rate per fill.
func New(feeRate decimal.Decimal) *Backtester {
	return &Backtester{feeRate: feeRate}
}

// Run executes a single-market backtest. The input is sorted by timestamp
// before the loop, so unsorted input cannot introduce look-ahead. An empty
// series yields a zero-activity result.
func (b *Backtester) Run(ctx context.Context, strat strategy.Strategy, trades []core.Trade) (*Result, error) {
	sorted := sortTrades(trades)
	strat.Reset()
	strat.OnStart()

	records := make([]TickRecord, 0, len(sorted))
	for i := range sorted {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := b.step(strat, sorted, i, "", &records); err != nil {
			return nil, err
		}
	}

	strat.OnEnd()
	return b.buildResult(strat, records), nil
}

// RunContinuous executes a backtest across sequential markets. Any open
// position is force-closed at each market boundary, realizing its PnL, and
// the balance carries into the next market.
func (b *Backtester) RunContinuous(ctx context.Context, strat strategy.Strategy, markets []MarketData) (*Result, error) {
	if len(markets) == 0 {
		return nil, core.WrapError(core.ErrInputData,
			fmt.Errorf("no market data provided"))
	}

	strat.Reset()
	strat.OnStart()

	var records []TickRecord
	for _, market := range markets {
		if len(market.Trades) == 0 {
			continue
		}
		sorted := sortTrades(market.Trades)

		for i := range sorted {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			if err := b.step(strat, sorted, i, market.MarketID, &records); err != nil {
				return nil, err
			}
		}

		last := sorted[len(sorted)-1]
		if !strat.State().Flat() {
			b.forceClose(strat, last.Price, last.Timestamp)
			// The boundary tick's record reflects the closed position.
			records[len(records)-1] = b.record(strat, last, market.MarketID)
		}
	}

	strat.OnEnd()
	return b.buildResult(strat, records), nil
}

// step processes one tick: strategy decision, order execution, state record.
func (b *Backtester) step(strat strategy.Strategy, sorted []core.Trade, i int, marketID string, records *[]TickRecord) error {
	current := sorted[i]
	history := sorted[:i+1]

	orders, err := strat.OnTrade(current, history)
	if err != nil {
		return core.WrapError(core.ErrSimulationFailed,
			fmt.Errorf("strategy %s failed at tick %d (%s): %w",
				strat.Name(), i, current.Timestamp.Format(time.RFC3339), err))
	}

	for _, order := range orders {
		b.executeOrder(strat, order, current.Price, current.Timestamp)
	}

	*records = append(*records, b.record(strat, current, marketID))
	return nil
}

// executeOrder fills an order against the current tick and updates strategy
// state. Market orders fill at the tick price, limit orders at their own.
// A buy while long or a sell while short is ignored; position changes only
// move between flat, long and short.
func (b *Backtester) executeOrder(strat strategy.Strategy, order core.Order, currentPrice decimal.Decimal, currentTime time.Time) {
	execPrice := currentPrice
	if order.Type == core.OrderLimit {
		execPrice = order.Price
	}
	fee := execPrice.Mul(order.Size).Mul(b.feeRate)
	state := strat.State()

	switch order.Side {
	case core.SideBuy:
		switch {
		case state.Flat():
			cost := execPrice.Mul(order.Size).Add(fee)
			state.Balance = state.Balance.Sub(cost)
			state.Position = &core.Position{
				Side:       core.PositionLong,
				EntryPrice: execPrice,
				Size:       order.Size,
				EntryTime:  currentTime,
				EntryFee:   fee,
			}

		case state.Position.Side == core.PositionShort:
			pos := state.Position
			pnl := pos.EntryPrice.Sub(execPrice).Mul(pos.Size).Sub(pos.EntryFee).Sub(fee)
			state.Trades = append(state.Trades, core.ExecutedTrade{
				Side:      core.SideBuy,
				Price:     execPrice,
				Size:      pos.Size,
				Timestamp: currentTime,
				PnL:       pnl,
			})
			state.Balance = state.Balance.Sub(execPrice.Mul(pos.Size).Add(fee))
			state.Position = nil
		}

	case core.SideSell:
		switch {
		case state.Flat():
			proceeds := execPrice.Mul(order.Size).Sub(fee)
			state.Balance = state.Balance.Add(proceeds)
			state.Position = &core.Position{
				Side:       core.PositionShort,
				EntryPrice: execPrice,
				Size:       order.Size,
				EntryTime:  currentTime,
				EntryFee:   fee,
			}

		case state.Position.Side == core.PositionLong:
			pos := state.Position
			pnl := execPrice.Sub(pos.EntryPrice).Mul(pos.Size).Sub(pos.EntryFee).Sub(fee)
			state.Trades = append(state.Trades, core.ExecutedTrade{
				Side:      core.SideSell,
				Price:     execPrice,
				Size:      pos.Size,
				Timestamp: currentTime,
				PnL:       pnl,
			})
			state.Balance = state.Balance.Add(execPrice.Mul(pos.Size).Sub(fee))
			state.Position = nil
		}
	}
}

// forceClose exits any open position at the given price, realizing its PnL.
// Used at continuous-market boundaries.
func (b *Backtester) forceClose(strat strategy.Strategy, price decimal.Decimal, at time.Time) {
	state := strat.State()
	if state.Flat() {
		return
	}

	pos := state.Position
	fee := price.Mul(pos.Size).Mul(b.feeRate)

	if pos.Side == core.PositionLong {
		pnl := price.Sub(pos.EntryPrice).Mul(pos.Size).Sub(pos.EntryFee).Sub(fee)
		state.Trades = append(state.Trades, core.ExecutedTrade{
			Side:      core.SideSell,
			Price:     price,
			Size:      pos.Size,
			Timestamp: at,
			PnL:       pnl,
		})
		state.Balance = state.Balance.Add(price.Mul(pos.Size).Sub(fee))
	} else {
		pnl := pos.EntryPrice.Sub(price).Mul(pos.Size).Sub(pos.EntryFee).Sub(fee)
		state.Trades = append(state.Trades, core.ExecutedTrade{
			Side:      core.SideBuy,
			Price:     price,
			Size:      pos.Size,
			Timestamp: at,
			PnL:       pnl,
		})
		state.Balance = state.Balance.Sub(price.Mul(pos.Size).Add(fee))
	}
	state.Position = nil
}

// equity is cash plus position market value: long positions add
// price * size, short positions owe price * size to close.
func (b *Backtester) equity(state *strategy.State, price decimal.Decimal) decimal.Decimal {
	eq := state.Balance
	if state.Position != nil {
		value := price.Mul(state.Position.Size)
		if state.Position.Side == core.PositionLong {
			eq = eq.Add(value)
		} else {
			eq = eq.Sub(value)
		}
	}
	return eq
}

func (b *Backtester) record(strat strategy.Strategy, trade core.Trade, marketID string) TickRecord {
	state := strat.State()
	if marketID == "" {
		marketID = trade.MarketID
	}
	rec := TickRecord{
		Timestamp:    trade.Timestamp,
		MarketID:     marketID,
		Price:        trade.Price,
		Equity:       b.equity(state, trade.Price),
		Cash:         state.Balance,
		RealizedPnL:  state.RealizedPnL(),
		PositionSide: "flat",
	}

	if pos := state.Position; pos != nil {
		rec.PositionSide = string(pos.Side)
		if pos.Side == core.PositionLong {
			rec.PositionSize = pos.Size
			rec.UnrealizedPnL = trade.Price.Sub(pos.EntryPrice).Mul(pos.Size)
		} else {
			rec.PositionSize = pos.Size.Neg()
			rec.UnrealizedPnL = pos.EntryPrice.Sub(trade.Price).Mul(pos.Size)
		}
	}
	return rec
}

func (b *Backtester) buildResult(strat strategy.Strategy, records []TickRecord) *Result {
	return &Result{
		Statistics: buildStatistics(strat, records),
		Trades:     strat.State().Trades,
		Records:    records,
	}
}

// sortTrades returns a copy sorted by timestamp. Stable so trades sharing a
// timestamp keep their input order.
func sortTrades(trades []core.Trade) []core.Trade {
	sorted := make([]core.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
