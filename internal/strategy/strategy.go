// Package strategy defines the trading strategy contract driven by the
// backtest engine, and the built-in grid, momentum and rule-based strategies.
package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

// Strategy is the contract the backtest engine drives.
//
// OnTrade receives the current trade and the full history up to and including
// it, never anything later. The engine owns fills: strategies only emit
// orders, the engine mutates State when it executes them.
type Strategy interface {
	Name() string

	// OnStart is called once before a run, after state has been reset.
	OnStart()

	// OnTrade decides what orders to place for the current tick.
	OnTrade(current core.Trade, history []core.Trade) ([]core.Order, error)

	// OnEnd is called once after the last tick.
	OnEnd()

	// Reset restores the strategy to its initial state for a fresh run.
	Reset()

	// State exposes the strategy's mutable balance/position/trade log.
	State() *State

	// InitialBalance returns the configured starting balance.
	InitialBalance() decimal.Decimal
}

// State holds the mutable per-run state a strategy owns. The engine mutates
// it when executing orders; strategies read it to gate decisions.
type State struct {
	Balance  decimal.Decimal
	Position *core.Position
	Trades   []core.ExecutedTrade
}

// Flat reports whether no position is held.
func (s *State) Flat() bool { return s.Position == nil }

// RealizedPnL sums the realized PnL of all executed trades.
func (s *State) RealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Trades {
		total = total.Add(t.PnL)
	}
	return total
}

// base carries the state shared by every strategy implementation.
type base struct {
	initialBalance decimal.Decimal
	state          *State
}

func newBase(initialBalance decimal.Decimal) base {
	return base{
		initialBalance: initialBalance,
		state:          &State{Balance: initialBalance},
	}
}

func (b *base) State() *State                   { return b.state }
func (b *base) InitialBalance() decimal.Decimal { return b.initialBalance }

func (b *base) resetState() {
	b.state = &State{Balance: b.initialBalance}
}
