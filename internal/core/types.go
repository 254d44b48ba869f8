package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an order or executed trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// PositionSide represents the direction of an open position.
type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
)

// OrderType represents how an order is priced.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
)

// Trade is a single historical market trade. Immutable input to the engine.
type Trade struct {
	Timestamp time.Time
	Price     decimal.Decimal
	MarketID  string
}

// IsValid checks if the trade has the fields the engine requires.
func (t Trade) IsValid() bool {
	return !t.Timestamp.IsZero() && t.Price.IsPositive()
}

// Order is an instruction produced by a strategy for the current tick only.
type Order struct {
	Side  Side
	Price decimal.Decimal
	Size  decimal.Decimal
	Type  OrderType
}

// Position is an open exposure owned by a strategy. At most one per strategy.
type Position struct {
	Side       PositionSide
	EntryPrice decimal.Decimal
	Size       decimal.Decimal
	EntryTime  time.Time
	EntryFee   decimal.Decimal
}

// ExecutedTrade records a fill, including realized PnL on closing fills.
type ExecutedTrade struct {
	Side      Side
	Price     decimal.Decimal
	Size      decimal.Decimal
	Timestamp time.Time
	PnL       decimal.Decimal
}

// IsWin returns true if the executed trade realized a profit.
func (t ExecutedTrade) IsWin() bool {
	return t.PnL.IsPositive()
}
