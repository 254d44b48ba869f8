package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

// Momentum follows the price trend over a rolling lookback window.
// Momentum above the threshold goes long, below the negated threshold goes
// short; anything between holds. No orders until the window is filled.
type Momentum struct {
	base

	lookbackWindow    int
	momentumThreshold decimal.Decimal
	orderSize         decimal.Decimal
}

// NewMomentum creates a momentum strategy.
func NewMomentum(lookbackWindow int, momentumThreshold, orderSize, initialBalance decimal.Decimal) *Momentum {
	return &Momentum{
		base:              newBase(initialBalance),
		lookbackWindow:    lookbackWindow,
		momentumThreshold: momentumThreshold,
		orderSize:         orderSize,
	}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) OnStart() {}
func (m *Momentum) OnEnd()   {}

func (m *Momentum) Reset() {
	m.resetState()
	m.OnStart()
}

func (m *Momentum) OnTrade(current core.Trade, history []core.Trade) ([]core.Order, error) {
	if len(history) < m.lookbackWindow {
		return nil, nil
	}

	price := current.Price
	lookbackPrice := history[len(history)-m.lookbackWindow].Price
	momentum := price.Sub(lookbackPrice).Div(lookbackPrice)

	switch {
	case momentum.GreaterThan(m.momentumThreshold):
		// Positive momentum: open long, or buy back a short.
		if m.state.Flat() || m.state.Position.Side == core.PositionShort {
			return []core.Order{{
				Side:  core.SideBuy,
				Price: price,
				Size:  m.orderSize,
				Type:  core.OrderMarket,
			}}, nil
		}

	case momentum.LessThan(m.momentumThreshold.Neg()):
		// Negative momentum: open short, or sell out of a long.
		if m.state.Flat() || m.state.Position.Side == core.PositionLong {
			return []core.Order{{
				Side:  core.SideSell,
				Price: price,
				Size:  m.orderSize,
				Type:  core.OrderMarket,
			}}, nil
		}
	}

	return nil, nil
}
