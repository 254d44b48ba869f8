package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
)

var one = decimal.NewFromInt(1)

// Grid trades a ladder of price levels spaced geometrically around a base
// price fixed at the first trade. Crossing a level upward sells, crossing
// downward buys, so oscillation inside the range accumulates profit.
//
// If the price escapes the ladder without tripping protection, the grid
// re-bases at the current price. With a protection threshold configured,
// breaching that many levels below the ladder bottom force-liquidates the
// whole position and halts trading for the rest of the run. That guards
// against markets whose price runs to zero.
type Grid struct {
	base

	gridSize            int
	gridSpacing         decimal.Decimal
	orderSize           decimal.Decimal
	protectionThreshold *int

	basePrice           *decimal.Decimal
	lastLevel           *int
	protectionTriggered bool
}

// NewGrid creates a grid strategy. protectionThreshold of nil disables the
// protection rule.
func NewGrid(gridSize int, gridSpacing, orderSize, initialBalance decimal.Decimal, protectionThreshold *int) *Grid {
	return &Grid{
		base:                newBase(initialBalance),
		gridSize:            gridSize,
		gridSpacing:         gridSpacing,
		orderSize:           orderSize,
		protectionThreshold: protectionThreshold,
	}
}

func (g *Grid) Name() string { return "grid" }

func (g *Grid) OnStart() {
	g.basePrice = nil
	g.lastLevel = nil
	g.protectionTriggered = false
}

func (g *Grid) OnEnd() {}

func (g *Grid) Reset() {
	g.resetState()
	g.OnStart()
}

func (g *Grid) OnTrade(current core.Trade, history []core.Trade) ([]core.Order, error) {
	price := current.Price

	if g.protectionTriggered {
		return nil, nil
	}

	// First trade fixes the base price.
	if g.basePrice == nil {
		p := price
		g.basePrice = &p
		level := 0
		g.lastLevel = &level
		return nil, nil
	}

	rawLevel := g.rawLevel(price)

	// Protection outranks everything else this tick.
	if g.protectionThreshold != nil {
		protectionLevel := -(g.gridSize + *g.protectionThreshold)
		if rawLevel <= protectionLevel {
			g.protectionTriggered = true
			if g.state.Position != nil && g.state.Position.Size.IsPositive() {
				return []core.Order{{
					Side:  core.SideSell,
					Price: price,
					Size:  g.state.Position.Size,
					Type:  core.OrderMarket,
				}}, nil
			}
			return nil, nil
		}
	}

	// Price escaped the ladder: re-base around the current price.
	if rawLevel > g.gridSize || rawLevel < -g.gridSize {
		p := price
		g.basePrice = &p
		level := 0
		g.lastLevel = &level
		return nil, nil
	}

	var orders []core.Order
	if g.lastLevel != nil && rawLevel != *g.lastLevel {
		switch {
		case rawLevel > *g.lastLevel:
			// Moved up a level: sell while flat or long.
			if g.state.Flat() || g.state.Position.Side == core.PositionLong {
				orders = append(orders, core.Order{
					Side:  core.SideSell,
					Price: price,
					Size:  g.orderSize,
					Type:  core.OrderMarket,
				})
			}
		case rawLevel < *g.lastLevel:
			// Moved down a level: buy while flat or short.
			if g.state.Flat() || g.state.Position.Side == core.PositionShort {
				orders = append(orders, core.Order{
					Side:  core.SideBuy,
					Price: price,
					Size:  g.orderSize,
					Type:  core.OrderMarket,
				})
			}
		}
	}

	level := rawLevel
	g.lastLevel = &level
	return orders, nil
}

// Levels returns the current ladder prices from bottom to top, clamped to
// the [0, 1] prediction-market price domain. Nil before the first trade.
func (g *Grid) Levels() []decimal.Decimal {
	if g.basePrice == nil {
		return nil
	}
	levels := make([]decimal.Decimal, 0, 2*g.gridSize+1)
	for k := -g.gridSize; k <= g.gridSize; k++ {
		p := g.basePrice.Mul(one.Add(g.gridSpacing.Mul(decimal.NewFromInt(int64(k)))))
		if p.IsNegative() {
			p = decimal.Zero
		}
		if p.GreaterThan(one) {
			p = one
		}
		levels = append(levels, p)
	}
	return levels
}

// rawLevel maps a price to its unclamped ladder level relative to base.
// Truncates toward zero, matching the level the price has fully crossed.
func (g *Grid) rawLevel(price decimal.Decimal) int {
	ratio := price.Div(*g.basePrice).Sub(one)
	return int(ratio.Div(g.gridSpacing).IntPart())
}
