package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/polyquant/backtester/internal/core"
	"github.com/polyquant/backtester/internal/indicator"
	"github.com/polyquant/backtester/internal/rule"
)

// Custom is the rule-based strategy: a user-configured set of indicators
// combined with buy and sell rules evaluated each tick.
//
// Buy rules are consulted only while flat and sell rules only while long, so
// a configuration whose buy and sell rules overlap can never act on both in
// the same tick; position state decides which side is live.
type Custom struct {
	base

	manager   *indicator.Manager
	buyRules  []rule.Rule
	sellRules []rule.Rule
	orderSize decimal.Decimal

	prevValues rule.Values
}

// NewCustom builds a rule-based strategy from declarative configuration.
// All configuration errors surface here, before any simulation starts.
func NewCustom(indicators []indicator.Config, buyRules, sellRules []rule.Rule, orderSize, initialBalance decimal.Decimal) (*Custom, error) {
	if len(indicators) == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("custom strategy requires at least one indicator"))
	}

	manager := indicator.NewManager()
	for _, cfg := range indicators {
		ind, err := indicator.New(cfg)
		if err != nil {
			return nil, err
		}
		name := cfg.Name
		if name == "" {
			name = cfg.Type
		}
		if err := manager.Add(name, ind); err != nil {
			return nil, err
		}
	}

	series := manager.SeriesNames()
	if err := rule.Validate(buyRules, series); err != nil {
		return nil, err
	}
	if err := rule.Validate(sellRules, series); err != nil {
		return nil, err
	}

	return &Custom{
		base:      newBase(initialBalance),
		manager:   manager,
		buyRules:  buyRules,
		sellRules: sellRules,
		orderSize: orderSize,
	}, nil
}

func (c *Custom) Name() string { return "custom" }

func (c *Custom) OnStart() {
	c.manager.Reset()
	c.prevValues = nil
}

func (c *Custom) OnEnd() {}

func (c *Custom) Reset() {
	c.resetState()
	c.OnStart()
}

func (c *Custom) OnTrade(current core.Trade, history []core.Trade) ([]core.Order, error) {
	price := current.Price
	snapshot := c.manager.Update(price)

	// Hold until every indicator has warmed up.
	if !snapshot.AllReady() {
		return nil, nil
	}

	curr := make(rule.Values, len(snapshot.Values)+1)
	for name, v := range snapshot.Values {
		curr[name] = v
	}
	curr[rule.PriceSeries] = price

	var orders []core.Order
	if c.state.Flat() {
		if rule.Match(c.buyRules, curr, c.prevValues) {
			orders = append(orders, core.Order{
				Side:  core.SideBuy,
				Price: price,
				Size:  c.orderSize,
				Type:  core.OrderMarket,
			})
		}
	} else if c.state.Position.Side == core.PositionLong {
		if rule.Match(c.sellRules, curr, c.prevValues) {
			orders = append(orders, core.Order{
				Side:  core.SideSell,
				Price: price,
				Size:  c.orderSize,
				Type:  core.OrderMarket,
			})
		}
	}

	c.prevValues = curr
	return orders, nil
}

// IndicatorNames returns the configured indicator names in order.
func (c *Custom) IndicatorNames() []string {
	return c.manager.Names()
}
